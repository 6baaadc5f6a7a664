// Package magmavol embeds the H2O-CO2 volatile solubility searches in a Go
// program. Calculations run against a remote equilibrium service or any
// in-process Solver, optionally behind an equilibrium cache in Valkey, Redis
// or SQLite.
//
//	client, _ := magmavol.New(ctx,
//	    magmavol.WithSolverURL("http://localhost:8090"),
//	    magmavol.WithValkey("localhost:6379", ""),
//	)
//	defer client.Close()
//
//	sample := magmavol.Sample{Values: map[string]float64{
//	    "SiO2": 50, "Al2O3": 15, "MgO": 9, "H2O": 3, "CO2": 0.5,
//	}}
//	res, _ := client.SaturationPressure(ctx, sample, 1200)
//	fmt.Println(res.PressureBars)
//
// Sweeps return plain row tables:
//
//	tables, _ := client.Isobars(ctx, sample, magmavol.IsobarRequest{
//	    TemperatureC:  1200,
//	    PressuresBars: []float64{1000, 2000, 3000},
//	})
package magmavol
