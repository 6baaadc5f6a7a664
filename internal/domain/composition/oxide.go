package composition

// Oxide is a recognized major-element oxide or volatile species.
type Oxide string

// Recognized oxides. The order of Oxides is the canonical iteration order.
const (
	SiO2  Oxide = "SiO2"
	TiO2  Oxide = "TiO2"
	Al2O3 Oxide = "Al2O3"
	Fe2O3 Oxide = "Fe2O3"
	Cr2O3 Oxide = "Cr2O3"
	FeO   Oxide = "FeO"
	MnO   Oxide = "MnO"
	MgO   Oxide = "MgO"
	NiO   Oxide = "NiO"
	CoO   Oxide = "CoO"
	CaO   Oxide = "CaO"
	Na2O  Oxide = "Na2O"
	K2O   Oxide = "K2O"
	P2O5  Oxide = "P2O5"
	H2O   Oxide = "H2O"
	CO2   Oxide = "CO2"
)

// OxygenMass is the atomic weight of oxygen used for formula weights.
const OxygenMass = 15.999

// Species holds the static reference data for one oxide.
type Species struct {
	Oxide      Oxide
	MolarMass  float64 // g/mol of the oxide formula unit
	Cation     string
	CationMass float64 // g/mol of the cation
	Cations    float64 // cations per formula unit
	Oxygens    float64 // oxygens per formula unit
}

// Oxides lists every recognized oxide in canonical order.
var Oxides = []Oxide{SiO2, TiO2, Al2O3, Fe2O3, Cr2O3, FeO, MnO, MgO, NiO, CoO, CaO, Na2O, K2O, P2O5, H2O, CO2}

var species = map[Oxide]Species{
	SiO2:  {SiO2, 28.085 + 32, "Si", 28.085, 1, 2},
	TiO2:  {TiO2, 47.867 + 32, "Ti", 47.867, 1, 2},
	Al2O3: {Al2O3, 2*26.982 + 3*16, "Al", 26.982, 2, 3},
	Fe2O3: {Fe2O3, 2*55.845 + 3*16, "Fe3", 55.845, 2, 3},
	Cr2O3: {Cr2O3, 2*51.996 + 3*16, "Cr", 51.996, 2, 3},
	FeO:   {FeO, 55.845 + 16, "Fe", 55.845, 1, 1},
	MnO:   {MnO, 54.938 + 16, "Mn", 54.938, 1, 1},
	MgO:   {MgO, 24.305 + 16, "Mg", 24.305, 1, 1},
	NiO:   {NiO, 58.693 + 16, "Ni", 58.693, 1, 1},
	CoO:   {CoO, 58.933 + 16, "Co", 58.933, 1, 1},
	CaO:   {CaO, 40.078 + 16, "Ca", 40.078, 1, 1},
	Na2O:  {Na2O, 2*22.990 + 16, "Na", 22.990, 2, 1},
	K2O:   {K2O, 2*39.098 + 16, "K", 39.098, 2, 1},
	P2O5:  {P2O5, 2*30.974 + 5*16, "P", 30.974, 2, 5},
	H2O:   {H2O, 18.02, "H", 1.008, 2, 1},
	CO2:   {CO2, 44.01, "C", 12.011, 1, 2},
}

var cationOxide = func() map[string]Oxide {
	m := make(map[string]Oxide, len(species))
	for ox, sp := range species {
		m[sp.Cation] = ox
	}
	return m
}()

// Lookup returns the reference data for an oxide.
func Lookup(ox Oxide) (Species, bool) {
	sp, ok := species[ox]
	return sp, ok
}

// OxideForCation maps a cation key (e.g. "Fe3") back to its oxide.
func OxideForCation(cation string) (Oxide, bool) {
	ox, ok := cationOxide[cation]
	return ox, ok
}

// IsVolatile reports whether the oxide is H2O or CO2.
func (o Oxide) IsVolatile() bool { return o == H2O || o == CO2 }

// IsValid reports whether the oxide is recognized.
func (o Oxide) IsValid() bool {
	_, ok := species[o]
	return ok
}
