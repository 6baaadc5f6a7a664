package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/magmavol/internal/repository/export"
)

// nullable maps NaN and Inf to JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// writeTable writes rows to dir/name.parquet and reports the path.
func writeTable[T any](cmd *cobra.Command, dir, name string, rows []T) error {
	path := filepath.Join(dir, name+".parquet")
	if err := export.WriteParquetFile(path, rows); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	cmd.Printf("Wrote %d rows to %s\n", len(rows), path)
	return nil
}

// num formats a value for table output.
func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.6g", v)
}
