package run

import (
	"encoding/json"
	"fmt"

	domrun "github.com/kailas-cloud/magmavol/internal/domain/run"
)

// runRow is the stored JSON form of a run.
type runRow struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Request   json.RawMessage `json:"request,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

func runToJSON(r domrun.Run) ([]byte, error) {
	data, err := json.Marshal(runRow{
		ID:        r.ID(),
		Kind:      string(r.Kind()),
		Status:    string(r.Status()),
		Request:   r.Request(),
		Result:    r.Result(),
		Error:     r.ErrorMessage(),
		CreatedAt: r.CreatedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal run %s: %w", r.ID(), err)
	}
	return data, nil
}

func runFromJSON(data []byte) (domrun.Run, error) {
	var row runRow
	if err := json.Unmarshal(data, &row); err != nil {
		return domrun.Run{}, fmt.Errorf("unmarshal run: %w", err)
	}
	return domrun.Reconstruct(
		row.ID, domrun.Kind(row.Kind), domrun.Status(row.Status),
		row.Request, row.Result, row.Error, row.CreatedAt,
	), nil
}
