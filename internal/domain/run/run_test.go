package run

import (
	"encoding/json"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		kind    Kind
		errMsg  string
		wantErr bool
		status  Status
	}{
		{"succeeded", "abc", KindIsobars, "", false, StatusSucceeded},
		{"failed", "abc", KindSaturationPressure, "saturation pressure not found", false, StatusFailed},
		{"missing id", "", KindIsobars, "", true, ""},
		{"unknown kind", "abc", Kind("melting"), "", true, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(tc.id, tc.kind, json.RawMessage(`{}`), nil, tc.errMsg, 1700000000)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && r.Status() != tc.status {
				t.Errorf("status = %s, want %s", r.Status(), tc.status)
			}
		})
	}
}

func TestReconstruct(t *testing.T) {
	r := Reconstruct("id1", KindDegassingPath, StatusFailed, nil, nil, "boom", 42)
	if r.ID() != "id1" || r.Kind() != KindDegassingPath || r.ErrorMessage() != "boom" || r.CreatedAt() != 42 {
		t.Errorf("unexpected run %+v", r)
	}
}
