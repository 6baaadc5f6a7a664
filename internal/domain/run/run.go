// Package run models a stored calculation: its inputs, outputs and outcome.
package run

import (
	"encoding/json"
	"fmt"
)

// Kind names the calculation a run performed.
type Kind string

// Calculation kinds.
const (
	KindSaturationPressure Kind = "saturation_pressure"
	KindDissolvedVolatiles Kind = "dissolved_volatiles"
	KindFluidComposition   Kind = "fluid_composition"
	KindIsobars            Kind = "isobars"
	KindDegassingPath      Kind = "degassing_path"
)

// IsValid checks if the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindSaturationPressure, KindDissolvedVolatiles, KindFluidComposition, KindIsobars, KindDegassingPath:
		return true
	}
	return false
}

// Status is the outcome of a run.
type Status string

// Run outcomes.
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is an immutable record of one calculation.
type Run struct {
	id        string
	kind      Kind
	status    Status
	request   json.RawMessage
	result    json.RawMessage
	errMsg    string
	createdAt int64
}

// New validates and creates a Run. A non-empty errMsg marks it failed.
func New(id string, kind Kind, request, result json.RawMessage, errMsg string, createdAt int64) (Run, error) {
	if id == "" {
		return Run{}, fmt.Errorf("run id is required")
	}
	if !kind.IsValid() {
		return Run{}, fmt.Errorf("invalid run kind: %q", kind)
	}
	status := StatusSucceeded
	if errMsg != "" {
		status = StatusFailed
	}
	return Run{
		id:        id,
		kind:      kind,
		status:    status,
		request:   request,
		result:    result,
		errMsg:    errMsg,
		createdAt: createdAt,
	}, nil
}

// Reconstruct hydrates a Run from storage without validation.
func Reconstruct(
	id string, kind Kind, status Status, request, result json.RawMessage, errMsg string, createdAt int64,
) Run {
	return Run{
		id:        id,
		kind:      kind,
		status:    status,
		request:   request,
		result:    result,
		errMsg:    errMsg,
		createdAt: createdAt,
	}
}

// ID returns the run id.
func (r Run) ID() string { return r.id }
func (r Run) Kind() Kind { return r.kind }
func (r Run) Status() Status { return r.status }
func (r Run) Request() json.RawMessage { return r.request }
func (r Run) Result() json.RawMessage { return r.result }
func (r Run) ErrorMessage() string { return r.errMsg }
func (r Run) CreatedAt() int64 { return r.createdAt }
