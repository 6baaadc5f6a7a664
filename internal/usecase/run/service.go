// Package run records calculations so they can be fetched again by id.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	domrun "github.com/kailas-cloud/magmavol/internal/domain/run"
)

// Service creates and retrieves runs.
type Service struct {
	repo  Repository
	newID func() string
	now   func() time.Time
}

// New creates a run service with uuid ids.
func New(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewString, now: time.Now}
}

// WithClock overrides the creation timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Record stores a calculation. request and result are stored as JSON;
// a non-nil calcErr marks the run failed and result may be nil.
func (s *Service) Record(
	ctx context.Context, kind domrun.Kind, request, result any, calcErr error,
) (domrun.Run, error) {
	reqJSON, err := json.Marshal(request)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("encode run request: %w", err)
	}

	var resJSON json.RawMessage
	if result != nil {
		if resJSON, err = json.Marshal(result); err != nil {
			return domrun.Run{}, fmt.Errorf("encode run result: %w", err)
		}
	}

	var errMsg string
	if calcErr != nil {
		errMsg = calcErr.Error()
	}

	r, err := domrun.New(s.newID(), kind, reqJSON, resJSON, errMsg, s.now().Unix())
	if err != nil {
		return domrun.Run{}, fmt.Errorf("create run: %w", err)
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return domrun.Run{}, fmt.Errorf("record run: %w", err)
	}
	return r, nil
}

// Get retrieves a run by id.
func (s *Service) Get(ctx context.Context, id string) (domrun.Run, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domrun.Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// List returns all stored runs.
func (s *Service) List(ctx context.Context) ([]domrun.Run, error) {
	runs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Delete removes a run.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
