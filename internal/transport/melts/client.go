// Package melts implements equilibrium.Solver against a remote equilibrium
// service that keeps one bulk composition per session.
package melts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/magmavol/internal/domain"
	"github.com/kailas-cloud/magmavol/internal/domain/equilibrium"
)

// DefaultTimeout bounds a single request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is quoted back.
const maxErrorBody = 512

// Config holds the adapter settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond paces outgoing requests; 0 disables pacing.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// Client talks to one remote solver session.
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

var (
	_ equilibrium.Solver        = (*Client)(nil)
	_ equilibrium.HealthChecker = (*Client)(nil)
)

// NewClient creates a client bound to a fresh session id.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("solver base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		sessionID: uuid.NewString(),
		http:      httpClient,
		logger:    logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c, nil
}

// SessionID returns the remote session this client drives.
func (c *Client) SessionID() string { return c.sessionID }

type bulkRequest struct {
	Oxides map[string]float64 `json:"oxides"`
}

type bulkResponse struct {
	Feasible bool `json:"feasible"`
}

type equilibrateRequest struct {
	TemperatureC float64 `json:"temperature_c"`
	PressureMPa  float64 `json:"pressure_mpa"`
}

// SetBulkComposition implements equilibrium.Solver.
func (c *Client) SetBulkComposition(ctx context.Context, oxides map[string]float64) (bool, error) {
	var resp bulkResponse
	if err := c.post(ctx, c.sessionPath("bulk-composition"), bulkRequest{Oxides: oxides}, &resp); err != nil {
		return false, err
	}
	return resp.Feasible, nil
}

// Equilibrate implements equilibrium.Solver.
func (c *Client) Equilibrate(ctx context.Context, temperatureC, pressureMPa float64) (equilibrium.State, error) {
	var st equilibrium.State
	req := equilibrateRequest{TemperatureC: temperatureC, PressureMPa: pressureMPa}
	if err := c.post(ctx, c.sessionPath("equilibrate"), req, &st); err != nil {
		return equilibrium.State{}, err
	}
	return st, nil
}

// HealthCheck verifies the service responds on /health.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) sessionPath(op string) string {
	return c.baseURL + "/sessions/" + c.sessionID + "/" + op
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode solver request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build solver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("wait for solver rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("solver request %s: %w", req.URL.Path, ctxErr)
		}
		return fmt.Errorf("solver request %s: %w: %w", req.URL.Path, domain.ErrSolverUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Solver request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("solver %s returned %d: %s: %w",
			req.URL.Path, resp.StatusCode, errorDetail(body), domain.ErrSolverUnavailable)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode solver response %s: %w: %w", req.URL.Path, domain.ErrSolverUnavailable, err)
	}
	return nil
}

// errorDetail extracts {"detail": "..."} or {"error": "..."} from a JSON
// error body, falling back to the raw text.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(body))
}
