// Package analyzer submits the scanned path list and polls the session
// until the server has extracted the candidate files it wants.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catchcli/internal/api"
	"catchcli/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for Analyzer.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultTimeout      = 5 * time.Minute
)

var (
	// ErrAnalysisFailed means the server reported the extraction step failed.
	ErrAnalysisFailed = errors.New("candidate extraction failed")
	// ErrAnalysisTimeout means no terminal status arrived before the deadline.
	ErrAnalysisTimeout = errors.New("candidate extraction timed out")
)

// Client is the subset of the API the analyzer calls.
type Client interface {
	RequestCandidates(ctx context.Context, integrationID string, req api.CandidatesRequest) (api.Response[json.RawMessage], error)
	SessionStatus(ctx context.Context, sessionID string) (api.Response[api.SessionStatusResponse], error)
}

// Analyzer requests and awaits candidate extraction.
type Analyzer struct {
	client       Client
	pollInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
}

// New creates an Analyzer. Non-positive durations use the defaults.
func New(client Client, pollInterval, timeout time.Duration) *Analyzer {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Analyzer{
		client:       client,
		pollInterval: pollInterval,
		timeout:      timeout,
		logger:       logging.Get(logging.CategoryAnalysis),
	}
}

// Label is the progress line shown while analyzing.
func Label(n int) string {
	return fmt.Sprintf("Analyzing %d files for candidates...", n)
}

// Candidates submits paths and returns the server's candidate list.
func (a *Analyzer) Candidates(ctx context.Context, integrationID, sessionID string, paths []string) ([]string, error) {
	if err := a.Request(ctx, integrationID, sessionID, paths); err != nil {
		return nil, err
	}
	return a.Await(ctx, sessionID)
}

// Request performs POST /cli/{iid}/rcp, which must answer No Content.
func (a *Analyzer) Request(ctx context.Context, integrationID, sessionID string, paths []string) error {
	if paths == nil {
		paths = []string{}
	}
	err := api.ExpectNoContent(a.client.RequestCandidates(ctx, integrationID, api.CandidatesRequest{
		SessionID: sessionID,
		Files:     paths,
	}))
	if err != nil {
		return fmt.Errorf("failed to request candidates: %w", err)
	}
	a.logger.Info("candidate extraction requested", zap.Int("files", len(paths)))
	return nil
}

// Await polls the session status until extracting-candidates is completed
// or failed. Missing output keeps polling until the timeout.
func (a *Analyzer) Await(ctx context.Context, sessionID string) ([]string, error) {
	pollCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(a.pollInterval), 1)
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(pollCtx); err != nil {
			return nil, a.stopped(ctx)
		}

		body, err := api.ExpectSuccess(a.client.SessionStatus(pollCtx, sessionID))
		if err != nil {
			if pollCtx.Err() != nil {
				return nil, a.stopped(ctx)
			}
			return nil, fmt.Errorf("failed to poll session status: %w", err)
		}

		step := extracting(body)
		if step == nil {
			a.logger.Debug("candidates not ready", zap.Int("attempt", attempt))
			continue
		}
		switch step.Status {
		case api.StepCompleted:
			a.logger.Info("candidates extracted",
				zap.Int("candidates", len(step.Candidates)),
				zap.Int("attempts", attempt))
			return step.Candidates, nil
		case api.StepFailed:
			return nil, ErrAnalysisFailed
		default:
			a.logger.Debug("candidates pending", zap.String("status", step.Status), zap.Int("attempt", attempt))
		}
	}
}

// stopped distinguishes the caller giving up from the poll deadline.
func (a *Analyzer) stopped(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w after %s", ErrAnalysisTimeout, a.timeout)
}

func extracting(body api.SessionStatusResponse) *api.CandidatesResult {
	if body.Process.Output == nil {
		return nil
	}
	return body.Process.Output.ExtractingCandidates
}
