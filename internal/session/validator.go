package session

import (
	"context"
	"errors"
	"fmt"

	"catchcli/internal/api"
	"catchcli/internal/logging"

	"go.uber.org/zap"
)

// StatusClient fetches a session's process status.
type StatusClient interface {
	SessionStatus(ctx context.Context, sessionID string) (api.Response[api.SessionStatusResponse], error)
}

// Validator checks a located session against the server.
type Validator struct {
	client StatusClient
	dir    string
	logger *zap.Logger
}

// NewValidator creates a validator that purges markers under dir when a
// session turns out to be claimed.
func NewValidator(client StatusClient, dir string) *Validator {
	return &Validator{
		client: client,
		dir:    dir,
		logger: logging.Get(logging.CategorySession),
	}
}

// Validate reports whether the session is unclaimed. A claimed session
// purges local markers and returns false. Transport, status and parse
// failures return an error and leave markers alone.
func (v *Validator) Validate(ctx context.Context, sessionID string) (bool, error) {
	body, err := api.ExpectSuccess(v.client.SessionStatus(ctx, sessionID))
	if err != nil {
		var re *api.RequestError
		switch {
		case api.IsNotFound(err):
			v.logger.Warn("session unknown to server", zap.String("session_id", sessionID))
		case errors.As(err, &re) && re.IsServerError():
			v.logger.Error("status check server error",
				zap.String("session_id", sessionID),
				zap.Int("status", re.StatusCode))
		}
		return false, fmt.Errorf("failed to check session status: %w", err)
	}

	if body.Process.Unclaimed() {
		v.logger.Debug("session unclaimed", zap.String("session_id", sessionID))
		return true, nil
	}

	n, err := Purge(v.dir)
	if err != nil {
		return false, err
	}
	v.logger.Info("session already claimed",
		zap.String("session_id", sessionID),
		zap.Int("purged", n))
	return false, nil
}
