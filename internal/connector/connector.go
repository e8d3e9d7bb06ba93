// Package connector attaches the CLI to an onboarding session and obtains
// the integration id and the server's public key.
package connector

import (
	"context"
	"fmt"
	"strings"

	"catchcli/internal/api"
	"catchcli/internal/logging"

	"go.uber.org/zap"
)

// Client performs the handshake call.
type Client interface {
	ConnectCLI(ctx context.Context, req api.ConnectRequest) (api.Response[api.ConnectResponse], error)
}

// Request identifies the session and the repository being onboarded.
type Request struct {
	SessionID string
	RepoOwner string
	RepoName  string
}

// Handle is the result of a successful handshake. It lives for one run.
type Handle struct {
	IntegrationID string
	PublicKeyPEM  string
}

// Label is the progress line shown while connecting.
func (r Request) Label() string {
	return fmt.Sprintf("Setting repoKey(%s/%s) and attaching cli to onboarding session(id=%s)...",
		r.RepoOwner, r.RepoName, r.SessionID)
}

// Connect performs POST /cli. Only a body carrying both fields is accepted.
func Connect(ctx context.Context, c Client, req Request) (Handle, error) {
	body, err := api.ExpectSuccess(c.ConnectCLI(ctx, api.ConnectRequest{
		SessionID: req.SessionID,
		RepoOwner: req.RepoOwner,
		RepoName:  req.RepoName,
	}))
	if err != nil {
		return Handle{}, fmt.Errorf("failed to connect cli: %w", err)
	}

	if strings.TrimSpace(body.IntegrationID) == "" {
		return Handle{}, fmt.Errorf("%w: missing integrationId", api.ErrInvalidResponse)
	}
	if strings.TrimSpace(body.PublicKey) == "" {
		return Handle{}, fmt.Errorf("%w: missing publicKey", api.ErrInvalidResponse)
	}

	logging.Get(logging.CategorySession).Info("cli attached",
		zap.String("session_id", req.SessionID),
		zap.String("integration_id", body.IntegrationID))
	return Handle{IntegrationID: body.IntegrationID, PublicKeyPEM: body.PublicKey}, nil
}
