// Package api is the HTTP client for the Catch API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catchcli/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 60 * time.Second

	maxErrorBody = 2048
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the Catch API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "catch-cli"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.Get(logging.CategoryAPI),
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues a GET and decodes the response into T.
func Get[T any](ctx context.Context, c *Client, path string) (Response[T], error) {
	return send[T](ctx, c, http.MethodGet, path, nil)
}

// Post issues a POST with a JSON body and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (Response[T], error) {
	return send[T](ctx, c, http.MethodPost, path, body)
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (Response[T], error) {
	status, data, err := c.do(ctx, method, path, body)
	if err != nil {
		return Response[T]{}, err
	}
	if status == http.StatusNoContent {
		return NoContent[T](), nil
	}
	var out T
	if raw, ok := any(&out).(*json.RawMessage); ok {
		// Undecoded bodies are left for ExpectNoContent to reject.
		*raw = bytes.Clone(data)
		return Success(out), nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Response[T]{}, &ParseError{Method: method, Path: path, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return Response[T]{}, &ParseError{Method: method, Path: path, Err: err}
	}
	if v, ok := any(&out).(validator); ok {
		if err := v.validate(); err != nil {
			return Response[T]{}, &ParseError{Method: method, Path: path, Err: err}
		}
	}
	return Success(out), nil
}

// validator is implemented by bodies with required fields that
// json.Unmarshal cannot enforce.
type validator interface {
	validate() error
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return 0, nil, &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &RequestError{Method: method, Path: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(data))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return resp.StatusCode, nil, &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: text}
	}
	return resp.StatusCode, data, nil
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// SessionStatus fetches GET /session/{id}/process.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (Response[SessionStatusResponse], error) {
	return Get[SessionStatusResponse](ctx, c, "/session/"+url.PathEscape(sessionID)+"/process")
}

// ConnectCLI performs the handshake, POST /cli.
func (c *Client) ConnectCLI(ctx context.Context, req ConnectRequest) (Response[ConnectResponse], error) {
	return Post[ConnectResponse](ctx, c, "/cli", req)
}

// RequestCandidates submits the scanned path list, POST /cli/{iid}/rcp.
func (c *Client) RequestCandidates(ctx context.Context, integrationID string, req CandidatesRequest) (Response[json.RawMessage], error) {
	return Post[json.RawMessage](ctx, c, "/cli/"+url.PathEscape(integrationID)+"/rcp", req)
}

// UploadFiles sends encrypted files, POST /cli/{iid}/files.
func (c *Client) UploadFiles(ctx context.Context, integrationID string, req UploadRequest) (Response[json.RawMessage], error) {
	return Post[json.RawMessage](ctx, c, "/cli/"+url.PathEscape(integrationID)+"/files", req)
}
