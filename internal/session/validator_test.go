package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"catchcli/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusServer(t *testing.T, status int, body string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session/abc/process", r.URL.Path)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return api.NewClient(api.Config{BaseURL: srv.URL})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		valid       bool
		wantErr     bool
		markersLeft bool
	}{
		{"all null", http.StatusOK, `{"process":{"id":null,"status":null,"output":null}}`, true, false, true},
		{"empty process", http.StatusOK, `{"process":{}}`, true, false, true},
		{"claimed id", http.StatusOK, `{"process":{"id":"p1","status":null,"output":null}}`, false, false, false},
		{"claimed status", http.StatusOK, `{"process":{"id":null,"status":"running","output":null}}`, false, false, false},
		{"claimed output", http.StatusOK, `{"process":{"output":{}}}`, false, false, false},
		{"not found", http.StatusNotFound, `missing`, false, true, true},
		{"server error", http.StatusInternalServerError, `boom`, false, true, true},
		{"unparseable", http.StatusOK, `{"process":[`, false, true, true},
		{"missing process", http.StatusOK, `{}`, false, true, true},
		{"null process", http.StatusOK, `{"process":null}`, false, true, true},
		{"unrelated body", http.StatusOK, `{"error":"session gone"}`, false, true, true},
		{"no content", http.StatusNoContent, ``, false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			mkdirs(t, dir, "catch_session_abc")

			v := NewValidator(statusServer(t, tt.status, tt.body), dir)
			valid, err := v.Validate(context.Background(), "abc")

			assert.Equal(t, tt.valid, valid)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.markersLeft {
				assert.DirExists(t, filepath.Join(dir, "catch_session_abc"))
			} else {
				assert.NoDirExists(t, filepath.Join(dir, "catch_session_abc"))
			}
		})
	}
}

func TestValidate_NotFoundIsDistinguishable(t *testing.T) {
	v := NewValidator(statusServer(t, http.StatusNotFound, ""), t.TempDir())
	_, err := v.Validate(context.Background(), "abc")
	assert.True(t, api.IsNotFound(err))
}

func TestValidate_NoContentIsInvalidResponse(t *testing.T) {
	v := NewValidator(statusServer(t, http.StatusNoContent, ""), t.TempDir())
	_, err := v.Validate(context.Background(), "abc")
	assert.ErrorIs(t, err, api.ErrInvalidResponse)
}

func TestValidate_MissingProcessIsParseError(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "catch_session_abc")

	v := NewValidator(statusServer(t, http.StatusOK, `{"process":null}`), dir)
	valid, err := v.Validate(context.Background(), "abc")

	assert.False(t, valid)
	var pe *api.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), `"process"`)
	assert.DirExists(t, filepath.Join(dir, "catch_session_abc"))
}
