// Package uploader sends encrypted files and the wrapped key to the
// integration.
package uploader

import (
	"context"
	"encoding/json"
	"fmt"

	"catchcli/internal/api"
	"catchcli/internal/e2ee"
	"catchcli/internal/logging"
	"catchcli/internal/scanner"

	"go.uber.org/zap"
)

// Client performs the upload call.
type Client interface {
	UploadFiles(ctx context.Context, integrationID string, req api.UploadRequest) (api.Response[json.RawMessage], error)
}

// Label is the progress line shown while uploading.
func Label(n int) string {
	return fmt.Sprintf("Uploading %d encrypted files...", n)
}

// BuildRequest assembles the /files payload. Every file must already be
// encrypted.
func BuildRequest(sessionID string, files []scanner.CodeFile, key e2ee.WrappedKey) (api.UploadRequest, error) {
	out := make([]api.UploadFile, 0, len(files))
	for _, f := range files {
		if f.EncryptedContent == "" {
			return api.UploadRequest{}, fmt.Errorf("%s: %w", f.Path, e2ee.ErrMissingEncryptedContent)
		}
		out = append(out, api.UploadFile{Path: f.Path, Content: f.EncryptedContent})
	}
	return api.UploadRequest{
		SessionID:          sessionID,
		Files:              out,
		ClientEncryptedKey: key.Key,
		ClientEncryptedIV:  key.IV,
	}, nil
}

// Upload performs POST /cli/{iid}/files, which must answer No Content.
func Upload(ctx context.Context, c Client, integrationID, sessionID string, files []scanner.CodeFile, key e2ee.WrappedKey) error {
	req, err := BuildRequest(sessionID, files, key)
	if err != nil {
		return err
	}
	if err := api.ExpectNoContent(c.UploadFiles(ctx, integrationID, req)); err != nil {
		return fmt.Errorf("failed to upload files: %w", err)
	}
	logging.Get(logging.CategoryUpload).Info("files uploaded",
		zap.String("integration_id", integrationID),
		zap.Int("files", len(files)))
	return nil
}
