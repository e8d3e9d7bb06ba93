package uploader

import (
	"context"
	"encoding/json"
	"testing"

	"catchcli/internal/api"
	"catchcli/internal/e2ee"
	"catchcli/internal/scanner"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	resp api.Response[json.RawMessage]
	err  error

	calls int
	iid   string
	got   api.UploadRequest
}

func (s *stubClient) UploadFiles(_ context.Context, iid string, req api.UploadRequest) (api.Response[json.RawMessage], error) {
	s.calls++
	s.iid = iid
	s.got = req
	return s.resp, s.err
}

var wrapped = e2ee.WrappedKey{Key: "a2V5", IV: "aXY="}

func TestUpload(t *testing.T) {
	c := &stubClient{resp: api.NoContent[json.RawMessage]()}
	files := []scanner.CodeFile{
		{Path: "test.js", Content: []byte("x"), EncryptedContent: "ENC1"},
		{Path: "sub/test.py", Content: []byte("y"), EncryptedContent: "ENC2"},
	}

	require.NoError(t, Upload(context.Background(), c, "iid", "s1", files, wrapped))

	want := api.UploadRequest{
		SessionID: "s1",
		Files: []api.UploadFile{
			{Path: "test.js", Content: "ENC1"},
			{Path: "sub/test.py", Content: "ENC2"},
		},
		ClientEncryptedKey: "a2V5",
		ClientEncryptedIV:  "aXY=",
	}
	if diff := cmp.Diff(want, c.got); diff != "" {
		t.Errorf("upload request mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "iid", c.iid)
}

func TestUpload_RejectsBody(t *testing.T) {
	c := &stubClient{resp: api.Success(json.RawMessage(`{}`))}
	files := []scanner.CodeFile{{Path: "a.js", EncryptedContent: "E"}}

	err := Upload(context.Background(), c, "iid", "s1", files, wrapped)
	assert.ErrorIs(t, err, api.ErrInvalidResponse)
}

func TestUpload_UnencryptedFileNeverSent(t *testing.T) {
	c := &stubClient{resp: api.NoContent[json.RawMessage]()}
	files := []scanner.CodeFile{{Path: "a.js", Content: []byte("plain")}}

	err := Upload(context.Background(), c, "iid", "s1", files, wrapped)
	assert.ErrorIs(t, err, e2ee.ErrMissingEncryptedContent)
	assert.Zero(t, c.calls)
}

func TestBuildRequest_EmptySet(t *testing.T) {
	req, err := BuildRequest("s1", nil, wrapped)
	require.NoError(t, err)
	assert.NotNil(t, req.Files)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sessionId":"s1","files":[],"clientEncryptedKey":"a2V5","clientEncryptedIv":"aXY="}`, string(data))
}
