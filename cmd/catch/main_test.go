package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"catchcli/internal/api"
	"catchcli/internal/config"
	"catchcli/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (pipeline.ExitCode, string, string) {
	t.Helper()
	t.Setenv(config.EnvLogFile, filepath.Join(t.TempDir(), "catch.log"))

	var out, errb bytes.Buffer
	args = append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...)
	code := execute(context.Background(), args, &out, &errb)
	return code, out.String(), errb.String()
}

func markerDir(t *testing.T, ids ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, id := range ids {
		require.NoError(t, os.Mkdir(filepath.Join(dir, "catch_session_"+id), 0755))
	}
	return dir
}

func statusServer(t *testing.T, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/session/abc/process" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	t.Setenv(config.EnvBaseURL, srv.URL)
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, pipeline.ExitOK, code)
	assert.Equal(t, "catch dev\n", out)
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	code, _, stderr := runCLI(t, "--bogus")
	assert.Equal(t, pipeline.ExitUsage, code)
	assert.Contains(t, stderr, "unknown flag")
}

func TestInvalidConfigIsUsageError(t *testing.T) {
	t.Setenv(config.EnvLogFile, filepath.Join(t.TempDir(), "catch.log"))
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crypto:\n  rsa_padding: raw\n"), 0644))

	var out, errb bytes.Buffer
	code := execute(context.Background(), []string{"--config", path, "sessions"}, &out, &errb)
	assert.Equal(t, pipeline.ExitUsage, code)
	assert.Contains(t, errb.String(), "rsa_padding")
}

func TestConfigInit(t *testing.T) {
	t.Setenv(config.EnvLogFile, filepath.Join(t.TempDir(), "catch.log"))
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvRSAPadding, "")
	path := filepath.Join(t.TempDir(), "catch", "config.yaml")

	run := func(args ...string) (pipeline.ExitCode, string, string) {
		var out, errb bytes.Buffer
		code := execute(context.Background(), append([]string{"--config", path}, args...), &out, &errb)
		return code, out.String(), errb.String()
	}

	code, out, _ := run("config", "init")
	require.Equal(t, pipeline.ExitOK, code)
	assert.Contains(t, out, "Wrote default configuration to "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	def := config.DefaultConfig()
	assert.Equal(t, def.API, cfg.API)
	assert.Equal(t, def.Crypto, cfg.Crypto)
	assert.Equal(t, def.Analysis, cfg.Analysis)
	assert.Equal(t, def.UI, cfg.UI)

	code, _, stderr := run("config", "init")
	assert.Equal(t, pipeline.ExitUsage, code)
	assert.Contains(t, stderr, "already exists")

	require.NoError(t, os.WriteFile(path, []byte("crypto: [broken"), 0644))
	code, _, _ = run("config", "init", "--force")
	require.Equal(t, pipeline.ExitOK, code)

	code, out, _ = run("--temp-dir", t.TempDir(), "sessions", "list")
	assert.Equal(t, pipeline.ExitOK, code)
	assert.Contains(t, out, "No session markers")

	code, out, _ = run("config", "path")
	assert.Equal(t, pipeline.ExitOK, code)
	assert.Equal(t, path+"\n", out)
}

func TestSessionsListAndPurge(t *testing.T) {
	dir := markerDir(t, "a1", "b2")

	code, out, _ := runCLI(t, "--temp-dir", dir, "sessions", "list")
	require.Equal(t, pipeline.ExitOK, code)
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "b2")
	assert.Contains(t, out, "More than one marker")

	code, out, _ = runCLI(t, "--temp-dir", dir, "sessions", "purge")
	require.Equal(t, pipeline.ExitOK, code)
	assert.Contains(t, out, "Removed 2 session marker(s).")

	code, out, _ = runCLI(t, "--temp-dir", dir, "sessions")
	require.Equal(t, pipeline.ExitOK, code)
	assert.Contains(t, out, "No session markers")
}

func TestRun_NoSession(t *testing.T) {
	code, _, stderr := runCLI(t, "--no-tty", "--temp-dir", markerDir(t))
	assert.Equal(t, pipeline.ExitNoSession, code)
	assert.Contains(t, stderr, "no session found")
}

func TestRun_MultipleSessions(t *testing.T) {
	dir := markerDir(t, "a1", "b2")
	code, _, _ := runCLI(t, "--no-tty", "--temp-dir", dir)
	assert.Equal(t, pipeline.ExitMultiple, code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_ClaimedSession(t *testing.T) {
	statusServer(t, `{"process":{"id":"p1","status":"running","output":null}}`)
	dir := markerDir(t, "abc")

	code, out, _ := runCLI(t, "--no-tty", "--temp-dir", dir, "--owner", "acme", "--repo", "app")
	assert.Equal(t, pipeline.ExitClaimed, code)
	assert.Contains(t, out, "already being processed")
	assert.NoDirExists(t, filepath.Join(dir, "catch_session_abc"))
}

func TestRun_NonInteractiveNeedsRepository(t *testing.T) {
	statusServer(t, `{"process":{}}`)
	dir := markerDir(t, "abc")

	code, _, stderr := runCLI(t, "--no-tty", "--temp-dir", dir, "--dir", t.TempDir())
	assert.Equal(t, pipeline.ExitIO, code)
	assert.Contains(t, stderr, "pass --owner and --repo")
}

func TestScanCmd(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app", "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "src", "Main.kt"), []byte("fun main() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.ts"), []byte("export {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# readme\n"), 0644))

	code, out, _ := runCLI(t, "scan", root)
	require.Equal(t, pipeline.ExitOK, code)
	assert.Contains(t, out, "app/src/Main.kt")
	assert.Contains(t, out, "index.ts")
	assert.NotContains(t, out, "README.md")
	assert.Contains(t, out, "Total: 2 files")
}

func TestStatusCmd(t *testing.T) {
	statusServer(t, `{"process":{}}`)

	code, out, _ := runCLI(t, "--no-tty", "status", "abc")
	require.Equal(t, pipeline.ExitOK, code)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "No process has started")
}

func TestStatusCmd_NoMarker(t *testing.T) {
	code, _, _ := runCLI(t, "--temp-dir", markerDir(t), "status")
	assert.Equal(t, pipeline.ExitNoSession, code)
}

func TestStatusMarkdown(t *testing.T) {
	id, status := "p1", "running"
	md := statusMarkdown("abc", api.ProcessInfo{
		ID:     &id,
		Status: &status,
		Output: &api.ProcessOutput{
			FetchingCode: &api.StepResult{Status: api.StepCompleted},
			AnalyzingPlatform: &api.PlatformResult{
				Status:       api.StepCompleted,
				PlatformInfo: api.PlatformInfo{Platform: "android", ArchitectureDescription: "MVVM"},
			},
			ExtractingCandidates: &api.CandidatesResult{Status: api.StepCompleted, Candidates: []string{"app/Main.kt"}},
			GeneratingDiff: &api.DiffResult{
				Status: api.StepInProgress,
				Files:  []api.DiffFile{{FilePath: "app/build.gradle"}},
			},
			Docs: []string{"https://docs.example/setup"},
		},
	}, false)

	assert.Contains(t, md, "# Session `abc`")
	assert.Contains(t, md, "- **Process:** `p1`")
	assert.Contains(t, md, "| fetching-code | completed |")
	assert.Contains(t, md, "| generating-diff | in-progress |")
	assert.Contains(t, md, "**android**: MVVM")
	assert.Contains(t, md, "- `app/Main.kt`")
	assert.Contains(t, md, "- `app/build.gradle`")
	assert.Contains(t, md, "- https://docs.example/setup")
	assert.NotContains(t, md, "indexing-code")
}

func TestStatusMarkdown_Unclaimed(t *testing.T) {
	md := statusMarkdown("abc", api.ProcessInfo{}, false)
	assert.Contains(t, md, "No process has started")
	assert.NotContains(t, md, "## Steps")
}

func TestStatusMarkdown_Diffs(t *testing.T) {
	md := statusMarkdown("abc", api.ProcessInfo{
		Output: &api.ProcessOutput{
			GeneratingDiff: &api.DiffResult{
				Status: api.StepCompleted,
				Files: []api.DiffFile{
					{FilePath: "app/build.gradle", OriginalContent: "a\nb\n", ModifiedContent: "a\nc\n"},
					{FilePath: "Podfile", PatchContent: "--- a/Podfile\n+++ b/Podfile\n@@ -1 +1 @@\n-x\n+y\n"},
				},
			},
		},
	}, true)

	assert.Contains(t, md, "```diff\n--- a/app/build.gradle\n+++ b/app/build.gradle\n@@ -1,2 +1,2 @@\n a\n-b\n+c\n```")
	assert.Contains(t, md, "```diff\n--- a/Podfile\n+++ b/Podfile\n@@ -1 +1 @@\n-x\n+y\n```")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", formatBytes(0))
	assert.Equal(t, "1023 B", formatBytes(1023))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "1.5 MiB", formatBytes(3*512*1024))
}
