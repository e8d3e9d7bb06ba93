package gitinfo

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catchcli/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `[core]
	repositoryformatversion = 0
	filemode = false
	bare = false
[remote "upstream"]
	url = git@github.com:someone/else.git
[remote "origin"]
	url = https://github.com/user/repo.git
	fetch = +refs/heads/*:refs/remotes/origin/*
[branch "main"]
	remote = origin
`

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		url  string
		want RepoInfo
	}{
		{"git@github.com:user/repo.git", RepoInfo{"user", "repo"}},
		{"https://github.com/user/repo.git", RepoInfo{"user", "repo"}},
		{"git://github.com/user/repo.git", RepoInfo{"user", "repo"}},
		{"https://github.com/user/repo", RepoInfo{"user", "repo"}},
		{"https://github.com/user/repo/", RepoInfo{"user", "repo"}},
		{"  git@github.com:catch-org/catch-cli.git\n", RepoInfo{"catch-org", "catch-cli"}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ParseGitHubURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGitHubURL_Unsupported(t *testing.T) {
	for _, url := range []string{"", "https://gitlab.com/a/b.git", "https://github.com/onlyowner", "git@github.com:/repo"} {
		_, err := ParseGitHubURL(url)
		assert.ErrorIs(t, err, ErrUnsupportedRemote, url)
	}
}

func TestRemoteURL(t *testing.T) {
	url, err := RemoteURL(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/user/repo.git", url)

	_, err = RemoteURL(strings.NewReader("[core]\n\tbare = false\n"))
	assert.ErrorIs(t, err, ErrNoRemote)
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte(sampleConfig), 0644))

	info, err := FromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, RepoInfo{Owner: "user", Name: "repo"}, info)
	assert.Equal(t, "user/repo", info.String())

	_, err = FromDir(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidPart(t *testing.T) {
	assert.False(t, ValidPart(""))
	assert.False(t, ValidPart("a"))
	assert.False(t, ValidPart("👍🏽"), "one grapheme cluster")
	assert.True(t, ValidPart("ab"))
	assert.True(t, ValidPart("日本"))
	assert.False(t, RepoInfo{Owner: "ok", Name: "x"}.Valid())
}

func TestFormModel_InvalidBlocksEnter(t *testing.T) {
	m := NewFormModel(RepoInfo{Owner: "a"}, ui.NewStyles(ui.DarkTheme()))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	fm := next.(FormModel)
	assert.Nil(t, cmd)
	assert.Zero(t, fm.focus)
	assert.Contains(t, fm.View(), "must be length >= 2")

	next, _ = fm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	fm = next.(FormModel)
	assert.Equal(t, 1, fm.focus)
	assert.Equal(t, "ab", fm.Result().Owner)
}

func TestFormModel_CtrlC(t *testing.T) {
	m := NewFormModel(RepoInfo{Owner: "acme", Name: "app"}, ui.NewStyles(ui.DarkTheme()))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, next.(FormModel).canceled)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestPrompt_AcceptsDefaults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	info, err := Prompt(ctx, RepoInfo{Owner: "acme", Name: "app"}, PromptOptions{
		Input:  strings.NewReader("\r\r"),
		Output: io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, RepoInfo{Owner: "acme", Name: "app"}, info)
}

func TestPrompt_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Prompt(ctx, RepoInfo{}, PromptOptions{
		Input:  strings.NewReader("\x03"),
		Output: io.Discard,
	})
	assert.ErrorIs(t, err, ErrCanceled)
}
