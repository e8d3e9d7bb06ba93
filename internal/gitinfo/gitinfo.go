// Package gitinfo works out which GitHub repository is being onboarded,
// from .git/config and a confirmation form.
package gitinfo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"
)

var (
	// ErrNoRemote means .git/config has no origin url.
	ErrNoRemote = errors.New("remote origin url not found")
	// ErrUnsupportedRemote means the origin url is not a GitHub url.
	ErrUnsupportedRemote = errors.New("unsupported remote url")
)

// MinLength is the minimum number of grapheme clusters in an owner or name.
const MinLength = 2

var githubPrefixes = []string{
	"git@github.com:",
	"https://github.com/",
	"git://github.com/",
}

// RepoInfo identifies a repository.
type RepoInfo struct {
	Owner string
	Name  string
}

func (r RepoInfo) String() string { return r.Owner + "/" + r.Name }

// Valid reports whether both parts are long enough.
func (r RepoInfo) Valid() bool {
	return ValidPart(r.Owner) && ValidPart(r.Name)
}

// ValidPart checks one owner or name value.
func ValidPart(s string) bool {
	return uniseg.GraphemeClusterCount(s) >= MinLength
}

// RemoteURL returns the url of [remote "origin"] from a git config.
func RemoteURL(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	inOrigin := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") {
			inOrigin = line == `[remote "origin"]`
			continue
		}
		if !inOrigin {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(k) == "url" {
			return strings.TrimSpace(v), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", ErrNoRemote
}

// ParseGitHubURL extracts owner and name from ssh, https or git:// GitHub urls.
func ParseGitHubURL(url string) (RepoInfo, error) {
	url = strings.TrimSpace(url)
	rest := ""
	for _, p := range githubPrefixes {
		if s, ok := strings.CutPrefix(url, p); ok {
			rest = s
			break
		}
	}
	if rest == "" {
		return RepoInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedRemote, url)
	}

	rest = strings.TrimSuffix(strings.TrimSuffix(rest, "/"), ".git")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedRemote, url)
	}
	return RepoInfo{Owner: parts[0], Name: parts[1]}, nil
}

// FromDir reads dir/.git/config and parses its origin url.
func FromDir(dir string) (RepoInfo, error) {
	f, err := os.Open(filepath.Join(dir, ".git", "config"))
	if err != nil {
		return RepoInfo{}, err
	}
	defer f.Close()

	url, err := RemoteURL(f)
	if err != nil {
		return RepoInfo{}, err
	}
	return ParseGitHubURL(url)
}
