// Package scanner walks a project and collects the source files Catch can
// analyze: a fixed whitelist of mobile and scripting file types.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"catchcli/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel file reads.
const DefaultConcurrency = 20

// Suffixes are the accepted file name endings. Matching is case-sensitive.
var Suffixes = []string{
	".js", ".ts", ".py", ".java", ".kt", ".swift", ".m", ".mm",
	".gradle", ".kts", ".toml", ".entitlements", ".plist", ".xcprivacy",
}

// ExactNames are accepted regardless of suffix.
var ExactNames = []string{"AndroidManifest.xml", "Podfile"}

// CodeFile is a scanned file. Path is relative to the scan root and uses
// forward slashes.
type CodeFile struct {
	Path             string
	Content          []byte
	EncryptedContent string
	Selected         bool
}

// Name returns the final path element.
func (f CodeFile) Name() string {
	return filepath.Base(filepath.FromSlash(f.Path))
}

// FileError fails a scan: an unreadable entry, a non-UTF-8 file or a path
// that cannot be made relative.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("scan %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ErrNotUTF8 marks a whitelisted file whose content is not valid UTF-8.
var ErrNotUTF8 = errors.New("content is not valid UTF-8")

// Options configures Scan.
type Options struct {
	// MaxConcurrency bounds parallel reads; <= 0 uses DefaultConcurrency.
	MaxConcurrency int
	// IgnoreDirs are directory names skipped entirely, e.g. "node_modules".
	IgnoreDirs []string
}

// IsWhitelisted reports whether a file name is collected.
func IsWhitelisted(name string) bool {
	for _, n := range ExactNames {
		if name == n {
			return true
		}
	}
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Scan collects every whitelisted regular file under root, sorted by path.
// Any read, decode or relativize failure aborts the whole scan.
func Scan(ctx context.Context, root string, opts Options) ([]CodeFile, error) {
	log := logging.Get(logging.CategoryScan)
	start := time.Now()

	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	ignored := make(map[string]bool, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		ignored[d] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &FileError{Op: "walk", Path: path, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && ignored[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsWhitelisted(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	files := make([]CodeFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := readFile(root, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	log.Info("scan complete",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Duration("elapsed", time.Since(start)))
	return files, nil
}

func readFile(root, path string) (CodeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CodeFile{}, &FileError{Op: "read", Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return CodeFile{}, &FileError{Op: "decode", Path: path, Err: ErrNotUTF8}
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return CodeFile{}, &FileError{Op: "relativize", Path: path, Err: err}
	}
	return CodeFile{Path: filepath.ToSlash(rel), Content: data}, nil
}

// Paths returns the relative paths of files, in order.
func Paths(files []CodeFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// TotalBytes sums plaintext sizes.
func TotalBytes(files []CodeFile) int {
	n := 0
	for _, f := range files {
		n += len(f.Content)
	}
	return n
}
