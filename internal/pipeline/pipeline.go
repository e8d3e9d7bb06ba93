// Package pipeline sequences one catch run: locate and validate the
// session, attach the CLI, scan, analyze, select, encrypt and upload.
// Each stage fails fast with a *StageError that ExitCodeFor classifies.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"catchcli/internal/analyzer"
	"catchcli/internal/connector"
	"catchcli/internal/e2ee"
	"catchcli/internal/gitinfo"
	"catchcli/internal/logging"
	"catchcli/internal/orchestrator"
	"catchcli/internal/scanner"
	"catchcli/internal/selector"
	"catchcli/internal/session"
	"catchcli/internal/ui"
	"catchcli/internal/uploader"

	"go.uber.org/zap"
)

// Client is every API call a run makes.
type Client interface {
	session.StatusClient
	connector.Client
	analyzer.Client
	uploader.Client
}

// RepoInfoFunc resolves the repository in dir.
type RepoInfoFunc func(ctx context.Context, dir string) (gitinfo.RepoInfo, error)

// SelectFunc narrows the automatic file set.
type SelectFunc func(ctx context.Context, files []scanner.CodeFile) ([]scanner.CodeFile, error)

// Deps wires a Runner to its collaborators.
type Deps struct {
	Client       Client
	Orchestrator *orchestrator.Orchestrator
	RepoInfo     RepoInfoFunc
	// Select is nil in non-interactive mode.
	Select SelectFunc
	Out    io.Writer
	Styles *ui.Styles
}

// Options configures a run.
type Options struct {
	// TempDir holds the session markers.
	TempDir string
	// Dir is the project root that is scanned.
	Dir     string
	Padding e2ee.Padding
	Scan    scanner.Options

	PollInterval    time.Duration
	AnalysisTimeout time.Duration

	// Wait > 0 waits that long for a marker to appear.
	Wait time.Duration
}

// Result summarises a run.
type Result struct {
	SessionID     string
	IntegrationID string
	Repo          gitinfo.RepoInfo
	Scanned       int
	Candidates    int
	Uploaded      []string
	Canceled      bool
}

// Runner executes the stages in order.
type Runner struct {
	deps   Deps
	opts   Options
	styles ui.Styles
	logger *zap.Logger
}

// New creates a Runner.
func New(deps Deps, opts Options) *Runner {
	styles := ui.DefaultStyles()
	if deps.Styles != nil {
		styles = *deps.Styles
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.RepoInfo == nil {
		deps.RepoInfo = func(_ context.Context, dir string) (gitinfo.RepoInfo, error) {
			return gitinfo.FromDir(dir)
		}
	}
	return &Runner{
		deps:   deps,
		opts:   opts,
		styles: styles,
		logger: logging.Get(logging.CategoryPipeline),
	}
}

// Run executes one run. A cancellation at any stage aborts the remaining
// stages and returns a Result with Canceled set and a nil error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := r.run(ctx)
	if err != nil && IsCanceled(err) {
		// The server side of a canceled run is left as it is.
		r.logger.Warn("run canceled",
			zap.String("session_id", res.SessionID),
			zap.String("integration_id", res.IntegrationID),
			zap.Error(err))
		r.println(r.styles.Warning.Render("Canceled."))
		res.Canceled = true
		return res, nil
	}
	if err != nil {
		r.logger.Error("run failed", zap.Error(err), zap.Int("exit_code", int(ExitCodeFor(err))))
		return res, err
	}
	r.logger.Info("run finished",
		zap.String("session_id", res.SessionID),
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (r *Runner) run(ctx context.Context) (Result, error) {
	var res Result

	id, err := r.locate(ctx)
	if err != nil {
		return res, &StageError{Stage: StageLocate, Err: err}
	}
	res.SessionID = id
	r.logger.Info("found catch session", zap.String("session_id", id))

	valid, err := session.NewValidator(r.deps.Client, r.opts.TempDir).Validate(ctx, id)
	if err != nil {
		return res, &StageError{Stage: StageValidate, Err: err}
	}
	if !valid {
		r.println(r.styles.Error.Render(fmt.Sprintf(
			"This session(%s) is already being processed. Please start a new session.", id)))
		return res, &StageError{Stage: StageValidate, Err: fmt.Errorf("%w: %s", session.ErrSessionClaimed, id)}
	}

	repo, err := r.deps.RepoInfo(ctx, r.opts.Dir)
	if err != nil {
		return res, &StageError{Stage: StageRepoInfo, Err: err}
	}
	res.Repo = repo

	req := connector.Request{SessionID: id, RepoOwner: repo.Owner, RepoName: repo.Name}
	handle, err := orchestrator.Run(ctx, r.deps.Orchestrator, req.Label(),
		func(ctx context.Context) (connector.Handle, error) {
			return connector.Connect(ctx, r.deps.Client, req)
		}).Result()
	if err != nil {
		return res, &StageError{Stage: StageConnect, Err: err}
	}
	res.IntegrationID = handle.IntegrationID

	// The key is checked before anything is read or encrypted.
	engine, err := e2ee.NewEngine(handle.PublicKeyPEM, r.opts.Padding)
	if err != nil {
		return res, &StageError{Stage: StageEncrypt, Err: err}
	}
	defer engine.Discard()

	files, err := scanner.Scan(ctx, r.opts.Dir, r.opts.Scan)
	if err != nil {
		return res, &StageError{Stage: StageScan, Err: err}
	}
	res.Scanned = len(files)

	an := analyzer.New(r.deps.Client, r.opts.PollInterval, r.opts.AnalysisTimeout)
	candidates, err := orchestrator.Run(ctx, r.deps.Orchestrator, analyzer.Label(len(files)),
		func(ctx context.Context) ([]string, error) {
			return an.Candidates(ctx, handle.IntegrationID, id, scanner.Paths(files))
		}).Result()
	if err != nil {
		return res, &StageError{Stage: StageAnalyze, Err: err}
	}
	res.Candidates = len(candidates)

	chosen := selector.Filter(files, candidates)
	if r.deps.Select != nil {
		chosen, err = r.deps.Select(ctx, chosen)
		if err != nil {
			return res, &StageError{Stage: StageSelect, Err: err}
		}
	}
	if len(chosen) == 0 {
		r.println(r.styles.Muted.Render("No files selected for upload."))
		return res, nil
	}
	for i := range chosen {
		chosen[i].Selected = true
	}

	if err := engine.EncryptFiles(chosen); err != nil {
		return res, &StageError{Stage: StageEncrypt, Err: err}
	}
	wrapped, err := engine.WrapKey()
	if err != nil {
		return res, &StageError{Stage: StageEncrypt, Err: err}
	}

	_, err = orchestrator.Run(ctx, r.deps.Orchestrator, uploader.Label(len(chosen)),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, uploader.Upload(ctx, r.deps.Client, handle.IntegrationID, id, chosen, wrapped)
		}).Result()
	if err != nil {
		return res, &StageError{Stage: StageUpload, Err: err}
	}
	res.Uploaded = scanner.Paths(chosen)
	return res, nil
}

// locate finds the session marker, optionally waiting for it.
func (r *Runner) locate(ctx context.Context) (string, error) {
	if r.opts.Wait <= 0 {
		return session.Locate(r.opts.TempDir)
	}
	waitCtx, cancel := context.WithTimeout(ctx, r.opts.Wait)
	defer cancel()

	r.println(r.styles.Muted.Render(fmt.Sprintf("Waiting up to %s for a catch session...", r.opts.Wait)))
	id, err := session.WaitForMarker(waitCtx, r.opts.TempDir)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", session.ErrNoSessionFound
	}
	return id, err
}

func (r *Runner) println(s string) {
	fmt.Fprintln(r.deps.Out, s)
}
