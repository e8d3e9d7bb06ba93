package pipeline

import (
	"context"
	"errors"
	"fmt"

	"catchcli/internal/gitinfo"
	"catchcli/internal/orchestrator"
	"catchcli/internal/selector"
	"catchcli/internal/session"
)

// Stage names a step of the run.
type Stage string

const (
	StageLocate   Stage = "locate"
	StageValidate Stage = "validate"
	StageRepoInfo Stage = "repo-info"
	StageConnect  Stage = "connect"
	StageScan     Stage = "scan"
	StageAnalyze  Stage = "analyze"
	StageSelect   Stage = "select"
	StageEncrypt  Stage = "encrypt"
	StageUpload   Stage = "upload"
)

// StageError records which stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ExitCode is the process exit status for a run.
type ExitCode int

const (
	ExitOK            ExitCode = 0
	ExitNoSession     ExitCode = -1
	ExitMultiple      ExitCode = -2
	ExitIO            ExitCode = -3
	ExitClaimed       ExitCode = -4
	ExitStatusCheck   ExitCode = -5
	ExitHandshake     ExitCode = -6
	ExitScanOrEncrypt ExitCode = -7
	ExitAnalysis      ExitCode = -8
	ExitUpload        ExitCode = -9
	ExitUsage         ExitCode = 1
)

// IsCanceled reports whether err is a user or context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, orchestrator.ErrCanceled) ||
		errors.Is(err, selector.ErrCanceled) ||
		errors.Is(err, gitinfo.ErrCanceled) ||
		errors.Is(err, context.Canceled)
}

// ExitCodeFor classifies err. Cancellation exits 0; errors that did not
// come from a stage are usage or configuration errors.
func ExitCodeFor(err error) ExitCode {
	if err == nil || IsCanceled(err) {
		return ExitOK
	}

	var ioErr *session.IOError
	switch {
	case errors.Is(err, session.ErrNoSessionFound):
		return ExitNoSession
	case errors.Is(err, session.ErrMultipleSessionsFound):
		return ExitMultiple
	case errors.Is(err, session.ErrSessionClaimed):
		return ExitClaimed
	case errors.As(err, &ioErr):
		return ExitIO
	}

	var se *StageError
	if !errors.As(err, &se) {
		return ExitUsage
	}
	switch se.Stage {
	case StageValidate:
		return ExitStatusCheck
	case StageConnect:
		return ExitHandshake
	case StageScan, StageEncrypt:
		return ExitScanOrEncrypt
	case StageAnalyze:
		return ExitAnalysis
	case StageUpload:
		return ExitUpload
	default:
		return ExitIO
	}
}
