package api

import "errors"

// SessionStatusResponse is the body of GET /session/{id}/process. Process is
// required; a body without it fails to parse.
type SessionStatusResponse struct {
	Process *ProcessInfo `json:"process"`
}

func (r *SessionStatusResponse) validate() error {
	if r.Process == nil {
		return errors.New(`missing required field "process"`)
	}
	return nil
}

// ProcessInfo describes the server-side process bound to a session.
// A nil field means the server sent null or omitted it.
type ProcessInfo struct {
	ID     *string        `json:"id"`
	Status *string        `json:"status"`
	Output *ProcessOutput `json:"output"`
}

// Unclaimed reports whether no process has started for the session yet.
func (p ProcessInfo) Unclaimed() bool {
	return p.ID == nil && p.Status == nil && p.Output == nil
}

// ProcessOutput holds per-step results keyed by kebab-case step names.
// Steps the server has not reached are absent.
type ProcessOutput struct {
	Docs                     []string               `json:"docs,omitempty"`
	FetchingCode             *StepResult            `json:"fetching-code,omitempty"`
	IndexingCode             *StepResult            `json:"indexing-code,omitempty"`
	GeneratingDiff           *DiffResult            `json:"generating-diff,omitempty"`
	GeneratingDocs           *StepResult            `json:"generating-docs,omitempty"`
	AnalyzingPlatform        *PlatformResult        `json:"analyzing-platform,omitempty"`
	ExtractingCandidates     *CandidatesResult      `json:"extracting-candidates,omitempty"`
	AnalyzingModuleStructure *ModuleStructureResult `json:"analyzing-module-structure,omitempty"`
}

// Step status values reported by the server.
const (
	StepPending    = "pending"
	StepInProgress = "in-progress"
	StepCompleted  = "completed"
	StepFailed     = "failed"
)

// StepResult is the generic {step, status} shape.
type StepResult struct {
	Step   string `json:"step,omitempty"`
	Status string `json:"status"`
}

// CandidatesResult lists files the server wants uploaded.
type CandidatesResult struct {
	Status     string   `json:"status"`
	Candidates []string `json:"candidates,omitempty"`
}

// PlatformInfo describes the detected app platform.
type PlatformInfo struct {
	Platform                string `json:"platform"`
	ArchitectureDescription string `json:"architectureDescription,omitempty"`
}

// PlatformResult wraps PlatformInfo with its step status.
type PlatformResult struct {
	Status       string       `json:"status"`
	PlatformInfo PlatformInfo `json:"platformInfo"`
}

// DiffFile is one file of a generated change.
type DiffFile struct {
	FilePath        string `json:"filePath"`
	PatchContent    string `json:"patchContent,omitempty"`
	ModifiedContent string `json:"modifiedContent,omitempty"`
	OriginalContent string `json:"originalContent,omitempty"`
}

// DiffResult carries generated diffs.
type DiffResult struct {
	Status string     `json:"status"`
	Files  []DiffFile `json:"files,omitempty"`
}

// ModuleStructureResult carries the server's module analysis.
type ModuleStructureResult struct {
	Status    string `json:"status"`
	Structure string `json:"structure,omitempty"`
}

// ConnectRequest is the body of POST /cli.
type ConnectRequest struct {
	SessionID string `json:"sessionId"`
	RepoOwner string `json:"repoOwner"`
	RepoName  string `json:"repoName"`
}

// ConnectResponse is the handshake result.
type ConnectResponse struct {
	PublicKey     string `json:"publicKey"`
	IntegrationID string `json:"integrationId"`
}

// CandidatesRequest is the body of POST /cli/{iid}/rcp.
type CandidatesRequest struct {
	SessionID string   `json:"sessionId"`
	Files     []string `json:"files"`
}

// UploadFile is one encrypted file in an UploadRequest.
type UploadFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UploadRequest is the body of POST /cli/{iid}/files.
type UploadRequest struct {
	SessionID          string       `json:"sessionId"`
	Files              []UploadFile `json:"files"`
	ClientEncryptedKey string       `json:"clientEncryptedKey"`
	ClientEncryptedIV  string       `json:"clientEncryptedIv"`
}
