package domain

import "context"

// IssueSource fetches findings from the code-quality server.
type IssueSource interface {
	Fetch(ctx context.Context, filter RetrievalFilter) ([]*Issue, error)
}

// AgentRequest is one text-in/text-out call to the reasoning service.
type AgentRequest struct {
	System string
	Prompt string
	// JSON asks the service to answer with a single JSON object.
	JSON bool
}

// Agent is the external reasoning service.
type Agent interface {
	Complete(ctx context.Context, req AgentRequest) (string, error)
}

// Workspace reads and writes files relative to a repository root. Paths that
// resolve outside root are rejected with ErrPathEscapesRoot.
type Workspace interface {
	// ReadFile returns the content of path, or an error wrapping ErrFileNotFound.
	ReadFile(root, path string) (string, error)
	// Exists reports whether path is a regular file under root.
	Exists(root, path string) bool
	// WriteFileAtomic replaces path so that readers see either the old or the new content.
	WriteFileAtomic(root, path, content string) error
}

// SnapshotStore persists grouped issues for downstream consumers.
type SnapshotStore interface {
	Save(path string, snapshot *Snapshot) error
	Load(path string) (*Snapshot, error)
}

// RunHistory records completed runs.
type RunHistory interface {
	Save(repoRoot string, entry RunEntry) error
	Load(repoRoot string) ([]RunEntry, error)
}

// Committer records written files in version control.
type Committer interface {
	CommitFiles(repoRoot string, paths []string, message string) (string, error)
}

// RunRecorder receives the final counters of a run.
type RunRecorder interface {
	Observe(summary *RunSummary)
}
