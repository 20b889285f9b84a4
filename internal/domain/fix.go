package domain

import "fmt"

// Confidence is how sure the reasoning service is about a proposed fix.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func ParseConfidence(s string) (Confidence, error) {
	switch Confidence(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return Confidence(s), nil
	}
	return "", fmt.Errorf("unknown confidence %q (valid: high, medium, low)", s)
}

// FixProposal is one suggested remediation for one issue.
type FixProposal struct {
	IssueKey     string     `json:"issue_key"`
	FilePath     string     `json:"file_path"`
	Line         *int       `json:"line,omitempty"`
	Rule         string     `json:"rule"`
	Message      string     `json:"message"`
	SuggestedFix string     `json:"suggested_fix"`
	Confidence   Confidence `json:"confidence"`
	Reasoning    string     `json:"reasoning"`
}

// FileFixSet is the proposal batch for one file. It is built once by the
// proposal stage and only read afterwards.
type FileFixSet struct {
	FilePath    string        `json:"file_path"`
	Issues      []*Issue      `json:"issues"`
	Fixes       []FixProposal `json:"fixes"`
	TotalIssues int           `json:"total_issues"`
	// FileContent is nil when the file could not be read at analysis time.
	FileContent *string `json:"file_content,omitempty"`
}

// HasFixes reports whether at least one proposal exists.
func (s *FileFixSet) HasFixes() bool { return s != nil && len(s.Fixes) > 0 }

// ApplyResult is the outcome of applying one FileFixSet.
type ApplyResult struct {
	Success      bool   `json:"success"`
	FixesApplied int    `json:"fixes_applied"`
	DryRun       bool   `json:"dry_run"`
	Written      bool   `json:"written"`
	Error        string `json:"error,omitempty"`
}

// FixOptions configures one pipeline run.
type FixOptions struct {
	RepoRoot     string          `json:"repo_root"`
	Filter       RetrievalFilter `json:"filter"`
	DryRun       bool            `json:"dry_run"`
	ListOnly     bool            `json:"list_only"`
	AutoCommit   bool            `json:"auto_commit"`
	SnapshotPath string          `json:"snapshot_path,omitempty"`
	Concurrency  int             `json:"concurrency"`
	ExcludePaths []string        `json:"exclude_paths,omitempty"`
}
