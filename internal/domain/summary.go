package domain

// OutcomeStatus classifies how a file fared during the per-file loop.
type OutcomeStatus string

const (
	OutcomeFixed   OutcomeStatus = "fixed"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// FileOutcome records what happened to one file.
type FileOutcome struct {
	Path         string        `json:"path"`
	Status       OutcomeStatus `json:"status"`
	Issues       int           `json:"issues"`
	FixesApplied int           `json:"fixes_applied"`
	Written      bool          `json:"written"`
	Error        string        `json:"error,omitempty"`
}

// RunSummary accumulates the counters of one pipeline run.
type RunSummary struct {
	RunID          string        `json:"run_id"`
	DryRun         bool          `json:"dry_run"`
	ListOnly       bool          `json:"list_only"`
	TotalIssues    int           `json:"total_issues"`
	TotalFiles     int           `json:"total_files"`
	FilesProcessed int           `json:"files_processed"`
	FixesApplied   int           `json:"fixes_applied"`
	Failures       int           `json:"failures"`
	Skipped        int           `json:"skipped"`
	Outcomes       []FileOutcome `json:"outcomes,omitempty"`
	SnapshotPath   string        `json:"snapshot_path,omitempty"`
	CommitHash     string        `json:"commit_hash,omitempty"`
}

// NoIssues reports whether the run ended because nothing matched the filter.
func (s *RunSummary) NoIssues() bool { return s.TotalIssues == 0 }

// WrittenPaths lists files whose content was replaced on disk.
func (s *RunSummary) WrittenPaths() []string {
	var out []string
	for _, o := range s.Outcomes {
		if o.Written {
			out = append(out, o.Path)
		}
	}
	return out
}

// Record folds a file outcome into the counters.
func (s *RunSummary) Record(o FileOutcome) {
	switch o.Status {
	case OutcomeFixed:
		s.FilesProcessed++
		s.FixesApplied += o.FixesApplied
	case OutcomeFailed:
		s.Failures++
	case OutcomeSkipped:
		s.Skipped++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// RunEntry is one line of run history.
type RunEntry struct {
	RunID          string `json:"run_id"`
	Timestamp      string `json:"timestamp"`
	CommitHash     string `json:"commit_hash,omitempty"`
	DryRun         bool   `json:"dry_run"`
	FilesProcessed int    `json:"files_processed"`
	TotalFiles     int    `json:"total_files"`
	FixesApplied   int    `json:"fixes_applied"`
	Failures       int    `json:"failures"`
	TotalIssues    int    `json:"total_issues"`
}
