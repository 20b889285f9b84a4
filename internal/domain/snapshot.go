package domain

// SnapshotMetadata describes where and how a snapshot was fetched. Field names
// are consumed by downstream tooling and must not change.
type SnapshotMetadata struct {
	Server      string   `json:"server"`
	Project     string   `json:"project"`
	Branch      *string  `json:"branch"`
	PullRequest *string  `json:"pull_request"`
	Severities  []string `json:"severities"`
	Types       []string `json:"types"`
	TotalIssues int      `json:"total_issues"`
	TotalFiles  int      `json:"total_files"`
	FetchedAt   string   `json:"fetched_at"`
}

// SnapshotIssue is the exported shape of one issue.
type SnapshotIssue struct {
	Key      string  `json:"key"`
	Rule     string  `json:"rule"`
	Severity string  `json:"severity"`
	Line     *int    `json:"line"`
	Message  string  `json:"message"`
	Type     string  `json:"type"`
	Status   string  `json:"status"`
	Effort   *string `json:"effort"`
}

// SnapshotFile is one entry of issues_by_file.
type SnapshotFile struct {
	Path   string
	Issues []SnapshotIssue
}

// Snapshot is the grouped-issues hand-off document. Files keep grouping order.
type Snapshot struct {
	Metadata SnapshotMetadata
	Files    []SnapshotFile
}

// NewSnapshot builds a snapshot from grouped issues.
func NewSnapshot(meta SnapshotMetadata, groups *IssueGroups) *Snapshot {
	s := &Snapshot{Metadata: meta}
	s.Metadata.TotalIssues = groups.IssueCount()
	s.Metadata.TotalFiles = groups.Len()
	for _, fg := range groups.Files() {
		sf := SnapshotFile{Path: fg.Path, Issues: make([]SnapshotIssue, 0, len(fg.Issues))}
		for _, issue := range fg.Issues {
			sf.Issues = append(sf.Issues, SnapshotIssue{
				Key:      issue.Key,
				Rule:     issue.Rule,
				Severity: string(issue.Severity),
				Line:     issue.Line,
				Message:  issue.Message,
				Type:     string(issue.Type),
				Status:   string(issue.Status),
				Effort:   issue.Effort,
			})
		}
		s.Files = append(s.Files, sf)
	}
	return s
}

// KeysByFile maps each path to its issue keys in order.
func (s *Snapshot) KeysByFile() map[string][]string {
	out := make(map[string][]string, len(s.Files))
	for _, f := range s.Files {
		keys := make([]string, len(f.Issues))
		for i, issue := range f.Issues {
			keys[i] = issue.Key
		}
		out[f.Path] = keys
	}
	return out
}
