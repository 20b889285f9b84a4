package domain

import "fmt"

const (
	// MaxIssuesLimit is the server's hard ceiling on reachable search results.
	MaxIssuesLimit = 10000
	// DefaultMaxIssues is used when no cap is configured.
	DefaultMaxIssues = 100
)

// RetrievalFilter parameterizes a single fetch. Empty dimensions are not sent.
type RetrievalFilter struct {
	Severities       []Severity       `json:"severities,omitempty"`
	ImpactSeverities []ImpactSeverity `json:"impact_severities,omitempty"`
	Types            []IssueType      `json:"types,omitempty"`
	Statuses         []Status         `json:"statuses,omitempty"`
	Branch           string           `json:"branch,omitempty"`
	PullRequest      string           `json:"pull_request,omitempty"`
	MaxIssues        int              `json:"max_issues"`
}

// DefaultFilter returns the filter used when nothing else is configured:
// open blocker/critical bugs and vulnerabilities.
func DefaultFilter() RetrievalFilter {
	return RetrievalFilter{
		Severities: []Severity{SeverityBlocker, SeverityCritical},
		Types:      []IssueType{TypeBug, TypeVulnerability},
		Statuses:   []Status{StatusOpen, StatusConfirmed, StatusReopened},
		MaxIssues:  DefaultMaxIssues,
	}
}

// Validate rejects unknown enum values and out-of-range caps.
func (f RetrievalFilter) Validate() error {
	for _, s := range f.Severities {
		if _, err := ParseSeverity(string(s)); err != nil {
			return err
		}
	}
	for _, s := range f.ImpactSeverities {
		if _, err := ParseImpactSeverity(string(s)); err != nil {
			return err
		}
	}
	for _, t := range f.Types {
		if _, err := ParseIssueType(string(t)); err != nil {
			return err
		}
	}
	for _, s := range f.Statuses {
		if _, err := ParseStatus(string(s)); err != nil {
			return err
		}
	}
	if f.MaxIssues < 1 || f.MaxIssues > MaxIssuesLimit {
		return fmt.Errorf("max issues must be between 1 and %d (got %d)", MaxIssuesLimit, f.MaxIssues)
	}
	return nil
}

// SeverityStrings and friends convert enum slices for wire encoding. Empty
// input yields nil so unset filters encode as null.
func SeverityStrings(v []Severity) []string { return enumStrings(v) }

func ImpactSeverityStrings(v []ImpactSeverity) []string { return enumStrings(v) }

func IssueTypeStrings(v []IssueType) []string { return enumStrings(v) }

func StatusStrings(v []Status) []string { return enumStrings(v) }

func enumStrings[T ~string](v []T) []string {
	if len(v) == 0 {
		return nil
	}
	out := make([]string, len(v))
	for i, s := range v {
		out[i] = string(s)
	}
	return out
}
