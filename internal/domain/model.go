package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity is the legacy SonarQube issue severity.
type Severity string

const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityInfo     Severity = "INFO"
)

// ValidSeverities enumerates all recognized severities, highest first.
var ValidSeverities = []Severity{
	SeverityBlocker,
	SeverityCritical,
	SeverityMajor,
	SeverityMinor,
	SeverityInfo,
}

// ParseSeverity returns the Severity for s or an error if s is not a known value.
func ParseSeverity(s string) (Severity, error) {
	for _, v := range ValidSeverities {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown severity %q (valid: BLOCKER, CRITICAL, MAJOR, MINOR, INFO)", s)
}

// Rank returns a sort rank for the severity (lower is more severe).
func (s Severity) Rank() int {
	for i, v := range ValidSeverities {
		if v == s {
			return i
		}
	}
	return len(ValidSeverities)
}

// ImpactSeverity is the Clean Code impact severity used by newer servers.
// It is only ever used as a retrieval filter.
type ImpactSeverity string

const (
	ImpactBlocker ImpactSeverity = "BLOCKER"
	ImpactHigh    ImpactSeverity = "HIGH"
	ImpactMedium  ImpactSeverity = "MEDIUM"
	ImpactLow     ImpactSeverity = "LOW"
	ImpactInfo    ImpactSeverity = "INFO"
)

var ValidImpactSeverities = []ImpactSeverity{
	ImpactBlocker, ImpactHigh, ImpactMedium, ImpactLow, ImpactInfo,
}

func ParseImpactSeverity(s string) (ImpactSeverity, error) {
	for _, v := range ValidImpactSeverities {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown impact severity %q (valid: BLOCKER, HIGH, MEDIUM, LOW, INFO)", s)
}

// IssueType classifies a finding.
type IssueType string

const (
	TypeBug             IssueType = "BUG"
	TypeVulnerability   IssueType = "VULNERABILITY"
	TypeCodeSmell       IssueType = "CODE_SMELL"
	TypeSecurityHotspot IssueType = "SECURITY_HOTSPOT"
)

var ValidIssueTypes = []IssueType{
	TypeBug, TypeVulnerability, TypeCodeSmell, TypeSecurityHotspot,
}

func ParseIssueType(s string) (IssueType, error) {
	for _, v := range ValidIssueTypes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown issue type %q (valid: BUG, VULNERABILITY, CODE_SMELL, SECURITY_HOTSPOT)", s)
}

// Status is the issue lifecycle state reported by the server.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusConfirmed Status = "CONFIRMED"
	StatusReopened  Status = "REOPENED"
	StatusResolved  Status = "RESOLVED"
	StatusClosed    Status = "CLOSED"
)

var ValidStatuses = []Status{
	StatusOpen, StatusConfirmed, StatusReopened, StatusResolved, StatusClosed,
}

func ParseStatus(s string) (Status, error) {
	for _, v := range ValidStatuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (valid: OPEN, CONFIRMED, REOPENED, RESOLVED, CLOSED)", s)
}

// componentDelimiter separates the project key from the file path in a component string.
const componentDelimiter = ":"

// ComponentPath derives a file path from a component string such as
// "myproject:src/app.py". Components without the delimiter are their own path.
func ComponentPath(component string) string {
	if _, path, ok := strings.Cut(component, componentDelimiter); ok {
		return path
	}
	return component
}

// TextRange locates an issue inside its file.
type TextRange struct {
	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine"`
	StartOffset int `json:"startOffset"`
	EndOffset   int `json:"endOffset"`
}

// Issue is a single static-analysis finding. Issues are shared by pointer
// between the retrieval result and the file grouping and must not be mutated.
type Issue struct {
	Key       string     `json:"key"`
	Rule      string     `json:"rule"`
	Severity  Severity   `json:"severity"`
	Type      IssueType  `json:"type"`
	Component string     `json:"component"`
	Project   string     `json:"project,omitempty"`
	Line      *int       `json:"line,omitempty"`
	Hash      string     `json:"hash,omitempty"`
	TextRange *TextRange `json:"textRange,omitempty"`
	Message   string     `json:"message"`
	Status    Status     `json:"status"`
	Effort    *string    `json:"effort,omitempty"`
	Debt      *string    `json:"debt,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

// FilePath returns the path derived from the issue's component.
func (i *Issue) FilePath() string { return ComponentPath(i.Component) }

// Location renders "path" or "path:line".
func (i *Issue) Location() string {
	if i.Line == nil {
		return i.FilePath()
	}
	return i.FilePath() + ":" + strconv.Itoa(*i.Line)
}

// Validate checks the invariants every Issue must hold.
func (i *Issue) Validate() error {
	switch {
	case i.Key == "":
		return &ValidationError{Field: "key", Err: fmt.Errorf("must not be empty")}
	case i.Rule == "":
		return &ValidationError{Key: i.Key, Field: "rule", Err: fmt.Errorf("must not be empty")}
	case i.Component == "":
		return &ValidationError{Key: i.Key, Field: "component", Err: fmt.Errorf("must not be empty")}
	}
	if _, err := ParseSeverity(string(i.Severity)); err != nil {
		return &ValidationError{Key: i.Key, Field: "severity", Err: err}
	}
	if _, err := ParseIssueType(string(i.Type)); err != nil {
		return &ValidationError{Key: i.Key, Field: "type", Err: err}
	}
	if i.Line != nil && *i.Line < 0 {
		return &ValidationError{Key: i.Key, Field: "line", Err: fmt.Errorf("must not be negative (got %d)", *i.Line)}
	}
	return nil
}

// IntPtr and StringPtr build optional fields.
func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
