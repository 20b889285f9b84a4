package sonarqube

import (
	"github.com/abdidvp/sonarfix/internal/domain"
)

type searchResponse struct {
	Issues []issueRecord `json:"issues"`
	Paging *paging       `json:"paging"`
	// Total is only sent by older servers.
	Total *int `json:"total"`
}

type paging struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

func (r searchResponse) total() int {
	switch {
	case r.Paging != nil:
		return r.Paging.Total
	case r.Total != nil:
		return *r.Total
	}
	return 0
}

// issueRecord is the wire shape of one search result.
type issueRecord struct {
	Key       string            `json:"key"`
	Rule      string            `json:"rule"`
	Severity  string            `json:"severity"`
	Component string            `json:"component"`
	Project   string            `json:"project"`
	Line      *int              `json:"line"`
	Hash      string            `json:"hash"`
	TextRange *domain.TextRange `json:"textRange"`
	Message   string            `json:"message"`
	Type      string            `json:"type"`
	Status    string            `json:"status"`
	Effort    *string           `json:"effort"`
	Debt      *string           `json:"debt"`
	Tags      []string          `json:"tags"`
}

func (r issueRecord) toIssue() (*domain.Issue, error) {
	issue := &domain.Issue{
		Key:       r.Key,
		Rule:      r.Rule,
		Severity:  domain.Severity(r.Severity),
		Type:      domain.IssueType(r.Type),
		Component: r.Component,
		Project:   r.Project,
		Line:      r.Line,
		Hash:      r.Hash,
		TextRange: r.TextRange,
		Message:   r.Message,
		Status:    domain.Status(r.Status),
		Effort:    r.Effort,
		Debt:      r.Debt,
		Tags:      r.Tags,
	}
	if err := issue.Validate(); err != nil {
		return nil, err
	}
	return issue, nil
}
