package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/domain"
)

var (
	errNoJSON          = errors.New("response contains no JSON object")
	errMissingFix      = errors.New("missing fix for issue")
	errDuplicateFix    = errors.New("duplicate fix for issue")
	errUnknownIssueKey = errors.New("fix for unknown issue")
)

// ProposalService asks the reasoning service for one fix per issue in a file.
type ProposalService struct {
	agent     domain.Agent
	workspace domain.Workspace
	logger    *zap.Logger
}

func NewProposalService(agent domain.Agent, workspace domain.Workspace, logger *zap.Logger) *ProposalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{agent: agent, workspace: workspace, logger: logger}
}

type proposalEntry struct {
	IssueKey     string `json:"issue_key"`
	SuggestedFix string `json:"suggested_fix"`
	Confidence   string `json:"confidence"`
	Reasoning    string `json:"reasoning"`
}

type proposalResponse struct {
	Fixes []proposalEntry `json:"fixes"`
}

// Propose analyzes the issues of one file. The returned set is never nil; on
// any failure it carries zero fixes and the error is a *domain.ProposalError.
// A file that cannot be read is still analyzed, with every confidence capped at low.
func (s *ProposalService) Propose(ctx context.Context, repoRoot, path string, issues []*domain.Issue) (*domain.FileFixSet, error) {
	set := &domain.FileFixSet{
		FilePath:    path,
		Issues:      issues,
		TotalIssues: len(issues),
	}

	content, err := s.workspace.ReadFile(repoRoot, path)
	if err != nil {
		s.logger.Warn("File unavailable for analysis", zap.String("path", path), zap.Error(err))
	} else {
		set.FileContent = &content
	}

	if len(issues) == 0 {
		return set, &domain.ProposalError{Path: path, Err: domain.ErrNoProposals}
	}

	raw, err := s.agent.Complete(ctx, domain.AgentRequest{
		System: proposalSystemPrompt,
		Prompt: buildProposalPrompt(path, set.FileContent, issues),
		JSON:   true,
	})
	if err != nil {
		return set, &domain.ProposalError{Path: path, Err: err}
	}

	fixes, err := parseProposals(raw, path, issues, set.FileContent == nil)
	if err != nil {
		s.logger.Debug("Rejected proposal response", zap.String("path", path), zap.String("response", raw))
		return set, &domain.ProposalError{Path: path, Err: err}
	}
	set.Fixes = fixes

	s.logger.Debug("Proposed fixes", zap.String("path", path), zap.Int("fixes", len(fixes)))
	return set, nil
}

// parseProposals enforces one well-formed entry per input issue. Any deviation
// rejects the whole response.
func parseProposals(raw, path string, issues []*domain.Issue, capLow bool) ([]domain.FixProposal, error) {
	payload := ExtractJSON(raw)
	if payload == "" {
		return nil, errNoJSON
	}
	var resp proposalResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("decoding proposals: %w", err)
	}

	wanted := make(map[string]bool, len(issues))
	for _, issue := range issues {
		wanted[issue.Key] = true
	}

	byKey := make(map[string]proposalEntry, len(resp.Fixes))
	for _, entry := range resp.Fixes {
		if !wanted[entry.IssueKey] {
			return nil, fmt.Errorf("%w %q", errUnknownIssueKey, entry.IssueKey)
		}
		if _, dup := byKey[entry.IssueKey]; dup {
			return nil, fmt.Errorf("%w %s", errDuplicateFix, entry.IssueKey)
		}
		byKey[entry.IssueKey] = entry
	}

	fixes := make([]domain.FixProposal, 0, len(issues))
	for _, issue := range issues {
		entry, ok := byKey[issue.Key]
		if !ok {
			return nil, fmt.Errorf("%w %s", errMissingFix, issue.Key)
		}
		if strings.TrimSpace(entry.SuggestedFix) == "" {
			return nil, fmt.Errorf("issue %s: empty suggested_fix", issue.Key)
		}
		confidence, err := domain.ParseConfidence(strings.ToLower(strings.TrimSpace(entry.Confidence)))
		if err != nil {
			return nil, fmt.Errorf("issue %s: %w", issue.Key, err)
		}
		if capLow {
			confidence = domain.ConfidenceLow
		}
		fixes = append(fixes, domain.FixProposal{
			IssueKey:     issue.Key,
			FilePath:     path,
			Line:         issue.Line,
			Rule:         issue.Rule,
			Message:      issue.Message,
			SuggestedFix: entry.SuggestedFix,
			Confidence:   confidence,
			Reasoning:    entry.Reasoning,
		})
	}
	return fixes, nil
}
