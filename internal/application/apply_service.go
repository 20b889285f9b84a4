package application

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// ApplyService turns a file's proposals into new file content.
type ApplyService struct {
	agent     domain.Agent
	workspace domain.Workspace
	logger    *zap.Logger
}

func NewApplyService(agent domain.Agent, workspace domain.Workspace, logger *zap.Logger) *ApplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplyService{agent: agent, workspace: workspace, logger: logger}
}

// Apply asks the reasoning service for the complete fixed content of
// set.FilePath and, unless dryRun, replaces the file with it. The content sent
// is read from disk now, not taken from the proposal stage. The returned error
// mirrors result.Error and is nil exactly when result.Success is true.
func (s *ApplyService) Apply(ctx context.Context, set *domain.FileFixSet, repoRoot string, dryRun bool) (domain.ApplyResult, error) {
	result := domain.ApplyResult{DryRun: dryRun}
	path := set.FilePath

	if !s.workspace.Exists(repoRoot, path) {
		return fail(result, &domain.PreconditionError{Path: path, Err: domain.ErrFileNotFound})
	}
	if !set.HasFixes() {
		return fail(result, &domain.PreconditionError{Path: path, Err: domain.ErrNoProposals})
	}

	current, err := s.workspace.ReadFile(repoRoot, path)
	if err != nil {
		return fail(result, &domain.PreconditionError{Path: path, Err: err})
	}

	raw, err := s.agent.Complete(ctx, domain.AgentRequest{
		System: applySystemPrompt,
		Prompt: buildApplyPrompt(path, current, set.Fixes),
	})
	if err != nil {
		return fail(result, &domain.ApplicationError{Path: path, Err: err})
	}

	replacement := StripCodeFence(raw)
	if strings.TrimSpace(replacement) == "" {
		return fail(result, &domain.ApplicationError{Path: path, Err: domain.ErrEmptyReplacement})
	}

	result.Success = true
	result.FixesApplied = len(set.Fixes)

	if dryRun {
		s.logger.Info("Dry run, file left unchanged", zap.String("path", path), zap.Int("fixes", result.FixesApplied))
		return result, nil
	}

	if replacement == current {
		s.logger.Info("Replacement identical to current content", zap.String("path", path))
		return result, nil
	}
	if err := s.workspace.WriteFileAtomic(repoRoot, path, replacement); err != nil {
		result.Success = false
		result.FixesApplied = 0
		return fail(result, &domain.ApplicationError{Path: path, Err: err})
	}
	result.Written = true

	s.logger.Info("Applied fixes", zap.String("path", path), zap.Int("fixes", result.FixesApplied))
	return result, nil
}

func fail(result domain.ApplyResult, err error) (domain.ApplyResult, error) {
	result.Success = false
	result.Error = err.Error()
	return result, err
}
