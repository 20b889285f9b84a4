package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// Proposer produces the fix proposals of one file.
type Proposer interface {
	Propose(ctx context.Context, repoRoot, path string, issues []*domain.Issue) (*domain.FileFixSet, error)
}

// Applier applies a file's proposals.
type Applier interface {
	Apply(ctx context.Context, set *domain.FileFixSet, repoRoot string, dryRun bool) (domain.ApplyResult, error)
}

// Observer follows a run as it happens. Calls for different files may arrive
// concurrently when the run is concurrent.
type Observer interface {
	Fetched(issues []*domain.Issue, groups *domain.IssueGroups)
	FileStarted(path string, index, total int)
	FileFinished(outcome domain.FileOutcome)
}

// FixService orchestrates the pipeline:
// fetch → group → snapshot → per-file propose → apply → summarize.
type FixService struct {
	source    domain.IssueSource
	proposer  Proposer
	applier   Applier
	settings  domain.Settings
	snapshots domain.SnapshotStore
	history   domain.RunHistory
	committer domain.Committer
	recorder  domain.RunRecorder
	observer  Observer
	logger    *zap.Logger
	now       func() time.Time
	locks     pathLocks
}

// Option configures optional FixService collaborators.
type Option func(*FixService)

func WithSnapshotStore(store domain.SnapshotStore) Option {
	return func(s *FixService) { s.snapshots = store }
}

func WithHistory(history domain.RunHistory) Option {
	return func(s *FixService) { s.history = history }
}

func WithCommitter(committer domain.Committer) Option {
	return func(s *FixService) { s.committer = committer }
}

func WithRecorder(recorder domain.RunRecorder) Option {
	return func(s *FixService) { s.recorder = recorder }
}

func WithObserver(observer Observer) Option {
	return func(s *FixService) { s.observer = observer }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *FixService) { s.logger = logger }
}

// WithClock overrides the time source used for snapshot and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *FixService) { s.now = now }
}

func NewFixService(source domain.IssueSource, proposer Proposer, applier Applier, settings domain.Settings, opts ...Option) *FixService {
	s := &FixService{
		source:   source,
		proposer: proposer,
		applier:  applier,
		settings: settings,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Run executes one pipeline run. Only fetch, filter and snapshot failures are
// returned as errors; everything that goes wrong inside the per-file loop is
// recorded in the summary instead.
func (s *FixService) Run(ctx context.Context, opts domain.FixOptions) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:    uuid.NewString(),
		DryRun:   opts.DryRun,
		ListOnly: opts.ListOnly,
	}
	logger := s.logger.With(zap.String("run_id", summary.RunID))

	for _, pattern := range opts.ExcludePaths {
		if !doublestar.ValidatePattern(pattern) {
			return nil, &domain.ConfigError{Err: fmt.Errorf("invalid exclude pattern %q", pattern)}
		}
	}

	logger.Info("Fetching issues", zap.String("project", s.settings.ProjectKey), zap.Int("max_issues", opts.Filter.MaxIssues))
	issues, err := s.source.Fetch(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}

	groups := domain.GroupByFile(issues)
	summary.TotalIssues = len(issues)
	summary.TotalFiles = groups.Len()
	if s.observer != nil {
		s.observer.Fetched(issues, groups)
	}

	if summary.NoIssues() {
		logger.Info("No issues matched the filter")
		return summary, nil
	}
	logger.Info("Grouped issues", zap.Int("issues", summary.TotalIssues), zap.Int("files", summary.TotalFiles))

	if opts.SnapshotPath != "" {
		if err := s.saveSnapshot(opts, groups); err != nil {
			return nil, err
		}
		summary.SnapshotPath = opts.SnapshotPath
		logger.Info("Saved snapshot", zap.String("path", opts.SnapshotPath))
	}

	if opts.ListOnly {
		return summary, nil
	}

	outcomes, err := s.processFiles(ctx, logger, opts, groups.Files())
	for _, o := range outcomes {
		summary.Record(o)
	}
	if err != nil {
		return summary, err
	}

	if opts.AutoCommit && !opts.DryRun {
		s.commit(logger, opts.RepoRoot, summary)
	}
	s.finish(logger, opts.RepoRoot, summary)
	return summary, nil
}

// processFiles returns one outcome per file, in grouping order. A cancelled
// context stops the loop; outcomes for unvisited files are omitted.
func (s *FixService) processFiles(ctx context.Context, logger *zap.Logger, opts domain.FixOptions, files []domain.FileGroup) ([]domain.FileOutcome, error) {
	outcomes := make([]domain.FileOutcome, len(files))
	visited := make([]bool, len(files))

	if opts.Concurrency <= 1 {
		for i, fg := range files {
			if err := ctx.Err(); err != nil {
				return collect(outcomes, visited), err
			}
			outcomes[i] = s.processFile(ctx, logger, opts, fg, i, len(files))
			visited[i] = true
		}
		return outcomes, nil
	}

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, fg := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			unlock := s.locks.lock(fg.Path)
			defer unlock()
			outcomes[i] = s.processFile(ctx, logger, opts, fg, i, len(files))
			visited[i] = true
			return nil
		})
	}
	_ = g.Wait()
	return collect(outcomes, visited), ctx.Err()
}

func collect(outcomes []domain.FileOutcome, visited []bool) []domain.FileOutcome {
	out := make([]domain.FileOutcome, 0, len(outcomes))
	for i, o := range outcomes {
		if visited[i] {
			out = append(out, o)
		}
	}
	return out
}

// processFile runs propose then apply for one file and never fails the run.
func (s *FixService) processFile(ctx context.Context, logger *zap.Logger, opts domain.FixOptions, fg domain.FileGroup, index, total int) (outcome domain.FileOutcome) {
	outcome = domain.FileOutcome{Path: fg.Path, Issues: len(fg.Issues)}
	logger = logger.With(zap.String("path", fg.Path))

	if s.observer != nil {
		s.observer.FileStarted(fg.Path, index, total)
		defer func() { s.observer.FileFinished(outcome) }()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unexpected failure while fixing file", zap.Any("panic", r))
			outcome.Status = domain.OutcomeFailed
			outcome.FixesApplied = 0
			outcome.Written = false
			outcome.Error = fmt.Sprintf("unexpected failure: %v", r)
		}
	}()

	if pattern, ok := matchExclude(opts.ExcludePaths, fg.Path); ok {
		logger.Info("Skipping excluded file", zap.String("pattern", pattern))
		outcome.Status = domain.OutcomeSkipped
		return outcome
	}

	set, err := s.proposer.Propose(ctx, opts.RepoRoot, fg.Path, fg.Issues)
	if !set.HasFixes() {
		if err == nil {
			err = &domain.ProposalError{Path: fg.Path, Err: domain.ErrNoProposals}
		}
		logger.Warn("No fixes proposed", zap.Error(err))
		outcome.Status = domain.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	result, err := s.applier.Apply(ctx, set, opts.RepoRoot, opts.DryRun)
	if err != nil || !result.Success {
		if err == nil {
			err = &domain.ApplicationError{Path: fg.Path, Err: errors.New(result.Error)}
		}
		logger.Warn("Failed to apply fixes", zap.Error(err))
		outcome.Status = domain.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = domain.OutcomeFixed
	outcome.FixesApplied = result.FixesApplied
	outcome.Written = result.Written
	return outcome
}

func matchExclude(patterns []string, path string) (string, bool) {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return pattern, true
		}
	}
	return "", false
}

func (s *FixService) saveSnapshot(opts domain.FixOptions, groups *domain.IssueGroups) error {
	if s.snapshots == nil {
		return fmt.Errorf("saving snapshot: no snapshot store configured")
	}
	meta := domain.SnapshotMetadata{
		Server:     s.settings.SonarURL,
		Project:    s.settings.ProjectKey,
		Severities: domain.SeverityStrings(opts.Filter.Severities),
		Types:      domain.IssueTypeStrings(opts.Filter.Types),
		FetchedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if opts.Filter.Branch != "" {
		meta.Branch = domain.StringPtr(opts.Filter.Branch)
	}
	if opts.Filter.PullRequest != "" {
		meta.PullRequest = domain.StringPtr(opts.Filter.PullRequest)
	}
	if err := s.snapshots.Save(opts.SnapshotPath, domain.NewSnapshot(meta, groups)); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// commit records written files. A failed commit leaves the files in place.
func (s *FixService) commit(logger *zap.Logger, repoRoot string, summary *domain.RunSummary) {
	paths := summary.WrittenPaths()
	if s.committer == nil || len(paths) == 0 {
		return
	}
	msg := fmt.Sprintf("fix: resolve %d code-quality issues in %d files", summary.FixesApplied, len(paths))
	hash, err := s.committer.CommitFiles(repoRoot, paths, msg)
	if err != nil {
		logger.Warn("Auto-commit failed", zap.Error(err))
		return
	}
	summary.CommitHash = hash
	logger.Info("Committed fixes", zap.String("commit", hash), zap.Int("files", len(paths)))
}

func (s *FixService) finish(logger *zap.Logger, repoRoot string, summary *domain.RunSummary) {
	if s.recorder != nil {
		s.recorder.Observe(summary)
	}
	if s.history == nil {
		return
	}
	entry := domain.RunEntry{
		RunID:          summary.RunID,
		Timestamp:      s.now().UTC().Format(time.RFC3339),
		CommitHash:     summary.CommitHash,
		DryRun:         summary.DryRun,
		FilesProcessed: summary.FilesProcessed,
		TotalFiles:     summary.TotalFiles,
		FixesApplied:   summary.FixesApplied,
		Failures:       summary.Failures,
		TotalIssues:    summary.TotalIssues,
	}
	if err := s.history.Save(repoRoot, entry); err != nil {
		logger.Warn("Could not record run history", zap.Error(err))
	}
}

// pathLocks serializes work on the same file. Paths are cleaned first so
// spellings such as "a/./b.go" and "a/b.go" share one lock.
type pathLocks struct {
	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

func (l *pathLocks) lock(path string) func() {
	path = filepath.Clean(path)
	l.mu.Lock()
	if l.paths == nil {
		l.paths = make(map[string]*sync.Mutex)
	}
	m, ok := l.paths[path]
	if !ok {
		m = &sync.Mutex{}
		l.paths[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
