package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/abdidvp/sonarfix/internal/adapters/outbound/agent/agenttest"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/workspace"
	"github.com/abdidvp/sonarfix/internal/application"
	"github.com/abdidvp/sonarfix/internal/domain"
)

var fixedClock = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

type harness struct {
	root      string
	source    *fakeSource
	agent     *agenttest.Mock
	snapshots *memSnapshots
	history   *memHistory
	committer *fakeCommitter
	recorder  *fakeRecorder
	svc       *application.FixService
}

func newHarness(t *testing.T, files map[string]string, issues []*domain.Issue, respond func(domain.AgentRequest) (string, error)) *harness {
	t.Helper()
	h := &harness{
		root:      writeRepo(t, files),
		source:    &fakeSource{issues: issues},
		agent:     &agenttest.Mock{Func: respond},
		snapshots: &memSnapshots{},
		history:   &memHistory{},
		committer: &fakeCommitter{},
		recorder:  &fakeRecorder{},
	}
	ws := workspace.New()
	logger := zaptest.NewLogger(t)
	settings := domain.Settings{SonarURL: "https://sonar.example.com", SonarToken: "t", ProjectKey: "proj"}
	h.svc = application.NewFixService(
		h.source,
		application.NewProposalService(h.agent, ws, logger),
		application.NewApplyService(h.agent, ws, logger),
		settings,
		application.WithSnapshotStore(h.snapshots),
		application.WithHistory(h.history),
		application.WithCommitter(h.committer),
		application.WithRecorder(h.recorder),
		application.WithLogger(logger),
		application.WithClock(fixedClock),
	)
	return h
}

func threeFiles() (map[string]string, []*domain.Issue) {
	files := map[string]string{
		"a.go": "package a\n",
		"b.go": "package b\n",
		"c.go": "package c\n",
	}
	issues := []*domain.Issue{
		newIssue("A1", "a.go", 1),
		newIssue("B1", "b.go", 1),
		newIssue("A2", "a.go", 2),
		newIssue("C1", "c.go", 1),
	}
	return files, issues
}

func (h *harness) opts(dryRun bool) domain.FixOptions {
	return domain.FixOptions{
		RepoRoot: h.root,
		Filter:   domain.DefaultFilter(),
		DryRun:   dryRun,
	}
}

func TestRun_DryRunNeverMutatesFiles(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))

	summary, err := h.svc.Run(context.Background(), h.opts(true))
	require.NoError(t, err)

	for path, content := range files {
		assert.Equal(t, content, readFile(t, h.root, path))
	}
	assert.Equal(t, 4, summary.TotalIssues)
	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 3, summary.FilesProcessed)
	assert.Equal(t, 4, summary.FixesApplied)
	assert.Equal(t, 0, summary.Failures)
	assert.True(t, summary.DryRun)
	assert.Empty(t, summary.WrittenPaths())
	assert.Equal(t, 6, h.agent.CallCount(), "one proposal and one apply call per file")
	assert.Nil(t, h.committer.paths)
}

func TestRun_LiveRewritesFilesInGroupingOrder(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))

	summary, err := h.svc.Run(context.Background(), h.opts(false))
	require.NoError(t, err)

	assert.Equal(t, "fixed a.go\n", readFile(t, h.root, "a.go"))
	assert.Equal(t, "fixed b.go\n", readFile(t, h.root, "b.go"))
	var order []string
	for _, o := range summary.Outcomes {
		order = append(order, o.Path)
		assert.Equal(t, domain.OutcomeFixed, o.Status)
	}
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, order)
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, summary.WrittenPaths())
}

func TestRun_ZeroProposalsCountsOneFailureAndSkipsApply(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(map[string]bool{"b.go": true}, nil))

	summary, err := h.svc.Run(context.Background(), h.opts(false))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 3, summary.FixesApplied)
	assert.Equal(t, "package b\n", readFile(t, h.root, "b.go"))

	var applyCalls int
	for _, req := range h.agent.Requests() {
		if !req.JSON {
			applyCalls++
			assert.NotEqual(t, "b.go", promptPath(req.Prompt))
		}
	}
	assert.Equal(t, 2, applyCalls)
}

func TestRun_OneFileFailureDoesNotStopOthers(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, map[string]bool{"a.go": true}))

	summary, err := h.svc.Run(context.Background(), h.opts(false))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, "package a\n", readFile(t, h.root, "a.go"))
	assert.Equal(t, "fixed b.go\n", readFile(t, h.root, "b.go"))
	assert.Equal(t, "fixed c.go\n", readFile(t, h.root, "c.go"))
	assert.Contains(t, summary.Outcomes[0].Error, "empty file content")
}

func TestRun_MissingFileIsAFailure(t *testing.T) {
	files, issues := threeFiles()
	delete(files, "c.go")
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))

	summary, err := h.svc.Run(context.Background(), h.opts(false))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, domain.OutcomeFailed, summary.Outcomes[2].Status)
	assert.Contains(t, summary.Outcomes[2].Error, "file not found")
}

func TestRun_FetchFailureTouchesNothing(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))
	h.source.err = &domain.RetrievalError{Page: 2, Err: errors.New("HTTP 502")}

	opts := h.opts(false)
	opts.SnapshotPath = "out.json"
	summary, err := h.svc.Run(context.Background(), opts)
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, domain.IsFatal(err))
	assert.Equal(t, 0, h.agent.CallCount())
	assert.Empty(t, h.snapshots.saved)
	assert.Empty(t, h.history.entries)
	assert.Equal(t, "package a\n", readFile(t, h.root, "a.go"))
}

func TestRun_NoIssues(t *testing.T) {
	h := newHarness(t, nil, nil, scriptedAgent(nil, nil))

	opts := h.opts(false)
	opts.SnapshotPath = "out.json"
	summary, err := h.svc.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, summary.NoIssues())
	assert.Equal(t, 0, summary.TotalFiles)
	assert.Equal(t, 0, h.agent.CallCount())
	assert.Empty(t, h.snapshots.saved)
}

func TestRun_SnapshotIndependentOfDryRun(t *testing.T) {
	files, issues := threeFiles()
	var keys [2]map[string][]string

	for i, dryRun := range []bool{true, false} {
		h := newHarness(t, files, issues, scriptedAgent(nil, nil))
		opts := h.opts(dryRun)
		opts.SnapshotPath = "snap.json"
		opts.Filter.Branch = "main"

		summary, err := h.svc.Run(context.Background(), opts)
		require.NoError(t, err)
		assert.Equal(t, "snap.json", summary.SnapshotPath)

		snap, err := h.snapshots.Load("snap.json")
		require.NoError(t, err)
		assert.Equal(t, "https://sonar.example.com", snap.Metadata.Server)
		assert.Equal(t, "proj", snap.Metadata.Project)
		require.NotNil(t, snap.Metadata.Branch)
		assert.Equal(t, "main", *snap.Metadata.Branch)
		assert.Nil(t, snap.Metadata.PullRequest)
		assert.Equal(t, []string{"BLOCKER", "CRITICAL"}, snap.Metadata.Severities)
		assert.Equal(t, "2026-03-01T12:00:00Z", snap.Metadata.FetchedAt)
		assert.Equal(t, 4, snap.Metadata.TotalIssues)
		assert.Equal(t, 3, snap.Metadata.TotalFiles)
		keys[i] = snap.KeysByFile()
	}

	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, []string{"A1", "A2"}, keys[0]["a.go"])
}

func TestRun_SnapshotFailureIsFatal(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))
	h.snapshots.err = errors.New("disk full")

	opts := h.opts(false)
	opts.SnapshotPath = "snap.json"
	_, err := h.svc.Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, h.agent.CallCount())
}

func TestRun_ListOnlyStopsAfterGrouping(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))

	opts := h.opts(false)
	opts.ListOnly = true
	opts.SnapshotPath = "snap.json"
	summary, err := h.svc.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, summary.ListOnly)
	assert.Equal(t, 3, summary.TotalFiles)
	assert.Empty(t, summary.Outcomes)
	assert.Equal(t, 0, h.agent.CallCount())
	assert.Contains(t, h.snapshots.saved, "snap.json")
}

func TestRun_ExcludedFilesAreSkipped(t *testing.T) {
	files := map[string]string{"vendor/x/y.go": "package y\n", "a.go": "package a\n"}
	issues := []*domain.Issue{newIssue("V1", "vendor/x/y.go", 1), newIssue("A1", "a.go", 1)}
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))

	opts := h.opts(false)
	opts.ExcludePaths = []string{"vendor/**"}
	summary, err := h.svc.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.FilesProcessed)
	assert.Equal(t, domain.OutcomeSkipped, summary.Outcomes[0].Status)
	assert.Equal(t, "package y\n", readFile(t, h.root, "vendor/x/y.go"))
	assert.Equal(t, 2, h.agent.CallCount())
}

func TestRun_InvalidExcludePattern(t *testing.T) {
	h := newHarness(t, nil, nil, scriptedAgent(nil, nil))
	opts := h.opts(false)
	opts.ExcludePaths = []string{"[unclosed"}

	_, err := h.svc.Run(context.Background(), opts)
	var cerr *domain.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 0, h.source.calls)
}

func TestRun_PanicInStageIsRecordedAsFailure(t *testing.T) {
	files, issues := threeFiles()
	ws := workspace.New()
	agent := &agenttest.Mock{Func: scriptedAgent(nil, nil)}
	svc := application.NewFixService(
		&fakeSource{issues: issues},
		panicProposer{path: "b.go"},
		application.NewApplyService(agent, ws, nil),
		domain.Settings{ProjectKey: "proj"},
	)
	root := writeRepo(t, files)

	summary, err := svc.Run(context.Background(), domain.FixOptions{RepoRoot: root, Filter: domain.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Contains(t, summary.Outcomes[1].Error, "boom")
}

func TestRun_ConcurrentMatchesSequential(t *testing.T) {
	files := map[string]string{}
	var issues []*domain.Issue
	for i := 0; i < 12; i++ {
		path := fmt.Sprintf("pkg/f%02d.go", i)
		files[path] = "package pkg\n"
		issues = append(issues, newIssue(fmt.Sprintf("K%d", i), path, 1))
		if i%3 == 0 {
			issues = append(issues, newIssue(fmt.Sprintf("K%d-b", i), path, 2))
		}
	}
	fail := map[string]bool{"pkg/f04.go": true}

	seq := newHarness(t, files, issues, scriptedAgent(nil, fail))
	want, err := seq.svc.Run(context.Background(), seq.opts(false))
	require.NoError(t, err)

	par := newHarness(t, files, issues, scriptedAgent(nil, fail))
	opts := par.opts(false)
	opts.Concurrency = 4
	got, err := par.svc.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, want.FilesProcessed, got.FilesProcessed)
	assert.Equal(t, want.FixesApplied, got.FixesApplied)
	assert.Equal(t, want.Failures, got.Failures)
	require.Len(t, got.Outcomes, len(want.Outcomes))
	for i := range want.Outcomes {
		assert.Equal(t, want.Outcomes[i].Path, got.Outcomes[i].Path)
		assert.Equal(t, want.Outcomes[i].Status, got.Outcomes[i].Status)
	}
	for path := range files {
		assert.Equal(t, readFile(t, seq.root, path), readFile(t, par.root, path))
	}
}

func TestRun_CancelledContextStopsLoop(t *testing.T) {
	files, issues := threeFiles()
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	h := newHarness(t, files, issues, func(req domain.AgentRequest) (string, error) {
		once.Do(cancel)
		return scriptedAgent(nil, nil)(req)
	})

	summary, err := h.svc.Run(ctx, h.opts(false))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Len(t, summary.Outcomes, 1)
	assert.Empty(t, h.history.entries)
}

func TestRun_AutoCommitWrittenFiles(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, map[string]bool{"c.go": true}))

	opts := h.opts(false)
	opts.AutoCommit = true
	summary, err := h.svc.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.go", "b.go"}, h.committer.paths)
	assert.Contains(t, h.committer.message, "3 code-quality issues in 2 files")
	assert.Equal(t, "abc1234", summary.CommitHash)
}

func TestRun_AutoCommitFailureIsNotFatal(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))
	h.committer.err = errors.New("not a git repository")

	opts := h.opts(false)
	opts.AutoCommit = true
	summary, err := h.svc.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, summary.CommitHash)
	assert.Equal(t, "fixed a.go\n", readFile(t, h.root, "a.go"))
}

func TestRun_AutoCommitSkippedOnDryRun(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))

	opts := h.opts(true)
	opts.AutoCommit = true
	_, err := h.svc.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Nil(t, h.committer.paths)
}

func TestRun_RecordsHistoryAndMetrics(t *testing.T) {
	files, issues := threeFiles()
	h := newHarness(t, files, issues, scriptedAgent(nil, nil))

	summary, err := h.svc.Run(context.Background(), h.opts(true))
	require.NoError(t, err)

	require.Len(t, h.history.entries, 1)
	entry := h.history.entries[0]
	assert.Equal(t, summary.RunID, entry.RunID)
	assert.Equal(t, "2026-03-01T12:00:00Z", entry.Timestamp)
	assert.True(t, entry.DryRun)
	assert.Equal(t, 3, entry.FilesProcessed)
	assert.Equal(t, 4, entry.TotalIssues)

	require.Len(t, h.recorder.observed, 1)
	assert.Same(t, summary, h.recorder.observed[0])
}
