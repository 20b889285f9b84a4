package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/adapters/outbound/agent"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/config"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/gitinfo"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/history"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/metrics"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/snapshot"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/sonarqube"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/tui"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/workspace"
	"github.com/abdidvp/sonarfix/internal/application"
	"github.com/abdidvp/sonarfix/internal/domain"
)

type runFlags struct {
	path             string
	severities       []string
	impactSeverities []string
	types            []string
	statuses         []string
	branch           string
	pullRequest      string
	maxIssues        int
	fix              bool
	list             bool
	autoCommit       bool
	saveJSON         string
	concurrency      int
	allowPartial     bool
	failOnError      bool
	metricsFile      string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch issues and fix them file by file",
		Long: `Fetch issues from SonarQube, group them by file, and for each file ask the
reasoning service to propose fixes and then rewrite the file.

Runs are dry by default: the full analysis runs but no file is written.
Pass --fix to write changes, or --list to only fetch and display issues.

Exit status is 1 on missing configuration or when fetching issues fails.
Per-file failures only appear in the summary unless --fail-on-error is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(cmd, a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.path, "path", ".", "Repository root the issue paths are relative to")
	fl.StringSliceVar(&f.severities, "severity", nil, "Severities to fetch (BLOCKER, CRITICAL, MAJOR, MINOR, INFO)")
	fl.StringSliceVar(&f.impactSeverities, "impact-severity", nil, "Impact severities to fetch (HIGH, MEDIUM, LOW)")
	fl.StringSliceVar(&f.types, "type", nil, "Issue types to fetch (BUG, VULNERABILITY, CODE_SMELL)")
	fl.StringSliceVar(&f.statuses, "status", nil, "Statuses to fetch (OPEN, CONFIRMED, REOPENED, RESOLVED, CLOSED)")
	fl.StringVar(&f.branch, "branch", "", "Branch to analyze")
	fl.StringVar(&f.pullRequest, "pull-request", "", "Pull request to analyze")
	fl.IntVar(&f.maxIssues, "max-issues", 0, fmt.Sprintf("Maximum issues to fetch, 1-%d (default from config, else %d)", domain.MaxIssuesLimit, domain.DefaultMaxIssues))
	fl.BoolVar(&f.fix, "fix", false, "Write fixes to disk (default is a dry run)")
	fl.BoolVar(&f.list, "list", false, "Only fetch, group and display issues")
	fl.BoolVar(&f.autoCommit, "auto-commit", false, "Commit written files after a --fix run")
	fl.StringVar(&f.saveJSON, "save-json", "", "Save grouped issues to this JSON file")
	fl.IntVar(&f.concurrency, "concurrency", 1, "Files processed in parallel")
	fl.BoolVar(&f.allowPartial, "allow-partial", false, "Keep issues already fetched when a later page fails")
	fl.BoolVar(&f.failOnError, "fail-on-error", false, "Exit non-zero when any file fails")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus text-format run counters to this file")
	cmd.MarkFlagsMutuallyExclusive("fix", "list")

	return cmd
}

func runFix(cmd *cobra.Command, a *app, f runFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	root, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	settings, err := config.New().Load(root)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		reportConfigError(cmd, err)
		return err
	}

	filter, err := buildFilter(settings.Defaults, f)
	if err != nil {
		return err
	}
	if f.concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1 (got %d)", f.concurrency)
	}

	logger := a.logger
	ws := workspace.New()

	var proposer application.Proposer
	var applier application.Applier
	if !f.list {
		ag, err := agent.New(ctx, settings.Agent, logger)
		if err != nil {
			reportConfigError(cmd, err)
			return err
		}
		proposer = application.NewProposalService(ag, ws, logger)
		applier = application.NewApplyService(ag, ws, logger)
	}

	source := sonarqube.New(&settings,
		sonarqube.WithLogger(logger),
		sonarqube.WithPartialResults(f.allowPartial),
	)

	opts := []application.Option{
		application.WithLogger(logger),
		application.WithSnapshotStore(snapshot.New()),
		application.WithHistory(history.New()),
		application.WithObserver(tui.NewProgress(out, !f.fix, f.list)),
	}
	if f.autoCommit {
		opts = append(opts, application.WithCommitter(gitinfo.New(settings.Git)))
	}
	var recorder *metrics.Recorder
	if f.metricsFile != "" {
		recorder = metrics.New()
		opts = append(opts, application.WithRecorder(recorder))
	}
	svc := application.NewFixService(source, proposer, applier, settings, opts...)

	fmt.Fprint(out, tui.RenderHeader(tui.RunHeader{
		Server:      settings.SonarURL,
		Project:     settings.ProjectKey,
		Filter:      filter,
		DryRun:      !f.fix,
		ListOnly:    f.list,
		Concurrency: f.concurrency,
	}))

	summary, err := svc.Run(ctx, domain.FixOptions{
		RepoRoot:     root,
		Filter:       filter,
		DryRun:       !f.fix,
		ListOnly:     f.list,
		AutoCommit:   f.autoCommit,
		SnapshotPath: f.saveJSON,
		Concurrency:  f.concurrency,
		ExcludePaths: settings.ExcludePaths,
	})
	if err != nil {
		return err
	}

	if summary.SnapshotPath != "" {
		fmt.Fprintf(out, "\n  Saved issues to %s\n", summary.SnapshotPath)
	}
	switch {
	case summary.NoIssues():
		return nil
	case summary.ListOnly:
		fmt.Fprintln(out, "\n  Listed only. Run without --list to analyze, add --fix to write changes.")
		return nil
	}

	fmt.Fprint(out, tui.RenderRunSummary(summary))

	if recorder != nil {
		if err := recorder.WriteTextfile(f.metricsFile); err != nil {
			logger.Warn("Could not write metrics", zap.String("path", f.metricsFile), zap.Error(err))
		}
	}
	if f.failOnError && summary.Failures > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failures, summary.TotalFiles)
	}
	return nil
}

// buildFilter overlays explicitly passed flags on the configured defaults.
func buildFilter(defaults domain.RetrievalFilter, f runFlags) (domain.RetrievalFilter, error) {
	filter := defaults
	filter.Branch = f.branch
	filter.PullRequest = f.pullRequest
	if f.maxIssues != 0 {
		filter.MaxIssues = f.maxIssues
	}

	if len(f.severities) > 0 {
		filter.Severities = nil
		for _, s := range f.severities {
			sev, err := domain.ParseSeverity(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				return filter, fmt.Errorf("--severity: %w", err)
			}
			filter.Severities = append(filter.Severities, sev)
		}
	}
	if len(f.impactSeverities) > 0 {
		filter.ImpactSeverities = nil
		for _, s := range f.impactSeverities {
			imp, err := domain.ParseImpactSeverity(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				return filter, fmt.Errorf("--impact-severity: %w", err)
			}
			filter.ImpactSeverities = append(filter.ImpactSeverities, imp)
		}
	}
	if len(f.types) > 0 {
		filter.Types = nil
		for _, s := range f.types {
			typ, err := domain.ParseIssueType(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				return filter, fmt.Errorf("--type: %w", err)
			}
			filter.Types = append(filter.Types, typ)
		}
	}
	if len(f.statuses) > 0 {
		filter.Statuses = nil
		for _, s := range f.statuses {
			st, err := domain.ParseStatus(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				return filter, fmt.Errorf("--status: %w", err)
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	return filter, filter.Validate()
}
