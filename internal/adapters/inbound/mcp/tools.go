package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/adapters/outbound/snapshot"
	"github.com/abdidvp/sonarfix/internal/domain"
)

// registerTools registers all sonarfix MCP tools on the given server.
func registerTools(s *server.MCPServer, deps Deps) {
	// 1. sonarfix_fetch_issues
	s.AddTool(
		mcplib.NewTool("sonarfix_fetch_issues",
			mcplib.WithDescription("Fetch issues from the code-quality server and return them grouped by file, in snapshot format"),
			mcplib.WithString("severities", mcplib.Description("Comma-separated severities (BLOCKER, CRITICAL, MAJOR, MINOR, INFO)")),
			mcplib.WithString("impact_severities", mcplib.Description("Comma-separated impact severities (HIGH, MEDIUM, LOW)")),
			mcplib.WithString("types", mcplib.Description("Comma-separated types (BUG, VULNERABILITY, CODE_SMELL)")),
			mcplib.WithString("statuses", mcplib.Description("Comma-separated statuses (OPEN, CONFIRMED, REOPENED, RESOLVED, CLOSED)")),
			mcplib.WithString("branch", mcplib.Description("Branch to analyze")),
			mcplib.WithString("pull_request", mcplib.Description("Pull request to analyze")),
			mcplib.WithNumber("max_issues", mcplib.Description("Maximum number of issues to return (1-10000)")),
		),
		handleFetchIssues(deps),
	)

	// 2. sonarfix_read_snapshot
	s.AddTool(
		mcplib.NewTool("sonarfix_read_snapshot",
			mcplib.WithDescription("Read a saved snapshot and return its metadata and per-file issue counts"),
			mcplib.WithString("path",
				mcplib.Required(),
				mcplib.Description("Snapshot path, relative to the repository root"),
			),
		),
		handleReadSnapshot(deps),
	)

	// 3. sonarfix_get_issue
	s.AddTool(
		mcplib.NewTool("sonarfix_get_issue",
			mcplib.WithDescription("Look up a single issue by key"),
			mcplib.WithString("key",
				mcplib.Required(),
				mcplib.Description("Issue key as reported by the server"),
			),
		),
		handleGetIssue(deps),
	)
}

// issueLookup is implemented by sources that can fetch one issue by key.
type issueLookup interface {
	Issue(ctx context.Context, key string) (*domain.Issue, error)
}

func handleFetchIssues(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		if deps.Source == nil {
			msg := "issue source unavailable"
			if deps.SourceErr != nil {
				msg = deps.SourceErr.Error()
			}
			return errorResult(msg), nil
		}

		filter, err := filterFromArgs(deps.Settings.Defaults, request.GetArguments())
		if err != nil {
			return errorResult(err.Error()), nil
		}

		issues, err := deps.Source.Fetch(ctx, filter)
		if err != nil {
			return errorResult(fmt.Sprintf("fetch failed: %v", err)), nil
		}
		deps.Logger.Info("MCP fetch", zap.Int("issues", len(issues)))

		meta := domain.SnapshotMetadata{
			Server:     deps.Settings.SonarURL,
			Project:    deps.Settings.ProjectKey,
			Severities: domain.SeverityStrings(filter.Severities),
			Types:      domain.IssueTypeStrings(filter.Types),
			FetchedAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if filter.Branch != "" {
			meta.Branch = domain.StringPtr(filter.Branch)
		}
		if filter.PullRequest != "" {
			meta.PullRequest = domain.StringPtr(filter.PullRequest)
		}

		data, err := snapshot.Marshal(domain.NewSnapshot(meta, domain.GroupByFile(issues)))
		if err != nil {
			return nil, fmt.Errorf("marshaling snapshot: %w", err)
		}
		return textResult(string(data)), nil
	}
}

type fileCount struct {
	Path   string `json:"path"`
	Issues int    `json:"issues"`
}

type snapshotSummary struct {
	Metadata domain.SnapshotMetadata `json:"metadata"`
	Files    []fileCount             `json:"files"`
}

func handleReadSnapshot(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(deps.RepoRoot, path)
		}

		snap, err := deps.Snapshots.Load(path)
		if err != nil {
			return errorResult(fmt.Sprintf("reading snapshot: %v", err)), nil
		}

		out := snapshotSummary{Metadata: snap.Metadata, Files: make([]fileCount, 0, len(snap.Files))}
		for _, f := range snap.Files {
			out.Files = append(out.Files, fileCount{Path: f.Path, Issues: len(f.Issues)})
		}
		return jsonResult(out)
	}
}

func handleGetIssue(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		key, err := request.RequireString("key")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		lookup, ok := deps.Source.(issueLookup)
		if !ok {
			msg := "issue lookup unavailable"
			if deps.SourceErr != nil {
				msg = deps.SourceErr.Error()
			}
			return errorResult(msg), nil
		}

		issue, err := lookup.Issue(ctx, key)
		if err != nil {
			return errorResult(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		if issue == nil {
			return errorResult(fmt.Sprintf("issue %q not found", key)), nil
		}
		return jsonResult(issue)
	}
}

// filterFromArgs overlays tool arguments on the configured defaults.
func filterFromArgs(defaults domain.RetrievalFilter, args map[string]any) (domain.RetrievalFilter, error) {
	f := defaults

	if v, ok := args["severities"].(string); ok && v != "" {
		f.Severities = nil
		for _, s := range splitAndTrim(v) {
			sev, err := domain.ParseSeverity(strings.ToUpper(s))
			if err != nil {
				return f, err
			}
			f.Severities = append(f.Severities, sev)
		}
	}
	if v, ok := args["impact_severities"].(string); ok && v != "" {
		f.ImpactSeverities = nil
		for _, s := range splitAndTrim(v) {
			imp, err := domain.ParseImpactSeverity(strings.ToUpper(s))
			if err != nil {
				return f, err
			}
			f.ImpactSeverities = append(f.ImpactSeverities, imp)
		}
	}
	if v, ok := args["types"].(string); ok && v != "" {
		f.Types = nil
		for _, s := range splitAndTrim(v) {
			typ, err := domain.ParseIssueType(strings.ToUpper(s))
			if err != nil {
				return f, err
			}
			f.Types = append(f.Types, typ)
		}
	}
	if v, ok := args["statuses"].(string); ok && v != "" {
		f.Statuses = nil
		for _, s := range splitAndTrim(v) {
			st, err := domain.ParseStatus(strings.ToUpper(s))
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if v, ok := args["branch"].(string); ok {
		f.Branch = v
	}
	if v, ok := args["pull_request"].(string); ok {
		f.PullRequest = v
	}
	if v, ok := args["max_issues"].(float64); ok {
		f.MaxIssues = int(v)
	}
	return f, f.Validate()
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// textResult returns a plain text content result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
