package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/abdidvp/sonarfix/internal/domain"
)

const (
	maxIssueRows  = 20
	maxFileRows   = 10
	messageWidth  = 50
	pathWidth     = 60
	historyHashes = 7
)

// ── Warm palette ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	severityColors = map[domain.Severity]lipgloss.Color{
		domain.SeverityBlocker:  danger,
		domain.SeverityCritical: lipgloss.Color("#FB923C"), // orange
		domain.SeverityMajor:    warning,
		domain.SeverityMinor:    info,
		domain.SeverityInfo:     dim,
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	tableHeader   = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	tableCell     = lipgloss.NewStyle().Foreground(fg).Padding(0, 1)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RunHeader describes what a run is about to do.
type RunHeader struct {
	Server      string
	Project     string
	Filter      domain.RetrievalFilter
	DryRun      bool
	ListOnly    bool
	Concurrency int
}

// RenderHeader renders the banner printed before fetching.
func RenderHeader(h RunHeader) string {
	var b strings.Builder

	mode := warnStyle.Render("DRY RUN")
	switch {
	case h.ListOnly:
		mode = dimStyle.Render("LIST ONLY")
	case !h.DryRun:
		mode = failStyle.Bold(true).Render("FIXING")
	}
	title := headerStyle.Render("sonarfix")
	subtitle := dimStyle.Render("Code-quality issue fixer")
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + mode))
	b.WriteString("\n\n")

	field := func(name, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render(padRight(name+":", 20)), value)
	}
	f := h.Filter
	field("Server", h.Server)
	field("Project", h.Project)
	field("Branch", f.Branch)
	field("Pull request", f.PullRequest)
	field("Severities", strings.Join(domain.SeverityStrings(f.Severities), ", "))
	field("Impact severities", strings.Join(domain.ImpactSeverityStrings(f.ImpactSeverities), ", "))
	field("Types", strings.Join(domain.IssueTypeStrings(f.Types), ", "))
	field("Statuses", strings.Join(domain.StatusStrings(f.Statuses), ", "))
	field("Max issues", fmt.Sprintf("%d", f.MaxIssues))
	if h.Concurrency > 1 {
		field("Concurrency", fmt.Sprintf("%d", h.Concurrency))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderIssues renders the first issues in retrieval order.
func RenderIssues(issues []*domain.Issue) string {
	if len(issues) == 0 {
		return "  " + passStyle.Render("No issues found.") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", titleStyle.Render(fmt.Sprintf("Found %d issues", len(issues))))

	t := newTable("Severity", "Type", "Rule", "Location", "Message")
	for _, issue := range issues[:min(len(issues), maxIssueRows)] {
		t.Row(
			severityLabel(issue.Severity),
			string(issue.Type),
			issue.Rule,
			issue.Location(),
			truncate(issue.Message, messageWidth),
		)
	}
	b.WriteString(indent(t.String()))
	b.WriteString("\n")

	if len(issues) > maxIssueRows {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("... and %d more issues", len(issues)-maxIssueRows)))
	}
	return b.String()
}

// RenderFileSummary renders the largest file groups.
func RenderFileSummary(groups *domain.IssueGroups) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", titleStyle.Render(fmt.Sprintf("Issues grouped by file (%d files)", groups.Len())))

	t := newTable("File", "Issues", "Severities")
	bySize := groups.BySize()
	for _, fg := range bySize[:min(len(bySize), maxFileRows)] {
		sevs := make([]string, 0, len(fg.Severities()))
		for _, s := range fg.Severities() {
			sevs = append(sevs, string(s))
		}
		t.Row(truncate(fg.Path, pathWidth), fmt.Sprintf("%d", len(fg.Issues)), strings.Join(sevs, ", "))
	}
	b.WriteString(indent(t.String()))
	b.WriteString("\n")
	return b.String()
}

// RenderOutcome renders one per-file result line.
func RenderOutcome(o domain.FileOutcome, dryRun bool) string {
	switch o.Status {
	case domain.OutcomeFixed:
		verb := "Fixed"
		if dryRun {
			verb = "Would fix"
		}
		return fmt.Sprintf("  %s %s %d issues in %s\n", passStyle.Render("✓"), verb, o.FixesApplied, fileStyle.Render(o.Path))
	case domain.OutcomeSkipped:
		return fmt.Sprintf("  %s Skipped %s\n", dimStyle.Render("○"), fileStyle.Render(o.Path))
	default:
		return fmt.Sprintf("  %s Failed to fix %s: %s\n", failStyle.Render("✗"), fileStyle.Render(o.Path), o.Error)
	}
}

// RenderRunSummary renders the closing counters.
func RenderRunSummary(s *domain.RunSummary) string {
	var b strings.Builder
	b.WriteString("\n  " + separatorLine + "\n\n")
	b.WriteString("  " + titleStyle.Render("Summary") + "\n")

	failures := passStyle.Render("0")
	if s.Failures > 0 {
		failures = failStyle.Render(fmt.Sprintf("%d", s.Failures))
	}
	fmt.Fprintf(&b, "    Files processed:     %d/%d\n", s.FilesProcessed, s.TotalFiles)
	fmt.Fprintf(&b, "    Total fixes applied: %d\n", s.FixesApplied)
	fmt.Fprintf(&b, "    Failures:            %s\n", failures)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "    Skipped:             %d\n", s.Skipped)
	}
	fmt.Fprintf(&b, "    Original issues:     %d\n", s.TotalIssues)
	if s.CommitHash != "" {
		fmt.Fprintf(&b, "    Commit:              %s\n", shortHash(s.CommitHash))
	}
	if s.DryRun {
		b.WriteString("\n  " + warnStyle.Render("This was a dry run. Use --fix to write changes.") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// RenderHistory formats run history for terminal output.
func RenderHistory(entries []domain.RunEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No run history found.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Run History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")

	for _, e := range entries {
		hash := shortHash(e.CommitHash)
		if hash == "" {
			hash = "·······"
		}
		mode := passStyle.Render("live")
		if e.DryRun {
			mode = warnStyle.Render("dry ")
		}
		day := e.Timestamp
		if len(day) > 10 {
			day = day[:10]
		}

		line := fmt.Sprintf("  %s  %s  %s  %d/%d files  %d fixes",
			dimStyle.Render(day),
			faintStyle.Render(hash),
			mode,
			e.FilesProcessed, e.TotalFiles,
			e.FixesApplied,
		)
		if e.Failures > 0 {
			line += "  " + failStyle.Render(fmt.Sprintf("%d failed", e.Failures))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(faintStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})
}

func severityLabel(s domain.Severity) string {
	color, ok := severityColors[s]
	if !ok {
		color = fg
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(s))
}

func shortHash(hash string) string {
	if len(hash) > historyHashes {
		return hash[:historyHashes]
	}
	return hash
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func indent(block string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
