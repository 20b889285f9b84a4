package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// Progress prints pipeline events as they happen. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	out      io.Writer
	dryRun   bool
	listOnly bool
}

func NewProgress(out io.Writer, dryRun, listOnly bool) *Progress {
	return &Progress{out: out, dryRun: dryRun, listOnly: listOnly}
}

func (p *Progress) Fetched(issues []*domain.Issue, groups *domain.IssueGroups) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.out, RenderIssues(issues))
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, RenderFileSummary(groups))
	if !p.listOnly {
		fmt.Fprintf(p.out, "\n  %s\n\n", titleStyle.Render("Fixing issues file by file..."))
	}
}

func (p *Progress) FileStarted(path string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "  %s %s\n", dimStyle.Render(fmt.Sprintf("[%d/%d]", index+1, total)), fileStyle.Render(path))
}

func (p *Progress) FileFinished(o domain.FileOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, RenderOutcome(o, p.dryRun))
}
