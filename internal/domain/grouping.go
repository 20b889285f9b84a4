package domain

import "sort"

// FileGroup is the bucket of issues sharing one file path.
type FileGroup struct {
	Path   string
	Issues []*Issue
}

// Severities returns the distinct severities in the group, most severe first.
func (g FileGroup) Severities() []Severity {
	seen := make(map[Severity]bool)
	var out []Severity
	for _, issue := range g.Issues {
		if !seen[issue.Severity] {
			seen[issue.Severity] = true
			out = append(out, issue.Severity)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank() < out[j].Rank() })
	return out
}

// IssueGroups partitions issues by file path. Iteration order is the order in
// which each path was first seen.
type IssueGroups struct {
	groups []FileGroup
	index  map[string]int
}

// GroupByFile buckets issues by derived file path, keeping input order inside
// each bucket. The same *Issue values are shared, never copied.
func GroupByFile(issues []*Issue) *IssueGroups {
	g := &IssueGroups{index: make(map[string]int)}
	for _, issue := range issues {
		g.add(issue.FilePath(), issue)
	}
	return g
}

func (g *IssueGroups) add(path string, issue *Issue) {
	if g.index == nil {
		g.index = make(map[string]int)
	}
	i, ok := g.index[path]
	if !ok {
		i = len(g.groups)
		g.index[path] = i
		g.groups = append(g.groups, FileGroup{Path: path})
	}
	g.groups[i].Issues = append(g.groups[i].Issues, issue)
}

// Files returns the groups in first-seen order.
func (g *IssueGroups) Files() []FileGroup {
	if g == nil {
		return nil
	}
	return g.groups
}

// Get returns the issues for path.
func (g *IssueGroups) Get(path string) ([]*Issue, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[path]
	if !ok {
		return nil, false
	}
	return g.groups[i].Issues, true
}

// Len returns the number of distinct files.
func (g *IssueGroups) Len() int {
	if g == nil {
		return 0
	}
	return len(g.groups)
}

// IssueCount returns the total number of grouped issues.
func (g *IssueGroups) IssueCount() int {
	n := 0
	for _, fg := range g.Files() {
		n += len(fg.Issues)
	}
	return n
}

// BySize returns a display ordering with the largest buckets first. Ties keep
// first-seen order. The underlying groups are not reordered.
func (g *IssueGroups) BySize() []FileGroup {
	out := make([]FileGroup, len(g.Files()))
	copy(out, g.Files())
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Issues) > len(out[j].Issues)
	})
	return out
}
