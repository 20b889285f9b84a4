package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/abdidvp/sonarfix/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot(t *testing.T) {
	withLine := issue("2", "p:a.go", domain.SeverityBlocker)
	withLine.Line = domain.IntPtr(7)
	withLine.Effort = domain.StringPtr("5min")

	groups := domain.GroupByFile([]*domain.Issue{
		issue("1", "p:b.go", domain.SeverityMajor),
		withLine,
		issue("3", "p:b.go", domain.SeverityMinor),
	})

	snap := domain.NewSnapshot(domain.SnapshotMetadata{Server: "https://s", Project: "p"}, groups)
	assert.Equal(t, 3, snap.Metadata.TotalIssues)
	assert.Equal(t, 2, snap.Metadata.TotalFiles)
	require.Len(t, snap.Files, 2)
	assert.Equal(t, "b.go", snap.Files[0].Path)

	a := snap.Files[1].Issues[0]
	assert.Equal(t, "2", a.Key)
	assert.Equal(t, "BLOCKER", a.Severity)
	require.NotNil(t, a.Line)
	assert.Equal(t, 7, *a.Line)
	require.NotNil(t, a.Effort)
	assert.Equal(t, "5min", *a.Effort)

	assert.Equal(t, map[string][]string{"b.go": {"1", "3"}, "a.go": {"2"}}, snap.KeysByFile())
}

func TestSnapshotMetadata_UnsetFiltersEncodeAsNull(t *testing.T) {
	var f domain.RetrievalFilter
	assert.Nil(t, domain.SeverityStrings(f.Severities))
	assert.Nil(t, domain.IssueTypeStrings(f.Types))
	assert.Equal(t, []string{"MAJOR"}, domain.SeverityStrings([]domain.Severity{domain.SeverityMajor}))

	data, err := json.Marshal(domain.SnapshotMetadata{
		Severities: domain.SeverityStrings(f.Severities),
		Types:      domain.IssueTypeStrings([]domain.IssueType{}),
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severities":null`)
	assert.Contains(t, string(data), `"types":null`)
}
