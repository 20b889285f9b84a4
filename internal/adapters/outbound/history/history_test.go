package history_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/sonarfix/internal/adapters/outbound/history"
	"github.com/abdidvp/sonarfix/internal/domain"
)

func TestHistory_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entry := domain.RunEntry{
		RunID:          "5f0c",
		Timestamp:      "2026-02-25T10:00:00Z",
		CommitHash:     "abc1234",
		FilesProcessed: 4,
		TotalFiles:     5,
		FixesApplied:   9,
		Failures:       1,
		TotalIssues:    10,
	}

	require.NoError(t, h.Save(dir, entry))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
	assert.FileExists(t, history.Path(dir))
}

func TestHistory_AppendMultiple(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t1", FixesApplied: 3, DryRun: true}))
	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t2", FixesApplied: 5}))
	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t3", FixesApplied: 8}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].DryRun)
	assert.Equal(t, 8, entries[2].FixesApplied)
}

func TestHistory_LoadEmpty(t *testing.T) {
	entries, err := history.New().Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, ".sonarfix", "history", "runs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0755))
	require.NoError(t, os.WriteFile(fp, []byte("not json"), 0644))

	h := history.New()
	_, err := h.Load(dir)
	assert.Error(t, err)
	assert.Error(t, h.Save(dir, domain.RunEntry{Timestamp: "t1"}), "corrupt history is never overwritten")
}

func TestHistory_RetentionDropsOldest(t *testing.T) {
	dir := t.TempDir()
	h := history.New(history.WithRetention(2))

	for _, ts := range []string{"t1", "t2", "t3"} {
		require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: ts}))
	}

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "t2", entries[0].Timestamp)
	assert.Equal(t, "t3", entries[1].Timestamp)
}

func TestHistory_Recent(t *testing.T) {
	dir := t.TempDir()
	h := history.New()
	for _, ts := range []string{"t1", "t2", "t3"} {
		require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: ts}))
	}

	recent, err := h.Recent(dir, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "t2", recent[0].Timestamp)

	all, err := h.Recent(dir, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistory_CreatesDirectory(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "deep", "nested")
	h := history.New()

	require.NoError(t, h.Save(nestedDir, domain.RunEntry{Timestamp: "t1"}))

	entries, err := h.Load(nestedDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
