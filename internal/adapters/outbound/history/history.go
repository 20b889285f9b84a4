// Package history keeps a per-repository log of completed fix runs.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/abdidvp/sonarfix/internal/domain"
)

const (
	runsFile = ".sonarfix/history/runs.json"

	// DefaultRetention is the number of runs kept before the oldest are dropped.
	DefaultRetention = 200
)

// FileHistory implements domain.RunHistory as a JSON array under the repo root.
type FileHistory struct {
	retention int
}

// Option configures a FileHistory.
type Option func(*FileHistory)

// WithRetention caps the number of stored runs. Values below 1 keep every run.
func WithRetention(n int) Option {
	return func(h *FileHistory) { h.retention = n }
}

func New(opts ...Option) *FileHistory {
	h := &FileHistory{retention: DefaultRetention}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Path returns the history file for repoRoot.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, runsFile)
}

// Save appends entry and rewrites the file through a temp file and rename.
// An unreadable history is reported rather than replaced.
func (h *FileHistory) Save(repoRoot string, entry domain.RunEntry) error {
	runs, err := h.Load(repoRoot)
	if err != nil {
		return err
	}
	runs = append(runs, entry)
	if h.retention > 0 && len(runs) > h.retention {
		runs = runs[len(runs)-h.retention:]
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run history: %w", err)
	}

	path := Path(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".runs-*.json")
	if err != nil {
		return fmt.Errorf("writing run history: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing run history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing run history: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing run history: %w", err)
	}
	return nil
}

// Load returns every stored run, oldest first. A repository without history
// yields an empty slice.
func (h *FileHistory) Load(repoRoot string) ([]domain.RunEntry, error) {
	data, err := os.ReadFile(Path(repoRoot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}

	var runs []domain.RunEntry
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", runsFile, err)
	}
	return runs, nil
}

// Recent returns at most n of the latest runs, oldest first. n < 1 returns all.
func (h *FileHistory) Recent(repoRoot string, n int) ([]domain.RunEntry, error) {
	runs, err := h.Load(repoRoot)
	if err != nil || n < 1 || len(runs) <= n {
		return runs, err
	}
	return runs[len(runs)-n:], nil
}
