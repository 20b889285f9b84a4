// Package snapshot persists grouped issues as a JSON hand-off document.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// Store is a file-based implementation of domain.SnapshotStore.
type Store struct{}

// New creates a new file-based snapshot store.
func New() *Store {
	return &Store{}
}

type document struct {
	Metadata     domain.SnapshotMetadata `json:"metadata"`
	IssuesByFile orderedFiles            `json:"issues_by_file"`
}

// orderedFiles encodes as a JSON object whose keys keep grouping order.
type orderedFiles []domain.SnapshotFile

func (o orderedFiles) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Path)
		if err != nil {
			return nil, err
		}
		issues := f.Issues
		if issues == nil {
			issues = []domain.SnapshotIssue{}
		}
		value, err := json.Marshal(issues)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *orderedFiles) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("issues_by_file: expected object, got %v", tok)
	}

	var files orderedFiles
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		path, ok := tok.(string)
		if !ok {
			return fmt.Errorf("issues_by_file: expected string key, got %v", tok)
		}
		var issues []domain.SnapshotIssue
		if err := dec.Decode(&issues); err != nil {
			return fmt.Errorf("issues_by_file[%s]: %w", path, err)
		}
		files = append(files, domain.SnapshotFile{Path: path, Issues: issues})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = files
	return nil
}

// Save writes the snapshot as indented JSON, creating parent directories as needed.
func (s *Store) Save(path string, snap *domain.Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Marshal encodes snap in the export format with two-space indentation.
func Marshal(snap *domain.Snapshot) ([]byte, error) {
	return json.MarshalIndent(document{Metadata: snap.Metadata, IssuesByFile: snap.Files}, "", "  ")
}

// Load reads a snapshot written by Save.
func (s *Store) Load(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &domain.Snapshot{Metadata: doc.Metadata, Files: doc.IssuesByFile}, nil
}
