// Package workspace reads and rewrites source files inside a repository.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// Files implements domain.Workspace on the local filesystem.
type Files struct{}

// New creates a filesystem workspace.
func New() *Files { return &Files{} }

// Resolve joins path onto root and rejects results outside root.
func Resolve(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	full := filepath.Join(absRoot, filepath.FromSlash(path))
	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, domain.ErrPathEscapesRoot)
	}
	return full, nil
}

// ReadFile returns the text of root/path.
func (f *Files) ReadFile(root, path string) (string, error) {
	full, err := Resolve(root, path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, domain.ErrFileNotFound)
		}
		return "", err
	}
	return string(data), nil
}

// Exists reports whether root/path is an existing regular file.
func (f *Files) Exists(root, path string) bool {
	full, err := Resolve(root, path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// WriteFileAtomic writes content to a temporary file next to the target and
// renames it into place, keeping the original permissions. On failure the
// original file is left as it was.
func (f *Files) WriteFileAtomic(root, path, content string) error {
	full, err := Resolve(root, path)
	if err != nil {
		return err
	}

	mode := fs.FileMode(0644)
	if info, err := os.Stat(full); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(full)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(full)+".sonarfix-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
