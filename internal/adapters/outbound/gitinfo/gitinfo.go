// Package gitinfo reads and writes repository state with go-git.
package gitinfo

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// GitInfoAdapter implements domain.Committer using go-git.
type GitInfoAdapter struct {
	author domain.GitConfig
	now    func() time.Time
}

// New creates an adapter. An empty author falls back to the repository's git config.
func New(author domain.GitConfig) *GitInfoAdapter {
	return &GitInfoAdapter{author: author, now: time.Now}
}

func (g *GitInfoAdapter) IsGitRepo(repoRoot string) bool {
	_, err := open(repoRoot)
	return err == nil
}

func (g *GitInfoAdapter) CommitHash(repoRoot string) (string, error) {
	repo, err := open(repoRoot)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// CommitFiles stages paths (relative to repoRoot) and commits them.
func (g *GitInfoAdapter) CommitFiles(repoRoot string, paths []string, message string) (string, error) {
	repo, err := open(repoRoot)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening worktree: %w", err)
	}

	base, err := worktreeOffset(wt.Filesystem.Root(), repoRoot)
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		rel := filepath.ToSlash(filepath.Join(base, p))
		if _, err := wt.Add(rel); err != nil {
			return "", fmt.Errorf("staging %s: %w", p, err)
		}
	}

	opts := &git.CommitOptions{}
	if g.author.AuthorName != "" {
		opts.Author = &object.Signature{
			Name:  g.author.AuthorName,
			Email: g.author.AuthorEmail,
			When:  g.now(),
		}
	}
	hash, err := wt.Commit(message, opts)
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return hash.String(), nil
}

func open(repoRoot string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{DetectDotGit: true})
}

// worktreeOffset returns repoRoot relative to the worktree root.
func worktreeOffset(wtRoot, repoRoot string) (string, error) {
	absWT, err := resolve(wtRoot)
	if err != nil {
		return "", err
	}
	absRoot, err := resolve(repoRoot)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absWT, absRoot)
	if err != nil {
		return "", fmt.Errorf("locating %s in worktree: %w", repoRoot, err)
	}
	return rel, nil
}

func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}
