package gitinfo_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/sonarfix/internal/adapters/outbound/gitinfo"
	"github.com/abdidvp/sonarfix/internal/domain"
)

var bot = domain.GitConfig{AuthorName: "Fix Bot", AuthorEmail: "bot@example.com"}

// initRepo creates a repository with one committed file.
func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello"), 0644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@test.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, repo
}

func TestGitInfo_IsGitRepo_True(t *testing.T) {
	dir, _ := initRepo(t)
	assert.True(t, gitinfo.New(bot).IsGitRepo(dir))
}

func TestGitInfo_IsGitRepo_False(t *testing.T) {
	assert.False(t, gitinfo.New(bot).IsGitRepo(t.TempDir()))
}

func TestGitInfo_CommitHash_ReturnsHash(t *testing.T) {
	dir, _ := initRepo(t)

	hash, err := gitinfo.New(bot).CommitHash(dir)
	require.NoError(t, err)
	assert.Len(t, hash, 40, "should be a full SHA-1 hash")
}

func TestGitInfo_CommitHash_NotGitRepo(t *testing.T) {
	_, err := gitinfo.New(bot).CommitHash(t.TempDir())
	assert.Error(t, err)
}

func TestGitInfo_CommitFiles(t *testing.T) {
	dir, repo := initRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "a.go"), []byte("package pkg\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("fixed"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untouched.txt"), []byte("x"), 0644))

	gi := gitinfo.New(bot)
	hash, err := gi.CommitFiles(dir, []string{"pkg/a.go", "file.txt"}, "fix: resolve issues")
	require.NoError(t, err)

	head, err := gi.CommitHash(dir)
	require.NoError(t, err)
	assert.Equal(t, head, hash)

	commit, err := repo.CommitObject(mustHash(t, repo))
	require.NoError(t, err)
	assert.Equal(t, "fix: resolve issues", commit.Message)
	assert.Equal(t, "Fix Bot", commit.Author.Name)

	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("pkg/a.go")
	assert.NoError(t, err)
	_, err = tree.File("untouched.txt")
	assert.Error(t, err, "only listed paths are committed")
}

func TestGitInfo_CommitFilesFromSubdirectory(t *testing.T) {
	dir, repo := initRepo(t)
	sub := filepath.Join(dir, "service")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "main.go"), []byte("package main\n"), 0644))

	_, err := gitinfo.New(bot).CommitFiles(sub, []string{"main.go"}, "fix")
	require.NoError(t, err)

	commit, err := repo.CommitObject(mustHash(t, repo))
	require.NoError(t, err)
	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("service/main.go")
	assert.NoError(t, err)
}

func mustHash(t *testing.T, repo *git.Repository) plumbing.Hash {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	return head.Hash()
}
