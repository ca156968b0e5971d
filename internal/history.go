package internal

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CorpusRevision is one commit that touched the corpus file.
type CorpusRevision struct {
	Hash      string
	Message   string
	Author    string
	Timestamp time.Time
}

// CorpusHistory reads committed versions of a corpus file from the git
// repository holding it. The working copy is never modified.
type CorpusHistory struct {
	repo *git.Repository
	path string // slash-separated, relative to the worktree root
}

func NewCorpusHistory(repo *git.Repository, path string) *CorpusHistory {
	return &CorpusHistory{repo: repo, path: filepath.ToSlash(path)}
}

// OpenCorpusHistory finds the repository enclosing the corpus file at path.
func OpenCorpusHistory(path string) (*CorpusHistory, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository for %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	rel, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%s is outside the repository", path)
	}

	return NewCorpusHistory(repo, rel), nil
}

// At returns the corpus as committed at rev (a branch, tag, hash or
// expression such as HEAD~1).
func (h *CorpusHistory) At(rev string) (*Corpus, error) {
	if rev == "" {
		rev = "HEAD"
	}

	hash, err := h.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}

	commit, err := h.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	f, err := commit.File(h.path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, fmt.Errorf("%s not present at %s", h.path, rev)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", h.path, rev, err)
	}

	contents, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", h.path, rev, err)
	}

	c, err := ParseCorpus([]byte(contents))
	if err != nil {
		return nil, fmt.Errorf("corpus %s at %s: %w", h.path, rev, err)
	}
	return c, nil
}

// Log lists the commits that changed the corpus file, newest first.
func (h *CorpusHistory) Log(limit int) ([]CorpusRevision, error) {
	iter, err := h.repo.Log(&git.LogOptions{FileName: &h.path})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var revs []CorpusRevision
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(revs) >= limit {
			return io.EOF
		}
		revs = append(revs, CorpusRevision{
			Hash:      c.Hash.String(),
			Message:   strings.TrimSpace(c.Message),
			Author:    c.Author.Name,
			Timestamp: c.Author.When,
		})
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	return revs, nil
}
