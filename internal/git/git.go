// Package git records document revisions in a git work tree using go-git
// (pure Go, no git binary dependency).
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Author identifies who made a change.
type Author struct {
	Name  string
	Email string
}

// Commit is one entry of the history.
type Commit struct {
	Hash        string
	Message     string
	Body        string
	Author      string
	AuthorEmail string
	AuthorDate  time.Time
}

// Repo is a git repository whose work tree holds the documents. Commits are
// serialized; callers writing the files must serialize themselves.
type Repo struct {
	dir           string
	defaultAuthor Author
	repo          *gogit.Repository
	mu            sync.Mutex
}

// Open opens the repository at dir, initializing it if needed.
func Open(dir string, defaultAuthor Author) (*Repo, error) {
	if defaultAuthor.Name == "" {
		defaultAuthor.Name = "pathdb"
	}
	if defaultAuthor.Email == "" {
		defaultAuthor.Email = "pathdb@localhost"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		if !errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("failed to open git repo: %w", err)
		}
		repo, err = gogit.PlainInit(dir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = defaultAuthor.Name
		cfg.User.Email = defaultAuthor.Email
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}

	return &Repo{dir: dir, defaultAuthor: defaultAuthor, repo: repo}, nil
}

// Dir returns the work tree root.
func (r *Repo) Dir() string {
	return r.dir
}

// signature fills the blanks of a with the repository defaults.
func (r *Repo) signature(a Author, when time.Time) *object.Signature {
	if a.Name == "" {
		a.Name = r.defaultAuthor.Name
	}
	if a.Email == "" {
		a.Email = r.defaultAuthor.Email
	}
	return &object.Signature{Name: a.Name, Email: a.Email, When: when}
}

// Commit stages files, given relative to the work tree root, and records them
// in one commit. Other files of the work tree, tracked or not, are left
// alone. It returns the new commit hash, or "" when none of files differ from
// HEAD.
func (r *Repo) Commit(ctx context.Context, author Author, msg string, files ...string) (string, error) {
	if len(files) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, f := range files {
		if _, err := w.Add(f); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}
	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree status: %w", err)
	}
	if !stagedChanges(status, files) {
		return "", nil
	}
	now := time.Now()
	h, err := w.Commit(msg, &gogit.CommitOptions{
		Author:    r.signature(author, now),
		Committer: r.signature(Author{}, now),
	})
	if errors.Is(err, gogit.ErrEmptyCommit) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return h.String(), nil
}

// stagedChanges reports whether any of files is staged with a change.
func stagedChanges(status gogit.Status, files []string) bool {
	for _, f := range files {
		st, ok := status[f]
		if !ok {
			continue
		}
		switch st.Staging {
		case gogit.Unmodified, gogit.Untracked:
		default:
			return true
		}
	}
	return false
}

// History returns the commits touching path, newest first, limited to n
// commits. n is capped at 1000; n <= 0 means 1000.
func (r *Repo) History(_ context.Context, path string, n int) ([]*Commit, error) {
	if n <= 0 || n > 1000 {
		n = 1000
	}
	opts := &gogit.LogOptions{}
	if path != "" && path != "." {
		opts.FileName = &path
	}
	iter, err := r.repo.Log(opts)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// No commit yet.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var commits []*Commit
	for range n {
		c, err := iter.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to walk log: %w", err)
		}
		subject, body, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, &Commit{
			Hash:        c.Hash.String(),
			Message:     subject,
			Body:        strings.TrimSpace(body),
			Author:      c.Author.Name,
			AuthorEmail: c.Author.Email,
			AuthorDate:  c.Author.When,
		})
	}
	return commits, nil
}

// FileAt returns the content of path at a commit. rev is a full hash or
// "HEAD".
func (r *Repo) FileAt(_ context.Context, rev, path string) ([]byte, error) {
	h := plumbing.NewHash(rev)
	if rev == "HEAD" {
		ref, err := r.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
		}
		h = ref.Hash()
	}
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", rev, err)
	}
	f, err := c.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s at %s: %w", path, rev, err)
	}
	reader, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}
