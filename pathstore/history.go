package pathstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/maruel/ksid"
	"github.com/maruel/pathdb/internal/git"
)

// Revision is one recorded version of a document.
type Revision struct {
	Hash    string
	Message string
	OpID    string
	Author  string
	Date    time.Time
}

// HistoryStorage keeps documents as files in a git work tree and commits
// every write, so each mutation of a Store becomes one revision.
type HistoryStorage struct {
	mu     sync.Mutex
	files  FileStorage
	repo   *git.Repo
	author git.Author
}

// NewHistoryStorage opens or initializes a git repository in dir. Document
// names are relative to dir.
func NewHistoryStorage(dir, authorName, authorEmail string) (*HistoryStorage, error) {
	author := git.Author{Name: authorName, Email: authorEmail}
	repo, err := git.Open(dir, author)
	if err != nil {
		return nil, err
	}
	return &HistoryStorage{files: FileStorage{Dir: dir}, repo: repo, author: author}, nil
}

// rel returns name relative to the work tree, with forward slashes.
func (h *HistoryStorage) rel(name string) (string, error) {
	p := h.files.path(name)
	r, err := filepath.Rel(h.repo.Dir(), p)
	if err != nil {
		return "", fmt.Errorf("failed to locate %s in %s: %w", name, h.repo.Dir(), err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside of %s", name, h.repo.Dir())
	}
	return filepath.ToSlash(r), nil
}

// ReadFile returns the current content of the document.
func (h *HistoryStorage) ReadFile(name string) ([]byte, error) {
	return h.files.ReadFile(name)
}

// Exists reports whether the document exists in the work tree.
func (h *HistoryStorage) Exists(name string) (bool, error) {
	return h.files.Exists(name)
}

// WriteFile writes and commits the document with a generic message.
func (h *HistoryStorage) WriteFile(name string, data []byte) error {
	return h.WriteFileMessage(name, data, "write")
}

// WriteFileMessage writes and commits the document. The commit message is
// msg followed by a unique operation id trailer. Writing identical content
// records no revision.
func (h *HistoryStorage) WriteFileMessage(name string, data []byte, msg string) error {
	rel, err := h.rel(name)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.files.WriteFile(name, data); err != nil {
		return err
	}
	_, err = h.repo.Commit(context.Background(), h.author, fmt.Sprintf("%s\n\nOp-Id: %s\n", msg, ksid.NewID()), rel)
	return err
}

// History returns up to n revisions of the document, newest first.
func (h *HistoryStorage) History(ctx context.Context, name string, n int) ([]Revision, error) {
	rel, err := h.rel(name)
	if err != nil {
		return nil, err
	}
	commits, err := h.repo.History(ctx, rel, n)
	if err != nil {
		return nil, err
	}
	out := make([]Revision, 0, len(commits))
	for _, c := range commits {
		r := Revision{Hash: c.Hash, Message: c.Message, Author: c.Author, Date: c.AuthorDate}
		if v, ok := cutTrailer(c.Body, "Op-Id: "); ok {
			r.OpID = v
		}
		out = append(out, r)
	}
	return out, nil
}

// ReadAt returns the document content at revision rev, a commit hash or
// "HEAD".
func (h *HistoryStorage) ReadAt(ctx context.Context, name, rev string) ([]byte, error) {
	rel, err := h.rel(name)
	if err != nil {
		return nil, err
	}
	return h.repo.FileAt(ctx, rev, rel)
}

func cutTrailer(body, prefix string) (string, bool) {
	for line := range strings.SplitSeq(body, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), prefix); ok {
			return v, true
		}
	}
	return "", false
}
