package pathstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// localFile is implemented by storages backed by a file on the local
// filesystem.
type localFile interface {
	localPath(name string) string
}

func (f *FileStorage) localPath(name string) string {
	return f.path(name)
}

func (h *HistoryStorage) localPath(name string) string {
	return h.files.path(name)
}

// Watch reloads the document whenever its file is modified by another writer,
// until ctx is canceled or Close is called. It returns once the watcher is
// set up. A second call replaces the previous watcher.
//
// This only keeps a long running reader up to date; it does not coordinate
// writers.
func (s *Store) Watch(ctx context.Context) error {
	lf, ok := s.storage.(localFile)
	if !ok {
		return errors.New("storage has no local file to watch")
	}
	p, err := filepath.Abs(lf.localPath(s.name))
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: atomic writes replace the file, which drops a
	// watch on the file itself.
	if err := w.Add(filepath.Dir(p)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", p, err)
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	prev := s.stopWatch
	s.stopWatch = func() {
		cancel()
		<-done
	}
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
	go func() {
		defer close(done)
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != p {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					s.reloadIfChanged()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.WarnContext(ctx, "Error watching document", "name", s.name, "err", err)
			}
		}
	}()
	return nil
}

// reloadIfChanged reads the document again unless it matches what this store
// last wrote. A document that fails to parse is ignored; the in-memory copy
// is kept.
func (s *Store) reloadIfChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.storage.ReadFile(s.name)
	if err != nil {
		s.log.Warn("Failed to read modified document", "name", s.name, "err", err)
		return
	}
	if bytes.Equal(raw, s.data) {
		return
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		s.log.Warn("Ignoring malformed document", "name", s.name, "err", err)
		return
	}
	s.doc = doc
	s.data = raw
	s.log.Info("Reloaded document", "name", s.name, "bytes", len(raw))
}

// Close stops the watcher, if any. Storages given with WithStorage are owned
// by the caller and stay open.
func (s *Store) Close() error {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	return nil
}
