package pathstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Storage reads and writes whole documents by name.
type Storage interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Exists(name string) (bool, error)
}

// Journal is implemented by storages that record a description of each
// write, like HistoryStorage.
type Journal interface {
	WriteFileMessage(name string, data []byte, msg string) error
}

// FileStorage stores documents as files on the local filesystem.
//
// Names are file paths, relative to Dir when Dir is set.
type FileStorage struct {
	Dir string
}

func (f *FileStorage) path(name string) string {
	if f.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.Dir, name)
}

// ReadFile returns the file content.
func (f *FileStorage) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(f.path(name)) //nolint:gosec // G304: the caller picks the document path
}

// Exists reports whether the file exists.
func (f *FileStorage) Exists(name string) (bool, error) {
	_, err := os.Stat(f.path(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// WriteFile replaces the file content atomically: the data is written to a
// temporary file in the same directory which is then renamed over the target.
func (f *FileStorage) WriteFile(name string, data []byte) error {
	p := f.path(name)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", p, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // G302: document files are world readable like any data file
		return fmt.Errorf("failed to chmod %s: %w", p, err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", p, err)
	}
	success = true
	return nil
}
