package pathstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorage(t *testing.T) {
	dir := t.TempDir()
	f := &FileStorage{Dir: dir}
	ok, err := f.Exists("a/db.json")
	if err != nil || ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := f.WriteFile("a/db.json", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteFile("a/db.json", []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	got, err := f.ReadFile("a/db.json")
	if err != nil || string(got) != `{"v":2}` {
		t.Fatalf("ReadFile = %s, %v", got, err)
	}
	if ok, _ := f.Exists("a/db.json"); !ok {
		t.Error("Exists = false after WriteFile")
	}
	entries, err := os.ReadDir(filepath.Join(dir, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
	fi, err := os.Stat(filepath.Join(dir, "a", "db.json"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", fi.Mode().Perm())
	}
}

func TestFileStorageAbsoluteName(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "db.json")
	f := &FileStorage{Dir: "ignored"}
	if err := f.WriteFile(abs, []byte("{}")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Error(err)
	}
}
