package pathstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	db, err := OpenSQLiteStorage(filepath.Join(t.TempDir(), "docs.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}
	})
	return db
}

func TestSQLiteStorage(t *testing.T) {
	db := openTestSQLite(t)
	if ok, err := db.Exists("a"); err != nil || ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if _, err := db.ReadFile("a"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadFile(missing) error = %v, want os.ErrNotExist", err)
	}
	for _, body := range []string{`{"v":1}`, `{"v":2}`} {
		if err := db.WriteFile("a", []byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.WriteFile("b", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	got, err := db.ReadFile("a")
	if err != nil || string(got) != `{"v":2}` {
		t.Errorf("ReadFile = %s, %v", got, err)
	}
	names, err := db.Names()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreOnSQLite(t *testing.T) {
	db := openTestSQLite(t)
	s, err := Open("settings", WithStorage(db))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("user.hobbies", MustParse(`["Reading"]`)); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Push("user.hobbies", String("Cooking")); err != nil || !ok {
		t.Fatalf("Push = %v, %v", ok, err)
	}
	s2, err := Open("settings", WithStorage(db))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := s2.Get("user.hobbies")
	if !ok || !got.Equal(MustParse(`["Reading","Cooking"]`)) {
		t.Errorf("hobbies = %s, %v", got, ok)
	}
}
