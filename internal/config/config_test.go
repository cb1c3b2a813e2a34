package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func fakeEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(t.TempDir(), fakeEnv(nil))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), *c); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	dotenv := "# settings\nPATHDB_FILE=from-dotenv.json\nPATHDB_FORMAT=yaml\nPATHDB_INDENT=\"  \"\nPATHDB_HISTORY=true\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir, fakeEnv(map[string]string{
		"PATHDB_FILE":        "from-env.json",
		"PATHDB_AUTHOR_NAME": "Carlos",
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		File:       "from-env.json",
		LogLevel:   "warn",
		Format:     "yaml",
		Indent:     "  ",
		History:    true,
		AuthorName: "Carlos",
	}
	if diff := cmp.Diff(want, *c); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"level", map[string]string{"PATHDB_LOG_LEVEL": "loud"}, "log level"},
		{"format", map[string]string{"PATHDB_FORMAT": "xml"}, "format"},
		{"history", map[string]string{"PATHDB_HISTORY": "maybe"}, "HISTORY"},
		{"indent", map[string]string{"PATHDB_INDENT": "x"}, "indent"},
		{"exclusive", map[string]string{"PATHDB_HISTORY": "1", "PATHDB_SQLITE": "db.sqlite"}, "together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(t.TempDir(), fakeEnv(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	s := Schema()
	var names []string
	for p := s.Properties.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	want := []string{"file", "log_level", "format", "indent", "history", "author_name", "author_email", "sqlite"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
	format, _ := s.Properties.Get("format")
	if diff := cmp.Diff([]any{"json", "yaml"}, format.Enum); diff != "" {
		t.Errorf("format enum mismatch (-want +got):\n%s", diff)
	}
}
