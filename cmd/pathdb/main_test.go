package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/pathdb/pathstore"
)

// run executes pathdb with args against file and returns stdout.
func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr, func(k string) string { return env[k] })
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, file string, args ...string) string {
	t.Helper()
	out, err := run(t, map[string]string{"PATHDB_FILE": file}, args...)
	if err != nil {
		t.Fatalf("pathdb %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func newDoc(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return file
}

func readDoc(t *testing.T, file string) *pathstore.Value {
	t.Helper()
	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	return pathstore.MustParse(string(raw))
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"30", `30`},
		{"true", `true`},
		{"Carlos", `"Carlos"`},
		{`"30"`, `"30"`},
		{`{"a":[1]}`, `{"a":[1]}`},
		{"{oops", `"{oops"`},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in).String(); got != tt.want {
			t.Errorf("parseValue(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestScenario(t *testing.T) {
	file := newDoc(t, `{"user":{"name":"Ana","age":30,"hobbies":["Reading"],"active":true}}`)

	if got := mustRun(t, file, "get", "user.name"); got != "\"Ana\"\n" {
		t.Errorf("get = %q", got)
	}
	mustRun(t, file, "set", "user.name", "Carlos")
	mustRun(t, file, "push", "user.hobbies", "Cooking", "Programming")
	mustRun(t, file, "remove", "user.hobbies", "Programming")
	if got := mustRun(t, file, "toggle", "user.active"); got != "false\n" {
		t.Errorf("toggle = %q", got)
	}
	if got := mustRun(t, file, "query", "user", "name", "age"); got != "{\"name\":\"Carlos\",\"age\":30}\n" {
		t.Errorf("query = %q", got)
	}
	mustRun(t, file, "put", "user.address.city", "Lima")
	mustRun(t, file, "delete", "user.age")
	mustRun(t, file, "merge", "user", `{"email":"c@example.com"}`)

	want := pathstore.MustParse(`{"user":{"name":"Carlos","hobbies":["Reading","Cooking"],"active":false,"address":{"city":"Lima"},"email":"c@example.com"}}`)
	if got := readDoc(t, file); !got.Equal(want) {
		t.Errorf("document = %s\nwant %s", got, want)
	}
}

func TestNotFound(t *testing.T) {
	file := newDoc(t, `{"n":1}`)
	env := map[string]string{"PATHDB_FILE": file}
	for _, args := range [][]string{
		{"get", "missing"},
		{"has", "missing"},
		{"set", "missing.deeper", "1"},
		{"delete", "missing"},
		{"push", "missing", "1"},
		{"toggle", "missing"},
		{"query", "missing", "a"},
	} {
		if _, err := run(t, env, args...); !errors.Is(err, errNotFound) {
			t.Errorf("pathdb %v error = %v, want errNotFound", args, err)
		}
	}
	if _, err := run(t, env, "push", "n", "1"); !errors.Is(err, pathstore.ErrTypeMismatch) {
		t.Errorf("push on number error = %v, want ErrTypeMismatch", err)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	envFile := newDoc(t, `{"from":"env"}`)
	flagFile := newDoc(t, `{"from":"flag"}`)
	out, err := run(t, map[string]string{"PATHDB_FILE": envFile}, "get", "from", "--file", flagFile)
	if err != nil {
		t.Fatal(err)
	}
	if out != "\"flag\"\n" {
		t.Errorf("get = %q", out)
	}
}

func TestYAMLOutput(t *testing.T) {
	file := newDoc(t, `{"user":{"name":"Carlos","hobbies":["Reading"]}}`)
	got := mustRun(t, file, "get", "user", "-o", "yaml")
	want := "name: Carlos\nhobbies:\n    - Reading\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("yaml mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveMatchAndDeleteKeys(t *testing.T) {
	file := newDoc(t, `{"h":[{"name":"Chess"},{"name":"Programming"}],"u":{"a":1,"b":2,"c":3}}`)
	mustRun(t, file, "remove", "--match", "h", `{"name":"Programming"}`)
	if got := mustRun(t, file, "delete", "u", "a", "c", "z"); got != "2\n" {
		t.Errorf("delete keys = %q", got)
	}
	want := pathstore.MustParse(`{"h":[{"name":"Chess"}],"u":{"b":2}}`)
	if got := readDoc(t, file); !got.Equal(want) {
		t.Errorf("document = %s", got)
	}
}

func TestPatchFromStdin(t *testing.T) {
	file := newDoc(t, `{"list":[1]}`)
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr, func(string) string { return "" })
	cmd.SetArgs([]string{"--file", file, "patch", "-"})
	cmd.SetIn(strings.NewReader(`[{"op":"add","path":"/list/-","value":2}]`))
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := readDoc(t, file); !got.Equal(pathstore.MustParse(`{"list":[1,2]}`)) {
		t.Errorf("document = %s", got)
	}
}

func TestSQLite(t *testing.T) {
	dir := t.TempDir()
	env := map[string]string{"PATHDB_SQLITE": filepath.Join(dir, "db.sqlite"), "PATHDB_FILE": "settings"}
	if _, err := run(t, env, "put", "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, env, "get", "theme")
	if err != nil {
		t.Fatal(err)
	}
	if out != "\"dark\"\n" {
		t.Errorf("get = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "settings")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("a file was created next to the database: %v", err)
	}
}

func TestHistoryAndDiff(t *testing.T) {
	file := filepath.Join(t.TempDir(), "db.json")
	env := map[string]string{"PATHDB_FILE": file, "PATHDB_HISTORY": "true", "PATHDB_AUTHOR_NAME": "Carlos"}
	if _, err := run(t, env, "put", "a", "1"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, env, "put", "a", "2"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, env, "history")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("history =\n%s", out)
	}
	if !strings.HasSuffix(lines[0], " Carlos put a") {
		t.Errorf("newest revision = %q", lines[0])
	}
	if out, err := run(t, env, "diff"); err != nil || out != "" {
		t.Errorf("diff against HEAD = %q, %v", out, err)
	}

	h, err := pathstore.NewHistoryStorage(filepath.Dir(file), "", "")
	if err != nil {
		t.Fatal(err)
	}
	revs, err := h.History(t.Context(), "db.json", 0)
	if err != nil {
		t.Fatal(err)
	}
	out, err = run(t, env, "diff", revs[1].Hash)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(" {\n-  \"a\": 1\n+  \"a\": 2\n }\n", out); diff != "" {
		t.Errorf("diff mismatch (-want +got):\n%s", diff)
	}
	if _, err := run(t, env, "diff", strings.Fields(lines[1])[0]); err == nil {
		t.Error("diff with an abbreviated hash succeeded")
	}

	if _, err := run(t, map[string]string{"PATHDB_FILE": file}, "history"); !errors.Is(err, errNoHistory) {
		t.Errorf("history without --history error = %v", err)
	}
}

func TestLineDiff(t *testing.T) {
	from := "{\n  \"a\": 1,\n  \"b\": true\n}\n"
	to := "{\n  \"a\": 2,\n  \"b\": true\n}\n"
	want := " {\n-  \"a\": 1,\n+  \"a\": 2,\n   \"b\": true\n }\n"
	if diff := cmp.Diff(want, lineDiff(from, to, false)); diff != "" {
		t.Errorf("lineDiff mismatch (-want +got):\n%s", diff)
	}
	if got := lineDiff(from, from, false); got != "" {
		t.Errorf("lineDiff(equal) = %q", got)
	}
}

func TestConfigSchema(t *testing.T) {
	out, err := run(t, map[string]string{"PATHDB_FORMAT": "invalid"}, "config-schema")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"log_level"`) {
		t.Errorf("schema = %s", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	if _, err := run(t, map[string]string{"PATHDB_FORMAT": "xml"}, "get", "a"); err == nil {
		t.Error("invalid format accepted")
	}
}
