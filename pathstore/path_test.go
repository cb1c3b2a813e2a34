package pathstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"", Path{}},
		{"user", Path{"user"}},
		{"user.hobbies.0", Path{"user", "hobbies", "0"}},
		{"a..b", Path{"a", "", "b"}},
	}
	for _, tt := range tests {
		got := ParsePath(tt.in)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParsePath(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
		if got.String() != tt.in {
			t.Errorf("ParsePath(%q).String() = %q", tt.in, got.String())
		}
	}
}

func TestArrayIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"12", 12, true},
		{"007", 7, true},
		{"", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1a", 0, false},
		{" 1", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := arrayIndex(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("arrayIndex(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolve(t *testing.T) {
	doc := MustParse(`{"user":{"name":"Carlos","hobbies":["Reading","Cooking"],"0":"zero"},"n":5}`)
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"", doc.String(), true},
		{"user.name", `"Carlos"`, true},
		{"user.hobbies.1", `"Cooking"`, true},
		{"user.0", `"zero"`, true},
		{"user.hobbies.2", "", false},
		{"user.hobbies.x", "", false},
		{"user.name.first", "", false},
		{"n.0", "", false},
		{"missing", "", false},
		{"user.missing.deeper", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, node, ok := resolve(doc, ParsePath(tt.path))
			if ok != tt.ok {
				t.Fatalf("resolve(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if ok && node.String() != tt.want {
				t.Errorf("resolve(%q) = %s, want %s", tt.path, node, tt.want)
			}
		})
	}
}
