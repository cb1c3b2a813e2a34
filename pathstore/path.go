package pathstore

import (
	"strconv"
	"strings"
)

// Path is a parsed dot-separated path. Each segment is an object key, or an
// array index when applied to an array.
type Path []string

// ParsePath splits s on '.'. The empty string is the empty path, which
// addresses the document root.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path(strings.Split(s, "."))
}

// String joins the segments back with '.'.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// IsRoot reports whether p addresses the document root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Parent returns p without its last segment, and the last segment.
func (p Path) Parent() (Path, string) {
	if len(p) == 0 {
		return p, ""
	}
	return p[:len(p)-1], p[len(p)-1]
}

// arrayIndex parses an array index segment. Only plain decimal digits are
// accepted: no sign, no spaces.
func arrayIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}

// child looks up one segment in v. Objects use seg as a key, even when it is
// numeric. Scalars cannot be descended into.
func child(v *Value, seg string) (*Value, bool) {
	switch v.Kind() {
	case KindObject:
		return v.fields.Get(seg)
	case KindArray:
		i, ok := arrayIndex(seg)
		if !ok {
			return nil, false
		}
		return v.Index(i)
	default:
		return nil, false
	}
}

// resolve walks p from root. It returns the parent of the final value (nil
// for the root itself) and the value.
func resolve(root *Value, p Path) (parent, node *Value, ok bool) {
	node = root
	for _, seg := range p {
		next, found := child(node, seg)
		if !found {
			return nil, nil, false
		}
		parent, node = node, next
	}
	return parent, node, true
}
