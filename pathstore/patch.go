package pathstore

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"
)

// Merge applies an RFC 7386 merge patch to the value at path: object members
// of patch are merged recursively, null members delete keys, anything else
// replaces. It returns false if path does not exist.
func (s *Store) Merge(path string, patch *Value) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := ParsePath(path)
	parent, node, ok := resolve(s.doc, p)
	if !ok {
		return false, nil
	}
	cur, err := node.MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("failed to encode %s: %w", path, err)
	}
	pb, err := patch.MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("failed to encode patch: %w", err)
	}
	merged, err := jsonpatch.MergePatch(cur, pb)
	if err != nil {
		return false, fmt.Errorf("failed to merge %s: %w", path, err)
	}
	v, err := Parse(merged)
	if err != nil {
		return false, fmt.Errorf("failed to decode merge result: %w", err)
	}
	if err := s.replaceAt(p, parent, v); err != nil {
		return false, err
	}
	return true, s.persist("merge", path)
}

// Patch applies an RFC 6902 JSON patch, given as its JSON encoding, to the
// whole document. The patch is all or nothing: on error the document is
// unchanged.
func (s *Store) Patch(ops []byte) error {
	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return fmt.Errorf("failed to decode patch: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	out, err := patch.Apply(cur)
	if err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	doc, err := Parse(out)
	if err != nil {
		return fmt.Errorf("failed to decode patch result: %w", err)
	}
	if doc.Kind() != KindObject {
		return typeMismatch("", "object at the document root", doc.Kind())
	}
	s.doc = doc
	return s.persist("patch", "")
}
