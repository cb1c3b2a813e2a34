package pathstore

import (
	"slices"
)

// Query projects the value at path onto keys.
//
// For an array, the elements that are objects holding at least one of keys
// are kept, each reduced to the keys it holds, in the order of keys. For an
// object, the entries whose key is in keys are kept in document order. The
// result is false when path does not exist or holds a scalar.
func (s *Store) Query(path string, keys ...string) (*Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, node, ok := resolve(s.doc, ParsePath(path))
	if !ok {
		return nil, false
	}
	switch node.Kind() {
	case KindArray:
		out := &Value{kind: KindArray, items: []*Value{}}
		for _, e := range node.items {
			if p := project(e, keys); p != nil {
				out.items = append(out.items, p)
			}
		}
		return out, true
	case KindObject:
		out := Object()
		for p := node.fields.Oldest(); p != nil; p = p.Next() {
			if slices.Contains(keys, p.Key) {
				out.fields.Set(p.Key, p.Value.Clone())
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// project returns a new object with the keys of e that are listed, or nil if
// e is not an object or holds none of them.
func project(e *Value, keys []string) *Value {
	if e.Kind() != KindObject {
		return nil
	}
	out := Object()
	for _, k := range keys {
		if v, ok := e.fields.Get(k); ok {
			out.fields.Set(k, v.Clone())
		}
	}
	if out.fields.Len() == 0 {
		return nil
	}
	return out
}
