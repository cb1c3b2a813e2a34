package pathstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tailscale/hujson"
)

// Option configures a Store.
type Option func(*Store)

// WithStorage selects where the document is kept. The default is a
// FileStorage relative to the current directory.
func WithStorage(st Storage) Option {
	return func(s *Store) {
		s.storage = st
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithIndent pretty prints the persisted document with the given indent
// string. The default is compact output.
func WithIndent(indent string) Option {
	return func(s *Store) {
		s.indent = indent
	}
}

// Store is a JSON document held in memory and written through to storage
// after every mutation.
//
// Store is safe for concurrent use by multiple goroutines. Multiple stores
// (or processes) on the same document are not coordinated: the last writer
// wins.
type Store struct {
	name    string
	storage Storage
	log     *slog.Logger
	indent  string

	mu        sync.RWMutex
	doc       *Value
	data      []byte
	stopWatch func()
}

// Open loads the document called name. When the document does not exist, it
// is created as {} before being read.
func Open(name string, opts ...Option) (*Store, error) {
	s := &Store{name: name}
	for _, o := range opts {
		o(s)
	}
	if s.storage == nil {
		s.storage = &FileStorage{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the document name given to Open.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) load() error {
	exists, err := s.storage.Exists(s.name)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", s.name, err)
	}
	if !exists {
		if err := s.storage.WriteFile(s.name, []byte("{}")); err != nil {
			return newError(CodePersistence, "", "failed to create %s", s.name).Wrap(err)
		}
	}
	raw, err := s.storage.ReadFile(s.name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.name, err)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return newError(CodeMalformedStorage, "", "failed to parse %s", s.name).Wrap(err)
	}
	s.doc = doc
	s.data = raw
	s.log.Debug("Loaded document", "name", s.name, "bytes", len(raw), "keys", doc.Len())
	return nil
}

// decodeDocument parses a document. Comments and trailing commas are
// accepted; the top level must be an object.
func decodeDocument(raw []byte) (*Value, error) {
	std, err := hujson.Standardize(slices.Clone(raw))
	if err != nil {
		return nil, err
	}
	doc, err := Parse(std)
	if err != nil {
		return nil, err
	}
	if doc.Kind() != KindObject {
		return nil, fmt.Errorf("top level is %s, not an object", doc.Kind())
	}
	return doc, nil
}

func (s *Store) encode() ([]byte, error) {
	data, err := s.doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if s.indent == "" {
		return data, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", s.indent); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// persist writes the whole document. It must be called with mu held. On
// failure the in-memory document is left as is.
func (s *Store) persist(op, path string) error {
	data, err := s.encode()
	if err != nil {
		return newError(CodePersistence, path, "failed to encode document").Wrap(err)
	}
	msg := op
	if path != "" {
		msg += " " + path
	}
	if j, ok := s.storage.(Journal); ok {
		err = j.WriteFileMessage(s.name, data, msg)
	} else {
		err = s.storage.WriteFile(s.name, data)
	}
	if err != nil {
		s.log.Warn("Failed to persist document", "name", s.name, "op", op, "path", path, "err", err)
		return newError(CodePersistence, path, "failed to write %s", s.name).Wrap(err)
	}
	s.data = data
	s.log.Debug("Persisted document", "name", s.name, "op", op, "path", path, "bytes", len(data))
	return nil
}

// Bytes returns the document as last loaded or persisted.
func (s *Store) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data)
}

// Save writes the document to storage.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist("save", "")
}

// Reload discards the in-memory document and reads it again from storage.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns a copy of the value at path. The empty path returns the whole
// document.
func (s *Store) Get(path string) (*Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, node, ok := resolve(s.doc, ParsePath(path))
	if !ok {
		return nil, false
	}
	return node.Clone(), true
}

// Has reports whether path resolves to a value.
func (s *Store) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, _, ok := resolve(s.doc, ParsePath(path))
	return ok
}

// Set updates the value at path. When that value is an array, v is appended
// to it; otherwise it is replaced by v. When only the last segment is missing
// and its parent is an object, the key is added. It returns false if any
// intermediate segment does not exist; use Put to create them.
func (s *Store) Set(path string, v *Value) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := ParsePath(path)
	parent, node, ok := resolve(s.doc, p)
	if !ok {
		parentPath, last := p.Parent()
		_, obj, found := resolve(s.doc, parentPath)
		if !found || obj.Kind() != KindObject {
			return false, nil
		}
		obj.fields.Set(last, v.Clone())
		return true, s.persist("set", path)
	}
	if node.Kind() == KindArray {
		node.items = append(node.items, v.Clone())
	} else if err := s.replaceAt(p, parent, v.Clone()); err != nil {
		return false, err
	}
	return true, s.persist("set", path)
}

// Replace is like Set but always replaces, arrays included.
func (s *Store) Replace(path string, v *Value) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := ParsePath(path)
	parent, _, ok := resolve(s.doc, p)
	if !ok {
		return false, nil
	}
	if err := s.replaceAt(p, parent, v.Clone()); err != nil {
		return false, err
	}
	return true, s.persist("replace", path)
}

// replaceAt stores v at p whose parent is known to exist.
func (s *Store) replaceAt(p Path, parent, v *Value) error {
	if parent == nil {
		if v.Kind() != KindObject {
			return typeMismatch("", "object at the document root", v.Kind())
		}
		s.doc = v
		return nil
	}
	_, last := p.Parent()
	return assign(parent, last, v, p.String())
}

// assign stores v under seg in the object or array parent. For arrays, seg
// may be the current length to append.
func assign(parent *Value, seg string, v *Value, path string) error {
	switch parent.Kind() {
	case KindObject:
		parent.fields.Set(seg, v)
		return nil
	case KindArray:
		i, ok := arrayIndex(seg)
		switch {
		case !ok:
			return newError(CodeTypeMismatch, path, "%q is not an array index", seg)
		case i < len(parent.items):
			parent.items[i] = v
		case i == len(parent.items):
			parent.items = append(parent.items, v)
		default:
			return newError(CodePathNotFound, path, "index %d out of range (length %d)", i, len(parent.items))
		}
		return nil
	default:
		return typeMismatch(path, "object or array", parent.Kind())
	}
}

// Put stores v at path, creating missing intermediate objects. The value at
// path, if any, is replaced.
func (s *Store) Put(path string, v *Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.put(ParsePath(path), v.Clone()); err != nil {
		return err
	}
	return s.persist("put", path)
}

func (s *Store) put(p Path, v *Value) error {
	if p.IsRoot() {
		return s.replaceAt(p, nil, v)
	}
	parentPath, last := p.Parent()
	parent, err := s.ensure(parentPath)
	if err != nil {
		return err
	}
	return assign(parent, last, v, p.String())
}

// ensure walks p, creating empty objects for missing segments. Creation only
// starts after the last existing node, so a failure leaves the document
// untouched.
func (s *Store) ensure(p Path) (*Value, error) {
	node := s.doc
	for i, seg := range p {
		if next, ok := child(node, seg); ok {
			node = next
			continue
		}
		next := Object()
		if err := assign(node, seg, next, p[:i+1].String()); err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

// SetDefault stores v at path only if path does not exist yet, creating
// missing intermediate objects. It returns a copy of the value now at path.
func (s *Store) SetDefault(path string, v *Value) (*Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := ParsePath(path)
	if _, node, ok := resolve(s.doc, p); ok {
		return node.Clone(), nil
	}
	if err := s.put(p, v.Clone()); err != nil {
		return nil, err
	}
	return v.Clone(), s.persist("default", path)
}

// Defaults adds every top-level key of obj that the document lacks.
func (s *Store) Defaults(obj *Value) error {
	if obj.Kind() != KindObject {
		return typeMismatch("", "object", obj.Kind())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for p := obj.fields.Oldest(); p != nil; p = p.Next() {
		if _, ok := s.doc.fields.Get(p.Key); !ok {
			s.doc.fields.Set(p.Key, p.Value.Clone())
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.persist("defaults", "")
}

// Delete removes the object entry named by path. It returns false if path
// does not exist. Array elements are removed with Remove.
func (s *Store) Delete(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := ParsePath(path)
	parent, _, ok := resolve(s.doc, p)
	if !ok {
		return false, nil
	}
	if parent == nil {
		return false, newError(CodeTypeMismatch, "", "cannot delete the document root")
	}
	if parent.Kind() != KindObject {
		return false, typeMismatch(path, "object parent", parent.Kind())
	}
	_, last := p.Parent()
	parent.fields.Delete(last)
	return true, s.persist("delete", path)
}

// DeleteKeys removes keys from the object at path and returns how many were
// present. It returns 0 without error if path does not exist.
func (s *Store) DeleteKeys(path string, keys ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, node, ok := resolve(s.doc, ParsePath(path))
	if !ok {
		return 0, nil
	}
	if node.Kind() != KindObject {
		return 0, typeMismatch(path, "object", node.Kind())
	}
	n := 0
	for _, k := range keys {
		if _, present := node.fields.Delete(k); present {
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.persist("delete", path)
}

// Remove deletes the first array element equal to v, or the first object
// entry (in key order) whose value equals v. It returns false if path does
// not exist or nothing matched.
func (s *Store) Remove(path string, v *Value) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, node, ok := resolve(s.doc, ParsePath(path))
	if !ok {
		return false, nil
	}
	switch node.Kind() {
	case KindArray:
		i := slices.IndexFunc(node.items, v.Equal)
		if i < 0 {
			return false, nil
		}
		node.items = slices.Delete(node.items, i, i+1)
	case KindObject:
		found := false
		for p := node.fields.Oldest(); p != nil; p = p.Next() {
			if p.Value.Equal(v) {
				node.fields.Delete(p.Key)
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	default:
		return false, typeMismatch(path, "array or object", node.Kind())
	}
	return true, s.persist("remove", path)
}

// RemoveMatch deletes the first array element that is an object sharing at
// least one key with an equal value with filter.
func (s *Store) RemoveMatch(path string, filter *Value) (bool, error) {
	if filter.Kind() != KindObject {
		return false, typeMismatch(path, "object filter", filter.Kind())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, node, ok := resolve(s.doc, ParsePath(path))
	if !ok {
		return false, nil
	}
	if node.Kind() != KindArray {
		return false, typeMismatch(path, "array", node.Kind())
	}
	i := slices.IndexFunc(node.items, func(e *Value) bool { return matchesAny(e, filter) })
	if i < 0 {
		return false, nil
	}
	node.items = slices.Delete(node.items, i, i+1)
	return true, s.persist("remove", path)
}

func matchesAny(e, filter *Value) bool {
	if e.Kind() != KindObject {
		return false
	}
	for p := filter.fields.Oldest(); p != nil; p = p.Next() {
		if got, ok := e.fields.Get(p.Key); ok && got.Equal(p.Value) {
			return true
		}
	}
	return false
}

// Push appends v to the array at path. It returns false if path does not
// exist.
func (s *Store) Push(path string, v *Value) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, node, ok := resolve(s.doc, ParsePath(path))
	if !ok {
		return false, nil
	}
	if node.Kind() != KindArray {
		return false, typeMismatch(path, "array", node.Kind())
	}
	node.items = append(node.items, v.Clone())
	return true, s.persist("push", path)
}

// Toggle flips the boolean at path and returns the new value. When value is
// given, the boolean is set to value[0] instead. ok is false if path does not
// exist or is not a boolean; the latter also returns an error.
func (s *Store) Toggle(path string, value ...bool) (result, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, node, found := resolve(s.doc, ParsePath(path))
	if !found {
		return false, false, nil
	}
	cur, isBool := node.AsBool()
	if !isBool {
		return false, false, typeMismatch(path, "bool", node.Kind())
	}
	result = !cur
	if len(value) > 0 {
		result = value[0]
	}
	node.b = result
	return result, true, s.persist("toggle", path)
}
