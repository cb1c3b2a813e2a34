package pathstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the variant tag of a Value.
type Kind uint8

const (
	// KindNull is the JSON null.
	KindNull Kind = iota
	// KindBool is true or false.
	KindBool
	// KindNumber is a JSON number, kept as its literal text.
	KindNumber
	// KindString is a JSON string.
	KindString
	// KindArray is an ordered sequence of values.
	KindArray
	// KindObject is a mapping from string keys to values, in insertion order.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON value. The zero value is null.
//
// Arrays and objects are mutable in place; use Clone to get an independent
// copy.
type Value struct {
	kind   Kind
	b      bool
	num    json.Number
	str    string
	items  []*Value
	fields *orderedmap.OrderedMap[string, *Value]
}

// Null returns a new null value.
func Null() *Value {
	return &Value{}
}

// Bool returns a new boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, b: b}
}

// Number returns a new number value. NaN and infinities are not valid JSON and
// are stored as null.
func Number(f float64) *Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return &Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Int returns a new integral number value.
func Int(i int64) *Value {
	return &Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// String returns a new string value.
func String(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// Array returns a new array holding clones of items.
func Array(items ...*Value) *Value {
	v := &Value{kind: KindArray, items: make([]*Value, 0, len(items))}
	for _, item := range items {
		v.items = append(v.items, item.Clone())
	}
	return v
}

// Object returns a new empty object.
func Object() *Value {
	return &Value{kind: KindObject, fields: orderedmap.New[string, *Value]()}
}

// Parse decodes a single JSON value.
func Parse(data []byte) (*Value, error) {
	v := &Value{}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// literals.
func MustParse(s string) *Value {
	v, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

// ValueOf converts a Go value built from maps, slices and scalars (the shape
// produced by encoding/json into an any) into a Value.
//
// Go maps have no order, so objects built from a map have their keys sorted.
func ValueOf(x any) (*Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case *Value:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if _, err := t.Float64(); err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return &Value{kind: KindNumber, num: t}, nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return &Value{kind: KindNumber, num: json.Number(strconv.FormatUint(uint64(t), 10))}, nil
	case uint64:
		return &Value{kind: KindNumber, num: json.Number(strconv.FormatUint(t, 10))}, nil
	case []any:
		v := &Value{kind: KindArray, items: make([]*Value, 0, len(t))}
		for i, e := range t {
			item, err := ValueOf(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			v.items = append(v.items, item)
		}
		return v, nil
	case []string:
		v := &Value{kind: KindArray, items: make([]*Value, 0, len(t))}
		for _, e := range t {
			v.items = append(v.items, String(e))
		}
		return v, nil
	case map[string]any:
		// encoding/json sorts map keys.
		data, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return Parse(data)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("unsupported type %T: %w", x, err)
		}
		return Parse(data)
	}
}

// Kind returns the variant tag.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool {
	return v.Kind() == KindNull
}

// AsBool returns the boolean and true if v is a bool.
func (v *Value) AsBool() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.b, true
}

// AsNumber returns the number as a float64 and true if v is a number.
func (v *Value) AsNumber() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// AsString returns the string and true if v is a string.
func (v *Value) AsString() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.str, true
}

// Len returns the number of elements of an array or keys of an object, 0
// otherwise.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.items)
	case KindObject:
		return v.fields.Len()
	default:
		return 0
	}
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, bool) {
	if v.Kind() != KindArray || i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// Field returns the value of key in an object.
func (v *Value) Field(key string) (*Value, bool) {
	if v.Kind() != KindObject {
		return nil, false
	}
	return v.fields.Get(key)
}

// Keys returns the keys of an object in insertion order.
func (v *Value) Keys() []string {
	if v.Kind() != KindObject {
		return nil
	}
	keys := make([]string, 0, v.fields.Len())
	for p := v.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Items returns the elements of an array. The slice is a copy but the
// elements are shared.
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	out := make([]*Value, len(v.items))
	copy(out, v.items)
	return out
}

// Set stores a clone of x under key. v must be an object.
func (v *Value) Set(key string, x *Value) *Value {
	if v.Kind() != KindObject {
		panic("pathstore: Set on " + v.Kind().String())
	}
	v.fields.Set(key, x.Clone())
	return v
}

// Append adds a clone of x at the end of the array v.
func (v *Value) Append(x *Value) *Value {
	if v.Kind() != KindArray {
		panic("pathstore: Append on " + v.Kind().String())
	}
	v.items = append(v.items, x.Clone())
	return v
}

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	c := &Value{kind: v.kind, b: v.b, num: v.num, str: v.str}
	switch v.kind {
	case KindArray:
		c.items = make([]*Value, len(v.items))
		for i, item := range v.items {
			c.items[i] = item.Clone()
		}
	case KindObject:
		c.fields = orderedmap.New[string, *Value](v.fields.Len())
		for p := v.fields.Oldest(); p != nil; p = p.Next() {
			c.fields.Set(p.Key, p.Value.Clone())
		}
	}
	return c
}

// Equal reports whether v and x are structurally equal. Numbers compare by
// value and object key order is ignored.
func (v *Value) Equal(x *Value) bool {
	if v.Kind() != x.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.b == x.b
	case KindNumber:
		if v.num == x.num {
			return true
		}
		a, ok1 := v.AsNumber()
		b, ok2 := x.AsNumber()
		return ok1 && ok2 && a == b
	case KindString:
		return v.str == x.str
	case KindArray:
		if len(v.items) != len(x.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(x.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.fields.Len() != x.fields.Len() {
			return false
		}
		for p := v.fields.Oldest(); p != nil; p = p.Next() {
			o, ok := x.fields.Get(p.Key)
			if !ok || !p.Value.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v to plain Go values: nil, bool, float64, string, []any
// and map[string]any.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindBool:
		return v.b
	case KindNumber:
		f, _ := v.AsNumber()
		return f
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.fields.Len())
		for p := v.fields.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = p.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// String returns the compact JSON encoding of v.
func (v *Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return string(b)
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindNumber:
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		return v.fields.MarshalJSON()
	}
	return nil, fmt.Errorf("unknown kind %d", v.kind)
}

// UnmarshalJSON implements json.Unmarshaler. The variant is decided here, once.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty JSON value")
	}
	*v = Value{}
	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("invalid literal %q", data)
		}
	case 't', 'f':
		if err := json.Unmarshal(data, &v.b); err != nil {
			return err
		}
		v.kind = KindBool
	case '"':
		if err := json.Unmarshal(data, &v.str); err != nil {
			return err
		}
		v.kind = KindString
	case '[':
		var items []*Value
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		// encoding/json stores a literal null as a nil pointer without calling
		// UnmarshalJSON.
		for i, item := range items {
			if item == nil {
				items[i] = Null()
			}
		}
		if items == nil {
			items = []*Value{}
		}
		v.kind = KindArray
		v.items = items
	case '{':
		fields := orderedmap.New[string, *Value]()
		if err := fields.UnmarshalJSON(data); err != nil {
			return err
		}
		for p := fields.Oldest(); p != nil; p = p.Next() {
			if p.Value == nil {
				p.Value = Null()
			}
		}
		v.kind = KindObject
		v.fields = fields
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		v.kind = KindNumber
		v.num = n
	}
	return nil
}
