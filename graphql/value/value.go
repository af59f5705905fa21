// Package value implements the tagged GraphQL value variant shared by the
// preparation, execution, and introspection packages.
package value

import "encoding/json"

// Value is any of the GraphQL runtime value kinds: Null, Bool, Int, Float,
// String, Enum, List, Object, or Variable. Variable only ever appears in
// argument literals prior to variable substitution; it never reaches the
// executor.
type Value interface {
	isValue()
}

type Null struct{}

func (Null) isValue() {}

type Bool bool

func (Bool) isValue() {}

type Int int64

func (Int) isValue() {}

type Float float64

func (Float) isValue() {}

type String string

func (String) isValue() {}

// Enum holds an unquoted identifier, distinct from String so resolvers and
// the introspection layer can tell them apart.
type Enum string

func (Enum) isValue() {}

type List []Value

func (List) isValue() {}

// Variable is a reference to an operation variable by name, as it appears
// in an unprocessed argument literal.
type Variable string

func (Variable) isValue() {}

// Object is an insertion-ordered string-keyed map. Field resolution always
// produces values through Object so that JSON rendering preserves the order
// fields were requested or seeded in, matching the ordered-map pattern used
// throughout the rest of this codebase.
type Object struct {
	keys   []string
	values map[string]Value
}

func (*Object) isValue() {}

func NewObject() *Object {
	return &Object{values: map[string]Value{}}
}

// Set inserts or overwrites a key. Overwriting an existing key does not
// change its position in iteration order.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o *Object) Keys() []string {
	return o.keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Clone returns a shallow copy of o: a distinct ordered map with the same
// keys and values, safe to hand to a concurrent caller that will Set its
// own keys without racing the original.
func (o *Object) Clone() *Object {
	clone := &Object{
		keys:   append([]string(nil), o.keys...),
		values: make(map[string]Value, len(o.values)),
	}
	for k, v := range o.values {
		clone.values[k] = v
	}
	return clone
}

func (o *Object) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		vb, err := ToJSON(o.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ToJSON renders a Value as JSON: Int/Float render as JSON numbers, Enum
// and String both render as JSON strings (the distinction only matters
// internally).
func ToJSON(v Value) ([]byte, error) {
	switch v := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(v))
	case Int:
		return json.Marshal(int64(v))
	case Float:
		return json.Marshal(float64(v))
	case String:
		return json.Marshal(string(v))
	case Enum:
		return json.Marshal(string(v))
	case List:
		buf := []byte{'['}
		for i, item := range v {
			if i > 0 {
				buf = append(buf, ',')
			}
			b, err := ToJSON(item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
		buf = append(buf, ']')
		return buf, nil
	case *Object:
		return v.MarshalJSON()
	default:
		return json.Marshal(nil)
	}
}

// FromJSON converts a decoded JSON value (as produced by encoding/json's
// interface{} decoding) into a Value. A JSON number that round-trips
// through int64 becomes Int, otherwise Float.
func FromJSON(v interface{}) Value {
	switch v := v.(type) {
	case nil:
		return Null{}
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case float64:
		if i := int64(v); float64(i) == v {
			return Int(i)
		}
		return Float(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		f, _ := v.Float64()
		return Float(f)
	case []interface{}:
		l := make(List, len(v))
		for i, item := range v {
			l[i] = FromJSON(item)
		}
		return l
	case map[string]interface{}:
		o := NewObject()
		for k, item := range v {
			o.Set(k, FromJSON(item))
		}
		return o
	default:
		return Null{}
	}
}
