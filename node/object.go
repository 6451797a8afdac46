package node

import (
	"bytes"
	"encoding/json"
)

// ObjectNode is a mutable mapping from string keys to nodes.
//
// Keys keep the position of their first insertion; assigning an existing key
// replaces its value in place. The zero value is an empty object ready to use.
type ObjectNode struct {
	keys   []string
	values map[string]Node
}

// NewObjectNode returns an empty object
func NewObjectNode() *ObjectNode {
	return &ObjectNode{values: make(map[string]Node)}
}

// Kind implements Node
func (o *ObjectNode) Kind() Kind { return Object }

// Set stores n under key. A nil node is stored as an explicit null.
func (o *ObjectNode) Set(key string, n Node) {
	if o.values == nil {
		o.values = make(map[string]Node)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = normalize(n)
}

// PutString stores a string value under key
func (o *ObjectNode) PutString(key, v string) { o.Set(key, TextNode(v)) }

// PutInt stores an integer value under key
func (o *ObjectNode) PutInt(key string, v int) { o.Set(key, IntNode(v)) }

// PutBool stores a boolean value under key
func (o *ObjectNode) PutBool(key string, v bool) { o.Set(key, BoolNode(v)) }

// PutFloat32 stores a single-precision number under key
func (o *ObjectNode) PutFloat32(key string, v float32) { o.Set(key, FloatNode(v)) }

// PutFloat64 stores a double-precision number under key
func (o *ObjectNode) PutFloat64(key string, v float64) { o.Set(key, DoubleNode(v)) }

// PutNull stores an explicit null under key
func (o *ObjectNode) PutNull(key string) { o.Set(key, NullNode{}) }

// Get returns the value stored under key
func (o *ObjectNode) Get(key string) (Node, bool) {
	n, ok := o.values[key]
	return n, ok
}

// Has reports whether key is present, including keys holding null
func (o *ObjectNode) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Size returns the number of entries
func (o *ObjectNode) Size() int { return len(o.keys) }

// Keys returns the keys in insertion order
func (o *ObjectNode) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Remove deletes key and reports whether it was present
func (o *ObjectNode) Remove(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Path walks nested objects following keys. It fails as soon as a key is
// missing or an intermediate value is not an object.
func (o *ObjectNode) Path(keys ...string) (Node, bool) {
	var current Node = o
	for _, key := range keys {
		obj, ok := current.(*ObjectNode)
		if !ok || obj == nil {
			return nil, false
		}
		current, ok = obj.Get(key)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Range calls fn for every entry in insertion order until fn returns false
func (o *ObjectNode) Range(fn func(key string, n Node) bool) {
	for _, key := range o.keys {
		if !fn(key, o.values[key]) {
			return
		}
	}
}

// MarshalJSON implements json.Marshaler, writing keys in insertion order
func (o *ObjectNode) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := o.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
