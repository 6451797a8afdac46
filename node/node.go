// Package node provides a small mutable JSON tree: typed scalar nodes,
// object and array containers, and a factory for creating fresh containers.
//
// Scalar nodes are immutable values. Containers are mutated in place and are
// not safe for concurrent writers.
package node

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the JSON type of a node
type Kind uint8

const (
	Null Kind = iota
	String
	Int
	Bool
	Float
	Double
	Object
	Array
)

var kindNames = [...]string{
	Null:   "null",
	String: "string",
	Int:    "int",
	Bool:   "bool",
	Float:  "float",
	Double: "double",
	Object: "object",
	Array:  "array",
}

// String returns the lower-case name of the kind
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsNumber reports whether the kind is one of the numeric kinds
func (k Kind) IsNumber() bool {
	return k == Int || k == Float || k == Double
}

// Node is any JSON value in the tree
type Node interface {
	Kind() Kind
	json.Marshaler
}

// TextNode is a JSON string
type TextNode string

// Kind implements Node
func (TextNode) Kind() Kind { return String }

// MarshalJSON implements json.Marshaler
func (n TextNode) MarshalJSON() ([]byte, error) { return json.Marshal(string(n)) }

// IntNode is a JSON integer
type IntNode int

// Kind implements Node
func (IntNode) Kind() Kind { return Int }

// MarshalJSON implements json.Marshaler
func (n IntNode) MarshalJSON() ([]byte, error) { return json.Marshal(int(n)) }

// BoolNode is a JSON boolean
type BoolNode bool

// Kind implements Node
func (BoolNode) Kind() Kind { return Bool }

// MarshalJSON implements json.Marshaler
func (n BoolNode) MarshalJSON() ([]byte, error) { return json.Marshal(bool(n)) }

// FloatNode is a single-precision JSON number
type FloatNode float32

// Kind implements Node
func (FloatNode) Kind() Kind { return Float }

// MarshalJSON implements json.Marshaler. NaN and infinities are rejected
// because JSON cannot represent them.
func (n FloatNode) MarshalJSON() ([]byte, error) { return json.Marshal(float32(n)) }

// DoubleNode is a double-precision JSON number
type DoubleNode float64

// Kind implements Node
func (DoubleNode) Kind() Kind { return Double }

// MarshalJSON implements json.Marshaler
func (n DoubleNode) MarshalJSON() ([]byte, error) { return json.Marshal(float64(n)) }

// NullNode is an explicit JSON null. It is distinct from an absent key.
type NullNode struct{}

// Kind implements Node
func (NullNode) Kind() Kind { return Null }

// MarshalJSON implements json.Marshaler
func (NullNode) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// IsNull reports whether n is nil, a nil container, or a NullNode
func IsNull(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case NullNode:
		return true
	case *ObjectNode:
		return v == nil
	case *ArrayNode:
		return v == nil
	default:
		return false
	}
}

// normalize maps every flavour of "no value" onto NullNode
func normalize(n Node) Node {
	if IsNull(n) {
		return NullNode{}
	}
	return n
}
