package node

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Equal reports whether a and b hold the same JSON value. Object key order is
// ignored; array element order is not. Numbers of different kinds are never
// equal, so IntNode(1) and DoubleNode(1) differ.
func Equal(a, b Node) bool {
	a, b = normalize(a), normalize(b)
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case *ObjectNode:
		bv := b.(*ObjectNode)
		if av.Size() != bv.Size() {
			return false
		}
		for _, key := range av.keys {
			other, ok := bv.Get(key)
			if !ok || !Equal(av.values[key], other) {
				return false
			}
		}
		return true
	case *ArrayNode:
		bv := b.(*ArrayNode)
		if av.Len() != bv.Len() {
			return false
		}
		for i := range av.items {
			if !Equal(av.items[i], bv.items[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Clone returns a deep copy of n. Scalars are values and are returned as is.
func Clone(n Node) Node {
	switch v := normalize(n).(type) {
	case *ObjectNode:
		out := NewObjectNode()
		for _, key := range v.keys {
			out.Set(key, Clone(v.values[key]))
		}
		return out
	case *ArrayNode:
		out := NewArrayNode()
		for _, item := range v.items {
			out.Add(Clone(item))
		}
		return out
	default:
		return v
	}
}

// FromNumber converts a decoded JSON number into a node. Integer literals
// that fit in an int become IntNode; everything else becomes DoubleNode, or
// FloatNode when preferFloat is set and the value fits in a float32.
func FromNumber(num json.Number, preferFloat bool) (Node, error) {
	s := num.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, strconv.IntSize)
		if err == nil {
			return IntNode(int(i)), nil
		}
		if !errors.Is(err, strconv.ErrRange) {
			return nil, err
		}
	}

	if preferFloat {
		f, err := strconv.ParseFloat(s, 32)
		if err == nil {
			return FloatNode(float32(f)), nil
		}
		// Too wide for float32, keep it as a double
		if !errors.Is(err, strconv.ErrRange) {
			return nil, err
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return DoubleNode(f), nil
}
