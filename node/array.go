package node

import "bytes"

// ArrayNode is an ordered list of nodes
type ArrayNode struct {
	items []Node
}

// NewArrayNode returns an empty array
func NewArrayNode() *ArrayNode {
	return &ArrayNode{items: make([]Node, 0)}
}

// Kind implements Node
func (a *ArrayNode) Kind() Kind { return Array }

// Add appends n. A nil node is appended as an explicit null.
func (a *ArrayNode) Add(n Node) {
	a.items = append(a.items, normalize(n))
}

// Len returns the number of elements
func (a *ArrayNode) Len() int { return len(a.items) }

// Index returns the element at i
func (a *ArrayNode) Index(i int) (Node, bool) {
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	return a.items[i], true
}

// Range calls fn for every element in order until fn returns false
func (a *ArrayNode) Range(fn func(i int, n Node) bool) {
	for i, item := range a.items {
		if !fn(i, item) {
			return
		}
	}
}

// MarshalJSON implements json.Marshaler
func (a *ArrayNode) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range a.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		v, err := item.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
