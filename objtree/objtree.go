// Package objtree builds JSON object trees declaratively.
//
// A Builder wraps one object node and assigns keys on it. Nested objects are
// produced by NestedObject, which hands a fresh builder over a fresh node to
// a configuration function and returns the finished node:
//
//	doc := objtree.Build(node.Instance, func(b *objtree.Builder) {
//		b.AssignString("name", "objtree")
//		b.AssignObject("owner", b.NestedObject(func(o *objtree.Builder) {
//			o.AssignString("login", "mcncl")
//			o.AssignNull("email")
//		}))
//	})
//
// Every assignment overwrites any earlier value for the same key. A builder
// is meant for a single configuration pass on one goroutine.
package objtree

import "github.com/mcncl/objtree/node"

// Builder assigns keys on a single raw object node
type Builder struct {
	factory node.Factory
	raw     *node.ObjectNode
}

// New wraps raw in a builder. The factory is only used for nested objects.
func New(factory node.Factory, raw *node.ObjectNode) *Builder {
	if factory == nil {
		factory = node.Instance
	}
	if raw == nil {
		raw = factory.ObjectNode()
	}
	return &Builder{factory: factory, raw: raw}
}

// Build creates a fresh object node, applies configure to a builder over it
// and returns the node
func Build(factory node.Factory, configure func(b *Builder)) *node.ObjectNode {
	b := New(factory, nil)
	if configure != nil {
		configure(b)
	}
	return b.raw
}

// RawNode returns the node being built. It may be read at any time.
func (b *Builder) RawNode() *node.ObjectNode {
	return b.raw
}

// AssignString sets key to a JSON string
func (b *Builder) AssignString(key, value string) {
	b.raw.PutString(key, value)
}

// AssignInt sets key to a JSON integer
func (b *Builder) AssignInt(key string, value int) {
	b.raw.PutInt(key, value)
}

// AssignBool sets key to a JSON boolean
func (b *Builder) AssignBool(key string, value bool) {
	b.raw.PutBool(key, value)
}

// AssignFloat32 sets key to a single-precision number
func (b *Builder) AssignFloat32(key string, value float32) {
	b.raw.PutFloat32(key, value)
}

// AssignFloat64 sets key to a double-precision number
func (b *Builder) AssignFloat64(key string, value float64) {
	b.raw.PutFloat64(key, value)
}

// AssignObject sets key to an object node. A nil object is stored as null.
// An object that already holds this builder's node, such as RawNode itself,
// is stored as a copy so the tree never contains a cycle.
func (b *Builder) AssignObject(key string, value *node.ObjectNode) {
	if value == nil {
		b.raw.Set(key, nil)
		return
	}
	b.raw.Set(key, b.detach(value))
}

// AssignNode sets key to any node, including arrays. Like AssignObject it
// copies a value that holds this builder's node.
func (b *Builder) AssignNode(key string, value node.Node) {
	b.raw.Set(key, b.detach(value))
}

// AssignNull sets key to an explicit null. The key stays present.
func (b *Builder) AssignNull(key string) {
	b.raw.PutNull(key)
}

// NestedObject builds an independent object with a fresh builder and
// returns it. The result is not attached anywhere; pass it to AssignObject.
func (b *Builder) NestedObject(configure func(b *Builder)) *node.ObjectNode {
	return Build(b.factory, configure)
}

// detach returns a copy of n when n reaches the builder's node
func (b *Builder) detach(n node.Node) node.Node {
	if reaches(n, b.raw) {
		return node.Clone(n)
	}
	return n
}

func reaches(n node.Node, target *node.ObjectNode) bool {
	found := false
	switch v := n.(type) {
	case *node.ObjectNode:
		if v == nil {
			return false
		}
		if v == target {
			return true
		}
		v.Range(func(_ string, child node.Node) bool {
			found = reaches(child, target)
			return !found
		})
	case *node.ArrayNode:
		if v == nil {
			return false
		}
		v.Range(func(_ int, child node.Node) bool {
			found = reaches(child, target)
			return !found
		})
	}
	return found
}
