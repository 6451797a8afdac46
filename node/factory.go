package node

// Factory creates fresh, empty and independent containers
type Factory interface {
	ObjectNode() *ObjectNode
	ArrayNode() *ArrayNode
}

type factory struct{}

func (factory) ObjectNode() *ObjectNode { return NewObjectNode() }

func (factory) ArrayNode() *ArrayNode { return NewArrayNode() }

// NewFactory returns a stateless factory. It is safe for concurrent use.
func NewFactory() Factory {
	return factory{}
}

// Instance is the default factory
var Instance = NewFactory()
