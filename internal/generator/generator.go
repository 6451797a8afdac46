package generator

import (
	"fmt"
	"strconv"

	"github.com/mcncl/objtree/internal/config"
	"github.com/mcncl/objtree/internal/errors"
	"github.com/mcncl/objtree/internal/logging"
	"github.com/mcncl/objtree/internal/models"
	"github.com/mcncl/objtree/internal/parser"
	"github.com/mcncl/objtree/node"
	"github.com/mcncl/objtree/objtree"
)

// Generator applies assignments on top of a base document
type Generator struct {
	factory node.Factory
	// values controls how `:json` assignments are decoded
	values parser.Options
}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{factory: node.Instance}
}

// NewGeneratorWithConfig creates a Generator whose JSON values follow the
// configured decimal precision
func NewGeneratorWithConfig(cfg *config.Config) *Generator {
	g := NewGenerator()
	g.values.PreferFloat = cfg.Types.FloatPrecision == config.PrecisionFloat
	return g
}

// NewGeneratorWithFactory creates a Generator that allocates objects from f
func NewGeneratorWithFactory(f node.Factory) *Generator {
	return &Generator{factory: f}
}

// Generate returns a new document: a deep copy of base with every
// assignment applied in order. base may be nil and is never modified.
func (g *Generator) Generate(base *node.ObjectNode, doc models.Document) (*node.ObjectNode, error) {
	tree := newAssignmentTree()
	for _, asg := range doc.Assignments {
		if len(asg.Path) == 0 {
			return nil, errors.NewAssignmentError(fmt.Sprintf("assignment '%s' has no key", asg.Source), errors.ErrEmptyKey)
		}
		tree.insert(asg.Path, asg)
	}

	var buildErr error
	result := objtree.Build(g.factory, func(b *objtree.Builder) {
		buildErr = g.fill(b, base, tree)
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return result, nil
}

// Merge returns a new document holding under with over laid on top. Objects
// present on both sides merge key by key; any other value in over wins.
// Neither argument is modified.
func (g *Generator) Merge(under, over *node.ObjectNode) *node.ObjectNode {
	return objtree.Build(g.factory, func(b *objtree.Builder) {
		g.merge(b, under, over)
	})
}

func (g *Generator) merge(b *objtree.Builder, under, over *node.ObjectNode) {
	if under != nil {
		under.Range(func(key string, n node.Node) bool {
			b.AssignNode(key, node.Clone(n))
			return true
		})
	}
	if over == nil {
		return
	}

	over.Range(func(key string, n node.Node) bool {
		overObj, ok := n.(*node.ObjectNode)
		if !ok {
			b.AssignNode(key, node.Clone(n))
			return true
		}
		current, _ := b.RawNode().Get(key)
		underObj, _ := current.(*node.ObjectNode)
		b.AssignObject(key, b.NestedObject(func(nb *objtree.Builder) {
			g.merge(nb, underObj, overObj)
		}))
		return true
	})
}

// fill copies base into b and then applies t on top of it
func (g *Generator) fill(b *objtree.Builder, base *node.ObjectNode, t *assignmentTree) error {
	if base != nil {
		base.Range(func(key string, n node.Node) bool {
			b.AssignNode(key, node.Clone(n))
			return true
		})
	}

	for _, key := range t.order {
		e := t.entries[key]
		if e.leaf != nil {
			if err := g.assign(b, key, *e.leaf); err != nil {
				return err
			}
			continue
		}

		// Merge into an existing object, replace anything else
		var existing *node.ObjectNode
		if current, ok := b.RawNode().Get(key); ok && !e.replaced {
			existing, _ = current.(*node.ObjectNode)
		}

		var nestedErr error
		child := b.NestedObject(func(nb *objtree.Builder) {
			nestedErr = g.fill(nb, existing, e.children)
		})
		if nestedErr != nil {
			return nestedErr
		}
		b.AssignObject(key, child)
	}
	return nil
}

// assign converts a leaf assignment and stores it under key
func (g *Generator) assign(b *objtree.Builder, key string, asg models.Assignment) error {
	invalid := func(err error) error {
		return errors.NewAssignmentError(
			fmt.Sprintf("cannot use '%s' as %s for key '%s'", asg.Raw, asg.Kind, asg.Key()),
			fmt.Errorf("%w: %v", errors.ErrInvalidValue, err),
		)
	}

	switch asg.Kind {
	case models.KindString, models.KindAuto:
		b.AssignString(key, asg.Raw)
	case models.KindInt:
		v, err := strconv.Atoi(asg.Raw)
		if err != nil {
			return invalid(err)
		}
		b.AssignInt(key, v)
	case models.KindBool:
		v, err := strconv.ParseBool(asg.Raw)
		if err != nil {
			return invalid(err)
		}
		b.AssignBool(key, v)
	case models.KindFloat:
		v, err := strconv.ParseFloat(asg.Raw, 32)
		if err != nil {
			return invalid(err)
		}
		b.AssignFloat32(key, float32(v))
	case models.KindDouble:
		v, err := strconv.ParseFloat(asg.Raw, 64)
		if err != nil {
			return invalid(err)
		}
		b.AssignFloat64(key, v)
	case models.KindNull:
		b.AssignNull(key)
	case models.KindJSON:
		v, err := parser.ParseValue(asg.Raw, g.values)
		if err != nil {
			return invalid(err)
		}
		b.AssignNode(key, v)
	default:
		return errors.NewAssignmentError(fmt.Sprintf("unsupported kind %s for key '%s'", asg.Kind, asg.Key()), errors.ErrUnknownType)
	}

	logging.Debug().
		Str("key", asg.Key()).
		Str("kind", string(asg.Kind)).
		Msg("assigned")
	return nil
}

// assignmentTree groups assignments by key so that `a.b=1 a.c=2` land in
// the same object. Keys keep their first-seen order.
type assignmentTree struct {
	order   []string
	entries map[string]*treeEntry
}

// treeEntry holds either a leaf assignment or a subtree, never both.
// replaced marks a subtree that overwrote an earlier leaf, so it must not
// merge with the base document.
type treeEntry struct {
	leaf     *models.Assignment
	children *assignmentTree
	replaced bool
}

func newAssignmentTree() *assignmentTree {
	return &assignmentTree{entries: make(map[string]*treeEntry)}
}

// insert records asg at path; a later write to a key replaces whatever the
// key held before, leaf or subtree
func (t *assignmentTree) insert(path []string, asg models.Assignment) {
	key := path[0]
	e, ok := t.entries[key]
	if !ok {
		e = &treeEntry{}
		t.entries[key] = e
		t.order = append(t.order, key)
	}

	if len(path) == 1 {
		leaf := asg
		e.leaf = &leaf
		e.children = nil
		return
	}

	if e.leaf != nil {
		e.replaced = true
	}
	if e.children == nil {
		e.children = newAssignmentTree()
	}
	e.leaf = nil
	e.children.insert(path[1:], asg)
}
