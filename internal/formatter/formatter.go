package formatter

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mcncl/objtree/internal/errors"
	"github.com/mcncl/objtree/node"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

// Supported output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const defaultIndent = "  "

// Options controls how a document is rendered
type Options struct {
	Format   string
	Pretty   bool
	Indent   string
	SortKeys bool
}

// Formatter renders object trees as JSON or YAML text
type Formatter struct{}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders obj. The result carries no trailing newline.
func (f *Formatter) Format(obj *node.ObjectNode, opts Options) (string, error) {
	if obj == nil {
		obj = node.NewObjectNode()
	}
	if opts.Indent == "" {
		opts.Indent = defaultIndent
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatJSON:
		return f.formatJSON(obj, opts)
	case FormatYAML:
		var root node.Node = obj
		if opts.SortKeys {
			root = sortKeys(obj)
		}
		return f.formatYAML(root, opts)
	default:
		return "", errors.NewFormatError(fmt.Sprintf("unknown output format '%s'", opts.Format), nil)
	}
}

// formatJSON renders obj in insertion order and lets pretty handle
// indentation and key sorting. Width 0 keeps every array element on its own
// line.
func (f *Formatter) formatJSON(obj *node.ObjectNode, opts Options) (string, error) {
	data, err := obj.MarshalJSON()
	if err != nil {
		return "", errors.NewFormatError("failed to render JSON", err)
	}
	if !opts.Pretty && !opts.SortKeys {
		return string(data), nil
	}

	data = pretty.PrettyOptions(data, &pretty.Options{
		Indent:   opts.Indent,
		SortKeys: opts.SortKeys,
	})
	if !opts.Pretty {
		data = pretty.Ugly(data)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func (f *Formatter) formatYAML(root node.Node, opts Options) (string, error) {
	doc, err := toYAML(root)
	if err != nil {
		return "", errors.NewFormatError("failed to render YAML", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(len(opts.Indent))
	if err := enc.Encode(doc); err != nil {
		return "", errors.NewFormatError("failed to render YAML", err)
	}
	if err := enc.Close(); err != nil {
		return "", errors.NewFormatError("failed to render YAML", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// toYAML converts n into a yaml.v3 node tree, keeping key order and nulls
func toYAML(n node.Node) (*yaml.Node, error) {
	switch v := n.(type) {
	case *node.ObjectNode:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if v.Size() == 0 {
			out.Style = yaml.FlowStyle
		}
		var err error
		v.Range(func(key string, child node.Node) bool {
			var value *yaml.Node
			value, err = toYAML(child)
			if err != nil {
				return false
			}
			out.Content = append(out.Content, scalar("!!str", key), value)
			return true
		})
		return out, err
	case *node.ArrayNode:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if v.Len() == 0 {
			out.Style = yaml.FlowStyle
		}
		var err error
		v.Range(func(_ int, child node.Node) bool {
			var item *yaml.Node
			item, err = toYAML(child)
			if err != nil {
				return false
			}
			out.Content = append(out.Content, item)
			return true
		})
		return out, err
	case node.TextNode:
		return scalar("!!str", string(v)), nil
	case node.IntNode:
		return scalar("!!int", strconv.Itoa(int(v))), nil
	case node.BoolNode:
		return scalar("!!bool", strconv.FormatBool(bool(v))), nil
	case node.FloatNode:
		return floatScalar(float64(v), 32)
	case node.DoubleNode:
		return floatScalar(float64(v), 64)
	case node.NullNode, nil:
		return scalar("!!null", "null"), nil
	default:
		return nil, fmt.Errorf("unsupported node kind %s", n.Kind())
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// floatScalar keeps a decimal point on whole numbers so the value reads back
// as a float
func floatScalar(v float64, bits int) (*yaml.Node, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("unsupported value: %v", v)
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return scalar("!!float", s), nil
}

// sortKeys returns a copy of n whose objects list their keys in lexical order
// at every depth. Only YAML needs it; JSON is sorted by pretty.
func sortKeys(n node.Node) node.Node {
	switch v := n.(type) {
	case *node.ObjectNode:
		keys := v.Keys()
		sort.Strings(keys)
		out := node.NewObjectNode()
		for _, key := range keys {
			child, _ := v.Get(key)
			out.Set(key, sortKeys(child))
		}
		return out
	case *node.ArrayNode:
		out := node.NewArrayNode()
		v.Range(func(_ int, child node.Node) bool {
			out.Add(sortKeys(child))
			return true
		})
		return out
	default:
		return n
	}
}
