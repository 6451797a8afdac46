// Package schema provides JSON Schema parsing and conversion to skeleton documents
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mcncl/objtree/internal/errors"
	"github.com/mcncl/objtree/internal/parser"
	"github.com/mcncl/objtree/node"
	"github.com/mcncl/objtree/objtree"
	"github.com/tidwall/jsonc"
)

// SchemaType handles JSON Schema type field which can be string or array of strings
type SchemaType struct {
	Types []string
}

// UnmarshalJSON handles both string and array forms of type
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	// Try string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		st.Types = []string{s}
		return nil
	}

	// Try array of strings
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		st.Types = arr
		return nil
	}

	return fmt.Errorf("type must be string or array of strings")
}

// Primary returns the primary (first) type, or empty string if none
func (st SchemaType) Primary() string {
	if len(st.Types) > 0 {
		return st.Types[0]
	}
	return ""
}

// IsNullable returns true if "null" is one of the allowed types
func (st SchemaType) IsNullable() bool {
	for _, t := range st.Types {
		if t == "null" {
			return true
		}
	}
	return false
}

// Schema is the subset of a JSON Schema document that shapes a skeleton
type Schema struct {
	Ref   string `json:"$ref,omitempty"`
	Title string `json:"title,omitempty"`

	// Type - can be string or array of strings in JSON Schema
	Type SchemaType `json:"type,omitempty"`

	// Object properties
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`

	// Array items
	Items *Schema `json:"items,omitempty"`

	// Enum
	Enum []json.RawMessage `json:"enum,omitempty"`

	// Nullable (OpenAPI style)
	Nullable bool `json:"nullable,omitempty"`

	// Composition. allOf merges; anyOf and oneOf seed from one alternative.
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`

	// Definitions for $ref resolution
	Definitions map[string]*Schema `json:"definitions,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"` // JSON Schema draft 2019-09+

	// Fixed and default values, kept raw so numbers and key order survive
	Const   json.RawMessage `json:"const,omitempty"`
	Default json.RawMessage `json:"default,omitempty"`
}

// maxDepth bounds how deep a skeleton and its allOf chains may nest
const maxDepth = 64

// ParseFile reads and parses a JSON Schema from a file
func ParseFile(path string) (*Schema, error) {
	if path == "" {
		return nil, errors.NewSchemaError("schema file path is empty", errors.ErrInvalidFilePath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewSchemaError(fmt.Sprintf("schema file '%s' not found", path), errors.ErrFileNotFound)
		}
		return nil, errors.NewSchemaError("failed to read schema file", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses JSON Schema from bytes. Comments and trailing commas are allowed.
func ParseBytes(data []byte) (*Schema, error) {
	data = jsonc.ToJSON(data)
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.NewSchemaError("schema is empty", errors.ErrEmptyInput)
	}

	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, errors.NewSchemaError("failed to parse JSON Schema", fmt.Errorf("%w: %v", errors.ErrInvalidJSON, err))
	}

	return &schema, nil
}

// ParseString parses JSON Schema from a string
func ParseString(s string) (*Schema, error) {
	return ParseBytes([]byte(s))
}

// Converter turns a JSON Schema into a skeleton document
type Converter struct {
	schema      *Schema
	definitions map[string]*Schema // Merged definitions for $ref resolution
}

// NewConverter creates a new schema converter
func NewConverter(schema *Schema) *Converter {
	// Merge definitions and $defs
	definitions := make(map[string]*Schema)
	for k, v := range schema.Definitions {
		definitions[k] = v
	}
	for k, v := range schema.Defs {
		definitions[k] = v
	}

	return &Converter{
		schema:      schema,
		definitions: definitions,
	}
}

// Skeleton builds an object holding every value the schema pins down.
//
// Properties are visited in sorted order. A property takes its const, then
// its default, then a nested skeleton when it is an object with properties.
// Required properties with none of those get the zero value of their type;
// optional ones are left out. An object whose definition is already being
// expanded further up is not expanded again: it becomes {} when required and
// is left out otherwise.
func (c *Converter) Skeleton(f node.Factory) (*node.ObjectNode, error) {
	if f == nil {
		f = node.Instance
	}

	root, refs, err := c.resolve(c.schema, 0)
	if err != nil {
		return nil, err
	}
	if t := root.primaryType(); t != "" && t != "object" {
		return nil, errors.NewSchemaError(fmt.Sprintf("schema root is %s, expected object", t), errors.ErrNotObject)
	}

	expanding := make(map[string]bool)
	for _, ref := range refs {
		expanding[ref] = true
	}

	var buildErr error
	result := objtree.Build(f, func(b *objtree.Builder) {
		buildErr = c.fillObject(b, f, root, 0, expanding)
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return result, nil
}

// fillObject assigns the skeleton value of every property of s. expanding
// holds the definitions on the path from the root to s.
func (c *Converter) fillObject(b *objtree.Builder, f node.Factory, s *Schema, depth int, expanding map[string]bool) error {
	if depth > maxDepth {
		return errors.NewSchemaError("schema nests deeper than supported", nil)
	}

	requiredSet := make(map[string]bool)
	for _, r := range s.Required {
		requiredSet[r] = true
	}

	// Sort property names for deterministic output
	propNames := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, propName := range propNames {
		prop, refs, err := c.resolve(s.Properties[propName], depth)
		if err != nil {
			return fmt.Errorf("property %s: %w", propName, err)
		}

		switch {
		case len(prop.Const) > 0:
			v, err := rawNode(prop.Const)
			if err != nil {
				return errors.NewSchemaError(fmt.Sprintf("invalid const for property '%s'", propName), err)
			}
			b.AssignNode(propName, v)
		case len(prop.Default) > 0:
			v, err := rawNode(prop.Default)
			if err != nil {
				return errors.NewSchemaError(fmt.Sprintf("invalid default for property '%s'", propName), err)
			}
			b.AssignNode(propName, v)
		case prop.primaryType() == "object" && len(prop.Properties) > 0:
			if anyExpanding(expanding, refs) {
				if requiredSet[propName] {
					b.AssignObject(propName, f.ObjectNode())
				}
				continue
			}

			for _, ref := range refs {
				expanding[ref] = true
			}
			var nestedErr error
			nested := b.NestedObject(func(nb *objtree.Builder) {
				nestedErr = c.fillObject(nb, f, prop, depth+1, expanding)
			})
			for _, ref := range refs {
				delete(expanding, ref)
			}
			if nestedErr != nil {
				return nestedErr
			}
			b.AssignObject(propName, nested)
		case requiredSet[propName]:
			v, err := zeroValue(f, prop)
			if err != nil {
				return errors.NewSchemaError(fmt.Sprintf("invalid enum for property '%s'", propName), err)
			}
			b.AssignNode(propName, v)
		}
	}
	return nil
}

func anyExpanding(expanding map[string]bool, refs []string) bool {
	for _, ref := range refs {
		if expanding[ref] {
			return true
		}
	}
	return false
}

// resolve follows $ref, merges allOf and picks an anyOf/oneOf alternative
// until a concrete schema remains. It also returns every $ref it followed.
// A $ref that leads back to itself without passing through an object is an
// error.
func (c *Converter) resolve(s *Schema, depth int) (*Schema, []string, error) {
	if depth > maxDepth {
		return nil, nil, errors.NewSchemaError("circular $ref", nil)
	}

	var refs []string
	seen := make(map[string]bool)
	nullable := false
	for s != nil {
		switch {
		case s.Ref != "":
			if seen[s.Ref] {
				return nil, nil, errors.NewSchemaError(fmt.Sprintf("circular $ref: %s", s.Ref), nil)
			}
			seen[s.Ref] = true
			refs = append(refs, s.Ref)

			def, err := c.lookupRef(s.Ref)
			if err != nil {
				return nil, nil, err
			}
			s = def
		case len(s.AllOf) > 0:
			merged, memberRefs, err := c.mergeAllOf(s, depth)
			if err != nil {
				return nil, nil, err
			}
			return withNullable(merged, nullable), append(refs, memberRefs...), nil
		case s.isAlternation():
			branch, hasNull := s.firstBranch()
			nullable = nullable || hasNull
			s = branch
		default:
			return withNullable(s, nullable), refs, nil
		}
	}
	return &Schema{Nullable: nullable}, refs, nil
}

// mergeAllOf merges s and every schema in its allOf into one object schema.
// Later members win on conflicting properties.
func (c *Converter) mergeAllOf(s *Schema, depth int) (*Schema, []string, error) {
	merged := &Schema{
		Title:      s.Title,
		Properties: make(map[string]*Schema),
		Required:   append([]string(nil), s.Required...),
		Const:      s.Const,
		Default:    s.Default,
	}
	for k, v := range s.Properties {
		merged.Properties[k] = v
	}

	var refs []string
	for _, member := range s.AllOf {
		resolved, memberRefs, err := c.resolve(member, depth+1)
		if err != nil {
			return nil, nil, err
		}
		refs = append(refs, memberRefs...)

		// Merge properties
		for k, v := range resolved.Properties {
			merged.Properties[k] = v
		}

		// Merge required
		merged.Required = append(merged.Required, resolved.Required...)

		// Take first non-empty title
		if merged.Title == "" && resolved.Title != "" {
			merged.Title = resolved.Title
		}
	}

	merged.Type = SchemaType{Types: []string{"object"}}
	return merged, refs, nil
}

// isAlternation reports whether s is only an anyOf/oneOf with nothing of
// its own to contribute
func (s *Schema) isAlternation() bool {
	if len(s.AnyOf) == 0 && len(s.OneOf) == 0 {
		return false
	}
	return len(s.Type.Types) == 0 && len(s.Properties) == 0 &&
		len(s.Enum) == 0 && len(s.Const) == 0 && len(s.Default) == 0
}

// firstBranch returns the first alternative that allows more than null, and
// whether a null-only alternative was seen
func (s *Schema) firstBranch() (*Schema, bool) {
	branches := s.AnyOf
	if len(branches) == 0 {
		branches = s.OneOf
	}

	var chosen *Schema
	hasNull := false
	for _, br := range branches {
		if br == nil {
			continue
		}
		if br.Ref == "" && len(br.Type.Types) == 1 && br.Type.Types[0] == "null" {
			hasNull = true
			continue
		}
		if chosen == nil {
			chosen = br
		}
	}
	if chosen == nil {
		chosen = &Schema{Type: SchemaType{Types: []string{"null"}}}
	}
	return chosen, hasNull
}

func withNullable(s *Schema, nullable bool) *Schema {
	if !nullable || s.Nullable {
		return s
	}
	cp := *s
	cp.Nullable = true
	return &cp
}

// lookupRef resolves local references like "#/definitions/User" or "#/$defs/User"
func (c *Converter) lookupRef(ref string) (*Schema, error) {
	var defName string
	switch {
	case strings.HasPrefix(ref, "#/definitions/"):
		defName = strings.TrimPrefix(ref, "#/definitions/")
	case strings.HasPrefix(ref, "#/$defs/"):
		defName = strings.TrimPrefix(ref, "#/$defs/")
	default:
		// External refs not supported yet
		return nil, errors.NewSchemaError(fmt.Sprintf("external $ref not supported: %s", ref), nil)
	}

	if def, ok := c.definitions[defName]; ok && def != nil {
		return def, nil
	}
	return nil, errors.NewSchemaError(fmt.Sprintf("unresolved $ref: %s", ref), nil)
}

// primaryType returns the schema's type, skipping "null" when other types are
// allowed and inferring object or array from the keywords present
func (s *Schema) primaryType() string {
	t := s.Type.Primary()
	if t == "null" && len(s.Type.Types) > 1 {
		for _, other := range s.Type.Types {
			if other != "null" {
				return other
			}
		}
	}
	if t == "" {
		if len(s.Properties) > 0 {
			return "object"
		} else if s.Items != nil {
			return "array"
		}
	}
	return t
}

// zeroValue picks the placeholder for a required property without a default
func zeroValue(f node.Factory, s *Schema) (node.Node, error) {
	if len(s.Enum) > 0 {
		return rawNode(s.Enum[0])
	}
	if s.Nullable || s.Type.IsNullable() {
		return node.NullNode{}, nil
	}

	switch s.primaryType() {
	case "string":
		return node.TextNode(""), nil
	case "integer":
		return node.IntNode(0), nil
	case "number":
		return node.DoubleNode(0), nil
	case "boolean":
		return node.BoolNode(false), nil
	case "array":
		return f.ArrayNode(), nil
	case "object":
		return f.ObjectNode(), nil
	default:
		return node.NullNode{}, nil
	}
}

// rawNode decodes a raw JSON value into a node tree
func rawNode(raw json.RawMessage) (node.Node, error) {
	return parser.ParseValue(string(raw), parser.Options{})
}
