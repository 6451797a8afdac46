package schema

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcncl/objtree/internal/errors"
	"github.com/mcncl/objtree/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skeletonJSON(t *testing.T, input string) string {
	t.Helper()
	s, err := ParseString(input)
	require.NoError(t, err)
	obj, err := NewConverter(s).Skeleton(nil)
	require.NoError(t, err)
	data, err := obj.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}

func TestParseString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid simple schema",
			input:   `{"type": "object"}`,
			wantErr: false,
		},
		{
			name:    "valid schema with properties",
			input:   `{"type": "object", "properties": {"name": {"type": "string"}}}`,
			wantErr: false,
		},
		{
			name:    "type array",
			input:   `{"type": ["object", "null"]}`,
			wantErr: false,
		},
		{
			name: "comments and trailing commas",
			input: `{
				// top level
				"type": "object",
				"properties": {"a": {"type": "string"},},
			}`,
			wantErr: false,
		},
		{
			name:    "invalid JSON",
			input:   `{invalid}`,
			wantErr: true,
		},
		{
			name:    "invalid type keyword",
			input:   `{"type": 5}`,
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   ``,
			wantErr: true,
		},
		{
			name:    "empty object",
			input:   `{}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := ParseString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				var appErr *errors.AppError
				assert.True(t, stderrors.As(err, &appErr))
				assert.Equal(t, errors.ErrorTypeSchema, appErr.Type)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, schema)
			}
		})
	}
}

func TestSkeleton_RequiredZeroValues(t *testing.T) {
	input := `{
		"type": "object",
		"required": ["id", "name", "score", "active", "tags", "meta", "anything"],
		"properties": {
			"name": {"type": "string"},
			"id": {"type": "integer"},
			"score": {"type": "number"},
			"active": {"type": "boolean"},
			"tags": {"type": "array", "items": {"type": "string"}},
			"meta": {"type": "object"},
			"anything": {},
			"optional": {"type": "string"}
		}
	}`

	assert.Equal(t,
		`{"active":false,"anything":null,"id":0,"meta":{},"name":"","score":0,"tags":[]}`,
		skeletonJSON(t, input))
}

func TestSkeleton_ZeroNumberIsDouble(t *testing.T) {
	s, err := ParseString(`{"required": ["n", "i"], "properties": {"n": {"type": "number"}, "i": {"type": "integer"}}}`)
	require.NoError(t, err)
	obj, err := NewConverter(s).Skeleton(nil)
	require.NoError(t, err)

	n, _ := obj.Get("n")
	assert.Equal(t, node.Double, n.Kind())
	i, _ := obj.Get("i")
	assert.Equal(t, node.Int, i.Kind())
}

func TestSkeleton_ConstAndDefault(t *testing.T) {
	input := `{
		"type": "object",
		"properties": {
			"version": {"type": "integer", "const": 2, "default": 1},
			"region": {"type": "string", "default": "us-east-1"},
			"limits": {"type": "object", "default": {"b": 1, "a": [true, null]}},
			"ratio": {"type": "number", "default": 0.75},
			"nothing": {"default": null}
		}
	}`

	assert.Equal(t,
		`{"limits":{"b":1,"a":[true,null]},"nothing":null,"ratio":0.75,"region":"us-east-1","version":2}`,
		skeletonJSON(t, input))
}

func TestSkeleton_NestedObject(t *testing.T) {
	input := `{
		"type": "object",
		"properties": {
			"server": {
				"type": "object",
				"required": ["host"],
				"properties": {
					"host": {"type": "string"},
					"port": {"type": "integer", "default": 8080},
					"tls": {
						"properties": {"enabled": {"type": "boolean", "default": false}}
					}
				}
			},
			"empty": {"type": "object", "properties": {"x": {"type": "string"}}}
		}
	}`

	assert.Equal(t,
		`{"empty":{},"server":{"host":"","port":8080,"tls":{"enabled":false}}}`,
		skeletonJSON(t, input))
}

func TestSkeleton_Enum(t *testing.T) {
	input := `{
		"required": ["level", "mode"],
		"properties": {
			"level": {"type": "string", "enum": ["info", "debug"]},
			"mode": {"type": "string", "enum": ["fast"], "default": "slow"}
		}
	}`

	assert.Equal(t, `{"level":"info","mode":"slow"}`, skeletonJSON(t, input))
}

func TestSkeleton_Nullable(t *testing.T) {
	input := `{
		"required": ["a", "b", "c"],
		"properties": {
			"a": {"type": "string", "nullable": true},
			"b": {"type": ["null", "integer"]},
			"c": {"type": "null"},
			"d": {"type": ["string", "null"]},
			"e": {"type": ["string"]}
		}
	}`

	assert.Equal(t, `{"a":null,"b":null,"c":null}`, skeletonJSON(t, input))

	input = `{
		"required": ["d", "e"],
		"properties": {
			"d": {"type": ["string", "null"]},
			"e": {"type": ["string"]}
		}
	}`
	assert.Equal(t, `{"d":null,"e":""}`, skeletonJSON(t, input))
}

func TestSkeleton_Ref(t *testing.T) {
	input := `{
		"type": "object",
		"definitions": {
			"Address": {
				"type": "object",
				"required": ["city"],
				"properties": {"city": {"type": "string"}, "zip": {"type": "string", "default": "00000"}}
			}
		},
		"$defs": {
			"Country": {"type": "string", "default": "NZ"}
		},
		"properties": {
			"home": {"$ref": "#/definitions/Address"},
			"country": {"$ref": "#/$defs/Country"}
		}
	}`

	assert.Equal(t, `{"country":"NZ","home":{"city":"","zip":"00000"}}`, skeletonJSON(t, input))
}

func TestSkeleton_RefErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unresolved definition", `{"properties": {"a": {"$ref": "#/definitions/Missing"}}}`},
		{"external ref", `{"properties": {"a": {"$ref": "http://example.com/schema.json"}}}`},
		{"circular ref", `{"definitions": {"A": {"$ref": "#/definitions/A"}}, "properties": {"a": {"$ref": "#/definitions/A"}}}`},
		{
			"ref cycle through another definition",
			`{"definitions": {"A": {"$ref": "#/definitions/B"}, "B": {"$ref": "#/definitions/A"}}, "properties": {"a": {"$ref": "#/definitions/A"}}}`,
		},
		{
			"allOf cycle",
			`{"definitions": {"A": {"allOf": [{"$ref": "#/definitions/A"}]}}, "properties": {"a": {"$ref": "#/definitions/A"}}}`,
		},
		{
			"anyOf cycle",
			`{"definitions": {"A": {"anyOf": [{"$ref": "#/definitions/A"}]}}, "properties": {"a": {"$ref": "#/definitions/A"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseString(tt.input)
			require.NoError(t, err)
			_, err = NewConverter(s).Skeleton(nil)
			require.Error(t, err)
			var appErr *errors.AppError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, errors.ErrorTypeSchema, appErr.Type)
		})
	}
}

func TestSkeleton_RecursiveDefinitions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "optional self reference is left out",
			input: `{
				"definitions": {
					"Node": {
						"type": "object",
						"required": ["value"],
						"properties": {"value": {"type": "integer"}, "next": {"$ref": "#/definitions/Node"}}
					}
				},
				"required": ["head"],
				"properties": {"head": {"$ref": "#/definitions/Node"}}
			}`,
			want: `{"head":{"value":0}}`,
		},
		{
			name: "required self reference stops at an empty object",
			input: `{
				"definitions": {
					"Node": {
						"type": "object",
						"required": ["value", "next"],
						"properties": {"value": {"type": "integer"}, "next": {"$ref": "#/definitions/Node"}}
					}
				},
				"properties": {"head": {"$ref": "#/definitions/Node"}}
			}`,
			want: `{"head":{"next":{},"value":0}}`,
		},
		{
			name: "mutual recursion",
			input: `{
				"$defs": {
					"Person": {"type": "object", "properties": {"name": {"default": "x"}, "employer": {"$ref": "#/$defs/Company"}}},
					"Company": {"type": "object", "properties": {"ceo": {"$ref": "#/$defs/Person"}, "size": {"default": 1}}}
				},
				"properties": {"owner": {"$ref": "#/$defs/Person"}}
			}`,
			want: `{"owner":{"employer":{"size":1},"name":"x"}}`,
		},
		{
			name: "root reference",
			input: `{
				"$ref": "#/definitions/Tree",
				"definitions": {
					"Tree": {
						"type": "object",
						"properties": {"label": {"default": "root"}, "children": {"type": "array", "items": {"$ref": "#/definitions/Tree"}}, "parent": {"$ref": "#/definitions/Tree"}}
					}
				}
			}`,
			want: `{"label":"root"}`,
		},
		{
			name: "sibling references both expand",
			input: `{
				"definitions": {"Address": {"type": "object", "properties": {"city": {"default": "Wellington"}}}},
				"properties": {"billing": {"$ref": "#/definitions/Address"}, "shipping": {"$ref": "#/definitions/Address"}}
			}`,
			want: `{"billing":{"city":"Wellington"},"shipping":{"city":"Wellington"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, skeletonJSON(t, tt.input))
		})
	}
}

func TestSkeleton_AnyOfOneOf(t *testing.T) {
	input := `{
		"definitions": {
			"Owner": {"type": "object", "properties": {"name": {"default": "ops"}}}
		},
		"required": ["port", "mode", "note"],
		"properties": {
			"port": {"anyOf": [{"type": "null"}, {"type": "integer"}]},
			"mode": {"oneOf": [{"type": "string", "enum": ["fast", "slow"]}, {"type": "integer"}]},
			"note": {"anyOf": [{"type": "null"}]},
			"owner": {"anyOf": [{"$ref": "#/definitions/Owner"}, {"type": "string"}]},
			"limits": {
				"oneOf": [{"type": "object", "properties": {"cpu": {"default": "1"}}}],
				"default": {"cpu": "2"}
			}
		}
	}`

	assert.Equal(t,
		`{"limits":{"cpu":"2"},"mode":"fast","note":null,"owner":{"name":"ops"},"port":null}`,
		skeletonJSON(t, input))
}

func TestSkeleton_AllOf(t *testing.T) {
	input := `{
		"definitions": {
			"Base": {
				"type": "object",
				"required": ["id"],
				"properties": {"id": {"type": "integer"}}
			}
		},
		"allOf": [
			{"$ref": "#/definitions/Base"},
			{
				"type": "object",
				"required": ["name"],
				"properties": {"name": {"type": "string"}, "kind": {"const": "user"}}
			}
		]
	}`

	assert.Equal(t, `{"id":0,"kind":"user","name":""}`, skeletonJSON(t, input))
}

func TestSkeleton_RootMustBeObject(t *testing.T) {
	s, err := ParseString(`{"type": "array"}`)
	require.NoError(t, err)
	_, err = NewConverter(s).Skeleton(nil)
	assert.True(t, stderrors.Is(err, errors.ErrNotObject), "got %v", err)
}

func TestSkeleton_InvalidDefault(t *testing.T) {
	s := &Schema{Properties: map[string]*Schema{"a": {Default: []byte(`{broken`)}}}
	_, err := NewConverter(s).Skeleton(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid default for property 'a'")
}

type countingFactory struct {
	objects, arrays int
}

func (f *countingFactory) ObjectNode() *node.ObjectNode {
	f.objects++
	return node.NewObjectNode()
}

func (f *countingFactory) ArrayNode() *node.ArrayNode {
	f.arrays++
	return node.NewArrayNode()
}

func TestSkeleton_UsesFactory(t *testing.T) {
	s, err := ParseString(`{
		"required": ["list"],
		"properties": {
			"list": {"type": "array"},
			"nested": {"properties": {"x": {"default": 1}}}
		}
	}`)
	require.NoError(t, err)

	f := &countingFactory{}
	_, err = NewConverter(s).Skeleton(f)
	require.NoError(t, err)
	assert.Equal(t, 2, f.objects)
	assert.Equal(t, 1, f.arrays)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"properties": {"a": {"default": "b"}}}`), 0o644))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Contains(t, s.Properties, "a")

	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound), "got %v", err)

	_, err = ParseFile("")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidFilePath), "got %v", err)
}
