package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/objtree/internal/config"
	"github.com/mcncl/objtree/internal/errors"
	"github.com/mcncl/objtree/internal/logging"
	"github.com/mcncl/objtree/internal/models"
)

// Regex patterns for inferred value kinds
var (
	intRegex    = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	numberRegex = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
)

// typeNames maps every accepted `:type` suffix to its kind
var typeNames = map[string]models.ValueKind{
	"s": models.KindString, "string": models.KindString,
	"i": models.KindInt, "int": models.KindInt,
	"b": models.KindBool, "bool": models.KindBool,
	"f": models.KindFloat, "float": models.KindFloat,
	"d": models.KindDouble, "double": models.KindDouble,
	"n": models.KindNull, "null": models.KindNull,
	"j": models.KindJSON, "json": models.KindJSON,
}

// Analyzer turns `path[:type]=value` arguments into typed assignments
type Analyzer struct {
	// config holds naming and inference settings
	config *config.Config
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{config: config.NewConfig()}
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Analyze parses every argument in order
func (a *Analyzer) Analyze(args []string) (models.Document, error) {
	doc := models.Document{Assignments: make([]models.Assignment, 0, len(args))}
	for _, arg := range args {
		asg, err := a.ParseAssignment(arg)
		if err != nil {
			return models.Document{}, errors.NewAssignmentError(fmt.Sprintf("invalid assignment '%s'", arg), err)
		}
		doc.Assignments = append(doc.Assignments, asg)
	}
	return doc, nil
}

// ParseAssignment parses a single argument. A bare path with no `=` assigns null.
func (a *Analyzer) ParseAssignment(arg string) (models.Assignment, error) {
	lhs, raw, hasValue := splitUnescaped(arg, '=')

	kind := models.KindAuto
	if pathPart, typePart, typed := splitLastUnescaped(lhs, ':'); typed {
		k, ok := typeNames[strings.ToLower(typePart)]
		if !ok {
			return models.Assignment{}, fmt.Errorf("type '%s': %w", typePart, errors.ErrUnknownType)
		}
		kind = k
		lhs = pathPart
	}

	if !hasValue {
		switch kind {
		case models.KindAuto, models.KindNull:
			kind = models.KindNull
		default:
			return models.Assignment{}, fmt.Errorf("missing value for %s: %w", kind, errors.ErrInvalidValue)
		}
	}

	path, err := a.parsePath(lhs)
	if err != nil {
		return models.Assignment{}, err
	}

	if kind == models.KindAuto {
		kind = a.Infer(raw)
	}

	return models.Assignment{
		Path:   path,
		Kind:   kind,
		Raw:    raw,
		Source: arg,
	}, nil
}

// Infer picks the kind for an untyped value
func (a *Analyzer) Infer(raw string) models.ValueKind {
	if !a.config.Types.Infer {
		return models.KindString
	}

	switch raw {
	case "true", "false":
		return models.KindBool
	case "null":
		return models.KindNull
	}

	if intRegex.MatchString(raw) {
		if _, err := strconv.ParseInt(raw, 10, strconv.IntSize); err == nil {
			return models.KindInt
		}
	}
	if numberRegex.MatchString(raw) {
		return a.decimalKind(raw)
	}

	return models.KindString
}

// decimalKind picks the configured precision for a number, widening to
// double when it overflows float and falling back to a string when it
// overflows double
func (a *Analyzer) decimalKind(raw string) models.ValueKind {
	if a.config.Types.FloatPrecision == config.PrecisionFloat {
		if _, err := strconv.ParseFloat(raw, 32); err == nil {
			return models.KindFloat
		}
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return models.KindDouble
	}

	logging.Warn().Str("value", raw).Msg("number out of range, keeping it as a string")
	return models.KindString
}

// parsePath splits a dotted path, unescapes each key and applies naming rules
func (a *Analyzer) parsePath(lhs string) ([]string, error) {
	segments := splitAllUnescaped(lhs, '.')
	path := make([]string, 0, len(segments))
	for _, seg := range segments {
		key := unescape(seg)
		if key == "" {
			return nil, errors.ErrEmptyKey
		}
		path = append(path, a.getKeyName(key))
	}
	return path, nil
}

// getKeyName applies explicit mappings first, then the naming style
func (a *Analyzer) getKeyName(key string) string {
	if mapped, ok := a.config.MapKey(key); ok {
		return mapped
	}

	switch a.config.Naming.Style {
	case config.NamingSnake:
		return strcase.ToSnake(key)
	case config.NamingCamel:
		return strcase.ToCamel(key)
	case config.NamingLowerCamel:
		return strcase.ToLowerCamel(key)
	case config.NamingKebab:
		return strcase.ToKebab(key)
	default:
		return key
	}
}

// splitUnescaped splits s at the first sep not preceded by a backslash
func splitUnescaped(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// splitLastUnescaped splits s at the last sep not preceded by a backslash
func splitLastUnescaped(s string, sep byte) (string, string, bool) {
	idx := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			idx = i
		}
	}
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

// splitAllUnescaped splits s at every sep not preceded by a backslash,
// leaving escapes in place
func splitAllUnescaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// unescape drops the backslash in front of any escaped character
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
