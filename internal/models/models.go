package models

import "strings"

// ValueKind is the declared or inferred type of an assignment value
type ValueKind string

const (
	KindAuto   ValueKind = "auto"
	KindString ValueKind = "string"
	KindInt    ValueKind = "int"
	KindBool   ValueKind = "bool"
	KindFloat  ValueKind = "float"
	KindDouble ValueKind = "double"
	KindNull   ValueKind = "null"
	KindJSON   ValueKind = "json" // raw JSON value, may be an array or object
)

// Assignment is a single parsed `path[:type]=value` argument
type Assignment struct {
	Path   []string  // object keys from the root, already renamed
	Kind   ValueKind // never KindAuto once analyzed
	Raw    string    // value text as given
	Source string    // original argument, for error messages
}

// Key returns the dotted path of the assignment
func (a Assignment) Key() string {
	return strings.Join(a.Path, ".")
}

// Document is the ordered list of assignments to apply.
// Later assignments win over earlier ones for the same key.
type Document struct {
	Assignments []Assignment
}
