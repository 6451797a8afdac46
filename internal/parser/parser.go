package parser

import (
	"bytes"
	"encoding/json"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcncl/objtree/internal/errors" // Custom errors package
	"github.com/mcncl/objtree/node"
	"github.com/tidwall/jsonc"
)

// Options controls how numbers are decoded
type Options struct {
	// PreferFloat decodes decimal numbers as single precision
	PreferFloat bool
}

// Parse reads a JSON (or JSONC) object document from reader
func Parse(reader io.Reader) (*node.ObjectNode, error) {
	return ParseWithOptions(reader, Options{})
}

// ParseWithOptions reads a JSON (or JSONC) object document from reader
func ParseWithOptions(reader io.Reader, opts Options) (*node.ObjectNode, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewInputError("failed to read input", err)
	}

	root, err := decode(data, opts)
	if err != nil {
		return nil, err
	}

	obj, ok := root.(*node.ObjectNode)
	if !ok {
		return nil, errors.NewParsingError(
			fmt.Sprintf("document root is %s, expected object", root.Kind()),
			errors.ErrNotObject,
		)
	}
	return obj, nil
}

// ParseValue parses a single JSON value of any kind, as used by `:json`
// assignments
func ParseValue(raw string, opts Options) (node.Node, error) {
	return decode([]byte(raw), opts)
}

// ParseString parses a JSON object document from a string
func ParseString(jsonString string) (*node.ObjectNode, error) {
	// An empty reader yields io.EOF, but whitespace-only input deserves the
	// same input error.
	if strings.TrimSpace(jsonString) == "" {
		return nil, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString))
}

// ParseFile parses a JSON object document from a file path
func ParseFile(filePath string, opts Options) (*node.ObjectNode, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return ParseWithOptions(file, opts)
}

// decode turns JSONC text into exactly one node
func decode(data []byte, opts Options) (node.Node, error) {
	// Comments and trailing commas are blanked out, offsets stay intact
	data = jsonc.ToJSON(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	d := &treeDecoder{dec: decoder, opts: opts}
	root, err := d.value()
	if err != nil {
		return nil, wrapDecodeError(err)
	}

	// A second value at the root is an error; only trailing whitespace is allowed
	if _, err := decoder.Token(); err == nil {
		return nil, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	} else if !stderrors.Is(err, io.EOF) {
		return nil, errors.NewParsingError("invalid trailing data after first JSON value", err)
	}

	return root, nil
}

func wrapDecodeError(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewParsingError(
			fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return errors.NewParsingError("failed to decode JSON", err)
}

// treeDecoder walks the decoder's token stream so that object keys keep
// their document order
type treeDecoder struct {
	dec  *json.Decoder
	opts Options
}

func (d *treeDecoder) value() (node.Node, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return d.object()
		case '[':
			return d.array()
		default:
			return nil, errors.NewParsingError(
				fmt.Sprintf("unexpected '%s' at offset %d", v, d.dec.InputOffset()),
				errors.ErrInvalidJSON,
			)
		}
	case string:
		return node.TextNode(v), nil
	case bool:
		return node.BoolNode(v), nil
	case json.Number:
		n, err := node.FromNumber(v, d.opts.PreferFloat)
		if err != nil {
			return nil, errors.NewParsingError(fmt.Sprintf("invalid number '%s'", v), errors.ErrInvalidJSON)
		}
		return n, nil
	case nil:
		return node.NullNode{}, nil
	default:
		return nil, fmt.Errorf("unexpected json token type: %T", v)
	}
}

func (d *treeDecoder) object() (node.Node, error) {
	obj := node.NewObjectNode()
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.NewParsingError(
				fmt.Sprintf("object key is not a string at offset %d", d.dec.InputOffset()),
				errors.ErrInvalidJSON,
			)
		}
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	// closing brace
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (d *treeDecoder) array() (node.Node, error) {
	arr := node.NewArrayNode()
	for d.dec.More() {
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		arr.Add(val)
	}
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}
