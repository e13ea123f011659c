package document

import (
	"errors"
	"fmt"
)

// ErrMalformedInput classifies every structural problem with a parse JSON.
var ErrMalformedInput = errors.New("malformed input")

// MissingKeyError reports a required key that is absent. Path is the JSON
// path of the missing key, e.g. "pdf_parse.body_text[2].section".
type MissingKeyError struct {
	Path string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("malformed input: missing key %q", e.Path)
}

func (e *MissingKeyError) Is(target error) bool {
	return target == ErrMalformedInput
}

// TypeError reports a value whose JSON type does not fit its position.
type TypeError struct {
	Path string
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("malformed input: %s must be %s, got %s", path, e.Want, jsonType(e.Got))
}

func (e *TypeError) Is(target error) bool {
	return target == ErrMalformedInput
}
