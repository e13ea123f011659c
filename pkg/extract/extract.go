// Package extract looks up every value stored under a key anywhere in a
// decoded JSON tree.
package extract

import (
	"fmt"
	"iter"
	"sort"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/pkg/document"
)

// Mode selects how far the lookup descends below keys that do not match.
type Mode string

const (
	// Deep recurses into the value of every non-matching key.
	Deep Mode = "deep"
	// Shallow only follows non-matching keys whose value is an array; nested
	// objects under other keys are never visited.
	Shallow Mode = "shallow"
)

// ParseMode maps a configuration string to a Mode. The empty string is Deep.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Deep:
		return Deep, nil
	case Shallow:
		return Shallow, nil
	}
	return "", fmt.Errorf("unknown traversal mode %q", s)
}

// Values returns the values found under lookupKey in document order. A
// matching key's value is yielded as is and not searched further. Every
// range over the result starts a new traversal.
func Values(data any, lookupKey string, mode Mode) iter.Seq[any] {
	return func(yield func(any) bool) {
		walk(data, lookupKey, mode, yield)
	}
}

// Collect materializes Values.
func Collect(data any, lookupKey string, mode Mode) []any {
	var out []any
	for v := range Values(data, lookupKey, mode) {
		out = append(out, v)
	}
	return out
}

// walk reports false once yield asks to stop.
func walk(data any, key string, mode Mode, yield func(any) bool) bool {
	switch v := data.(type) {
	case document.Object:
		for _, f := range v {
			if !visit(f.Key, f.Value, key, mode, yield) {
				return false
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !visit(k, v[k], key, mode, yield) {
				return false
			}
		}
	case []any:
		for _, item := range v {
			if !walk(item, key, mode, yield) {
				return false
			}
		}
	}
	return true
}

func visit(k string, value any, key string, mode Mode, yield func(any) bool) bool {
	if k == key {
		return yield(value)
	}
	if mode == Shallow {
		if _, ok := value.([]any); !ok {
			return true
		}
	}
	return walk(value, key, mode, yield)
}
