// Package excise removes annotated character ranges (citation and
// cross-reference spans) from paragraph text.
//
// Offsets are code-point indices. Spans are cut from the highest start
// offset down to the lowest so that each cut leaves the offsets of the spans
// still pending untouched.
package excise

import (
	"errors"
	"fmt"
	"sort"

	"github.com/clowder-framework/extractors-s2orc-pdf2text/internal/models"
)

type Mode string

const (
	// Sequential cuts every span on its own, overlapping spans included. An
	// overlapping pair can remove characters outside the union of the two
	// ranges once the first cut has shortened the text.
	Sequential Mode = "sequential"
	// Union merges overlapping and touching spans before cutting, so exactly
	// the union of all ranges is removed.
	Union Mode = "union"
)

type RangePolicy string

const (
	// Clamp pulls start and end into [0, len(text)] and treats end < start as
	// an empty range.
	Clamp RangePolicy = "clamp"
	// Strict rejects any span that does not fit the current text.
	Strict RangePolicy = "strict"
)

var ErrSpanOutOfRange = errors.New("span out of range")

// RangeError reports a span that does not fit the text it is cut from.
type RangeError struct {
	Span   models.Span
	Length int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("span out of range: [%d, %d) for text of length %d", e.Span.Start, e.Span.End, e.Length)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrSpanOutOfRange
}

type ExcisorConfig struct {
	Mode       Mode
	OutOfRange RangePolicy
}

type Excisor struct {
	config ExcisorConfig
}

func NewWithConfig(config ExcisorConfig) Excisor {
	if config.Mode == "" {
		config.Mode = Sequential
	}
	if config.OutOfRange == "" {
		config.OutOfRange = Clamp
	}
	return Excisor{config: config}
}

func New() Excisor {
	return NewWithConfig(ExcisorConfig{})
}

// Excise returns text with every span removed. The span slices are not
// modified.
func (e Excisor) Excise(text string, spans ...[]models.Span) (string, error) {
	var all []models.Span
	for _, s := range spans {
		all = append(all, s...)
	}
	if len(all) == 0 {
		return text, nil
	}

	if e.config.Mode == Union {
		if e.config.OutOfRange == Strict {
			n := len([]rune(text))
			for _, s := range all {
				if err := check(s, n); err != nil {
					return "", err
				}
			}
		}
		all = merge(all)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start > all[j].Start
	})

	runes := []rune(text)
	for _, s := range all {
		start, end := s.Start, s.End
		if e.config.OutOfRange == Strict {
			if err := check(s, len(runes)); err != nil {
				return "", err
			}
		} else {
			start, end = clamp(start, end, len(runes))
		}
		runes = append(runes[:start], runes[end:]...)
	}
	return string(runes), nil
}

// Paragraph excises the paragraph's cite and ref spans from its text.
func (e Excisor) Paragraph(p models.Paragraph) (string, error) {
	return e.Excise(p.Text, p.Spans())
}

func check(s models.Span, n int) error {
	if s.Start < 0 || s.End < s.Start || s.End > n {
		return &RangeError{Span: s, Length: n}
	}
	return nil
}

func clamp(start, end, n int) (int, int) {
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return start, end
}

// merge returns the union of spans as sorted, disjoint ranges.
func merge(spans []models.Span) []models.Span {
	sorted := make([]models.Span, len(spans))
	copy(sorted, spans)
	for i := range sorted {
		if sorted[i].End < sorted[i].Start {
			sorted[i].End = sorted[i].Start
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := []models.Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			last.End = max(last.End, s.End)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
