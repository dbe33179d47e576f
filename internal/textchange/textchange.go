// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package textchange applies byte-range edits to module source text.
package textchange

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

var (
	// ErrInternal marks failures that indicate a bug in edit generation
	// rather than bad input.
	ErrInternal = errors.New("internal error")

	// ErrOverlap is returned when two edits cover the same bytes.
	ErrOverlap = fmt.Errorf("%w: overlapping text changes", ErrInternal)

	// ErrOutOfRange is returned when an edit lies outside the text.
	ErrOutOfRange = fmt.Errorf("%w: text change out of range", ErrInternal)
)

// Apply returns text with every change applied. Offsets refer to the
// original text. The input slice is not modified. Insertions at the same
// offset are applied in input order.
func Apply(text string, changes []types.TextChange) (string, error) {
	if len(changes) == 0 {
		return text, nil
	}

	sorted := slices.Clone(changes)
	slices.SortStableFunc(sorted, func(a, b types.TextChange) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i, c := range sorted {
		if c.Start < 0 || c.End < c.Start || c.End > len(text) {
			return "", fmt.Errorf("%w: %s in text of length %d", ErrOutOfRange, c, len(text))
		}
		if i > 0 && c.Start < sorted[i-1].End {
			return "", fmt.Errorf("%w: %s and %s", ErrOverlap, sorted[i-1], c)
		}
		b.WriteString(text[last:c.Start])
		b.WriteString(c.NewText)
		last = c.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
