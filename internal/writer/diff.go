// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

// Status classifies a file in a dry run.
type Status int

const (
	Unchanged Status = iota
	Added
	Modified
)

func (s Status) String() string {
	switch s {
	case Added:
		return "added"
	case Modified:
		return "modified"
	default:
		return "unchanged"
	}
}

// FileDiff is the preview of one output file.
type FileDiff struct {
	Path    string
	Status  Status
	Patch   string // Line diff; empty when unchanged
	Added   int    // Lines added
	Removed int    // Lines removed
}

// Diff compares the files against what is on disk under outDir without
// writing anything.
func Diff(outDir string, files []types.OutputFile) ([]FileDiff, error) {
	dmp := diffmatchpatch.New()
	out := make([]FileDiff, 0, len(files))
	for _, f := range files {
		target, err := targetPath(outDir, f.Path)
		if err != nil {
			return nil, err
		}
		status := Modified
		existing, err := os.ReadFile(target)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			status = Added
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", target, err)
		case string(existing) == f.Text:
			out = append(out, FileDiff{Path: f.Path, Status: Unchanged})
			continue
		}

		d := FileDiff{Path: f.Path, Status: status}
		d.Patch, d.Added, d.Removed = lineDiff(dmp, string(existing), f.Text)
		out = append(out, d)
	}
	return out, nil
}

// lineDiff renders a line-level diff with +, - and space prefixes.
func lineDiff(dmp *diffmatchpatch.DiffMatchPatch, before, after string) (string, int, int) {
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	added, removed := 0, 0
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range splitLines(d.Text) {
			switch prefix {
			case "+":
				added++
			case "-":
				removed++
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), added, removed
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
