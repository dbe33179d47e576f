// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "fmt"

// TextChange replaces the half-open byte range [Start, End) of a module's
// original source text with NewText. An empty range is an insertion and an
// empty NewText is a deletion.
type TextChange struct {
	Start   int
	End     int
	NewText string
}

func (c TextChange) String() string {
	return fmt.Sprintf("[%d, %d) -> %q", c.Start, c.End, c.NewText)
}

// MappedSpecifier substitutes a module specifier with a bare package name.
// An empty Version is a pure rename and is never emitted as a dependency.
type MappedSpecifier struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// OutputFile is one emitted file, with a POSIX path relative to the output
// directory.
type OutputFile struct {
	Path string `json:"filePath"`
	Text string `json:"fileText"`
}

// Dependency is an external package the output depends on.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Environment holds everything emitted for one set of entry points.
type Environment struct {
	EntryPoints  []string     `json:"entryPoints"`
	Files        []OutputFile `json:"files"`
	ShimUsed     bool         `json:"shimUsed"`
	Dependencies []Dependency `json:"dependencies"`
}

// TransformOutput is the result of one transform run. Warnings never block
// output; fatal conditions are returned as errors instead.
type TransformOutput struct {
	Main     Environment `json:"main"`
	Test     Environment `json:"test"`
	Warnings []string    `json:"warnings"`
}
