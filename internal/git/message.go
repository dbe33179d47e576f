// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

const maxSubjectLength = 72

// Summary describes one build for its commit message.
type Summary struct {
	EntryPoints  []string
	Files        []string // Written files, relative to the repository root
	Dependencies []types.Dependency
	Warnings     int
}

// GenerateMessage builds a conventional commit message for a build.
func GenerateMessage(s Summary) string {
	msg := buildSubject(s.EntryPoints)
	if body := buildBody(s); body != "" {
		msg += "\n\n" + body
	}
	return msg + "\n\n" + generatedTrailer
}

// buildSubject names the entry points, "build: transform a.ts, b.ts",
// shortened to fit the subject line.
func buildSubject(entryPoints []string) string {
	subject := "build: transform " + strings.Join(entryPoints, ", ")
	if len(entryPoints) == 0 {
		subject = "build: transform"
	}
	if len(subject) > maxSubjectLength && len(entryPoints) > 1 {
		subject = fmt.Sprintf("build: transform %s and %d more", entryPoints[0], len(entryPoints)-1)
	}
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength-3] + "..."
	}
	return subject
}

func buildBody(s Summary) string {
	var buf strings.Builder
	if len(s.Files) > 0 {
		buf.WriteString("Files:\n")
		for _, f := range s.Files {
			fmt.Fprintf(&buf, "- %s\n", f)
		}
	}
	if len(s.Dependencies) > 0 {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("Dependencies:\n")
		for _, d := range s.Dependencies {
			fmt.Fprintf(&buf, "- %s@%s\n", d.Name, d.Version)
		}
	}
	if s.Warnings > 0 {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "Warnings: %d\n", s.Warnings)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
