// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parser

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// // @deno-types="./mod.d.ts"
	denoTypesRe = regexp.MustCompile(`^//\s*@deno-types\s*=\s*["']([^"']+)["']`)
	// /// <reference types="./mod.d.ts" />
	referenceTypesRe = regexp.MustCompile(`^///\s*<reference\s+types\s*=\s*["']([^"']+)["']\s*/>`)
	// /// <reference lib="deno.ns" />
	denoLibRe = regexp.MustCompile(`^///\s*<reference\s+lib\s*=\s*["']deno\.[^"']*["']\s*/>`)
)

// Import is one module reference found in a module.
type Import struct {
	Specifier      string // Literal as written
	TypesSpecifier string // From a preceding @deno-types comment, if any
	Dynamic        bool
}

// Analysis lists a module's references in source order, followed by those
// recovered from regions that did not parse.
type Analysis struct {
	Imports []Import
	// TypesReference is the /// <reference types> directive of a JavaScript
	// module, naming the declaration file for the module itself.
	TypesReference string
}

// Analyze extracts the module references of a parsed module.
func Analyze(ps *ParsedSource) Analysis {
	var a Analysis
	if ps.Root == nil {
		return a
	}

	seen := make(map[int]bool)
	Walk(ps.Root, func(n *sitter.Node) bool {
		switch KindOf(n) {
		case ImportDecl, ExportAll, NamedExport:
			if src := Source(n); src != nil {
				seen[int(src.StartByte())] = true
				a.Imports = append(a.Imports, Import{
					Specifier:      StringValue(src, ps.Text),
					TypesSpecifier: DenoTypesDirective(n, ps.Text),
				})
			}
			return false
		case DynamicImport:
			if src := DynamicSource(n); src != nil {
				a.Imports = append(a.Imports, Import{
					Specifier: StringValue(src, ps.Text),
					Dynamic:   true,
				})
			}
			// Arguments may hold further dynamic imports.
			return true
		}
		return true
	})
	for _, r := range RecoverAttributed(ps) {
		if !seen[r.LitStart] {
			a.Imports = append(a.Imports, Import{Specifier: r.Specifier})
		}
	}

	if ps.MediaType == JavaScript || ps.MediaType == JSX {
		a.TypesReference = leadingTypesReference(ps)
	}
	return a
}

// DenoTypesDirective returns the target of a @deno-types comment placed
// immediately before a statement.
func DenoTypesDirective(stmt *sitter.Node, src []byte) string {
	prev := stmt.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	if m := denoTypesRe.FindSubmatch([]byte(prev.Content(src))); m != nil {
		return string(m[1])
	}
	return ""
}

// IsDenoTypesComment reports whether a comment is a @deno-types directive.
func IsDenoTypesComment(text string) bool {
	return denoTypesRe.MatchString(text)
}

// IsDenoLibReference reports whether a comment is a triple-slash reference
// to a Deno-only type library.
func IsDenoLibReference(text string) bool {
	return denoLibRe.MatchString(text)
}

// leadingTypesReference scans the comments before the first statement.
func leadingTypesReference(ps *ParsedSource) string {
	for i := 0; i < int(ps.Root.ChildCount()); i++ {
		c := ps.Root.Child(i)
		if c == nil {
			continue
		}
		if c.Type() == "hash_bang_line" {
			continue
		}
		if c.Type() != "comment" {
			return ""
		}
		if m := referenceTypesRe.FindStringSubmatch(c.Content(ps.Text)); m != nil {
			return m[1]
		}
	}
	return ""
}
