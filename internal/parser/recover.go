// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parser

import (
	"regexp"
)

const (
	stringLit = `("(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*')`
	attrs     = `\s*(?:with|assert)\s*\{[^{}]*\}`
)

// attributedRe matches an import or re-export carrying an attribute clause:
//
//	export * from "x" with { type: "json" }
//	export { a, b as c } from "x" assert { type: "json" }
//	import data from "x" assert { type: "json" }
var attributedRe = regexp.MustCompile(
	`\b(?:export\s+(?:type\s+)?(?:\*(?:\s+as\s+[\p{L}\p{N}_$]+)?|\{[^}]*\})\s*from` +
		`|import(?:\s+[\p{L}\p{N}_$\s,{}*]*?\bfrom)?)\s*` + stringLit + attrs)

// Attributed is an import or re-export with an attribute clause found in a
// part of the module the grammar could not parse.
type Attributed struct {
	Specifier string // Literal value
	LitStart  int    // Offset of the opening quote
	LitEnd    int    // Offset after the closing quote
	End       int    // Offset after the attribute clause
}

// RecoverAttributed finds imports and re-exports with attribute clauses
// inside syntax error regions. The grammars know neither the assert
// keyword nor attribute clauses on export ... from statements, so those
// statements end up as ERROR nodes.
func RecoverAttributed(ps *ParsedSource) []Attributed {
	if ps == nil || ps.Root == nil || !ps.Root.HasError() {
		return nil
	}
	var out []Attributed
	for _, m := range attributedRe.FindAllSubmatchIndex(ps.Text, -1) {
		if !inErrorRegion(ps, m[0], m[1]) {
			continue
		}
		lit := string(ps.Text[m[2]+1 : m[3]-1])
		out = append(out, Attributed{
			Specifier: unescape(lit),
			LitStart:  m[2],
			LitEnd:    m[3],
			End:       m[1],
		})
	}
	return out
}

// inErrorRegion reports whether a top-level node overlapping [start, end)
// contains a syntax error.
func inErrorRegion(ps *ParsedSource, start, end int) bool {
	root := ps.Root
	if root.IsError() {
		return true
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c == nil || int(c.EndByte()) <= start || int(c.StartByte()) >= end {
			continue
		}
		if c.IsError() || c.HasError() {
			return true
		}
	}
	return false
}
