// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package visitors walks a module's syntax tree and produces the text
// changes that turn Deno module references into Node ones.
package visitors

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/internal/mappings"
	"github.com/petar-djukic/go-dnt/internal/parser"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// ImportsExportsParams are the inputs of one rewrite of module references.
type ImportsExportsParams struct {
	Specifier types.Specifier // Module being rewritten
	Graph     *graph.Graph
	Mappings  *mappings.Mappings
	Source    *parser.ParsedSource
	// PackageMappings replaces specifiers with bare package names.
	PackageMappings map[types.Specifier]string
}

// ImportsExports rewrites the string literal of every import, re-export
// and dynamic import that resolves to a module in the graph, and strips
// import attribute clauses.
func ImportsExports(p ImportsExportsParams) ([]types.TextChange, error) {
	if p.Source == nil || p.Source.Root == nil {
		return nil, nil
	}
	v := &importsExports{p: p, src: p.Source.Text, attributed: make(map[int]parser.Attributed)}
	recovered := parser.RecoverAttributed(p.Source)
	for _, r := range recovered {
		v.attributed[r.LitStart] = r
	}
	parser.Walk(p.Source.Root, v.visit)
	for _, r := range recovered {
		if _, pending := v.attributed[r.LitStart]; pending {
			v.recovered(r)
		}
	}
	if v.err != nil {
		return nil, v.err
	}
	return v.changes, nil
}

type importsExports struct {
	p       ImportsExportsParams
	src     []byte
	changes []types.TextChange
	err     error
	// attributed holds statements with attribute clauses in error regions
	// that the walk has not reached, by literal offset.
	attributed map[int]parser.Attributed
}

func (v *importsExports) visit(n *sitter.Node) bool {
	if v.err != nil {
		return false
	}
	switch parser.KindOf(n) {
	case parser.ImportDecl, parser.ExportAll, parser.NamedExport:
		if lit := parser.Source(n); lit != nil {
			v.rewrite(lit)
			if r, ok := v.attributed[int(lit.StartByte())]; ok {
				delete(v.attributed, r.LitStart)
				v.deleteClause(r)
			} else {
				v.stripStatementAttributes(n, lit)
			}
		}
		return false
	case parser.DynamicImport:
		// Only imports of a string literal are touched; a computed
		// specifier and its options stay as written.
		lit := parser.DynamicSource(n)
		if lit == nil {
			return true
		}
		v.rewrite(lit)
		if args := parser.Arguments(n); len(args) > 1 {
			v.changes = append(v.changes, types.TextChange{
				Start: int(lit.EndByte()),
				End:   int(args[1].EndByte()),
			})
		}
		return false
	}
	return true
}

// rewrite replaces the text between the quotes of lit with the specifier
// of its target in the output tree.
func (v *importsExports) rewrite(lit *sitter.Node) {
	start, end := parser.StringContentRange(lit)
	v.rewriteRange(parser.StringValue(lit, v.src), start, end)
}

// recovered rewrites an import or re-export the grammar could not parse
// and deletes its attribute clause.
func (v *importsExports) recovered(r parser.Attributed) {
	if v.err != nil {
		return
	}
	v.rewriteRange(r.Specifier, r.LitStart+1, r.LitEnd-1)
	v.deleteClause(r)
}

func (v *importsExports) deleteClause(r parser.Attributed) {
	v.changes = append(v.changes, types.TextChange{Start: r.LitEnd, End: r.End})
}

// rewriteRange replaces the literal content [start, end) holding value.
func (v *importsExports) rewriteRange(value string, start, end int) {
	replacement, ok, err := v.resolve(value)
	if err != nil {
		v.err = err
		return
	}
	if !ok {
		return
	}

	quote := v.src[start-1]
	text := escape(replacement, quote)
	if text == string(v.src[start:end]) {
		return
	}
	v.changes = append(v.changes, types.TextChange{Start: start, End: end, NewText: text})
}

func (v *importsExports) resolve(value string) (string, bool, error) {
	m := v.p.Graph.Get(v.p.Specifier)
	if m == nil {
		return "", false, nil
	}
	dep, ok := m.Dependencies[value]
	if !ok || !dep.HasCode() {
		return "", false, nil
	}
	if name, ok := v.p.PackageMappings[dep.Code]; ok {
		return name, true, nil
	}
	target := v.p.Graph.Redirect(dep.Code)
	if name, ok := v.p.PackageMappings[target]; ok {
		return name, true, nil
	}
	rel, err := v.p.Mappings.RelativeSpecifier(v.p.Specifier, target)
	if err != nil {
		return "", false, fmt.Errorf("rewriting %q in %s: %w", value, v.p.Specifier, err)
	}
	return rel, true, nil
}

// stripStatementAttributes deletes an import attribute clause
// (assert { ... } or with { ... }) that follows the source literal.
func (v *importsExports) stripStatementAttributes(stmt, lit *sitter.Node) {
	end := -1
	after := false
	for i := 0; i < int(stmt.ChildCount()); i++ {
		c := stmt.Child(i)
		if c == nil {
			continue
		}
		if !after {
			after = c.StartByte() == lit.StartByte() && c.EndByte() == lit.EndByte()
			continue
		}
		if c.Type() == ";" || c.Type() == "comment" {
			continue
		}
		end = int(c.EndByte())
	}
	if end > int(lit.EndByte()) {
		v.changes = append(v.changes, types.TextChange{Start: int(lit.EndByte()), End: end})
	}
}

func escape(s string, quote byte) string {
	if !strings.ContainsAny(s, `\`+string(quote)) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, string(quote), `\`+string(quote))
}
