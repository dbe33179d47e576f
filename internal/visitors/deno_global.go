// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package visitors

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/go-dnt/internal/parser"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

const (
	denoGlobal    = "Deno"
	shimNamespace = "denoShim"
)

// DenoGlobalParams are the inputs of the global shim pass.
type DenoGlobalParams struct {
	Source          *parser.ParsedSource
	ShimPackageName string
}

// DenoGlobal replaces free references to the Deno global with the shim
// package's export and inserts the shim import. A reference bound by a
// declaration in an enclosing scope is left alone. It returns nil when the
// module has no free reference.
func DenoGlobal(p DenoGlobalParams) []types.TextChange {
	if p.Source == nil || p.Source.Root == nil {
		return nil
	}
	src := p.Source.Text
	sc := &scopes{src: src, cache: make(map[nodeKey]bool)}

	var changes []types.TextChange
	walkParents(p.Source.Root, func(n, parent *sitter.Node) {
		if n.Content(src) != denoGlobal {
			return
		}
		switch n.Type() {
		case "identifier":
			if parent.Type() == "export_specifier" || sc.bound(n) {
				return
			}
			changes = append(changes, types.TextChange{
				Start:   int(n.StartByte()),
				End:     int(n.EndByte()),
				NewText: shimNamespace + "." + denoGlobal,
			})
		case "shorthand_property_identifier":
			if sc.bound(n) {
				return
			}
			changes = append(changes, types.TextChange{
				Start:   int(n.StartByte()),
				End:     int(n.EndByte()),
				NewText: denoGlobal + ": " + shimNamespace + "." + denoGlobal,
			})
		}
	})
	if len(changes) == 0 {
		return nil
	}

	stmt := fmt.Sprintf("import * as %s from %q;", shimNamespace, p.ShimPackageName)
	insert := types.TextChange{NewText: stmt + "\n"}
	if first := p.Source.Root.Child(0); first != nil && first.Type() == "hash_bang_line" {
		insert = types.TextChange{Start: int(first.EndByte()), End: int(first.EndByte()), NewText: "\n" + stmt}
	}
	return append([]types.TextChange{insert}, changes...)
}

type nodeKey struct {
	start, end uint32
	kind       string
}

// scopes decides whether a reference to Deno resolves to a local binding.
// Declarations are looked up in the enclosing program, blocks, functions,
// classes, catch clauses and loop headers. Results are cached per scope.
type scopes struct {
	src   []byte
	cache map[nodeKey]bool
}

func (s *scopes) bound(ref *sitter.Node) bool {
	for n := ref.Parent(); n != nil; n = n.Parent() {
		if s.declares(n) {
			return true
		}
	}
	return false
}

func (s *scopes) declares(scope *sitter.Node) bool {
	k := nodeKey{scope.StartByte(), scope.EndByte(), scope.Type()}
	if v, ok := s.cache[k]; ok {
		return v
	}
	v := s.scan(scope)
	s.cache[k] = v
	return v
}

func (s *scopes) scan(scope *sitter.Node) bool {
	switch scope.Type() {
	case "program", "statement_block":
		for i := 0; i < int(scope.NamedChildCount()); i++ {
			if s.declaration(scope.NamedChild(i)) {
				return true
			}
		}
	case "function_declaration", "generator_function_declaration", "function", "function_expression",
		"generator_function", "arrow_function", "method_definition":
		if scope.Type() != "method_definition" && s.isDeno(scope.ChildByFieldName("name")) {
			return true
		}
		if params := scope.ChildByFieldName("parameters"); params != nil {
			for i := 0; i < int(params.NamedChildCount()); i++ {
				if s.pattern(params.NamedChild(i)) {
					return true
				}
			}
		}
		return s.pattern(scope.ChildByFieldName("parameter"))
	case "class", "class_declaration", "abstract_class_declaration":
		return s.isDeno(scope.ChildByFieldName("name"))
	case "catch_clause":
		return s.pattern(scope.ChildByFieldName("parameter"))
	case "for_statement":
		return s.declaration(scope.ChildByFieldName("initializer"))
	case "for_in_statement":
		if scope.ChildByFieldName("kind") != nil {
			return s.pattern(scope.ChildByFieldName("left"))
		}
	}
	return false
}

// declaration reports whether the statement n declares Deno in the scope
// it appears in.
func (s *scopes) declaration(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c != nil && c.Type() == "variable_declarator" && s.pattern(c.ChildByFieldName("name")) {
				return true
			}
		}
	case "function_declaration", "generator_function_declaration", "function_signature",
		"class_declaration", "abstract_class_declaration", "enum_declaration", "internal_module", "module":
		return s.isDeno(n.ChildByFieldName("name"))
	case "import_alias":
		return s.isDeno(n.NamedChild(0))
	case "ambient_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if s.declaration(n.NamedChild(i)) {
				return true
			}
		}
	case "export_statement":
		return s.declaration(n.ChildByFieldName("declaration"))
	case "import_statement":
		return s.imports(n)
	}
	return false
}

// imports reports whether an import statement binds Deno.
func (s *scopes) imports(stmt *sitter.Node) bool {
	found := false
	walkParents(stmt, func(n, parent *sitter.Node) {
		if found {
			return
		}
		switch n.Type() {
		case "identifier":
			switch parent.Type() {
			case "import_clause", "namespace_import", "import_require_clause":
				found = s.isDeno(n)
			}
		case "import_specifier":
			name := n.ChildByFieldName("alias")
			if name == nil {
				name = n.ChildByFieldName("name")
			}
			found = s.isDeno(name)
		}
	})
	return found
}

// pattern reports whether a binding pattern introduces Deno.
func (s *scopes) pattern(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return s.isDeno(n)
	case "required_parameter", "optional_parameter":
		return s.pattern(n.ChildByFieldName("pattern"))
	case "pair_pattern":
		return s.pattern(n.ChildByFieldName("value"))
	case "assignment_pattern", "object_assignment_pattern":
		return s.pattern(n.ChildByFieldName("left"))
	case "object_pattern", "array_pattern", "rest_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if s.pattern(n.NamedChild(i)) {
				return true
			}
		}
	}
	return false
}

func (s *scopes) isDeno(n *sitter.Node) bool {
	return n != nil && n.Content(s.src) == denoGlobal
}

// walkParents visits every node below root together with its parent.
func walkParents(root *sitter.Node, visit func(n, parent *sitter.Node)) {
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c == nil {
			continue
		}
		visit(c, root)
		walkParents(c, visit)
	}
}
