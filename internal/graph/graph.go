// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package graph holds the module graph: an arena of parsed modules keyed by
// specifier, built once and read-only afterwards.
package graph

import (
	"slices"

	"github.com/petar-djukic/go-dnt/internal/parser"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// maxRedirects bounds redirect chains so a cycle cannot hang resolution.
const maxRedirects = 10

// Dependency is one module referenced by literal from another module.
type Dependency struct {
	Literal string          // Specifier text as written
	Code    types.Specifier // Resolved code module; empty when unresolved
	Type    types.Specifier // Declaration file from @deno-types; empty when none
	Dynamic bool            // Only referenced through dynamic import()
}

// HasCode reports whether the dependency resolved to a code module.
func (d *Dependency) HasCode() bool { return d.Code != "" }

// HasType reports whether the dependency names a declaration file.
func (d *Dependency) HasType() bool { return d.Type != "" }

// TypesReference is a module's declaration of its own types, from an
// x-typescript-types header or a /// <reference types> directive.
type TypesReference struct {
	Text      string          // Reference as written
	Specifier types.Specifier // Resolved declaration file
	Err       error           // Set when the reference could not be resolved or loaded
}

// Module is a loaded and parsed module.
type Module struct {
	Specifier       types.Specifier
	MediaType       parser.MediaType
	Source          string
	Parsed          *parser.ParsedSource
	Dependencies    map[string]*Dependency
	TypesDependency *TypesReference
}

// SortedDependencies returns the dependencies ordered by literal.
func (m *Module) SortedDependencies() []*Dependency {
	deps := make([]*Dependency, 0, len(m.Dependencies))
	for _, d := range m.Dependencies {
		deps = append(deps, d)
	}
	slices.SortFunc(deps, func(a, b *Dependency) int {
		switch {
		case a.Literal < b.Literal:
			return -1
		case a.Literal > b.Literal:
			return 1
		}
		return 0
	})
	return deps
}

// Graph is a frozen arena of modules.
type Graph struct {
	modules   map[types.Specifier]*Module
	redirects map[types.Specifier]types.Specifier
	order     []types.Specifier
}

// New builds a graph from already-parsed modules. redirects may be nil.
func New(modules []*Module, redirects map[types.Specifier]types.Specifier) *Graph {
	g := &Graph{
		modules:   make(map[types.Specifier]*Module, len(modules)),
		redirects: make(map[types.Specifier]types.Specifier, len(redirects)),
	}
	for _, m := range modules {
		g.modules[m.Specifier] = m
		g.order = append(g.order, m.Specifier)
	}
	for from, to := range redirects {
		g.redirects[from] = to
	}
	types.SortSpecifiers(g.order)
	return g
}

// Redirect follows redirects from spec to the specifier a module is stored
// under.
func (g *Graph) Redirect(spec types.Specifier) types.Specifier {
	for i := 0; i < maxRedirects; i++ {
		to, ok := g.redirects[spec]
		if !ok {
			break
		}
		spec = to
	}
	return spec
}

// Get returns the module for spec, following redirects, or nil.
func (g *Graph) Get(spec types.Specifier) *Module {
	return g.modules[g.Redirect(spec)]
}

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.modules) }

// Modules returns all modules ordered by specifier.
func (g *Graph) Modules() []*Module {
	out := make([]*Module, 0, len(g.order))
	for _, s := range g.order {
		out = append(out, g.modules[s])
	}
	return out
}

// ResolveDependency resolves an import literal written in referrer to the
// code module it names. ok is false when the referrer is unknown or the
// literal did not resolve (bare or unsupported specifiers).
func (g *Graph) ResolveDependency(literal string, referrer types.Specifier) (types.Specifier, bool) {
	m := g.Get(referrer)
	if m == nil {
		return "", false
	}
	dep, ok := m.Dependencies[literal]
	if !ok || !dep.HasCode() {
		return "", false
	}
	return g.Redirect(dep.Code), true
}
