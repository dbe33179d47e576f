// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package specifiers partitions the modules reachable from the entry
// points into local, remote, package-mapped and test-only sets.
package specifiers

import (
	"github.com/petar-djukic/go-dnt/internal/declfile"
	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// Environment holds the package-mapped specifiers referenced from one set
// of entry points.
type Environment struct {
	Mapped map[types.Specifier]types.MappedSpecifier
}

// Specifiers is the classification of a module graph.
type Specifiers struct {
	Local  []types.Specifier // Sorted file:// code modules
	Remote []types.Specifier // Sorted http(s) code modules
	// Types maps a code module to its selected declaration file.
	Types map[types.Specifier]declfile.Resolution
	// TestModules are reachable only from test entry points.
	TestModules map[types.Specifier]bool
	Main        Environment
	Test        Environment
}

// IsTestModule reports whether spec is only used by tests.
func (s *Specifiers) IsTestModule(spec types.Specifier) bool {
	return s.TestModules[spec]
}

// SelectedDeclarations returns the selected declaration file of every code
// module, ordered by code module.
func (s *Specifiers) SelectedDeclarations() []declfile.TypesDependency {
	codes := make([]types.Specifier, 0, len(s.Types))
	for code := range s.Types {
		codes = append(codes, code)
	}
	types.SortSpecifiers(codes)
	out := make([]declfile.TypesDependency, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.Types[code].Selected)
	}
	return out
}

// Classify walks the graph from the main and test entry points. mapped
// holds the specifiers that are replaced by external packages; they are
// recorded per environment and not walked.
func Classify(g *graph.Graph, entryPoints, testEntryPoints []types.Specifier, mapped map[types.Specifier]types.MappedSpecifier) (*Specifiers, error) {
	main := newWalker(g, mapped)
	for _, ep := range entryPoints {
		main.visit(ep, true)
	}
	test := newWalker(g, mapped)
	for _, ep := range testEntryPoints {
		test.visit(ep, true)
	}

	s := &Specifiers{
		TestModules: make(map[types.Specifier]bool),
		Main:        Environment{Mapped: main.mapped},
		Test:        Environment{Mapped: make(map[types.Specifier]types.MappedSpecifier)},
	}

	code := make(map[types.Specifier]bool)
	for spec := range main.code {
		code[spec] = true
	}
	for spec := range test.code {
		code[spec] = true
	}
	for spec := range code {
		switch {
		case spec.IsLocal():
			s.Local = append(s.Local, spec)
		case spec.IsRemote():
			s.Remote = append(s.Remote, spec)
		}
	}
	types.SortSpecifiers(s.Local)
	types.SortSpecifiers(s.Remote)

	for spec := range test.all {
		if !main.all[spec] {
			s.TestModules[spec] = true
		}
	}
	for spec, entry := range test.mapped {
		if _, ok := main.mapped[spec]; !ok {
			s.Test.Mapped[spec] = entry
		}
	}

	var modules []*graph.Module
	for _, m := range g.Modules() {
		if main.all[m.Specifier] || test.all[m.Specifier] {
			modules = append(modules, m)
		}
	}
	resolutions, err := declfile.Resolve(g, modules)
	if err != nil {
		return nil, err
	}
	s.Types = resolutions
	return s, nil
}

type walker struct {
	g       *graph.Graph
	allowed map[types.Specifier]types.MappedSpecifier

	all    map[types.Specifier]bool // every module reached
	code   map[types.Specifier]bool // modules reached through a code reference
	mapped map[types.Specifier]types.MappedSpecifier
}

func newWalker(g *graph.Graph, mapped map[types.Specifier]types.MappedSpecifier) *walker {
	return &walker{
		g:       g,
		allowed: mapped,
		all:     make(map[types.Specifier]bool),
		code:    make(map[types.Specifier]bool),
		mapped:  make(map[types.Specifier]types.MappedSpecifier),
	}
}

func (w *walker) visit(spec types.Specifier, asCode bool) {
	if w.recordMapped(spec) {
		return
	}
	spec = w.g.Redirect(spec)
	if w.recordMapped(spec) {
		return
	}

	seen := w.all[spec]
	w.all[spec] = true
	if asCode {
		w.code[spec] = true
	}
	if seen {
		return
	}

	m := w.g.Get(spec)
	if m == nil {
		return
	}
	for _, dep := range m.SortedDependencies() {
		if dep.HasCode() {
			w.visit(dep.Code, true)
		}
		if dep.HasType() {
			w.visit(dep.Type, false)
		}
	}
	if td := m.TypesDependency; td != nil && td.Err == nil && td.Specifier != "" {
		w.visit(td.Specifier, false)
	}
}

func (w *walker) recordMapped(spec types.Specifier) bool {
	entry, ok := w.allowed[spec]
	if ok {
		w.mapped[spec] = entry
	}
	return ok
}
