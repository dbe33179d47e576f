// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package declfile selects one declaration file per code module when
// several modules specify different ones.
package declfile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// ErrTypesResolution is returned when a module's own types reference
// failed to resolve.
var ErrTypesResolution = errors.New("error resolving types")

// TypesDependency is a candidate declaration file and the module that
// named it.
type TypesDependency struct {
	Specifier types.Specifier // The declaration file
	Referrer  types.Specifier // The module that specified it
}

func compareDeps(a, b TypesDependency) int {
	switch {
	case a.Specifier < b.Specifier:
		return -1
	case a.Specifier > b.Specifier:
		return 1
	case a.Referrer < b.Referrer:
		return -1
	case a.Referrer > b.Referrer:
		return 1
	}
	return 0
}

// Resolution is the outcome for one code module.
type Resolution struct {
	Selected TypesDependency
	// Ignored holds the other specified declaration files, sorted.
	Ignored []TypesDependency
}

// Resolve collects the declaration files specified for each code module and
// selects one per module.
func Resolve(g *graph.Graph, modules []*graph.Module) (map[types.Specifier]Resolution, error) {
	candidates := make(map[types.Specifier]map[TypesDependency]struct{})
	add := func(code types.Specifier, dep TypesDependency) {
		set, ok := candidates[code]
		if !ok {
			set = make(map[TypesDependency]struct{})
			candidates[code] = set
		}
		set[dep] = struct{}{}
	}

	for _, m := range modules {
		if td := m.TypesDependency; td != nil {
			if td.Err != nil {
				return nil, fmt.Errorf("%w for %s with reference %s: %w", ErrTypesResolution, m.Specifier, td.Text, td.Err)
			}
			add(m.Specifier, TypesDependency{Specifier: g.Redirect(td.Specifier), Referrer: m.Specifier})
		}
		for _, dep := range m.SortedDependencies() {
			if dep.HasCode() && dep.HasType() {
				add(g.Redirect(dep.Code), TypesDependency{Specifier: g.Redirect(dep.Type), Referrer: m.Specifier})
			}
		}
	}

	sourceLen := func(spec types.Specifier) int {
		if m := g.Get(spec); m != nil {
			return len(m.Source)
		}
		return 0
	}

	out := make(map[types.Specifier]Resolution, len(candidates))
	for code, set := range candidates {
		deps := make([]TypesDependency, 0, len(set))
		for d := range set {
			deps = append(deps, d)
		}
		// Canonical order makes selection independent of collection order.
		slices.SortFunc(deps, compareDeps)

		selected := selectBest(code, deps, sourceLen)
		var ignored []TypesDependency
		for _, d := range deps {
			if d.Specifier != selected.Specifier {
				ignored = append(ignored, d)
			}
		}
		out[code] = Resolution{Selected: selected, Ignored: ignored}
	}
	return out, nil
}

// selectBest picks the declaration file for code. deps must not be empty.
//
// A declaration file specified by local code wins over one specified
// remotely, so users can override what a dependency declares. Next, a file
// the code module specifies for itself wins. Last, the largest file wins;
// equal sizes keep the earlier candidate.
func selectBest(code types.Specifier, deps []TypesDependency, sourceLen func(types.Specifier) int) TypesDependency {
	selected := deps[0]
	for _, dep := range deps[1:] {
		depLocal := dep.Referrer.IsLocal()
		selectedLocal := selected.Referrer.IsLocal()

		var replace bool
		switch {
		case depLocal && !selectedLocal:
			replace = true
		case depLocal != selectedLocal:
			replace = false
		case selected.Referrer == code:
			replace = false
		case dep.Referrer == code:
			replace = true
		default:
			replace = sourceLen(dep.Specifier) > sourceLen(selected.Specifier)
		}
		if replace {
			selected = dep
		}
	}
	return selected
}
