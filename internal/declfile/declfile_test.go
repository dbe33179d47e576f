// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package declfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

const code = types.Specifier("https://cdn.example.com/lib.js")

// importer returns a module that imports code with a @deno-types directive
// naming decl.
func importer(spec, decl types.Specifier) *graph.Module {
	return &graph.Module{
		Specifier: spec,
		Dependencies: map[string]*graph.Dependency{
			string(code): {Literal: string(code), Code: code, Type: decl},
		},
	}
}

func declaration(spec types.Specifier, size int) *graph.Module {
	return &graph.Module{
		Specifier:    spec,
		Source:       strings.Repeat("x", size),
		Dependencies: map[string]*graph.Dependency{},
	}
}

func resolveOne(t *testing.T, modules ...*graph.Module) Resolution {
	t.Helper()
	g := graph.New(modules, nil)
	res, err := Resolve(g, modules)
	require.NoError(t, err)
	r, ok := res[code]
	require.True(t, ok, "no resolution for %s", code)
	return r
}

func TestResolve_LocalReferrerWinsOverLargerRemote(t *testing.T) {
	r := resolveOne(t,
		importer("https://other.example.com/mod.ts", "https://other.example.com/big.d.ts"),
		importer("file:///p/mod.ts", "file:///p/small.d.ts"),
		declaration("https://other.example.com/big.d.ts", 1000),
		declaration("file:///p/small.d.ts", 10),
	)

	assert.Equal(t, TypesDependency{Specifier: "file:///p/small.d.ts", Referrer: "file:///p/mod.ts"}, r.Selected)
	assert.Equal(t, []TypesDependency{
		{Specifier: "https://other.example.com/big.d.ts", Referrer: "https://other.example.com/mod.ts"},
	}, r.Ignored)
}

func TestResolve_SelfReferenceWinsOverThirdPartyRemote(t *testing.T) {
	self := &graph.Module{
		Specifier:    code,
		Dependencies: map[string]*graph.Dependency{},
		TypesDependency: &graph.TypesReference{
			Text:      "./lib.d.ts",
			Specifier: "https://cdn.example.com/lib.d.ts",
		},
	}
	r := resolveOne(t,
		self,
		importer("https://other.example.com/mod.ts", "https://other.example.com/huge.d.ts"),
		declaration("https://cdn.example.com/lib.d.ts", 5),
		declaration("https://other.example.com/huge.d.ts", 5000),
	)

	assert.Equal(t, types.Specifier("https://cdn.example.com/lib.d.ts"), r.Selected.Specifier)
	assert.Equal(t, code, r.Selected.Referrer)
	require.Len(t, r.Ignored, 1)
	assert.Equal(t, types.Specifier("https://other.example.com/huge.d.ts"), r.Ignored[0].Specifier)
}

func TestResolve_LargestRemoteDeclarationWins(t *testing.T) {
	r := resolveOne(t,
		importer("https://a.example.com/mod.ts", "https://a.example.com/small.d.ts"),
		importer("https://b.example.com/mod.ts", "https://b.example.com/large.d.ts"),
		declaration("https://a.example.com/small.d.ts", 10),
		declaration("https://b.example.com/large.d.ts", 20),
	)

	assert.Equal(t, types.Specifier("https://b.example.com/large.d.ts"), r.Selected.Specifier)
}

func TestSelectBest_EqualSizeKeepsFirst(t *testing.T) {
	deps := []TypesDependency{
		{Specifier: "https://a.example.com/x.d.ts", Referrer: "https://a.example.com/mod.ts"},
		{Specifier: "https://b.example.com/x.d.ts", Referrer: "https://b.example.com/mod.ts"},
	}
	sameSize := func(types.Specifier) int { return 42 }

	assert.Equal(t, deps[0], selectBest(code, deps, sameSize))
	assert.Equal(t, deps[1], selectBest(code, []TypesDependency{deps[1], deps[0]}, sameSize))
}

func TestSelectBest_Priorities(t *testing.T) {
	sizes := map[types.Specifier]int{
		"file:///p/local.d.ts":              1,
		"https://cdn.example.com/self.d.ts": 2,
		"https://x.example.com/third.d.ts":  3,
	}
	sourceLen := func(s types.Specifier) int { return sizes[s] }

	local := TypesDependency{Specifier: "file:///p/local.d.ts", Referrer: "file:///p/mod.ts"}
	self := TypesDependency{Specifier: "https://cdn.example.com/self.d.ts", Referrer: code}
	third := TypesDependency{Specifier: "https://x.example.com/third.d.ts", Referrer: "https://x.example.com/mod.ts"}

	perms := [][]TypesDependency{
		{local, self, third}, {local, third, self},
		{self, local, third}, {self, third, local},
		{third, local, self}, {third, self, local},
	}
	for _, p := range perms {
		assert.Equal(t, local, selectBest(code, p, sourceLen))
	}

	for _, p := range [][]TypesDependency{{self, third}, {third, self}} {
		assert.Equal(t, self, selectBest(code, p, sourceLen))
	}
}

func TestResolve_OrderIndependent(t *testing.T) {
	modules := []*graph.Module{
		importer("https://a.example.com/mod.ts", "https://a.example.com/x.d.ts"),
		importer("https://b.example.com/mod.ts", "https://b.example.com/x.d.ts"),
		importer("https://c.example.com/mod.ts", "https://c.example.com/x.d.ts"),
		declaration("https://a.example.com/x.d.ts", 7),
		declaration("https://b.example.com/x.d.ts", 7),
		declaration("https://c.example.com/x.d.ts", 7),
	}
	g := graph.New(modules, nil)

	first, err := Resolve(g, modules)
	require.NoError(t, err)

	reversed := make([]*graph.Module, len(modules))
	for i, m := range modules {
		reversed[len(modules)-1-i] = m
	}
	second, err := Resolve(g, reversed)
	require.NoError(t, err)

	assert.Equal(t, first[code].Selected, second[code].Selected)
	assert.Equal(t, first[code].Ignored, second[code].Ignored)
	assert.Len(t, first[code].Ignored, 2)
}

func TestResolve_DeduplicatesCandidates(t *testing.T) {
	m := importer("file:///p/mod.ts", "file:///p/x.d.ts")
	m.Dependencies["./again"] = &graph.Dependency{Literal: "./again", Code: code, Type: "file:///p/x.d.ts"}

	r := resolveOne(t, m, declaration("file:///p/x.d.ts", 1))
	assert.Empty(t, r.Ignored)
}

func TestResolve_FailedTypesReferenceIsFatal(t *testing.T) {
	cause := errors.New("404 Not Found")
	m := &graph.Module{
		Specifier:    code,
		Dependencies: map[string]*graph.Dependency{},
		TypesDependency: &graph.TypesReference{
			Text: "./lib.d.ts",
			Err:  cause,
		},
	}
	g := graph.New([]*graph.Module{m}, nil)

	_, err := Resolve(g, []*graph.Module{m})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypesResolution)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), string(code))
	assert.Contains(t, err.Error(), "./lib.d.ts")
}

func TestWarnings(t *testing.T) {
	resolutions := map[types.Specifier]Resolution{
		code: {
			Selected: TypesDependency{Specifier: "file:///p/local.d.ts", Referrer: "file:///p/mod.ts"},
			Ignored: []TypesDependency{
				{Specifier: "https://x.example.com/x.d.ts", Referrer: "https://x.example.com/mod.ts"},
			},
		},
		"https://cdn.example.com/other.js": {
			Selected: TypesDependency{Specifier: "https://a.example.com/a.d.ts", Referrer: "https://a.example.com/mod.ts"},
			Ignored: []TypesDependency{
				{Specifier: "https://b.example.com/b.d.ts", Referrer: "https://b.example.com/mod.ts"},
			},
		},
		"https://cdn.example.com/single.js": {
			Selected: TypesDependency{Specifier: "https://a.example.com/s.d.ts", Referrer: "https://a.example.com/mod.ts"},
		},
	}

	got := Warnings(resolutions)
	require.Len(t, got, 2)
	assert.Equal(t, "Duplicate declaration file found for https://cdn.example.com/lib.js\n"+
		"  Specified https://x.example.com/x.d.ts in https://x.example.com/mod.ts\n"+
		"  Selected file:///p/local.d.ts\n"+
		"  "+localHint, got[0])
	assert.Contains(t, got[1], "Duplicate declaration file found for https://cdn.example.com/other.js")
	assert.Contains(t, got[1], remoteHint)
}
