// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/go-dnt/internal/loader"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

func TestBuild_FollowsCodeAndTypeDependencies(t *testing.T) {
	l := loader.NewMemoryLoader(map[types.Specifier]string{
		"file:///p/mod.ts": `// @deno-types="./lib.d.ts"
import { lib } from "./lib.js";
import * as path from "node:path";
import React from "react";
export * from "./util.ts";
const later = () => import("./lazy.ts");
`,
		"file:///p/lib.js":   "export const lib = 1;",
		"file:///p/lib.d.ts": "export declare const lib: number;",
		"file:///p/util.ts":  "export const util = 2;",
		"file:///p/lazy.ts":  "export default 3;",
	})

	g, err := Build(context.Background(), BuildOptions{
		Roots:  []types.Specifier{"file:///p/mod.ts"},
		Loader: l,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())

	mod := g.Get("file:///p/mod.ts")
	require.NotNil(t, mod)

	lib := mod.Dependencies["./lib.js"]
	require.NotNil(t, lib)
	assert.Equal(t, types.Specifier("file:///p/lib.js"), lib.Code)
	assert.Equal(t, types.Specifier("file:///p/lib.d.ts"), lib.Type)

	assert.False(t, mod.Dependencies["node:path"].HasCode(), "node: specifiers are left alone")
	assert.False(t, mod.Dependencies["react"].HasCode(), "bare specifiers do not resolve")
	assert.True(t, mod.Dependencies["./lazy.ts"].Dynamic)

	target, ok := g.ResolveDependency("./util.ts", "file:///p/mod.ts")
	assert.True(t, ok)
	assert.Equal(t, types.Specifier("file:///p/util.ts"), target)

	_, ok = g.ResolveDependency("react", "file:///p/mod.ts")
	assert.False(t, ok)
}

func TestBuild_MissingDependencyIsFatal(t *testing.T) {
	l := loader.NewMemoryLoader(map[types.Specifier]string{
		"file:///p/mod.ts": `import "./missing.ts";`,
	})

	_, err := Build(context.Background(), BuildOptions{
		Roots:  []types.Specifier{"file:///p/mod.ts"},
		Loader: l,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.Contains(t, err.Error(), "file:///p/missing.ts")
	assert.Contains(t, err.Error(), "imported by file:///p/mod.ts")
}

func TestBuild_MissingRoot(t *testing.T) {
	_, err := Build(context.Background(), BuildOptions{
		Roots:  []types.Specifier{"file:///p/nope.ts"},
		Loader: loader.NewMemoryLoader(nil),
	})
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestBuild_NoRoots(t *testing.T) {
	_, err := Build(context.Background(), BuildOptions{Loader: loader.NewMemoryLoader(nil)})
	assert.ErrorIs(t, err, ErrNoRoots)
}

func TestBuild_FailedTypesReferenceIsRecorded(t *testing.T) {
	l := &loader.MemoryLoader{}
	l.Add("https://esm.sh/lib", "export const x = 1;", map[string]string{
		"content-type":       "application/javascript",
		"x-typescript-types": "./lib.d.ts",
	})
	l.Add("file:///p/mod.ts", `import { x } from "https://esm.sh/lib";`, nil)

	g, err := Build(context.Background(), BuildOptions{
		Roots:  []types.Specifier{"file:///p/mod.ts"},
		Loader: l,
	})
	require.NoError(t, err)

	lib := g.Get("https://esm.sh/lib")
	require.NotNil(t, lib)
	require.NotNil(t, lib.TypesDependency)
	assert.Equal(t, "./lib.d.ts", lib.TypesDependency.Text)
	assert.ErrorIs(t, lib.TypesDependency.Err, ErrModuleNotFound)
}

func TestBuild_TypesReferenceDirective(t *testing.T) {
	l := loader.NewMemoryLoader(map[types.Specifier]string{
		"file:///p/mod.ts":   `import { x } from "./lib.js";`,
		"file:///p/lib.js":   "/// <reference types=\"./lib.d.ts\" />\nexport const x = 1;",
		"file:///p/lib.d.ts": "export declare const x: number;",
	})

	g, err := Build(context.Background(), BuildOptions{
		Roots:  []types.Specifier{"file:///p/mod.ts"},
		Loader: l,
	})
	require.NoError(t, err)

	lib := g.Get("file:///p/lib.js")
	require.NotNil(t, lib.TypesDependency)
	assert.NoError(t, lib.TypesDependency.Err)
	assert.Equal(t, types.Specifier("file:///p/lib.d.ts"), lib.TypesDependency.Specifier)
	assert.NotNil(t, g.Get("file:///p/lib.d.ts"))
}

func TestBuild_Redirects(t *testing.T) {
	l := loader.NewMemoryLoader(map[types.Specifier]string{
		"file:///p/mod.ts":                     `import { x } from "https://deno.land/x/lib/mod.ts";`,
		"https://deno.land/x/lib@1.0.0/mod.ts": "export const x = 1;",
	})
	l.Redirect("https://deno.land/x/lib/mod.ts", "https://deno.land/x/lib@1.0.0/mod.ts")

	g, err := Build(context.Background(), BuildOptions{
		Roots:  []types.Specifier{"file:///p/mod.ts"},
		Loader: l,
	})
	require.NoError(t, err)

	target, ok := g.ResolveDependency("https://deno.land/x/lib/mod.ts", "file:///p/mod.ts")
	require.True(t, ok)
	assert.Equal(t, types.Specifier("https://deno.land/x/lib@1.0.0/mod.ts"), target)
	assert.NotNil(t, g.Get("https://deno.land/x/lib/mod.ts"))
	assert.Equal(t, 2, g.Len())
}

func TestBuild_IgnoredSpecifiersAreNotLoaded(t *testing.T) {
	l := loader.NewMemoryLoader(map[types.Specifier]string{
		"file:///p/mod.ts": `import chalk from "https://deno.land/x/chalk/mod.ts";`,
	})

	g, err := Build(context.Background(), BuildOptions{
		Roots:   []types.Specifier{"file:///p/mod.ts"},
		Loader:  l,
		Ignored: map[types.Specifier]bool{"https://deno.land/x/chalk/mod.ts": true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())

	target, ok := g.ResolveDependency("https://deno.land/x/chalk/mod.ts", "file:///p/mod.ts")
	assert.True(t, ok)
	assert.Equal(t, types.Specifier("https://deno.land/x/chalk/mod.ts"), target)
}

func TestBuild_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, BuildOptions{
		Roots:  []types.Specifier{"file:///p/mod.ts"},
		Loader: loader.NewMemoryLoader(map[types.Specifier]string{"file:///p/mod.ts": ""}),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
