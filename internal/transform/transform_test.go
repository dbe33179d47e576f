// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/go-dnt/internal/declfile"
	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/internal/loader"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

func run(t *testing.T, sources map[types.Specifier]string, opts Options) *types.TransformOutput {
	t.Helper()
	r := NewRunner(Deps{Loader: loader.NewMemoryLoader(sources)})
	out, err := r.Run(context.Background(), opts)
	require.NoError(t, err)
	return out
}

func paths(files []types.OutputFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func fileText(t *testing.T, files []types.OutputFile, path string) string {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return f.Text
		}
	}
	t.Fatalf("no output file %s in %v", path, paths(files))
	return ""
}

func TestRun_RelativeImport(t *testing.T) {
	out := run(t, map[types.Specifier]string{
		"file:///p/a.ts": "import { b } from \"./b.ts\";\nconsole.log(b);\n",
		"file:///p/b.ts": "export const b = 1;\n",
	}, Options{EntryPoints: []types.Specifier{"file:///p/a.ts"}})

	assert.Equal(t, []string{"a.ts"}, out.Main.EntryPoints)
	assert.Equal(t, []string{"a.ts", "b.ts"}, paths(out.Main.Files))
	assert.Equal(t, "import { b } from \"./b.js\";\nconsole.log(b);\n", fileText(t, out.Main.Files, "a.ts"))
	assert.Equal(t, "export const b = 1;\n", fileText(t, out.Main.Files, "b.ts"))
	assert.Empty(t, out.Warnings)
	assert.Empty(t, out.Test.Files)
	assert.Empty(t, out.Main.Dependencies)
	assert.False(t, out.Main.ShimUsed)
}

func TestRun_LocalDeclarationOverridesRemote(t *testing.T) {
	out := run(t, map[types.Specifier]string{
		"file:///p/mod.ts": "// @deno-types=\"./lib.d.ts\"\n" +
			"import lib from \"https://cdn.example.com/lib.js\";\n" +
			"import \"https://other.example.com/dep.ts\";\n" +
			"console.log(lib);\n",
		"file:///p/lib.d.ts": "declare const lib: string;\nexport default lib;\n",
		"https://other.example.com/dep.ts": "// @deno-types=\"./lib.d.ts\"\n" +
			"import lib from \"https://cdn.example.com/lib.js\";\n" +
			"export default lib;\n",
		"https://other.example.com/lib.d.ts": "declare const lib: unknown;\nexport default lib;\n// a much larger declaration file\n",
		"https://cdn.example.com/lib.js":     "export default \"lib\";\n",
	}, Options{EntryPoints: []types.Specifier{"file:///p/mod.ts"}})

	assert.Equal(t, []string{
		"mod.ts",
		"deps/cdn.example.com/lib.js",
		"deps/other.example.com/dep.ts",
		"deps/cdn.example.com/lib.d.ts",
	}, paths(out.Main.Files))
	assert.Equal(t, "import lib from \"./deps/cdn.example.com/lib.js\";\n"+
		"import \"./deps/other.example.com/dep.js\";\n"+
		"console.log(lib);\n", fileText(t, out.Main.Files, "mod.ts"))
	assert.Equal(t, "import lib from \"../cdn.example.com/lib.js\";\nexport default lib;\n",
		fileText(t, out.Main.Files, "deps/other.example.com/dep.ts"))
	assert.Equal(t, "declare const lib: string;\nexport default lib;\n",
		fileText(t, out.Main.Files, "deps/cdn.example.com/lib.d.ts"))

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "Duplicate declaration file found for https://cdn.example.com/lib.js\n"+
		"  Specified https://other.example.com/lib.d.ts in https://other.example.com/dep.ts\n"+
		"  Selected file:///p/lib.d.ts\n"+
		"  Suppress this warning by having only one local file specify the declaration file for this module.",
		out.Warnings[0])
}

func TestRun_DynamicImportAssertionRemoved(t *testing.T) {
	out := run(t, map[types.Specifier]string{
		"file:///p/mod.ts":    "const data = await import(\"./data.json\", { assert: { type: \"json\" } });\n",
		"file:///p/data.json": "{\"a\": 1}\n",
	}, Options{EntryPoints: []types.Specifier{"file:///p/mod.ts"}})

	assert.Equal(t, "const data = await import(\"./data.json\");\n", fileText(t, out.Main.Files, "mod.ts"))
	assert.Equal(t, "{\"a\": 1}\n", fileText(t, out.Main.Files, "data.json"))
}

func TestRun_ReexportAttributesRemoved(t *testing.T) {
	out := run(t, map[types.Specifier]string{
		"file:///p/mod.ts": "export * from \"./a.ts\" with { type: \"json\" };\n" +
			"export { b } from \"./b.ts\" assert { type: \"json\" };\n",
		"file:///p/a.ts": "export const a = 1;\n",
		"file:///p/b.ts": "export const b = 2;\n",
	}, Options{EntryPoints: []types.Specifier{"file:///p/mod.ts"}})

	assert.Equal(t, []string{"a.ts", "b.ts", "mod.ts"}, paths(out.Main.Files))
	assert.Equal(t, "export * from \"./a.js\";\nexport { b } from \"./b.js\";\n", fileText(t, out.Main.Files, "mod.ts"))
}

func TestRun_TestEnvironmentMappingsAndShim(t *testing.T) {
	out := run(t, map[types.Specifier]string{
		"file:///p/mod.ts": "import chalk from \"https://deno.land/x/chalk/mod.ts\";\n" +
			"export const args = Deno.args.map((a) => chalk(a));\n",
		"file:///p/mod_test.ts": "import { args } from \"./mod.ts\";\n" +
			"import { assert } from \"https://deno.land/std/assert/mod.ts\";\n" +
			"Deno.test(\"args\", () => assert(args));\n",
	}, Options{
		EntryPoints:     []types.Specifier{"file:///p/mod.ts"},
		TestEntryPoints: []types.Specifier{"file:///p/mod_test.ts"},
		ShimPackageName: "@deno/shim-deno",
		SpecifierMappings: map[types.Specifier]types.MappedSpecifier{
			"https://deno.land/x/chalk/mod.ts":    {Name: "chalk", Version: "5.0.0"},
			"https://deno.land/std/assert/mod.ts": {Name: "node:assert"},
		},
	})

	assert.Equal(t, []string{"mod.ts"}, out.Main.EntryPoints)
	assert.Equal(t, []string{"mod_test.ts"}, out.Test.EntryPoints)
	assert.Equal(t, []string{"mod.ts"}, paths(out.Main.Files))
	assert.Equal(t, []string{"mod_test.ts"}, paths(out.Test.Files))
	assert.Equal(t, []types.Dependency{{Name: "chalk", Version: "5.0.0"}}, out.Main.Dependencies)
	assert.Empty(t, out.Test.Dependencies)
	assert.True(t, out.Main.ShimUsed)
	assert.True(t, out.Test.ShimUsed)

	assert.Equal(t, "import * as denoShim from \"@deno/shim-deno\";\n"+
		"import chalk from \"chalk\";\n"+
		"export const args = denoShim.Deno.args.map((a) => chalk(a));\n", fileText(t, out.Main.Files, "mod.ts"))
	assert.Equal(t, "import * as denoShim from \"@deno/shim-deno\";\n"+
		"import { args } from \"./mod.js\";\n"+
		"import { assert } from \"node:assert\";\n"+
		"denoShim.Deno.test(\"args\", () => assert(args));\n", fileText(t, out.Test.Files, "mod_test.ts"))
}

func TestRun_NoEntryPoints(t *testing.T) {
	r := NewRunner(Deps{Loader: loader.NewMemoryLoader(nil)})
	_, err := r.Run(context.Background(), Options{TestEntryPoints: []types.Specifier{"file:///p/mod_test.ts"}})
	assert.ErrorIs(t, err, ErrNoEntryPoints)
}

func TestRun_MissingModule(t *testing.T) {
	r := NewRunner(Deps{Loader: loader.NewMemoryLoader(map[types.Specifier]string{
		"file:///p/mod.ts": "import \"./missing.ts\";\n",
	})})
	_, err := r.Run(context.Background(), Options{EntryPoints: []types.Specifier{"file:///p/mod.ts"}})
	assert.ErrorIs(t, err, graph.ErrModuleNotFound)
}

func TestRun_FailedTypesReferenceIsFatal(t *testing.T) {
	l := loader.NewMemoryLoader(map[types.Specifier]string{
		"file:///p/mod.ts": "import lib from \"https://cdn.example.com/lib.js\";\n",
	})
	l.Add("https://cdn.example.com/lib.js", "export default 1;\n", map[string]string{
		"X-TypeScript-Types": "./lib.d.ts",
	})
	r := NewRunner(Deps{Loader: l})

	_, err := r.Run(context.Background(), Options{EntryPoints: []types.Specifier{"file:///p/mod.ts"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, declfile.ErrTypesResolution)
	assert.Contains(t, err.Error(), "https://cdn.example.com/lib.js")
	assert.Contains(t, err.Error(), "./lib.d.ts")
}

func TestRun_DeterministicAcrossConcurrency(t *testing.T) {
	sources := map[types.Specifier]string{
		"file:///p/mod.ts":           "export * from \"./a.ts\";\nexport * from \"./b/c.ts\";\nexport * from \"https://x.example.com/d.ts\";\n",
		"file:///p/a.ts":             "export const a = 1;\n",
		"file:///p/b/c.ts":           "import \"../a.ts\";\nexport const c = 2;\n",
		"https://x.example.com/d.ts": "export * from \"./e.ts\";\n",
		"https://x.example.com/e.ts": "export const e = Deno.env;\n",
	}
	opts := Options{EntryPoints: []types.Specifier{"file:///p/mod.ts"}, ShimPackageName: "@deno/shim-deno"}

	serial, err := NewRunner(Deps{Loader: loader.NewMemoryLoader(sources), Concurrency: 1}).Run(context.Background(), opts)
	require.NoError(t, err)
	parallel, err := NewRunner(Deps{Loader: loader.NewMemoryLoader(sources), Concurrency: 8}).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
	assert.Equal(t, "import \"../a.js\";\nexport const c = 2;\n", fileText(t, serial.Main.Files, "b/c.ts"))
	assert.True(t, serial.Main.ShimUsed)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(Deps{Loader: loader.NewMemoryLoader(map[types.Specifier]string{"file:///p/mod.ts": ""})})
	_, err := r.Run(ctx, Options{EntryPoints: []types.Specifier{"file:///p/mod.ts"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDependencies(t *testing.T) {
	got := dependencies(map[types.Specifier]types.MappedSpecifier{
		"https://a.example.com/x.ts": {Name: "zeta", Version: "1.0.0"},
		"https://a.example.com/y.ts": {Name: "alpha", Version: "2.0.0"},
		"https://b.example.com/y.ts": {Name: "alpha", Version: "2.0.0"},
		"https://c.example.com/z.ts": {Name: "rename-only"},
	})
	assert.Equal(t, []types.Dependency{{Name: "alpha", Version: "2.0.0"}, {Name: "zeta", Version: "1.0.0"}}, got)
}
