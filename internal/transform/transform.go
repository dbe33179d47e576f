// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package transform implements the Runner orchestrator, wiring the graph,
// classification, mapping and rewriting stages into one run.
package transform

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/go-dnt/internal/declfile"
	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/internal/loader"
	"github.com/petar-djukic/go-dnt/internal/mappings"
	"github.com/petar-djukic/go-dnt/internal/parser"
	"github.com/petar-djukic/go-dnt/internal/specifiers"
	"github.com/petar-djukic/go-dnt/internal/textchange"
	"github.com/petar-djukic/go-dnt/internal/visitors"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// ErrNoEntryPoints is returned when a run has no main entry points.
var ErrNoEntryPoints = errors.New("at least one entry point must be specified")

// Options describe one transform run.
type Options struct {
	EntryPoints     []types.Specifier
	TestEntryPoints []types.Specifier
	// ShimPackageName is the package imported in place of the Deno global.
	// Empty disables the shim.
	ShimPackageName   string
	SpecifierMappings map[types.Specifier]types.MappedSpecifier
}

// Deps holds injected dependencies for the runner.
type Deps struct {
	Loader      loader.Loader
	Concurrency int         // Modules rewritten in parallel (default runtime.NumCPU())
	Logger      *log.Logger // Optional
}

// Runner orchestrates a transform.
type Runner struct {
	deps   Deps
	logger *log.Logger
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(deps Deps) *Runner {
	if deps.Concurrency <= 0 {
		deps.Concurrency = runtime.NumCPU()
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{deps: deps, logger: logger}
}

// Run builds the module graph from the entry points and transforms it.
// Any error aborts the run; no partial output is returned.
func (r *Runner) Run(ctx context.Context, opts Options) (*types.TransformOutput, error) {
	if len(opts.EntryPoints) == 0 {
		return nil, ErrNoEntryPoints
	}

	ignored := make(map[types.Specifier]bool, len(opts.SpecifierMappings))
	for spec := range opts.SpecifierMappings {
		ignored[spec] = true
	}
	roots := append(slices.Clone(opts.EntryPoints), opts.TestEntryPoints...)

	g, err := graph.Build(ctx, graph.BuildOptions{
		Roots:       roots,
		Loader:      r.deps.Loader,
		Ignored:     ignored,
		Concurrency: r.deps.Concurrency,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building module graph: %w", err)
	}
	return r.Transform(ctx, g, opts)
}

// Transform converts an already built graph. It does no I/O.
func (r *Runner) Transform(ctx context.Context, g *graph.Graph, opts Options) (*types.TransformOutput, error) {
	if len(opts.EntryPoints) == 0 {
		return nil, ErrNoEntryPoints
	}

	s, err := specifiers.Classify(g, opts.EntryPoints, opts.TestEntryPoints, opts.SpecifierMappings)
	if err != nil {
		return nil, err
	}
	m, err := mappings.New(g, s)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("classified modules",
		"local", len(s.Local), "remote", len(s.Remote), "declarations", len(s.Types), "mapped", len(s.Main.Mapped)+len(s.Test.Mapped))

	out := &types.TransformOutput{Warnings: declfile.Warnings(s.Types)}
	for _, w := range out.Warnings {
		r.logger.Warn(w)
	}

	if out.Main.EntryPoints, err = entryPointPaths(g, m, opts.EntryPoints); err != nil {
		return nil, err
	}
	if out.Test.EntryPoints, err = entryPointPaths(g, m, opts.TestEntryPoints); err != nil {
		return nil, err
	}
	out.Main.Dependencies = dependencies(s.Main.Mapped)
	out.Test.Dependencies = dependencies(s.Test.Mapped)

	packages := make(map[types.Specifier]string, len(opts.SpecifierMappings))
	for spec, entry := range opts.SpecifierMappings {
		packages[spec] = entry.Name
	}

	modules := emitOrder(s)
	results := make([]emitted, len(modules))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(r.deps.Concurrency)
	for i, spec := range modules {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			res, err := emit(g, m, spec, packages, opts.ShimPackageName)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, res := range results {
		env := &out.Main
		if s.IsTestModule(modules[i]) {
			env = &out.Test
		}
		env.Files = append(env.Files, res.file)
		env.ShimUsed = env.ShimUsed || res.shimUsed
	}
	r.logger.Debug("transform complete", "mainFiles", len(out.Main.Files), "testFiles", len(out.Test.Files), "warnings", len(out.Warnings))
	return out, nil
}

type emitted struct {
	file     types.OutputFile
	shimUsed bool
}

// emit rewrites one module and applies its changes.
func emit(g *graph.Graph, m *mappings.Mappings, spec types.Specifier, packages map[types.Specifier]string, shimPackage string) (emitted, error) {
	mod := g.Get(spec)
	if mod == nil {
		return emitted{}, fmt.Errorf("%w: %s", graph.ErrModuleNotFound, spec)
	}
	filePath, ok := m.FilePath(spec)
	if !ok {
		return emitted{}, fmt.Errorf("%w: %s", mappings.ErrNotMapped, spec)
	}

	var res emitted
	var changes []types.TextChange
	if shimPackage != "" && mod.MediaType != parser.Dts {
		shim := visitors.DenoGlobal(visitors.DenoGlobalParams{Source: mod.Parsed, ShimPackageName: shimPackage})
		res.shimUsed = len(shim) > 0
		changes = append(changes, shim...)
	}
	changes = append(changes, visitors.CommentDirectives(mod.Parsed)...)
	rewritten, err := visitors.ImportsExports(visitors.ImportsExportsParams{
		Specifier:       spec,
		Graph:           g,
		Mappings:        m,
		Source:          mod.Parsed,
		PackageMappings: packages,
	})
	if err != nil {
		return emitted{}, err
	}
	changes = append(changes, rewritten...)

	text, err := textchange.Apply(mod.Source, changes)
	if err != nil {
		return emitted{}, fmt.Errorf("emitting %s: %w", spec, err)
	}
	res.file = types.OutputFile{Path: filePath, Text: text}
	return res, nil
}

// emitOrder lists local modules, then remote modules, then selected
// declaration files, each group sorted and without duplicates.
func emitOrder(s *specifiers.Specifiers) []types.Specifier {
	seen := make(map[types.Specifier]bool)
	var out []types.Specifier
	add := func(spec types.Specifier) {
		if !seen[spec] {
			seen[spec] = true
			out = append(out, spec)
		}
	}
	for _, spec := range s.Local {
		add(spec)
	}
	for _, spec := range s.Remote {
		add(spec)
	}
	for _, d := range s.SelectedDeclarations() {
		add(d.Specifier)
	}
	return out
}

func entryPointPaths(g *graph.Graph, m *mappings.Mappings, entryPoints []types.Specifier) ([]string, error) {
	paths := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		p, ok := m.FilePath(g.Redirect(ep))
		if !ok {
			return nil, fmt.Errorf("%w: entry point %s", mappings.ErrNotMapped, ep)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// dependencies lists the versioned package mappings sorted by name.
func dependencies(mapped map[types.Specifier]types.MappedSpecifier) []types.Dependency {
	seen := make(map[types.Dependency]bool)
	deps := []types.Dependency{}
	for _, entry := range mapped {
		if entry.Version == "" {
			continue
		}
		d := types.Dependency{Name: entry.Name, Version: entry.Version}
		if !seen[d] {
			seen[d] = true
			deps = append(deps, d)
		}
	}
	slices.SortFunc(deps, func(a, b types.Dependency) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.Version, b.Version))
	})
	return deps
}
