// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/go-dnt/internal/loader"
	"github.com/petar-djukic/go-dnt/internal/parser"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

var (
	// ErrModuleNotFound is returned when a root or a referenced module
	// cannot be loaded.
	ErrModuleNotFound = errors.New("module not found")

	// ErrNoRoots is returned when Build is called without roots.
	ErrNoRoots = errors.New("no root modules")
)

// BuildOptions configures Build.
type BuildOptions struct {
	Roots  []types.Specifier
	Loader loader.Loader
	// Ignored specifiers are recorded as dependency targets but never
	// loaded. Package-mapped modules are ignored.
	Ignored     map[types.Specifier]bool
	Concurrency int         // Concurrent loads (default runtime.NumCPU())
	Logger      *log.Logger // Optional
}

type builder struct {
	opts   BuildOptions
	logger *log.Logger
	sem    chan struct{}
	g      *errgroup.Group
	ctx    context.Context

	mu        sync.Mutex
	seen      map[types.Specifier]bool
	modules   map[types.Specifier]*Module
	redirects map[types.Specifier]types.Specifier
	failed    map[types.Specifier]error
}

// Build loads the roots and every module they reference, directly or
// through declaration files. Independent modules load concurrently; the
// resulting graph does not depend on completion order.
func Build(ctx context.Context, opts BuildOptions) (*Graph, error) {
	if len(opts.Roots) == 0 {
		return nil, ErrNoRoots
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	g, gctx := errgroup.WithContext(ctx)
	b := &builder{
		opts:      opts,
		logger:    logger,
		sem:       make(chan struct{}, opts.Concurrency),
		g:         g,
		ctx:       gctx,
		seen:      make(map[types.Specifier]bool),
		modules:   make(map[types.Specifier]*Module),
		redirects: make(map[types.Specifier]types.Specifier),
		failed:    make(map[types.Specifier]error),
	}

	for _, root := range opts.Roots {
		b.enqueue(root)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	modules := make([]*Module, 0, len(b.modules))
	for _, m := range b.modules {
		modules = append(modules, m)
	}
	graph := New(modules, b.redirects)
	if err := b.validate(graph); err != nil {
		return nil, err
	}
	logger.Debug("module graph built", "modules", graph.Len())
	return graph, nil
}

// enqueue schedules spec for loading unless it was seen or is ignored.
func (b *builder) enqueue(spec types.Specifier) {
	if b.opts.Ignored[spec] {
		return
	}
	b.mu.Lock()
	if b.seen[spec] {
		b.mu.Unlock()
		return
	}
	b.seen[spec] = true
	b.mu.Unlock()

	b.g.Go(func() error {
		return b.load(spec)
	})
}

func (b *builder) load(spec types.Specifier) error {
	select {
	case b.sem <- struct{}{}:
	case <-b.ctx.Done():
		return b.ctx.Err()
	}
	m, err := b.fetch(spec)
	<-b.sem

	if err != nil {
		if ctxErr := b.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Missing modules are reported by validate, which knows whether the
		// reference was required.
		b.logger.Debug("module failed to load", "specifier", spec, "err", err)
		b.mu.Lock()
		b.failed[spec] = err
		b.mu.Unlock()
		return nil
	}
	if m == nil {
		return nil
	}

	for _, dep := range m.Dependencies {
		if dep.HasCode() {
			b.enqueue(dep.Code)
		}
		if dep.HasType() {
			b.enqueue(dep.Type)
		}
	}
	if td := m.TypesDependency; td != nil && td.Err == nil {
		b.enqueue(td.Specifier)
	}
	return nil
}

// fetch loads and parses one module. It returns nil, nil when the module
// was already stored under its redirect target.
func (b *builder) fetch(spec types.Specifier) (*Module, error) {
	resp, err := b.opts.Loader.Load(b.ctx, spec)
	if err != nil {
		return nil, err
	}
	final := resp.Specifier
	if final == "" {
		final = spec
	}

	b.mu.Lock()
	if final != spec {
		b.redirects[spec] = final
		if b.seen[final] {
			b.mu.Unlock()
			return nil, nil
		}
		b.seen[final] = true
	}
	b.mu.Unlock()

	mediaType := parser.MediaTypeFor(final, resp.ContentType())
	ps, err := parser.Parse(b.ctx, final, resp.Content, mediaType)
	if err != nil {
		return nil, err
	}

	m := &Module{
		Specifier:    final,
		MediaType:    mediaType,
		Source:       resp.Content,
		Parsed:       ps,
		Dependencies: make(map[string]*Dependency),
	}
	analysis := parser.Analyze(ps)
	for _, imp := range analysis.Imports {
		b.addDependency(m, imp)
	}

	typesText := resp.TypesHeader()
	if typesText == "" {
		typesText = analysis.TypesReference
	}
	if typesText != "" {
		ref := &TypesReference{Text: typesText}
		if target, ok := final.Resolve(typesText); ok {
			ref.Specifier = target
		} else {
			ref.Err = fmt.Errorf("%w: cannot resolve %q from %s", ErrModuleNotFound, typesText, final)
		}
		m.TypesDependency = ref
	}

	b.logger.Debug("loaded module", "specifier", final, "mediaType", mediaType, "dependencies", len(m.Dependencies))

	b.mu.Lock()
	b.modules[final] = m
	b.mu.Unlock()
	return m, nil
}

func (b *builder) addDependency(m *Module, imp parser.Import) {
	dep, ok := m.Dependencies[imp.Specifier]
	if !ok {
		dep = &Dependency{Literal: imp.Specifier, Dynamic: imp.Dynamic}
		if target, ok := m.Specifier.Resolve(imp.Specifier); ok && b.loadable(target) {
			dep.Code = target
		}
		m.Dependencies[imp.Specifier] = dep
	} else if !imp.Dynamic {
		dep.Dynamic = false
	}
	if dep.Type == "" && imp.TypesSpecifier != "" {
		if target, ok := m.Specifier.Resolve(imp.TypesSpecifier); ok && b.loadable(target) {
			dep.Type = target
		}
	}
}

// loadable reports whether a resolved target belongs in the graph: either
// it can be loaded or it is mapped to a package.
func (b *builder) loadable(spec types.Specifier) bool {
	if b.opts.Ignored[spec] {
		return true
	}
	return spec.IsLocal() || spec.IsRemote()
}

// validate reports missing roots and required dependencies, and records
// failed types references on their modules. Iteration is sorted so the
// first reported error is deterministic.
func (b *builder) validate(g *Graph) error {
	for _, root := range types.SortSpecifiers(append([]types.Specifier(nil), b.opts.Roots...)) {
		if b.opts.Ignored[root] {
			continue
		}
		if g.Get(root) == nil {
			return fmt.Errorf("%w: %s: %v", ErrModuleNotFound, root, b.failed[root])
		}
	}

	for _, m := range g.Modules() {
		for _, dep := range m.SortedDependencies() {
			for _, target := range []types.Specifier{dep.Code, dep.Type} {
				if target == "" || b.opts.Ignored[target] || g.Get(target) != nil {
					continue
				}
				return fmt.Errorf("%w: %s (imported by %s): %v", ErrModuleNotFound, target, m.Specifier, b.failed[target])
			}
		}
		if td := m.TypesDependency; td != nil && td.Err == nil && g.Get(td.Specifier) == nil {
			td.Err = fmt.Errorf("%w: %s: %v", ErrModuleNotFound, td.Specifier, b.failed[td.Specifier])
		}
	}
	return nil
}
