// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package dnt

import (
	"context"
	"fmt"
	"strings"

	"github.com/petar-djukic/go-dnt/internal/loader"
	"github.com/petar-djukic/go-dnt/internal/transform"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

const defaultCacheSize = 256

// New validates the options and returns a ready-to-use Transformer. No
// module is loaded until Transform is called.
func New(opts Options) (Transformer, error) {
	if err := validateOptions(opts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	applyDefaults(&opts)

	l, err := loader.Default(opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return newTransformer(opts, l)
}

func newTransformer(opts Options, l loader.Loader) (*transformer, error) {
	entryPoints, err := toSpecifiers(opts.EntryPoints)
	if err != nil {
		return nil, fmt.Errorf("%w: entry point: %v", ErrInvalidOptions, err)
	}
	testEntryPoints, err := toSpecifiers(opts.TestEntryPoints)
	if err != nil {
		return nil, fmt.Errorf("%w: test entry point: %v", ErrInvalidOptions, err)
	}
	mapped := make(map[types.Specifier]types.MappedSpecifier, len(opts.Mappings))
	for raw, entry := range opts.Mappings {
		spec, err := ToSpecifier(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: mapping: %v", ErrInvalidOptions, err)
		}
		mapped[spec] = entry
	}

	shim := opts.ShimPackageName
	if opts.NoShim {
		shim = ""
	}
	return &transformer{
		runner: transform.NewRunner(transform.Deps{
			Loader:      l,
			Concurrency: opts.Concurrency,
			Logger:      opts.Logger,
		}),
		opts: transform.Options{
			EntryPoints:       entryPoints,
			TestEntryPoints:   testEntryPoints,
			ShimPackageName:   shim,
			SpecifierMappings: mapped,
		},
	}, nil
}

// transformer adapts internal/transform.Runner to the public Transformer
// interface.
type transformer struct {
	runner *transform.Runner
	opts   transform.Options
}

func (t *transformer) Transform(ctx context.Context) (*types.TransformOutput, error) {
	return t.runner.Run(ctx, t.opts)
}

// ToSpecifier turns a command-line style module reference into a
// specifier: URLs are parsed, anything else is a file path.
func ToSpecifier(raw string) (types.Specifier, error) {
	if i := strings.Index(raw, "://"); i > 1 {
		return types.ParseSpecifier(raw)
	}
	return types.SpecifierFromPath(raw)
}

func toSpecifiers(raw []string) ([]types.Specifier, error) {
	out := make([]types.Specifier, 0, len(raw))
	for _, r := range raw {
		spec, err := ToSpecifier(r)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

// validateOptions checks that required fields are present.
func validateOptions(opts Options) error {
	if len(opts.EntryPoints) == 0 {
		return ErrNoEntryPoints
	}
	for _, ep := range append(append([]string(nil), opts.EntryPoints...), opts.TestEntryPoints...) {
		if strings.TrimSpace(ep) == "" {
			return fmt.Errorf("empty entry point")
		}
	}
	for spec, entry := range opts.Mappings {
		if entry.Name == "" {
			return fmt.Errorf("mapping for %s has no package name", spec)
		}
	}
	if opts.Concurrency < 0 {
		return fmt.Errorf("Concurrency must not be negative")
	}
	if opts.CacheSize < 0 {
		return fmt.Errorf("CacheSize must not be negative")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(opts *Options) {
	if opts.ShimPackageName == "" {
		opts.ShimPackageName = DefaultShimPackage
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = defaultCacheSize
	}
}
