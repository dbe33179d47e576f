// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package dnt defines the public interface for go-dnt, a library that
// converts Deno module graphs into Node-resolvable source trees.
package dnt

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/petar-djukic/go-dnt/internal/declfile"
	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/internal/mappings"
	"github.com/petar-djukic/go-dnt/internal/textchange"
	"github.com/petar-djukic/go-dnt/internal/transform"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// Errors returned by Transform. Match them with errors.Is.
var (
	ErrInvalidOptions  = errors.New("invalid options")
	ErrNoEntryPoints   = transform.ErrNoEntryPoints
	ErrModuleNotFound  = graph.ErrModuleNotFound
	ErrTypesResolution = declfile.ErrTypesResolution
	ErrPathCollision   = mappings.ErrPathCollision
	ErrInternal        = textchange.ErrInternal
)

// DefaultShimPackage is imported in place of the Deno global.
const DefaultShimPackage = "@deno/shim-deno"

// Options configures a transform.
type Options struct {
	EntryPoints     []string // File paths or URLs (at least one)
	TestEntryPoints []string // File paths or URLs
	ShimPackageName string   // Default DefaultShimPackage
	NoShim          bool     // Leave the Deno global untouched
	// Mappings replaces modules, by path or URL, with npm packages.
	Mappings    map[string]types.MappedSpecifier
	Concurrency int         // Parallel loads and rewrites (default runtime.NumCPU())
	CacheSize   int         // Remote responses kept in memory (default 256)
	Logger      *log.Logger // Optional
}

// Transformer runs transforms.
type Transformer interface {
	// Transform loads the module graph from the entry points and returns
	// the output files of the main and test environments. Fatal conditions
	// are errors; duplicate declaration files are reported as warnings.
	Transform(ctx context.Context) (*types.TransformOutput, error)
}
