// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package loader fetches module source text by specifier.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

// ErrNotFound is returned when a module does not exist.
var ErrNotFound = errors.New("module not found")

// ErrUnsupportedScheme is returned for specifiers no loader handles.
var ErrUnsupportedScheme = errors.New("unsupported specifier scheme")

// Response is the content of a loaded module.
type Response struct {
	// Specifier is the final specifier after redirects. It equals the
	// requested specifier when there were none.
	Specifier types.Specifier
	Content   string
	// Headers holds response headers with lower-case keys.
	Headers map[string]string
}

// ContentType returns the content-type header, if any.
func (r *Response) ContentType() string {
	return r.Headers["content-type"]
}

// TypesHeader returns the x-typescript-types header, if any.
func (r *Response) TypesHeader() string {
	return r.Headers["x-typescript-types"]
}

// Loader loads module source. Implementations must be safe for concurrent
// use.
type Loader interface {
	Load(ctx context.Context, spec types.Specifier) (*Response, error)
}

// FileLoader loads file:// specifiers from disk.
type FileLoader struct{}

var _ Loader = FileLoader{}

func (FileLoader) Load(ctx context.Context, spec types.Specifier) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := spec.FilePath()
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, spec)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Response{Specifier: spec, Content: string(content)}, nil
}

// MemoryLoader serves modules from memory. The zero value is empty and
// ready to use.
type MemoryLoader struct {
	mu        sync.RWMutex
	modules   map[types.Specifier]*Response
	redirects map[types.Specifier]types.Specifier
}

var _ Loader = (*MemoryLoader)(nil)

// NewMemoryLoader returns a loader serving the given sources.
func NewMemoryLoader(sources map[types.Specifier]string) *MemoryLoader {
	l := &MemoryLoader{}
	for spec, content := range sources {
		l.Add(spec, content, nil)
	}
	return l
}

// Add registers a module. Header keys are lower-cased.
func (l *MemoryLoader) Add(spec types.Specifier, content string, headers map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.modules == nil {
		l.modules = make(map[types.Specifier]*Response)
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[strings.ToLower(k)] = v
	}
	l.modules[spec] = &Response{Specifier: spec, Content: content, Headers: h}
}

// Redirect makes from resolve to the module registered at to.
func (l *MemoryLoader) Redirect(from, to types.Specifier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.redirects == nil {
		l.redirects = make(map[types.Specifier]types.Specifier)
	}
	l.redirects[from] = to
}

func (l *MemoryLoader) Load(ctx context.Context, spec types.Specifier) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	target := spec
	if to, ok := l.redirects[spec]; ok {
		target = to
	}
	r, ok := l.modules[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, spec)
	}
	out := *r
	return &out, nil
}

// MultiLoader dispatches to a loader by specifier scheme.
type MultiLoader map[string]Loader

var _ Loader = MultiLoader{}

// Default returns a loader for file, http and https specifiers.
func Default(cacheSize int) (MultiLoader, error) {
	httpLoader, err := NewHTTPLoader(HTTPConfig{CacheSize: cacheSize})
	if err != nil {
		return nil, err
	}
	return MultiLoader{
		"file":  FileLoader{},
		"http":  httpLoader,
		"https": httpLoader,
	}, nil
}

func (m MultiLoader) Load(ctx context.Context, spec types.Specifier) (*Response, error) {
	l, ok := m[spec.Scheme()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, spec)
	}
	return l.Load(ctx, spec)
}
