// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package mappings assigns every emitted module an output file path and
// computes relative specifiers between them.
package mappings

import (
	"errors"
	"fmt"
	"hash/fnv"
	"path"
	"strings"

	"github.com/petar-djukic/go-dnt/internal/graph"
	"github.com/petar-djukic/go-dnt/internal/parser"
	"github.com/petar-djukic/go-dnt/internal/specifiers"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// remoteDir is the output directory remote modules are placed under.
const remoteDir = "deps"

var (
	// ErrPathCollision is returned when two modules map to the same path.
	ErrPathCollision = errors.New("output path collision")

	// ErrNotMapped is returned for a specifier without an output path.
	ErrNotMapped = errors.New("module has no output path")
)

// Mappings is the immutable specifier → output path table of one run.
// Paths are POSIX and relative to the output directory.
type Mappings struct {
	paths  map[types.Specifier]string
	owners map[string]types.Specifier
}

// New maps the local and remote code modules of s and their selected
// declaration files. Iteration is over sorted specifiers, so the same
// classification always yields the same paths.
func New(g *graph.Graph, s *specifiers.Specifiers) (*Mappings, error) {
	m := &Mappings{
		paths:  make(map[types.Specifier]string),
		owners: make(map[string]types.Specifier),
	}

	decls := s.SelectedDeclarations()
	localDirs := make([]string, 0, len(s.Local))
	for _, spec := range s.Local {
		localDirs = append(localDirs, localDir(spec))
	}
	for _, d := range decls {
		if d.Specifier.IsLocal() {
			localDirs = append(localDirs, localDir(d.Specifier))
		}
	}
	base := commonDir(localDirs)

	for _, spec := range s.Local {
		p, err := localPath(base, spec)
		if err != nil {
			return nil, err
		}
		if err := m.assign(spec, p); err != nil {
			return nil, err
		}
	}
	for _, spec := range s.Remote {
		if err := m.assign(spec, remotePath(spec, mediaTypeOf(g, spec))); err != nil {
			return nil, err
		}
	}

	codes := make([]types.Specifier, 0, len(s.Types))
	for code := range s.Types {
		codes = append(codes, code)
	}
	types.SortSpecifiers(codes)
	for _, code := range codes {
		decl := s.Types[code].Selected.Specifier
		if _, ok := m.paths[decl]; ok {
			continue
		}
		var p string
		if codePath, ok := m.paths[code]; ok {
			p = stripExtension(codePath) + DeclarationExtension(codePath)
		} else if decl.IsLocal() {
			lp, err := localPath(base, decl)
			if err != nil {
				return nil, err
			}
			p = lp
		} else {
			p = remotePath(decl, parser.Dts)
		}
		if err := m.assign(decl, p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Mappings) assign(spec types.Specifier, p string) error {
	if owner, ok := m.owners[p]; ok && owner != spec {
		return fmt.Errorf("%w: %s and %s both map to %s", ErrPathCollision, owner, spec, p)
	}
	m.owners[p] = spec
	m.paths[spec] = p
	return nil
}

// FilePath returns the output path of spec.
func (m *Mappings) FilePath(spec types.Specifier) (string, bool) {
	p, ok := m.paths[spec]
	return p, ok
}

// Len returns the number of mapped modules.
func (m *Mappings) Len() int { return len(m.paths) }

// RelativeSpecifier returns the specifier the module at from uses to import
// the module at to: a relative POSIX path with an explicit ./ or ../ prefix
// and the extension the target is loaded under.
func (m *Mappings) RelativeSpecifier(from, to types.Specifier) (string, error) {
	fromPath, ok := m.paths[from]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotMapped, from)
	}
	toPath, ok := m.paths[to]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotMapped, to)
	}
	return Relative(fromPath, RuntimePath(toPath)), nil
}

func mediaTypeOf(g *graph.Graph, spec types.Specifier) parser.MediaType {
	if mod := g.Get(spec); mod != nil {
		return mod.MediaType
	}
	return parser.Unknown
}

func localDir(spec types.Specifier) string {
	u, err := spec.URL()
	if err != nil {
		return "/"
	}
	return path.Dir(u.Path)
}

func localPath(base string, spec types.Specifier) (string, error) {
	u, err := spec.URL()
	if err != nil {
		return "", fmt.Errorf("mapping %s: %w", spec, err)
	}
	rel := strings.TrimPrefix(u.Path, base)
	rel = strings.TrimPrefix(rel, "/")
	return sanitize(rel), nil
}

// remotePath places a remote module under deps/<host>/<path>.
func remotePath(spec types.Specifier, mediaType parser.MediaType) string {
	u, err := spec.URL()
	if err != nil {
		return path.Join(remoteDir, sanitize(string(spec)))
	}
	host := strings.ReplaceAll(u.Host, ":", "_")
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}

	ext := knownExtension(p)
	stem := strings.TrimSuffix(p, ext)
	if u.RawQuery != "" {
		h := fnv.New32a()
		h.Write([]byte(u.RawQuery))
		stem = fmt.Sprintf("%s_%08x", stem, h.Sum32())
	}
	if ext == "" {
		ext = mediaType.Extension()
	}
	return path.Join(remoteDir, sanitize(host), sanitize(strings.TrimPrefix(stem+ext, "/")))
}

// sanitize replaces characters that are not portable in file names.
func sanitize(p string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '|', '?', '*', '\\':
			return '_'
		}
		return r
	}, p)
}

// commonDir returns the deepest directory containing all dirs.
func commonDir(dirs []string) string {
	if len(dirs) == 0 {
		return "/"
	}
	common := splitPath(dirs[0])
	for _, d := range dirs[1:] {
		parts := splitPath(d)
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	return "/" + strings.Join(common, "/")
}

func splitPath(p string) []string {
	p = strings.Trim(path.Clean(p), "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}
