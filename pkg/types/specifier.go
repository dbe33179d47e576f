// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared types used across go-dnt packages.
package types

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

// ErrInvalidSpecifier is returned when a string cannot be turned into an
// absolute module specifier.
var ErrInvalidSpecifier = errors.New("invalid module specifier")

// Specifier is the canonical absolute URL of a module. It is comparable,
// ordered by plain string comparison, and used as a map key everywhere.
type Specifier string

// ParseSpecifier parses an absolute URL into a Specifier.
func ParseSpecifier(raw string) (Specifier, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidSpecifier, raw, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: %q has no scheme", ErrInvalidSpecifier, raw)
	}
	return Specifier(u.String()), nil
}

// SpecifierFromPath converts a file system path into a file:// specifier.
// Relative paths are made absolute against the working directory.
func SpecifierFromPath(path string) (Specifier, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidSpecifier, path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return Specifier(u.String()), nil
}

// MustParseSpecifier is ParseSpecifier for literals known to be valid.
func MustParseSpecifier(raw string) Specifier {
	s, err := ParseSpecifier(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the specifier text.
func (s Specifier) String() string {
	return string(s)
}

// URL parses the specifier. Specifiers are constructed from parsed URLs, so
// the error is only non-nil for hand-built values.
func (s Specifier) URL() (*url.URL, error) {
	return url.Parse(string(s))
}

// Scheme returns the URL scheme in lower case, or "" if unparseable.
func (s Specifier) Scheme() string {
	i := strings.Index(string(s), ":")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(string(s[:i]))
}

// IsLocal reports whether the specifier addresses the local file system.
func (s Specifier) IsLocal() bool {
	return s.Scheme() == "file"
}

// IsRemote reports whether the specifier is fetched over http(s).
func (s Specifier) IsRemote() bool {
	scheme := s.Scheme()
	return scheme == "http" || scheme == "https"
}

// FilePath returns the file system path of a file:// specifier.
func (s Specifier) FilePath() (string, error) {
	u, err := s.URL()
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidSpecifier, s, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %q is not a file specifier", ErrInvalidSpecifier, s)
	}
	return filepath.FromSlash(u.Path), nil
}

// Resolve resolves an import literal against this specifier. Relative
// literals ("./", "../", "/") and absolute URLs resolve; bare names such as
// "react" do not and return ok=false.
func (s Specifier) Resolve(literal string) (Specifier, bool) {
	if literal == "" {
		return "", false
	}
	if isRelativeLiteral(literal) {
		base, err := s.URL()
		if err != nil {
			return "", false
		}
		ref, err := url.Parse(literal)
		if err != nil {
			return "", false
		}
		return Specifier(base.ResolveReference(ref).String()), true
	}
	u, err := url.Parse(literal)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// A one-letter scheme is a Windows drive, not a URL.
		return "", false
	}
	return Specifier(u.String()), true
}

func isRelativeLiteral(literal string) bool {
	return strings.HasPrefix(literal, "./") ||
		strings.HasPrefix(literal, "../") ||
		strings.HasPrefix(literal, "/")
}

// SortSpecifiers sorts in place and returns the slice for chaining.
func SortSpecifiers(specs []Specifier) []Specifier {
	slices.Sort(specs)
	return specs
}
