// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package mappings

import (
	"path"
	"strings"
)

// declarationExts maps declaration file suffixes to the runtime extension
// of the code they describe. Longest suffixes come first.
var declarationExts = []struct{ suffix, runtime string }{
	{".d.mts", ".mjs"},
	{".d.cts", ".cjs"},
	{".d.ts", ".js"},
}

var runtimeExts = map[string]string{
	".ts":  ".js",
	".tsx": ".js",
	".jsx": ".js",
	".mts": ".mjs",
	".cts": ".cjs",
}

// knownExtension returns the module extension of p, including compound
// declaration extensions, or "" when p has none we recognise.
func knownExtension(p string) string {
	lower := strings.ToLower(p)
	for _, d := range declarationExts {
		if strings.HasSuffix(lower, d.suffix) {
			return p[len(p)-len(d.suffix):]
		}
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs", ".json":
		return path.Ext(p)
	}
	return ""
}

func stripExtension(p string) string {
	if ext := knownExtension(p); ext != "" {
		return strings.TrimSuffix(p, ext)
	}
	return strings.TrimSuffix(p, path.Ext(p))
}

// RuntimePath returns the path an output file is imported under once
// compiled: TypeScript sources and declaration files are imported through
// their JavaScript extension.
func RuntimePath(p string) string {
	lower := strings.ToLower(p)
	for _, d := range declarationExts {
		if strings.HasSuffix(lower, d.suffix) {
			return p[:len(p)-len(d.suffix)] + d.runtime
		}
	}
	ext := path.Ext(p)
	if rt, ok := runtimeExts[strings.ToLower(ext)]; ok {
		return strings.TrimSuffix(p, ext) + rt
	}
	return p
}

// DeclarationExtension returns the declaration file extension TypeScript
// pairs with the code file at p: .d.mts for ES module sources, .d.cts for
// CommonJS sources and .d.ts otherwise.
func DeclarationExtension(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".mts", ".mjs":
		return ".d.mts"
	case ".cts", ".cjs":
		return ".d.cts"
	}
	return ".d.ts"
}

// Relative returns the specifier that the file at from uses to reach to.
// Both are POSIX paths relative to the same root.
func Relative(from, to string) string {
	fromParts := splitPath(path.Dir(from))
	toParts := splitPath(to)

	n := 0
	for n < len(fromParts) && n < len(toParts)-1 && fromParts[n] == toParts[n] {
		n++
	}

	var b strings.Builder
	ups := len(fromParts) - n
	if ups == 0 {
		b.WriteString("./")
	}
	for i := 0; i < ups; i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(toParts[n:], "/"))
	return b.String()
}

// ResolveRelative resolves a relative specifier written in the file at from
// back to a root-relative path.
func ResolveRelative(from, specifier string) string {
	return path.Join(path.Dir(from), specifier)
}
