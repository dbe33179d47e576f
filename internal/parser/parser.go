// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package parser parses TypeScript and JavaScript modules into tree-sitter
// syntax trees and extracts their module references.
package parser

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

// MediaType identifies how a module's source is interpreted.
type MediaType int

const (
	Unknown    MediaType = iota
	TypeScript           // .ts, .mts, .cts
	TSX                  // .tsx
	Dts                  // .d.ts, .d.mts, .d.cts
	JavaScript           // .js, .mjs, .cjs
	JSX                  // .jsx
	JSON                 // .json
)

func (m MediaType) String() string {
	switch m {
	case TypeScript:
		return "TypeScript"
	case TSX:
		return "TSX"
	case Dts:
		return "Dts"
	case JavaScript:
		return "JavaScript"
	case JSX:
		return "JSX"
	case JSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

// Extension returns the canonical file extension for the media type, used
// when a remote module's URL has none.
func (m MediaType) Extension() string {
	switch m {
	case TypeScript:
		return ".ts"
	case TSX:
		return ".tsx"
	case Dts:
		return ".d.ts"
	case JavaScript:
		return ".js"
	case JSX:
		return ".jsx"
	case JSON:
		return ".json"
	default:
		return ".js"
	}
}

// languages maps media types to their tree-sitter grammar. JSON has no
// entry: it is emitted verbatim.
var languages = map[MediaType]*sitter.Language{
	TypeScript: typescript.GetLanguage(),
	Dts:        typescript.GetLanguage(),
	TSX:        tsx.GetLanguage(),
	JavaScript: javascript.GetLanguage(),
	JSX:        javascript.GetLanguage(),
}

var contentTypes = map[string]MediaType{
	"application/typescript":   TypeScript,
	"text/typescript":          TypeScript,
	"video/vnd.dlna.mpeg-tts":  TypeScript,
	"video/mp2t":               TypeScript,
	"application/x-typescript": TypeScript,
	"application/javascript":   JavaScript,
	"text/javascript":          JavaScript,
	"application/ecmascript":   JavaScript,
	"text/ecmascript":          JavaScript,
	"application/x-javascript": JavaScript,
	"application/node":         JavaScript,
	"text/jsx":                 JSX,
	"text/tsx":                 TSX,
	"application/json":         JSON,
	"text/json":                JSON,
}

// MediaTypeFor determines the media type of a module from its URL path and,
// failing that, from its content-type header.
func MediaTypeFor(spec types.Specifier, contentType string) MediaType {
	if mt := mediaTypeFromPath(specifierPath(spec)); mt != Unknown {
		return mt
	}
	ct := strings.TrimSpace(strings.ToLower(strings.SplitN(contentType, ";", 2)[0]))
	if mt, ok := contentTypes[ct]; ok {
		return mt
	}
	return Unknown
}

func specifierPath(spec types.Specifier) string {
	u, err := spec.URL()
	if err != nil {
		return string(spec)
	}
	return u.Path
}

func mediaTypeFromPath(p string) MediaType {
	base := strings.ToLower(path.Base(p))
	for _, dts := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(base, dts) {
			return Dts
		}
	}
	switch path.Ext(base) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	case ".js", ".mjs", ".cjs":
		return JavaScript
	case ".jsx":
		return JSX
	case ".json":
		return JSON
	}
	return Unknown
}

// ParsedSource is a module's source text together with its syntax tree.
// Root is nil for media types that are not parsed (JSON).
type ParsedSource struct {
	Specifier types.Specifier
	MediaType MediaType
	Text      []byte
	Root      *sitter.Node
}

// Source returns the original text.
func (ps *ParsedSource) Source() string {
	return string(ps.Text)
}

// Content returns the source text covered by a node.
func (ps *ParsedSource) Content(n *sitter.Node) string {
	return n.Content(ps.Text)
}

// Parse parses source text with the grammar for its media type. Trees with
// syntax errors are still returned: rewriting is textual, and references
// inside error regions are picked up by RecoverAttributed.
func Parse(ctx context.Context, spec types.Specifier, text string, mediaType MediaType) (*ParsedSource, error) {
	ps := &ParsedSource{
		Specifier: spec,
		MediaType: mediaType,
		Text:      []byte(text),
	}
	if mediaType == JSON {
		return ps, nil
	}
	lang, ok := languages[mediaType]
	if !ok {
		// Unknown content is most often JavaScript served without a type.
		lang = languages[JavaScript]
	}

	root, err := sitter.ParseCtx(ctx, ps.Text, lang)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", spec, err)
	}
	ps.Root = root
	return ps, nil
}
