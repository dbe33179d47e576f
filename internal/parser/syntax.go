// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// NodeKind is the closed set of syntax constructs that carry a module
// reference. Everything else is Other and is only walked through.
type NodeKind int

const (
	Other         NodeKind = iota
	ImportDecl             // import ... from "x"; import "x"
	ExportAll              // export * from "x"; export * as ns from "x"
	NamedExport            // export { a } from "x"
	DynamicImport          // import("x")
)

func (k NodeKind) String() string {
	switch k {
	case ImportDecl:
		return "ImportDecl"
	case ExportAll:
		return "ExportAll"
	case NamedExport:
		return "NamedExport"
	case DynamicImport:
		return "DynamicImport"
	default:
		return "Other"
	}
}

// KindOf classifies a node.
func KindOf(n *sitter.Node) NodeKind {
	switch n.Type() {
	case "import_statement":
		return ImportDecl
	case "export_statement":
		if n.ChildByFieldName("source") == nil {
			return Other
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c != nil && (c.Type() == "*" || c.Type() == "namespace_export") {
				return ExportAll
			}
		}
		return NamedExport
	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil && fn.Type() == "import" {
			return DynamicImport
		}
	}
	return Other
}

// Source returns the string literal naming the referenced module of a
// static import or re-export, or nil when the statement has none
// (import x = require("y"), export const ...).
func Source(n *sitter.Node) *sitter.Node {
	src := n.ChildByFieldName("source")
	if src == nil || src.Type() != "string" {
		return nil
	}
	return src
}

// Arguments returns the argument expressions of a call, skipping
// punctuation and comments.
func Arguments(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		c := args.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DynamicSource returns the string literal passed as the first argument of
// a dynamic import, or nil if the argument is not a plain string.
func DynamicSource(call *sitter.Node) *sitter.Node {
	args := Arguments(call)
	if len(args) == 0 || args[0].Type() != "string" {
		return nil
	}
	return args[0]
}

// Walk visits n's children depth-first. visit returns false to stop
// descending into the node it was given.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if visit(c) {
			Walk(c, visit)
		}
	}
}

// StringContentRange returns the byte range between the quotes of a string
// literal node.
func StringContentRange(str *sitter.Node) (start, end int) {
	start = int(str.StartByte()) + 1
	end = int(str.EndByte()) - 1
	if end < start {
		end = start
	}
	return start, end
}

// StringValue decodes the value of a string literal node.
func StringValue(str *sitter.Node, src []byte) string {
	start, end := StringContentRange(str)
	return unescape(string(src[start:end]))
}

// unescape decodes JavaScript string escapes. Malformed escapes are kept
// verbatim.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case 'x':
			if r, n := hexRune(s[i+1:], 2); n > 0 {
				b.WriteRune(r)
				i += n
			} else {
				b.WriteString(`\x`)
			}
		case 'u':
			rest := s[i+1:]
			if strings.HasPrefix(rest, "{") {
				if end := strings.IndexByte(rest, '}'); end > 1 {
					if r, n := hexRune(rest[1:end], end-1); n > 0 {
						b.WriteRune(r)
						i += end + 1
						continue
					}
				}
			} else if r, n := hexRune(rest, 4); n > 0 {
				b.WriteRune(r)
				i += n
				continue
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

func hexRune(s string, digits int) (rune, int) {
	if len(s) < digits {
		return 0, 0
	}
	v, err := strconv.ParseUint(s[:digits], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, 0
	}
	return rune(v), digits
}
