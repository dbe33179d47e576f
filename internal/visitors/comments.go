// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package visitors

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/go-dnt/internal/parser"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// CommentDirectives deletes @deno-types comments and triple-slash
// references to Deno type libraries, together with their line break.
func CommentDirectives(src *parser.ParsedSource) []types.TextChange {
	if src == nil || src.Root == nil {
		return nil
	}
	var changes []types.TextChange
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "comment" {
			text := src.Content(n)
			if parser.IsDenoTypesComment(text) || parser.IsDenoLibReference(text) {
				changes = append(changes, types.TextChange{
					Start: int(n.StartByte()),
					End:   lineEnd(src.Text, int(n.EndByte())),
				})
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c != nil {
				visit(c)
			}
		}
	}
	visit(src.Root)
	return changes
}

// lineEnd extends end over a directly following line break.
func lineEnd(text []byte, end int) int {
	if end < len(text) && text[end] == '\r' {
		end++
	}
	if end < len(text) && text[end] == '\n' {
		end++
	}
	return end
}
