// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package declfile

import (
	"fmt"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

const (
	localHint  = "Suppress this warning by having only one local file specify the declaration file for this module."
	remoteHint = "Suppress this warning by specifying a declaration file for this module locally via `@deno-types`."
)

// Warnings returns one diagnostic per ignored declaration file, ordered by
// code module and then by ignored candidate.
func Warnings(resolutions map[types.Specifier]Resolution) []string {
	codes := make([]types.Specifier, 0, len(resolutions))
	for code := range resolutions {
		codes = append(codes, code)
	}
	types.SortSpecifiers(codes)

	var messages []string
	for _, code := range codes {
		r := resolutions[code]
		hint := remoteHint
		if r.Selected.Referrer.IsLocal() {
			hint = localHint
		}
		for _, dep := range r.Ignored {
			messages = append(messages, warning(code, dep, r.Selected, hint))
		}
	}
	return messages
}

func warning(code types.Specifier, dep, selected TypesDependency, hint string) string {
	return fmt.Sprintf("Duplicate declaration file found for %s\n  Specified %s in %s\n  Selected %s\n  %s",
		code, dep.Specifier, dep.Referrer, selected.Specifier, hint)
}
