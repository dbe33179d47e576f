// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package textchange

import (
	"math/rand/v2"
	"testing"

	"github.com/petar-djukic/go-dnt/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		changes []types.TextChange
		want    string
		wantErr error
	}{
		{
			name: "no changes returns text",
			text: `import "./a.ts";`,
			want: `import "./a.ts";`,
		},
		{
			name:    "single replacement",
			text:    `import "./a.ts";`,
			changes: []types.TextChange{{Start: 8, End: 14, NewText: "./a.js"}},
			want:    `import "./a.js";`,
		},
		{
			name: "changes in reverse order",
			text: "abcdef",
			changes: []types.TextChange{
				{Start: 4, End: 6, NewText: "EF"},
				{Start: 0, End: 2, NewText: "AB"},
			},
			want: "ABcdEF",
		},
		{
			name: "deletion and insertion",
			text: "abcdef",
			changes: []types.TextChange{
				{Start: 0, End: 0, NewText: ">"},
				{Start: 2, End: 4},
			},
			want: ">abef",
		},
		{
			name: "adjacent changes touch without overlap",
			text: "abcdef",
			changes: []types.TextChange{
				{Start: 0, End: 3, NewText: "x"},
				{Start: 3, End: 6, NewText: "y"},
			},
			want: "xy",
		},
		{
			name: "insertion at end of deletion",
			text: "abcdef",
			changes: []types.TextChange{
				{Start: 1, End: 3},
				{Start: 3, End: 3, NewText: "+"},
			},
			want: "a+def",
		},
		{
			name: "overlapping ranges",
			text: "abcdef",
			changes: []types.TextChange{
				{Start: 0, End: 4, NewText: "x"},
				{Start: 2, End: 5, NewText: "y"},
			},
			wantErr: ErrOverlap,
		},
		{
			name: "insertion inside deletion",
			text: "abcdef",
			changes: []types.TextChange{
				{Start: 1, End: 4},
				{Start: 2, End: 2, NewText: "z"},
			},
			wantErr: ErrOverlap,
		},
		{
			name:    "end past text",
			text:    "abc",
			changes: []types.TextChange{{Start: 1, End: 10}},
			wantErr: ErrOutOfRange,
		},
		{
			name:    "inverted range",
			text:    "abc",
			changes: []types.TextChange{{Start: 2, End: 1}},
			wantErr: ErrOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.text, tt.changes)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_OverlapIsInternal(t *testing.T) {
	_, err := Apply("abcdef", []types.TextChange{{Start: 0, End: 3}, {Start: 1, End: 2}})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "[0, 3)")
	assert.Contains(t, err.Error(), "[1, 2)")
}

func TestApply_OutOfRangeIsInternal(t *testing.T) {
	_, err := Apply("abc", []types.TextChange{{Start: 2, End: 9}})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrOverlap)
}

func TestApply_InsertionsAtSameOffsetKeepOrder(t *testing.T) {
	got, err := Apply("x", []types.TextChange{
		{Start: 0, End: 0, NewText: "1"},
		{Start: 0, End: 0, NewText: "2"},
		{Start: 0, End: 0, NewText: "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, "123x", got)
}

func TestApply_OrderInvariant(t *testing.T) {
	text := "import a from './a.ts';\nimport b from './b.ts';\nexport * from './c.ts';\n"
	changes := []types.TextChange{
		{Start: 15, End: 21, NewText: "./a.js"},
		{Start: 39, End: 45, NewText: "./b.js"},
		{Start: 63, End: 69, NewText: "./c.js"},
		{Start: 0, End: 0, NewText: "// generated\n"},
	}
	want, err := Apply(text, changes)
	require.NoError(t, err)
	assert.Equal(t, "// generated\nimport a from './a.js';\nimport b from './b.js';\nexport * from './c.js';\n", want)

	r := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := append([]types.TextChange(nil), changes...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, err := Apply(text, shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	changes := []types.TextChange{{Start: 2, End: 3, NewText: "b"}, {Start: 0, End: 1, NewText: "a"}}
	_, err := Apply("xyz", changes)
	require.NoError(t, err)
	assert.Equal(t, 2, changes[0].Start)
}
