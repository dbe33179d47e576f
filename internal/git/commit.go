// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	authorName  = "go-dnt"
	authorEmail = "noreply@go-dnt"
)

// Commit stages the written files and commits them with a message built
// from s. It returns the new commit hash, or "" when nothing was written.
func (r *Repo) Commit(s Summary) (string, error) {
	if len(s.Files) == 0 {
		return "", nil
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	for _, f := range s.Files {
		if _, err := wt.Add(f); err != nil {
			return "", fmt.Errorf("staging %s: %w", f, err)
		}
	}

	hash, err := wt.Commit(GenerateMessage(s), &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return hash.String(), nil
}

// Undo soft-resets HEAD to its parent if HEAD is a go-dnt commit, leaving
// the generated files staged.
func (r *Repo) Undo() error {
	ok, err := r.IsDntCommit()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotDntCommit
	}

	commit, err := r.head()
	if err != nil {
		return err
	}
	if commit.NumParents() == 0 {
		return fmt.Errorf("cannot undo: HEAD is the initial commit")
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return fmt.Errorf("getting parent commit: %w", err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: parent.Hash, Mode: gogit.SoftReset}); err != nil {
		return fmt.Errorf("resetting to parent: %w", err)
	}
	return nil
}
