// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git commits generated output into the output directory's
// repository and undoes such commits.
package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const generatedTrailer = "Generated-By: go-dnt"

var (
	// ErrNotDntCommit is returned when undo targets a commit go-dnt did not make.
	ErrNotDntCommit = errors.New("not a go-dnt commit")

	// ErrDirtyWorkTree is returned when the output repository has
	// uncommitted changes and dirty trees are not allowed.
	ErrDirtyWorkTree = errors.New("output directory has uncommitted changes")

	// ErrNoGit is returned when the directory is not a git repository.
	ErrNoGit = errors.New("not a git repository")
)

// Config configures git integration.
type Config struct {
	WorkDir    string // Output directory; must be a repository root
	AllowDirty bool   // Write over uncommitted changes
}

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	cfg  Config
}

// Open opens the repository at cfg.WorkDir. Returns ErrNoGit if the
// directory is not a git repository.
func Open(cfg Config) (*Repo, error) {
	r, err := gogit.PlainOpen(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, cfg: cfg}, nil
}

// IsDirty reports whether the working tree has staged, unstaged or
// untracked changes.
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}
	return !status.IsClean(), nil
}

// CheckClean returns ErrDirtyWorkTree when the tree is dirty, unless the
// config allows it.
func (r *Repo) CheckClean() error {
	if r.cfg.AllowDirty {
		return nil
	}
	dirty, err := r.IsDirty()
	if err != nil {
		return err
	}
	if dirty {
		return ErrDirtyWorkTree
	}
	return nil
}

// IsDntCommit reports whether HEAD carries the go-dnt trailer.
func (r *Repo) IsDntCommit() (bool, error) {
	commit, err := r.head()
	if err != nil {
		return false, err
	}
	return strings.Contains(commit.Message, generatedTrailer), nil
}

func (r *Repo) head() (*object.Commit, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting commit: %w", err)
	}
	return commit, nil
}
