// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package writer persists output files under an output directory and
// previews the changes a write would make.
package writer

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/petar-djukic/go-dnt/pkg/types"
)

// ErrUnsafePath is returned for output paths that leave the output
// directory.
var ErrUnsafePath = errors.New("output path escapes output directory")

// Write writes every file under outDir, creating directories as needed.
// Files whose content on disk is already identical are left alone. It
// returns the paths that were written, in input order.
func Write(outDir string, files []types.OutputFile) ([]string, error) {
	var written []string
	for _, f := range files {
		target, err := targetPath(outDir, f.Path)
		if err != nil {
			return written, err
		}
		existing, err := os.ReadFile(target)
		if err == nil && bytes.Equal(existing, []byte(f.Text)) {
			continue
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return written, fmt.Errorf("reading %s: %w", target, err)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", f.Path, err)
		}
		if err := atomicWrite(target, []byte(f.Text)); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.Path, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}

// targetPath joins a POSIX output path onto outDir.
func targetPath(outDir, p string) (string, error) {
	clean := path.Clean(p)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, p)
	}
	return filepath.Join(outDir, filepath.FromSlash(clean)), nil
}

// atomicWrite writes data to a temp file in the same directory, then renames
// it to the target path.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	// Preserve original file permissions if the file exists.
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	f, err := os.CreateTemp(dir, ".go-dnt-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
