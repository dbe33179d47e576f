// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	gitpkg "github.com/petar-djukic/go-dnt/internal/git"
	"github.com/petar-djukic/go-dnt/internal/writer"
	"github.com/petar-djukic/go-dnt/pkg/dnt"
	"github.com/petar-djukic/go-dnt/pkg/types"
)

// buildReport is printed as JSON after a build.
type buildReport struct {
	Main         []string           `json:"mainEntryPoints"`
	Test         []string           `json:"testEntryPoints,omitempty"`
	Files        int                `json:"files"`
	Written      []string           `json:"written"`
	Dependencies []types.Dependency `json:"dependencies"`
	ShimUsed     bool               `json:"shimUsed"`
	Warnings     []string           `json:"warnings"`
	Commit       string             `json:"commit,omitempty"`
	DryRun       bool               `json:"dryRun,omitempty"`
}

// newBuildCmd creates the "build" command.
func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [entry...]",
		Short: "Transform entry points into the output directory",
		Long:  "Build loads every module reachable from the entry points, rewrites module specifiers for Node and writes the result to the output directory.",
		RunE:  runBuild,
	}

	cmd.Flags().StringSliceP("entry", "e", nil, "Entry point path or URL (repeatable)")
	cmd.Flags().StringSliceP("test-entry", "t", nil, "Test entry point path or URL (repeatable)")
	cmd.Flags().String("shim-package", dnt.DefaultShimPackage, "Package imported in place of the Deno global")
	cmd.Flags().Bool("no-shim", false, "Leave the Deno global untouched")
	cmd.Flags().StringSlice("map", nil, "Map a module to a package: <specifier>=<name>[@<version>] (repeatable)")
	cmd.Flags().Int("concurrency", 0, "Parallel loads and rewrites (default number of CPUs)")
	cmd.Flags().Bool("dry-run", false, "Print a diff instead of writing files")
	cmd.Flags().Bool("commit", false, "Commit written files to the output repository")
	cmd.Flags().Bool("force", false, "Write into an output repository with uncommitted changes")

	for _, name := range []string{"entry", "test-entry", "shim-package", "no-shim", "concurrency", "dry-run", "commit", "force"} {
		viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

// runBuild executes the build command.
func runBuild(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	flagMaps, _ := cmd.Flags().GetStringSlice("map")
	mappings, err := parseMappings(viper.GetStringSlice("mappings"), flagMaps)
	if err != nil {
		return err
	}

	opts := dnt.Options{
		EntryPoints:     append(viper.GetStringSlice("entry"), args...),
		TestEntryPoints: viper.GetStringSlice("test-entry"),
		ShimPackageName: viper.GetString("shim-package"),
		NoShim:          viper.GetBool("no-shim"),
		Mappings:        mappings,
		Concurrency:     viper.GetInt("concurrency"),
		Logger:          logger,
	}
	t, err := dnt.New(opts)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	out, err := t.Transform(ctx)
	if err != nil {
		return err
	}

	files := append(append([]types.OutputFile(nil), out.Main.Files...), out.Test.Files...)
	report := buildReport{
		Main:         out.Main.EntryPoints,
		Test:         out.Test.EntryPoints,
		Files:        len(files),
		Dependencies: out.Main.Dependencies,
		ShimUsed:     out.Main.ShimUsed || out.Test.ShimUsed,
		Warnings:     out.Warnings,
	}
	outDir := viper.GetString("out")

	if viper.GetBool("dry-run") {
		report.DryRun = true
		if err := printDiff(outDir, files); err != nil {
			return err
		}
		return printReport(report)
	}

	repo, err := openOutputRepo(outDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	report.Written, err = writer.Write(outDir, files)
	if err != nil {
		return err
	}
	logger.Info("wrote output", "dir", outDir, "files", len(report.Written))

	if repo != nil && viper.GetBool("commit") {
		report.Commit, err = repo.Commit(gitpkg.Summary{
			EntryPoints:  out.Main.EntryPoints,
			Files:        report.Written,
			Dependencies: out.Main.Dependencies,
			Warnings:     len(out.Warnings),
		})
		if err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}
	}
	return printReport(report)
}

// openOutputRepo opens the output directory's repository and refuses a
// dirty tree unless --force. It returns nil when the directory is not a
// repository and no commit was requested.
func openOutputRepo(outDir string) (*gitpkg.Repo, error) {
	repo, err := gitpkg.Open(gitpkg.Config{WorkDir: outDir, AllowDirty: viper.GetBool("force")})
	if errors.Is(err, gitpkg.ErrNoGit) {
		if viper.GetBool("commit") {
			return nil, fmt.Errorf("--commit: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := repo.CheckClean(); err != nil {
		return nil, fmt.Errorf("%w (use --force to write anyway)", err)
	}
	return repo, nil
}

// parseMappings parses <specifier>=<name>[@<version>] entries from the
// mappings config key and then the --map flags, so flags win.
func parseMappings(config, flags []string) (map[string]types.MappedSpecifier, error) {
	out := make(map[string]types.MappedSpecifier, len(config)+len(flags))
	for _, f := range append(append([]string(nil), config...), flags...) {
		i := strings.LastIndex(f, "=")
		if i <= 0 || i == len(f)-1 {
			return nil, fmt.Errorf("invalid mapping %q: want <specifier>=<name>[@<version>]", f)
		}
		out[f[:i]] = parsePackage(f[i+1:])
	}
	return out, nil
}

// parsePackage splits name@version at the last @ that does not start a
// scoped package name.
func parsePackage(s string) types.MappedSpecifier {
	if i := strings.LastIndex(s, "@"); i > 0 {
		return types.MappedSpecifier{Name: s[:i], Version: s[i+1:]}
	}
	return types.MappedSpecifier{Name: s}
}

func printDiff(outDir string, files []types.OutputFile) error {
	diffs, err := writer.Diff(outDir, files)
	if err != nil {
		return err
	}
	for _, d := range diffs {
		if d.Status == writer.Unchanged {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s %s (+%d -%d)\n", d.Status, d.Path, d.Added, d.Removed)
		fmt.Fprint(os.Stderr, d.Patch)
	}
	return nil
}

// printReport outputs the report as JSON to stdout.
func printReport(r buildReport) error {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// newUndoCmd creates the "undo" command.
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last go-dnt commit in the output directory",
		Long:  "Undo performs a soft reset of the output repository's last commit if it was made by go-dnt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := gitpkg.Open(gitpkg.Config{WorkDir: viper.GetString("out")})
			if err != nil {
				return fmt.Errorf("opening repository: %w", err)
			}
			if err := repo.Undo(); err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}
			fmt.Println("Reverted last go-dnt commit.")
			return nil
		},
	}
}
