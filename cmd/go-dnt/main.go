// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command go-dnt converts a Deno module graph into a source tree that Node
// can resolve.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "go-dnt",
		Short:         "Deno to Node source transform",
		Long:          "go-dnt loads a Deno module graph from its entry points and writes an equivalent tree of files addressed by relative paths and npm package names.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("out", "o", "npm", "Output directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")
	viper.BindPFlag("out", rootCmd.PersistentFlags().Lookup("out"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Env vars: GO_DNT_OUT, GO_DNT_SHIM_PACKAGE, etc.
	viper.SetEnvPrefix("GO_DNT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".go-dnt")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		newLogger().Error(err)
		os.Exit(1)
	}
}

// newLogger returns the stderr logger, at debug level with --verbose.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "go-dnt"})
	if viper.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print go-dnt version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("go-dnt %s\n", version)
		},
	}
}
