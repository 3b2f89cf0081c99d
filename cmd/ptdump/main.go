// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command ptdump builds property trees from a YAML scene and prints them.
//
// Usage:
//
//	ptdump dump scene.yaml
//	ptdump trace scene.yaml --query '$.transform_tree.cached_data[*].to_screen'
//	ptdump verify scene.yaml
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/proptree"
)

// globalFlags are the persistent flags shared by all commands. Empty
// values leave the configured settings untouched.
type globalFlags struct {
	configPath string
	format     string
	mode       string
	verbose    bool
}

func main() {
	err := newRootCommand(os.Stdout, os.Stderr).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "ptdump",
		Short: "Inspect compositor property trees built from scene files",
		Long: `ptdump builds transform, effect, clip and scroll trees from a YAML
layer scene and prints them.

Commands:
  dump      Print the trees as tables or JSON
  trace     Print the traced value, optionally filtered by a JSONPath query
  verify    Check binary encoding and commit round trips`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (default: ./.ptdump.yaml or ~/.ptdump.yaml)")
	rootCmd.PersistentFlags().StringVarP(&g.format, "format", "f", "", "output format: table, json")
	rootCmd.PersistentFlags().StringVarP(&g.mode, "mode", "m", "", "tree instance to inspect: main, pending, active")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newDumpCommand(g))
	rootCmd.AddCommand(newTraceCommand(g))
	rootCmd.AddCommand(newVerifyCommand(g))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ptdump %s\n", proptree.Version)
		},
	}
}
