// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

func newTraceCommand(g *globalFlags) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "trace <scene.yaml>",
		Short: "Print the traced value of the property trees",
		Long: `Print the property trees as a traced JSON value. With --query only the
values matching the JSONPath expression are printed, for example

  ptdump trace scene.yaml --query '$.effect_tree.nodes[?(@.has_render_surface == true)].id'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			return runTrace(s, query, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "JSONPath expression selecting part of the trace")

	return cmd
}

func runTrace(s *session, query string, w io.Writer) error {
	if query == "" {
		_, err := fmt.Fprintln(w, s.trees.AsTracedValue())
		return err
	}

	results, err := s.trees.QueryTrace(query)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, oj.JSON(results, &oj.Options{Indent: 2, Sort: true}))
	return err
}
