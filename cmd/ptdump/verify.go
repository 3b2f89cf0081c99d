// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/gogpu/proptree"
)

// ErrVerifyFailed is returned when at least one verification check fails.
var ErrVerifyFailed = errors.New("verification failed")

func newVerifyCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <scene.yaml>",
		Short: "Check encoding and commit round trips of a scene's trees",
		Long: `Build the scene on a main-thread instance and check that

  - the binary encoding decodes into an equal instance,
  - the traced value is valid JSON,
  - committing to a pending instance copies every tree and scroll offset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			return runVerify(s, cmd.OutOrStdout())
		},
	}
}

// check is one verification result.
type check struct {
	name string
	err  error
}

func runVerify(s *session, w io.Writer) error {
	var checks []check
	checks = append(checks, verifyEncoding(s)...)
	checks = append(checks, verifyTrace(s))
	checks = append(checks, verifyCommit(s)...)

	f := newFormatter()
	tbl := f.newTable("Verify", table.Row{"Check", "Result"})
	failed := 0
	for _, c := range checks {
		result := "ok"
		if c.err != nil {
			result = c.err.Error()
			failed++
		}
		tbl.AppendRow(table.Row{c.name, result})
	}
	tbl.AppendFooter(table.Row{"failed", f.count(failed)})

	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d checks", ErrVerifyFailed, failed, len(checks))
	}
	return nil
}

func equalCheck(name string, equal bool) check {
	if equal {
		return check{name: name}
	}
	return check{name: name, err: errors.New("instances differ")}
}

// verifyEncoding round trips the main instance and each of its trees
// through the binary encoding.
func verifyEncoding(s *session) []check {
	src := s.main
	data, err := src.MarshalTLS()
	if err != nil {
		return []check{{name: "encode", err: err}}
	}
	dst := s.newTrees(proptree.ModeMain)
	n, err := dst.UnmarshalTLS(data)
	switch {
	case err != nil:
		return []check{{name: "decode", err: err}}
	case n != len(data):
		return []check{{name: "decode", err: fmt.Errorf("read %d of %d bytes", n, len(data))}}
	}

	checks := []check{equalCheck("encoding: property trees", dst.Equal(src))}
	checks = append(checks, treeRoundTrip("encoding: transform tree", &src.TransformTree, proptree.NewTransformTree(),
		(*proptree.TransformTree).Equal))
	checks = append(checks, treeRoundTrip("encoding: effect tree", &src.EffectTree, proptree.NewEffectTree(),
		(*proptree.EffectTree).Equal))
	checks = append(checks, treeRoundTrip("encoding: clip tree", &src.ClipTree, proptree.NewClipTree(),
		(*proptree.ClipTree).Equal))
	checks = append(checks, treeRoundTrip("encoding: scroll tree", &src.ScrollTree, proptree.NewScrollTree(),
		(*proptree.ScrollTree).Equal))
	return checks
}

type tlsCodec interface {
	MarshalTLS() ([]byte, error)
	UnmarshalTLS(data []byte) (int, error)
}

func treeRoundTrip[T tlsCodec](name string, src, dst T, equal func(T, T) bool) check {
	data, err := src.MarshalTLS()
	if err != nil {
		return check{name: name, err: err}
	}
	if _, err := dst.UnmarshalTLS(data); err != nil {
		return check{name: name, err: err}
	}
	return equalCheck(name, equal(src, dst))
}

func verifyTrace(s *session) check {
	const name = "trace: valid json"
	v, err := oj.ParseString(s.trees.AsTracedValue())
	if err != nil {
		return check{name: name, err: err}
	}
	if _, ok := v.(map[string]any); !ok {
		return check{name: name, err: fmt.Errorf("trace is %T, want object", v)}
	}
	return check{name: name}
}

// verifyCommit copies the main instance into a fresh pending instance and
// compares trees and scroll offsets.
func verifyCommit(s *session) []check {
	pending := s.newTrees(proptree.ModePending)
	pending.CopyFrom(s.main)

	checks := []check{
		equalCheck("commit: transform tree", pending.TransformTree.Equal(&s.main.TransformTree)),
		equalCheck("commit: effect tree", pending.EffectTree.Equal(&s.main.EffectTree)),
		equalCheck("commit: clip tree", pending.ClipTree.Equal(&s.main.ClipTree)),
		equalCheck("commit: scroll nodes", pending.ScrollTree.PropertyTree.Equal(&s.main.ScrollTree.PropertyTree)),
	}

	if err := pending.ScrollTree.PushScrollUpdatesFromMainThread(s.main, nil); err != nil {
		return append(checks, check{name: "commit: scroll offsets", err: err})
	}
	var mismatch error
	for _, owner := range slices.Sorted(maps.Keys(s.main.ScrollIDToIndex)) {
		want := s.main.ScrollTree.CurrentScrollOffset(owner)
		if got := pending.ScrollTree.CurrentScrollOffset(owner); got != want {
			mismatch = fmt.Errorf("layer %d: offset %v, want %v", owner, got, want)
			break
		}
	}
	return append(checks, check{name: "commit: scroll offsets", err: mismatch})
}
