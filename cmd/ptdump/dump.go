// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gogpu/proptree"
	"github.com/gogpu/proptree/internal/config"
)

func newDumpCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <scene.yaml>",
		Short: "Print the property trees of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g, args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			return runDump(s, cmd.OutOrStdout())
		},
	}
}

func runDump(s *session, w io.Writer) error {
	if s.cfg.Output.Format == config.FormatJSON {
		_, err := fmt.Fprintln(w, s.trees.AsTracedValue())
		return err
	}

	f := newFormatter()
	sections := []func(*proptree.PropertyTrees) (string, error){
		f.transformTable,
		f.effectTable,
		f.clipTable,
		f.scrollTable,
		f.surfaceTable,
		f.copyRequestTable,
	}

	parts := []string{f.summary(s)}
	for _, section := range sections {
		out, err := section(s.trees)
		if err != nil {
			return err
		}
		if out != "" {
			parts = append(parts, out)
		}
	}
	if s.registry != nil {
		out, err := f.metricsTable(s.registry)
		if err != nil {
			return err
		}
		parts = append(parts, out)
	}

	_, err := fmt.Fprintln(w, strings.Join(parts, "\n\n"))
	return err
}

func (f *formatter) summary(s *session) string {
	pt := s.trees
	return f.p.Sprintf("%s trees, sequence %d: %d layers, %d transform, %d effect, %d clip, %d scroll nodes",
		pt.Mode(), pt.SequenceNumber, s.scene.LayerCount(),
		pt.TransformTree.Size(), pt.EffectTree.Size(), pt.ClipTree.Size(), pt.ScrollTree.Size())
}

func (f *formatter) transformTable(pt *proptree.PropertyTrees) (string, error) {
	tt := &pt.TransformTree
	tbl := f.newTable("Transform tree", table.Row{
		"ID", "Parent", "Owner", "Local", "To screen", "Scale", "Target", "Animation scale", "Flags",
	})

	for i := range tt.Size() {
		n := tt.Node(i)
		scales, err := pt.GetAnimationScales(i)
		if err != nil {
			return "", err
		}
		tbl.AppendRow(table.Row{
			i, f.id(n.ParentID), f.id(n.OwnerID),
			f.transform(n.Local),
			f.transform(tt.ToScreen(i)),
			f.vector(n.SurfaceContentsScale),
			f.id(tt.TargetID(i)),
			f.num(scales.CombinedMaximumAnimationTargetScale),
			flags(
				flag{"flattens", n.FlattensInheritedTransform},
				flag{"flat", n.NodeAndAncestorsAreFlat},
				flag{"invertible", n.IsInvertible && n.AncestorsAreInvertible},
				flag{"scrolls", n.Scrolls},
				flag{"page-scale", n.InSubtreeOfPageScaleLayer},
				flag{"surface", n.NeedsSurfaceContentsScale},
				flag{"animated", n.HasPotentialAnimation},
				flag{"changed", n.TransformChanged},
			),
		})
	}
	return tbl.Render(), nil
}

func (f *formatter) effectTable(pt *proptree.PropertyTrees) (string, error) {
	et := &pt.EffectTree
	tbl := f.newTable("Effect tree", table.Row{
		"ID", "Parent", "Owner", "Opacity", "Screen opacity", "Transform", "Clip", "Target", "Scale", "Copies", "Flags",
	})

	for i := range et.Size() {
		n := et.Node(i)
		tbl.AppendRow(table.Row{
			i, f.id(n.ParentID), f.id(n.OwnerID),
			f.num(n.Opacity), f.num(n.ScreenSpaceOpacity),
			f.id(n.TransformID), f.id(n.ClipID), f.id(n.TargetID),
			f.vector(n.SurfaceContentsScale),
			f.count(n.NumCopyRequestsInSubtree),
			flags(
				flag{"drawn", n.IsDrawn},
				flag{"surface", n.HasRenderSurface},
				flag{"hidden", n.SubtreeHidden},
				flag{"backface-hidden", n.HiddenByBackfaceVisibility},
				flag{"filters", len(n.Filters)+len(n.BackgroundFilters) > 0},
				flag{"changed", n.EffectChanged},
			),
		})
	}
	return tbl.Render(), nil
}

func (f *formatter) clipTable(pt *proptree.PropertyTrees) (string, error) {
	ct := &pt.ClipTree
	tbl := f.newTable("Clip tree", table.Row{"ID", "Parent", "Owner", "Clip", "Transform", "Target"})

	for i := range ct.Size() {
		n := ct.Node(i)
		tbl.AppendRow(table.Row{
			i, f.id(n.ParentID), f.id(n.OwnerID), f.rectF(n.Clip), f.id(n.TransformID), f.id(n.TargetID),
		})
	}
	return tbl.Render(), nil
}

func (f *formatter) scrollTable(pt *proptree.PropertyTrees) (string, error) {
	st := &pt.ScrollTree
	tbl := f.newTable("Scroll tree", table.Row{
		"ID", "Parent", "Owner", "Content", "Container", "Offset", "Max offset", "Transform", "Flags",
	})

	for i := range st.Size() {
		n := st.Node(i)
		limit, err := st.MaxScrollOffset(i)
		if err != nil {
			return "", err
		}
		container, err := st.ScrollClipLayerBounds(i)
		if err != nil {
			return "", err
		}
		tbl.AppendRow(table.Row{
			i, f.id(n.ParentID), f.id(n.OwnerID),
			f.size(n.Bounds), f.size(container),
			f.offset(st.CurrentScrollOffset(n.OwnerID)), f.offset(limit),
			f.id(n.TransformID),
			flags(
				flag{"scrollable", n.Scrollable},
				flag{"x", n.UserScrollableHorizontal},
				flag{"y", n.UserScrollableVertical},
				flag{"inner", n.IsInnerViewportScrollLayer},
				flag{"outer", n.IsOuterViewportScrollLayer},
				flag{"page-scale", n.MaxScrollOffsetAffectedByPageScale},
			),
		})
	}
	tbl.AppendFooter(table.Row{"", "", "", "", "", "", "", "scrolling", f.id(st.CurrentlyScrollingNodeID())})
	return tbl.Render(), nil
}

// surfaceTable lists the draw transforms of every render surface into the
// surface it draws into.
func (f *formatter) surfaceTable(pt *proptree.PropertyTrees) (string, error) {
	et := &pt.EffectTree
	tbl := f.newTable("Render surfaces", table.Row{"Effect", "Target effect", "To target", "Invertible"})

	rows := 0
	for i := proptree.ContentsRootNodeID + 1; i < et.Size(); i++ {
		n := et.Node(i)
		if !n.HasRenderSurface {
			continue
		}
		dt, err := pt.GetDrawTransforms(n.TransformID, n.TargetID)
		if err != nil {
			return "", err
		}
		tbl.AppendRow(table.Row{i, n.TargetID, f.transform(dt.ToTarget), dt.Invertible})
		rows++
	}
	if rows == 0 {
		return "", nil
	}
	return tbl.Render(), nil
}

// copyRequestTable takes the queued copy requests and fulfills them with
// their surface space areas.
func (f *formatter) copyRequestTable(pt *proptree.PropertyTrees) (string, error) {
	et := &pt.EffectTree
	if !et.HasCopyRequests() {
		return "", nil
	}
	tbl := f.newTable("Copy requests", table.Row{"Effect", "Owner", "Area"})

	for i := range et.Size() {
		n := et.Node(i)
		if et.CopyRequestCount(i) == 0 || !n.HasRenderSurface {
			continue
		}
		reqs, err := et.TakeCopyRequestsAndTransformToSurface(i)
		if err != nil {
			return "", err
		}
		for _, r := range reqs {
			area, ok := r.Area()
			label := "surface"
			if ok {
				label = f.rect(area)
			}
			tbl.AppendRow(table.Row{i, f.id(n.OwnerID), label})
			r.SendResult(proptree.CopyOutputResult{Area: area})
		}
	}
	return tbl.Render(), nil
}

// metricsTable renders counters and histogram sample counts gathered from
// reg.
func (f *formatter) metricsTable(reg *prometheus.Registry) (string, error) {
	families, err := reg.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}
	tbl := f.newTable("Metrics", table.Row{"Name", "Labels", "Value"})

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			var pairs []string
			for _, k := range slices.Sorted(maps.Keys(labels)) {
				pairs = append(pairs, k+"="+labels[k])
			}

			var value string
			switch {
			case m.GetCounter() != nil:
				value = f.num(m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				value = f.p.Sprintf("%d samples, %.3gs", h.GetSampleCount(), h.GetSampleSum())
			default:
				continue
			}
			tbl.AppendRow(table.Row{mf.GetName(), strings.Join(pairs, " "), value})
		}
	}
	return tbl.Render(), nil
}
