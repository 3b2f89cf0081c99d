// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/proptree/geom"
)

// formatter renders tree data as text tables.
type formatter struct {
	p *message.Printer
}

func newFormatter() *formatter {
	return &formatter{p: message.NewPrinter(language.English)}
}

func (f *formatter) newTable(title string, header table.Row) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(header)
	return tbl
}

func (f *formatter) num(v float64) string {
	return f.p.Sprintf("%.4g", v)
}

func (f *formatter) count(n int) string {
	return f.p.Sprintf("%d", n)
}

func (f *formatter) vector(v geom.Vector2D) string {
	return f.p.Sprintf("(%.4g, %.4g)", v.X, v.Y)
}

func (f *formatter) offset(o geom.ScrollOffset) string {
	return f.p.Sprintf("(%.4g, %.4g)", o.X, o.Y)
}

func (f *formatter) size(s geom.Size) string {
	return f.p.Sprintf("%dx%d", s.W, s.H)
}

func (f *formatter) rectF(r geom.RectF) string {
	return f.p.Sprintf("(%.4g, %.4g) %.4gx%.4g", r.X, r.Y, r.W, r.H)
}

func (f *formatter) rect(r geom.Rect) string {
	return f.p.Sprintf("(%d, %d) %dx%d", r.X, r.Y, r.W, r.H)
}

// transform summarizes a matrix by its translation and 2d scale. Matrices
// that are not a scale and translation are marked.
func (f *formatter) transform(m geom.Transform) string {
	if m.IsIdentity() {
		return "identity"
	}
	t := m.To2dTranslation()
	var parts []string
	if !m.IsIdentityOrTranslation() {
		s := m.Scale2dComponents(0)
		parts = append(parts, f.p.Sprintf("scale(%.4g, %.4g)", s.X, s.Y))
	}
	if !t.IsZero() {
		parts = append(parts, f.p.Sprintf("translate(%.4g, %.4g)", t.X, t.Y))
	}
	if !m.IsScaleOrTranslation() {
		parts = append(parts, "*")
	}
	if len(parts) == 0 {
		return "identity"
	}
	return strings.Join(parts, " ")
}

func (f *formatter) id(n int) string {
	if n < 0 {
		return "-"
	}
	return f.count(n)
}

// flag is a named boolean column value.
type flag struct {
	name string
	set  bool
}

// flags joins the names of the set flags.
func flags(fs ...flag) string {
	var names []string
	for _, fl := range fs {
		if fl.set {
			names = append(names, fl.name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
