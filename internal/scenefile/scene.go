// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenefile reads layer scenes from YAML and builds property trees
// from them.
//
// A scene is a tree of layers below an implicit contents root:
//
//	device_scale_factor: 2
//	viewport: [0, 0, 800, 600]
//	layers:
//	  - id: 1
//	    position: [10, 20]
//	    bounds: [200, 100]
//	    transform:
//	      - rotate: 45
//	    opacity: 0.5
//	    render_surface: true
//	    children:
//	      - id: 2
//	        bounds: [50, 50]
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for scene validation.
var (
	// ErrDuplicateLayerID indicates two layers share an id.
	ErrDuplicateLayerID = errors.New("scenefile: duplicate layer id")
	// ErrInvalidLayerID indicates a layer id that is not positive.
	ErrInvalidLayerID = errors.New("scenefile: layer id must be positive")
	// ErrInvalidOpacity indicates an opacity outside [0, 1].
	ErrInvalidOpacity = errors.New("scenefile: opacity must be between 0 and 1")
	// ErrInvalidScale indicates a non-positive scale factor.
	ErrInvalidScale = errors.New("scenefile: scale factors must be positive")
	// ErrInvalidTransformOp indicates a transform entry with zero or
	// several operations.
	ErrInvalidTransformOp = errors.New("scenefile: transform entry must hold exactly one operation")
	// ErrUnknownFilter indicates an unsupported filter name.
	ErrUnknownFilter = errors.New("scenefile: unknown filter")
)

// Vec2 is an [x, y] pair.
type Vec2 [2]float64

// Scene is the root of a scene file.
type Scene struct {
	// DeviceScaleFactor and PageScaleFactor override the configured
	// defaults when set.
	DeviceScaleFactor *float64 `yaml:"device_scale_factor"`
	PageScaleFactor   *float64 `yaml:"page_scale_factor"`
	// DeviceTransform is applied above the contents root.
	DeviceTransform []TransformOp `yaml:"device_transform"`
	// Viewport is the [x, y, width, height] viewport clip.
	Viewport [4]float64 `yaml:"viewport"`
	// InnerViewportContainerBoundsDelta is the browser controls delta.
	InnerViewportContainerBoundsDelta Vec2 `yaml:"inner_viewport_container_bounds_delta"`
	OuterViewportContainerBoundsDelta Vec2 `yaml:"outer_viewport_container_bounds_delta"`

	Layers []Layer `yaml:"layers"`
}

// Layer describes one layer and its subtree.
type Layer struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`

	// Position is the offset from the parent layer's origin.
	Position Vec2 `yaml:"position"`
	Bounds   Vec2 `yaml:"bounds"`
	// TransformOrigin is the point Transform is applied around.
	TransformOrigin Vec2          `yaml:"transform_origin"`
	Transform       []TransformOp `yaml:"transform"`
	// Flatten defaults to true.
	Flatten        *bool `yaml:"flatten"`
	SortingContext int   `yaml:"sorting_context"`
	// PageScale puts the layer and its subtree under page scale.
	PageScale bool `yaml:"page_scale"`
	// Fixed positions the layer relative to the contents root instead of
	// its parent.
	Fixed bool `yaml:"fixed"`
	// FixedToRight and FixedToBottom make a fixed layer follow the outer
	// viewport bounds delta.
	FixedToRight  bool `yaml:"fixed_to_right"`
	FixedToBottom bool `yaml:"fixed_to_bottom"`

	Opacity       *float64 `yaml:"opacity"`
	Hidden        bool     `yaml:"hidden"`
	RenderSurface bool     `yaml:"render_surface"`
	// DoubleSided defaults to true.
	DoubleSided       *bool    `yaml:"double_sided"`
	Filters           []Filter `yaml:"filters"`
	BackgroundFilters []Filter `yaml:"background_filters"`
	// CopyRequest queues a copy of the layer's surface.
	CopyRequest *CopyRequest `yaml:"copy_request"`

	MasksToBounds bool    `yaml:"masks_to_bounds"`
	Scroll        *Scroll `yaml:"scroll"`

	Animation *Animation `yaml:"animation"`

	Children []Layer `yaml:"children"`
}

// TransformOp is a single transform operation. Exactly one field is set.
type TransformOp struct {
	Translate   *Vec2    `yaml:"translate"`
	Scale       *Vec2    `yaml:"scale"`
	Rotate      *float64 `yaml:"rotate"`
	RotateX     *float64 `yaml:"rotate_x"`
	RotateY     *float64 `yaml:"rotate_y"`
	Perspective *float64 `yaml:"perspective"`
}

func (op TransformOp) count() int {
	n := 0
	for _, set := range []bool{
		op.Translate != nil, op.Scale != nil, op.Rotate != nil,
		op.RotateX != nil, op.RotateY != nil, op.Perspective != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Filter is a named filter with its amount.
type Filter struct {
	Type   string  `yaml:"type"`
	Amount float64 `yaml:"amount"`
}

// CopyRequest asks for a copy of the layer's surface. Area is an optional
// [x, y, width, height] rect in layer space.
type CopyRequest struct {
	Area []int `yaml:"area"`
}

// Scroll makes the layer a scroller over content of the given size.
type Scroll struct {
	Content Vec2 `yaml:"content"`
	Offset  Vec2 `yaml:"offset"`
	// Horizontal and Vertical default to true.
	Horizontal *bool `yaml:"horizontal"`
	Vertical   *bool `yaml:"vertical"`
	// InnerViewport and OuterViewport mark the viewport scrollers.
	InnerViewport bool `yaml:"inner_viewport"`
	OuterViewport bool `yaml:"outer_viewport"`
}

// Animation describes the running animations of a layer.
type Animation struct {
	// Translate marks a translation-only transform animation.
	Translate bool `yaml:"translate"`
	// MaxScale and StartScale describe a scale animation.
	MaxScale   *float64 `yaml:"max_scale"`
	StartScale *float64 `yaml:"start_scale"`
	// Opacity marks an opacity animation.
	Opacity bool `yaml:"opacity"`
}

func (a *Animation) transform() bool {
	return a != nil && (a.Translate || a.MaxScale != nil || a.StartScale != nil)
}

func (a *Animation) scale() bool {
	return a != nil && (a.MaxScale != nil || a.StartScale != nil)
}

// Load reads and validates the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a scene. Unknown keys are rejected.
func Parse(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scene
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks layer ids, opacities, scales, transforms and filters.
func (s *Scene) Validate() error {
	if s.DeviceScaleFactor != nil && *s.DeviceScaleFactor <= 0 {
		return ErrInvalidScale
	}
	if s.PageScaleFactor != nil && *s.PageScaleFactor <= 0 {
		return ErrInvalidScale
	}
	if err := validateOps(s.DeviceTransform); err != nil {
		return err
	}
	seen := make(map[int]bool)
	return walk(s.Layers, func(l *Layer) error {
		if l.ID <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidLayerID, l.ID)
		}
		if seen[l.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateLayerID, l.ID)
		}
		seen[l.ID] = true
		if l.Opacity != nil && (*l.Opacity < 0 || *l.Opacity > 1) {
			return fmt.Errorf("layer %d: %w", l.ID, ErrInvalidOpacity)
		}
		if err := validateOps(l.Transform); err != nil {
			return fmt.Errorf("layer %d: %w", l.ID, err)
		}
		for _, f := range slices.Concat(l.Filters, l.BackgroundFilters) {
			if _, ok := filterTypes[f.Type]; !ok {
				return fmt.Errorf("layer %d: %w %q", l.ID, ErrUnknownFilter, f.Type)
			}
		}
		return nil
	})
}

func validateOps(ops []TransformOp) error {
	for _, op := range ops {
		if op.count() != 1 {
			return ErrInvalidTransformOp
		}
	}
	return nil
}

// walk visits layers in pre-order.
func walk(layers []Layer, fn func(*Layer) error) error {
	for i := range layers {
		if err := fn(&layers[i]); err != nil {
			return err
		}
		if err := walk(layers[i].Children, fn); err != nil {
			return err
		}
	}
	return nil
}

// LayerCount returns the number of layers in the scene.
func (s *Scene) LayerCount() int {
	n := 0
	_ = walk(s.Layers, func(*Layer) error {
		n++
		return nil
	})
	return n
}
