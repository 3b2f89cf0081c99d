// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads ptdump settings from file, environment and
// defaults.
package config

import "errors"

// Output formats understood by ptdump.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Tree instance roles accepted by the mode setting.
const (
	ModeMain    = "main"
	ModePending = "pending"
	ModeActive  = "active"
)

// Defaults.
const (
	DefaultDeviceScaleFactor = 1.0
	DefaultPageScaleFactor   = 1.0
	DefaultFormat            = FormatTable
	DefaultMode              = ModeMain
	DefaultLogLevel          = "warn"
	DefaultMetrics           = false
	DefaultScaleContents     = true
)

// Config is the top-level configuration struct for ptdump.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Scene  SceneConfig  `mapstructure:"scene"`
	Output OutputConfig `mapstructure:"output"`
	Trees  TreesConfig  `mapstructure:"trees"`
	Log    LogConfig    `mapstructure:"log"`
}

// SceneConfig holds the root scale factors applied to loaded scenes. A
// scene file may override them.
type SceneConfig struct {
	DeviceScaleFactor float64 `mapstructure:"device_scale_factor"`
	PageScaleFactor   float64 `mapstructure:"page_scale_factor"`
}

// OutputConfig selects how trees are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// TreesConfig holds PropertyTrees options.
type TreesConfig struct {
	Mode          string `mapstructure:"mode"`
	Metrics       bool   `mapstructure:"metrics"`
	ScaleContents bool   `mapstructure:"scale_contents"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidDeviceScaleFactor indicates a non-positive device scale factor.
	ErrInvalidDeviceScaleFactor = errors.New("scene.device_scale_factor must be positive")
	// ErrInvalidPageScaleFactor indicates a non-positive page scale factor.
	ErrInvalidPageScaleFactor = errors.New("scene.page_scale_factor must be positive")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be table or json")
	// ErrInvalidMode indicates an unknown tree instance role.
	ErrInvalidMode = errors.New("trees.mode must be main, pending or active")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log.level must be debug, info, warn or error")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Scene.DeviceScaleFactor <= 0 {
		return ErrInvalidDeviceScaleFactor
	}

	if c.Scene.PageScaleFactor <= 0 {
		return ErrInvalidPageScaleFactor
	}

	switch c.Output.Format {
	case FormatTable, FormatJSON:
	default:
		return ErrInvalidFormat
	}

	switch c.Trees.Mode {
	case ModeMain, ModePending, ModeActive:
	default:
		return ErrInvalidMode
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}
