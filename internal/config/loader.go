// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// defaults holds the value of every setting left unset by both the config
// file and the environment.
var defaults = map[string]any{
	"scene.device_scale_factor": DefaultDeviceScaleFactor,
	"scene.page_scale_factor":   DefaultPageScaleFactor,
	"output.format":             DefaultFormat,
	"trees.mode":                DefaultMode,
	"trees.metrics":             DefaultMetrics,
	"trees.scale_contents":      DefaultScaleContents,
	"log.level":                 DefaultLogLevel,
}

// LoadConfig reads the ptdump settings. path names the config file; when
// it is empty .ptdump.yaml is looked up in the working directory, then in
// the home directory, and finding none leaves the defaults in place.
// PTDUMP_ variables override the file: PTDUMP_TREES_MODE sets trees.mode.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	if err := readFile(v, path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PTDUMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readFile loads path into v, or the first .ptdump.yaml on the search
// path when path is empty. Only a missing searched file is tolerated.
func readFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(".ptdump")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	var notFound viper.ConfigFileNotFoundError
	switch err := v.ReadInConfig(); {
	case errors.As(err, &notFound):
		return nil
	case err != nil:
		return fmt.Errorf("config: read: %w", err)
	}
	return nil
}
