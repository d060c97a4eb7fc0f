// TCMINE: Traditional Chinese Medicine Pattern Mining
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ptra/blob/master/LICENSE.txt>.

// Package config loads the tcmine run configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "TCMINE_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // console, json
}

// RecordsConfig configures how HIS records are turned into transactions.
type RecordsConfig struct {
	Encoding    string   `koanf:"encoding"`     // utf-8 or gb18030
	MinCount    int      `koanf:"min_count"`    // elements in fewer transactions are removed
	MaxFraction float64  `koanf:"max_fraction"` // elements in a larger fraction of transactions are removed
	Noise       []string `koanf:"noise"`        // tokens removed from the symptom and herb columns
	Sample      int      `koanf:"sample"`       // nr of transactions to sample, 0 for all
}

// PatternsConfig configures how frequent patterns are parsed and filtered.
type PatternsConfig struct {
	Format     string `koanf:"format"` // list, comma, fpgrowth
	MinSupport int    `koanf:"min_support"`
	MinSize    int    `koanf:"min_size"`
	MaxSize    int    `koanf:"max_size"` // 0 for no maximum
}

// OutputConfig configures the maximal pattern output.
type OutputConfig struct {
	Layout string `koanf:"layout"` // support-first, support-last, rule
	Top    int    `koanf:"top"`    // nr of herbs and symptoms listed in the summary
}

// Config is the complete run configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Records  RecordsConfig  `koanf:"records"`
	Patterns PatternsConfig `koanf:"patterns"`
	Output   OutputConfig   `koanf:"output"`
}

// Default returns the configuration used when nothing else is configured. The thresholds are those used for the HIS
// data: elements must occur in at least 5 transactions and in at most 10% of the transactions.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "console"},
		Records:  RecordsConfig{Encoding: "utf-8", MinCount: 5, MaxFraction: 0.1, Noise: []string{"小"}},
		Patterns: PatternsConfig{Format: "list"},
		Output:   OutputConfig{Layout: "support-first", Top: 10},
	}
}

// envKey maps an environment variable onto a config key, e.g. TCMINE_RECORDS_MIN_COUNT -> records.min_count.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// listKeys are the config keys holding lists. Their environment values are comma separated.
var listKeys = map[string]bool{"records.noise": true}

// envValue maps an environment variable onto a config key and value, splitting list values on commas.
func envValue(s, v string) (string, interface{}) {
	key := envKey(s)
	if !listKeys[key] {
		return key, v
	}
	values := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return key, values
}

// readConfigFile reads a YAML config file, rejecting files that are too large.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return io.ReadAll(f)
}

// Load loads the configuration. Precedence (highest to lowest):
//  1. Environment variables (TCMINE_RECORDS_MIN_COUNT, TCMINE_OUTPUT_LAYOUT, etc.)
//  2. The YAML config file at path, if path is not empty
//  3. Default()
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the commands cannot work with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: invalid level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: invalid format %q", c.Log.Format))
	}
	switch strings.ToLower(c.Records.Encoding) {
	case "utf-8", "gb18030":
	default:
		errs = append(errs, fmt.Errorf("records.encoding: unsupported encoding %q", c.Records.Encoding))
	}
	if c.Records.MinCount < 0 {
		errs = append(errs, fmt.Errorf("records.min_count: must be >= 0, got %d", c.Records.MinCount))
	}
	if c.Records.MaxFraction <= 0 || c.Records.MaxFraction > 1 {
		errs = append(errs, fmt.Errorf("records.max_fraction: must be in (0, 1], got %v", c.Records.MaxFraction))
	}
	if c.Records.Sample < 0 {
		errs = append(errs, fmt.Errorf("records.sample: must be >= 0, got %d", c.Records.Sample))
	}
	switch c.Patterns.Format {
	case "list", "comma", "fpgrowth":
	default:
		errs = append(errs, fmt.Errorf("patterns.format: unknown format %q", c.Patterns.Format))
	}
	if c.Patterns.MaxSize > 0 && c.Patterns.MinSize > c.Patterns.MaxSize {
		errs = append(errs, fmt.Errorf("patterns: min_size %d exceeds max_size %d", c.Patterns.MinSize,
			c.Patterns.MaxSize))
	}
	switch c.Output.Layout {
	case "support-first", "support-last", "rule":
	default:
		errs = append(errs, fmt.Errorf("output.layout: unknown layout %q", c.Output.Layout))
	}
	if c.Output.Top < 0 {
		errs = append(errs, fmt.Errorf("output.top: must be >= 0, got %d", c.Output.Top))
	}
	return errors.Join(errs...)
}
