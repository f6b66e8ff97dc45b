// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/telemetry"
)

// ErrInvalidConfig wraps every semantic config error.
var ErrInvalidConfig = errors.New("invalid config")

// Resolve picks the config file for a run: the explicit path if given,
// else lessonlint.yaml in the content root, else lessonlint.yaml in the
// working directory. It returns "" when none exists.
func Resolve(explicit, root string) string {
	if explicit != "" {
		return explicit
	}
	if root == "" {
		root = os.Getenv(RootEnv)
	}
	candidates := []string{FileName}
	if root != "" {
		candidates = append([]string{filepath.Join(root, FileName)}, candidates...)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// Load returns DefaultConfig overlaid with the file at path. An empty
// path yields the defaults. Maps in the file merge into the defaults and
// lists replace them, except xref.explicit, which replaces the default
// table whenever the file sets it. LESSONLINT_ROOT, when set, wins over
// content.root.
func Load(path string) (LessonlintConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read the config file %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
		explicit, err := explicitOverride(data)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
		if explicit != nil {
			cfg.Xref.Explicit = *explicit
		}
	}
	if root := os.Getenv(RootEnv); root != "" {
		cfg.Content.Root = root
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// explicitOverride returns the xref.explicit table exactly as the file
// states it, or nil when the file does not set it. The default table names
// inventory codes of the stock materials list, so a curriculum with its
// own inventory must be able to drop those entries rather than add to them.
func explicitOverride(data []byte) (*map[string][]string, error) {
	var overlay struct {
		Xref struct {
			Explicit *map[string][]string `yaml:"explicit"`
		} `yaml:"xref"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, err
	}
	if overlay.Xref.Explicit != nil && *overlay.Xref.Explicit == nil {
		empty := map[string][]string{}
		return &empty, nil
	}
	return overlay.Xref.Explicit, nil
}

// Validate rejects values no component can run with.
func (c LessonlintConfig) Validate() error {
	if c.Content.Root == "" {
		return fmt.Errorf("%w: content.root is empty", ErrInvalidConfig)
	}
	for level, n := range c.Levels.LessonsPerWeek {
		if !level.Valid() {
			return fmt.Errorf("%w: levels.lessons_per_week: unknown level %q", ErrInvalidConfig, level)
		}
		if n <= 0 {
			return fmt.Errorf("%w: levels.lessons_per_week[%s] must be positive", ErrInvalidConfig, level)
		}
	}
	if c.Duplicates.NearThreshold < 1 {
		return fmt.Errorf("%w: duplicates.near_threshold must be at least 1", ErrInvalidConfig)
	}
	if c.Duplicates.Workers < 0 {
		return fmt.Errorf("%w: duplicates.workers must not be negative", ErrInvalidConfig)
	}
	for level := range c.Distribution.Levels {
		if !level.Valid() {
			return fmt.Errorf("%w: distribution.levels: unknown level %q", ErrInvalidConfig, level)
		}
	}
	if c.Classifier.TieBreak != "" && !c.Classifier.TieBreak.Valid() {
		return fmt.Errorf("%w: classifier.tie_break: unknown modality %q", ErrInvalidConfig, c.Classifier.TieBreak)
	}
	switch c.Tracing.Exporter {
	case "", telemetry.ExporterNone, telemetry.ExporterStdout:
	default:
		return fmt.Errorf("%w: tracing.exporter must be %q or %q", ErrInvalidConfig, telemetry.ExporterNone, telemetry.ExporterStdout)
	}
	return nil
}

// WriteDefault writes DefaultConfig as YAML to path, creating parent
// directories. An existing file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders cfg as YAML.
func Marshal(cfg LessonlintConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseLevels turns a --level flag value into a level list. "all" and ""
// select every level.
func ParseLevels(flag string) ([]model.Level, error) {
	if flag == "" || flag == "all" {
		return nil, nil
	}
	level, err := model.ParseLevel(flag)
	if err != nil {
		return nil, err
	}
	return []model.Level{level}, nil
}
