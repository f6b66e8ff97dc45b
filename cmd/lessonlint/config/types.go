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
	"github.com/AleutianAI/lessonlint/pkg/logging"
	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/distribution"
	"github.com/AleutianAI/lessonlint/services/curriculum/duplicates"
	"github.com/AleutianAI/lessonlint/services/curriculum/engine"
	"github.com/AleutianAI/lessonlint/services/curriculum/loader"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/structural"
	"github.com/AleutianAI/lessonlint/services/curriculum/telemetry"
	"github.com/AleutianAI/lessonlint/services/curriculum/xref"
)

// FileName is the config file looked up in the content root when no
// explicit path is given.
const FileName = "lessonlint.yaml"

// RootEnv overrides content.root after the file is read.
const RootEnv = "LESSONLINT_ROOT"

type LessonlintConfig struct {
	// Content: where the week collections and inventory live
	Content ContentConfig `yaml:"content"`

	// Levels: expected collection sizes and slide rules
	Levels structural.Config `yaml:"levels"`

	Duplicates   duplicates.Config   `yaml:"duplicates"`
	Xref         xref.Config         `yaml:"xref"`
	Distribution distribution.Config `yaml:"distribution"`
	Classifier   classify.Config     `yaml:"classifier"`

	// History: badger directory for run summaries. Empty disables history.
	History HistoryConfig `yaml:"history"`

	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Logging LoggingConfig `yaml:"logging"`
}

type ContentConfig struct {
	Root      string `yaml:"root"`      // e.g. ./content
	Inventory string `yaml:"inventory"` // e.g. materials.json, relative to root
}

type HistoryConfig struct {
	Dir string `yaml:"dir"`
}

type MetricsConfig struct {
	// Textfile is written after every validate run for node-exporter's
	// textfile collector.
	Textfile string `yaml:"textfile"`
}

type TracingConfig struct {
	// Exporter is "stdout" or "none"
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"` // debug, info, warn, error
	JSON   bool   `yaml:"json"`
	LogDir string `yaml:"log_dir,omitempty"`
}

func DefaultConfig() LessonlintConfig {
	return LessonlintConfig{
		Content: ContentConfig{
			Root:      "content",
			Inventory: loader.DefaultInventoryFile,
		},
		Levels:       structural.DefaultConfig(),
		Duplicates:   duplicates.DefaultConfig(),
		Xref:         xref.DefaultConfig(),
		Distribution: distribution.DefaultConfig(),
		Classifier:   classify.DefaultConfig(),
		History:      HistoryConfig{},
		Metrics:      MetricsConfig{},
		Tracing: TracingConfig{
			Exporter:    telemetry.ExporterNone,
			ServiceName: "lessonlint",
		},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// EngineConfig narrows the content selection to levels and week and
// returns the engine configuration. An empty levels list selects all.
func (c LessonlintConfig) EngineConfig(levels []model.Level, week int) engine.Config {
	return engine.Config{
		Content: loader.Options{
			Root:          c.Content.Root,
			InventoryPath: c.Content.Inventory,
			Levels:        levels,
			Week:          week,
		},
		Structural:   c.Levels,
		Duplicates:   c.Duplicates,
		Xref:         c.Xref,
		Distribution: c.Distribution,
		Classifier:   c.Classifier,
	}
}

// TelemetryConfig maps the tracing section onto the telemetry package.
func (c LessonlintConfig) TelemetryConfig(version string) telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if c.Tracing.ServiceName != "" {
		cfg.ServiceName = c.Tracing.ServiceName
	}
	if c.Tracing.Exporter != "" {
		cfg.TraceExporter = c.Tracing.Exporter
	}
	cfg.ServiceVersion = version
	return cfg
}

// LoggerConfig maps the logging section onto pkg/logging.
func (c LessonlintConfig) LoggerConfig() logging.Config {
	return logging.Config{
		Level:   logging.ParseLevel(c.Logging.Level),
		JSON:    c.Logging.JSON,
		LogDir:  c.Logging.LogDir,
		Service: "lessonlint",
	}
}
