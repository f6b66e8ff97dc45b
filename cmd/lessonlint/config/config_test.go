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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/telemetry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// ============================================================================
// Load Tests
// ============================================================================

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	t.Setenv(RootEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EmptyFileReturnsDefaults(t *testing.T) {
	t.Setenv(RootEnv, "")

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Duplicates, cfg.Duplicates)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(RootEnv, "")
	path := writeConfig(t, `
content:
  root: ./curriculum
levels:
  lessons_per_week:
    upper_elementary: 20
duplicates:
  near_threshold: 3
classifier:
  tie_break: PRINTABLE
history:
  dir: /var/lib/lessonlint
tracing:
  exporter: stdout
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./curriculum", cfg.Content.Root)
	assert.Equal(t, "materials.json", cfg.Content.Inventory, "unset keys keep their default")
	assert.Equal(t, 3, cfg.Duplicates.NearThreshold)
	assert.Equal(t, classify.ModalityPrintable, cfg.Classifier.TieBreak)
	assert.Equal(t, "/var/lib/lessonlint", cfg.History.Dir)
	assert.Equal(t, telemetry.ExporterStdout, cfg.Tracing.Exporter)

	assert.Equal(t, 20, cfg.Levels.ExpectedLessons(model.LevelUpperElementary))
	assert.Equal(t, model.DefaultLessonsPerWeek, cfg.Levels.ExpectedLessons(model.LevelPrimary),
		"map entries merge into the defaults")
}

func TestLoad_ExplicitTableReplacesDefaults(t *testing.T) {
	t.Setenv(RootEnv, "")

	cfg, err := Load(writeConfig(t, "xref:\n  explicit:\n    chime bars: [MUS-100]\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"chime bars": {"MUS-100"}}, cfg.Xref.Explicit,
		"stock entries such as bells -> MUS-001 are dropped")

	cfg, err = Load(writeConfig(t, "xref:\n  explicit: {}\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Xref.Explicit)

	cfg, err = Load(writeConfig(t, "xref:\n  min_overlap: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Xref.Explicit, cfg.Xref.Explicit, "an unset table keeps the defaults")
	assert.Equal(t, 3, cfg.Xref.MinOverlap)
}

func TestLoad_RootEnvWins(t *testing.T) {
	t.Setenv(RootEnv, "/srv/content")

	cfg, err := Load(writeConfig(t, "content:\n  root: ./elsewhere\n"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/content", cfg.Content.Root)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	t.Setenv(RootEnv, "")

	_, err := Load(writeConfig(t, "duplicates:\n  near_treshold: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse the config file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv(RootEnv, "")
	tests := []struct {
		name string
		body string
	}{
		{"near threshold", "duplicates:\n  near_threshold: 0\n"},
		{"negative workers", "duplicates:\n  workers: -1\n"},
		{"unknown level", "levels:\n  lessons_per_week:\n    middle_school: 25\n"},
		{"non-positive count", "levels:\n  lessons_per_week:\n    primary: 0\n"},
		{"tie break", "classifier:\n  tie_break: HOLOGRAM\n"},
		{"exporter", "tracing:\n  exporter: jaeger\n"},
		{"distribution level", "distribution:\n  levels:\n    toddler:\n      lessons_per_day: 5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// ============================================================================
// Resolve / WriteDefault Tests
// ============================================================================

func TestResolve(t *testing.T) {
	t.Setenv(RootEnv, "")
	root := t.TempDir()

	assert.Equal(t, "explicit.yaml", Resolve("explicit.yaml", root))
	assert.Equal(t, "", Resolve("", root))

	inRoot := filepath.Join(root, FileName)
	require.NoError(t, os.WriteFile(inRoot, []byte(""), 0644))
	assert.Equal(t, inRoot, Resolve("", root))
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	t.Setenv(RootEnv, "")
	path := filepath.Join(t.TempDir(), "nested", FileName)

	require.NoError(t, WriteDefault(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.Content, cfg.Content)
	assert.Equal(t, def.Duplicates, cfg.Duplicates)
	assert.Equal(t, def.Levels.LessonsPerWeek, cfg.Levels.LessonsPerWeek)
	assert.Equal(t, def.Classifier.DirectVocabulary, cfg.Classifier.DirectVocabulary)
	assert.Equal(t, def.Distribution.Default.Subjects, cfg.Distribution.Default.Subjects)

	err = WriteDefault(path, false)
	assert.Error(t, err, "an existing file is not overwritten")
	assert.NoError(t, WriteDefault(path, true))
}

// ============================================================================
// Conversion Tests
// ============================================================================

func TestEngineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Content.Root = "/content"

	ec := cfg.EngineConfig([]model.Level{model.LevelPrimary}, 4)
	assert.Equal(t, "/content", ec.Content.Root)
	assert.Equal(t, "materials.json", ec.Content.InventoryPath)
	assert.Equal(t, []model.Level{model.LevelPrimary}, ec.Content.Levels)
	assert.Equal(t, 4, ec.Content.Week)
	assert.Equal(t, cfg.Duplicates, ec.Duplicates)
}

func TestParseLevels(t *testing.T) {
	levels, err := ParseLevels("all")
	require.NoError(t, err)
	assert.Nil(t, levels)

	levels, err = ParseLevels("lower-elementary")
	require.NoError(t, err)
	assert.Equal(t, []model.Level{model.LevelLowerElementary}, levels)

	_, err = ParseLevels("kindergarten")
	assert.Error(t, err)
}
