// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lessonlint/cmd/lessonlint/config"
	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/curriculumtest"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

// execute runs the command tree with args after restoring every global
// flag variable to its default.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv(config.RootEnv, "")
	configPath, contentRoot, inventoryPath = "", "", ""
	levelFlag, weekFlag, outputMode, logLevel = "all", 0, "machine", "error"
	jsonOutput, xlsxPath, storeDir, uploadURL, gcsKeyPath, metricsFile, traceRun = false, "", "", "", "", "", false
	classifyFormat, historyLimit, historyScope = "json", 20, ""
	exportOut, forceWrite = "", false

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// ============================================================================
// validate
// ============================================================================

func TestValidate_CleanTreePassesAndRecordsHistory(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 3)
	store := filepath.Join(t.TempDir(), "history")
	metrics := filepath.Join(t.TempDir(), "lessonlint.prom")

	err := execute(t, "validate", "--root", root, "--store", store, "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lessonlint_runs_total{result="pass"} 1`)

	require.NoError(t, execute(t, "history", "--store", store))
	runs, closeStore, err := openHistory(store)
	require.NoError(t, err)
	defer closeStore()
	list, err := runs.List(t.Context(), "", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Passed)
	assert.Equal(t, "all", list[0].ScopeKey)
}

func TestValidate_MissingRootFails(t *testing.T) {
	err := execute(t, "validate", "--root", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, errValidationFailed)
}

func TestValidate_BadLevel(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 3)

	err := execute(t, "validate", "--root", root, "--level", "kindergarten")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--level")
}

func TestExport_WritesWorkbook(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 3)
	out := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, execute(t, "export", "--root", root, "--out", out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestConfigInit_WritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lessonlint.yaml")

	require.NoError(t, execute(t, "config", "init", path))
	_, err := config.Load(path)
	assert.NoError(t, err)
}

// ============================================================================
// classify output
// ============================================================================

func TestWriteClassification(t *testing.T) {
	doc := classifyOutput{
		Summary: classify.Summary{ByModality: map[classify.Modality]int{classify.ModalityDirect: 1}},
		Results: []classify.Result{{Level: model.LevelPrimary, Week: 1, SortOrder: 4, Title: "Pink Tower", Modality: classify.ModalityDirect}},
	}

	var js bytes.Buffer
	require.NoError(t, writeClassification(&js, "json", doc))
	assert.Contains(t, js.String(), `"modality": "DIRECT"`)

	var ym bytes.Buffer
	require.NoError(t, writeClassification(&ym, "yaml", doc))
	assert.Contains(t, ym.String(), "modality: DIRECT")
	assert.Contains(t, ym.String(), "title: Pink Tower")

	assert.Error(t, writeClassification(&bytes.Buffer{}, "csv", doc))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678", shortID("1234567890"))
	assert.Equal(t, "abc", shortID("abc"))
}
