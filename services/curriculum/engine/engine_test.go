// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/curriculumtest"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
)

func run(t *testing.T, e *Engine) *report.ValidationReport {
	t.Helper()
	rep, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)
	return rep
}

// =============================================================================
// End to end
// =============================================================================

func TestRun_CleanWeek(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 3)

	rep := run(t, New(DefaultConfig(root), nil))

	assert.Equal(t, 1, rep.Totals.Weeks)
	assert.Equal(t, 25, rep.Totals.Lessons)
	assert.Empty(t, rep.ParseFailures)
	assert.Empty(t, rep.LessonCountErrors)
	assert.Empty(t, rep.FieldErrors)
	assert.Empty(t, rep.Distribution)
	assert.Empty(t, rep.ExactDuplicates)
	assert.Empty(t, rep.NearDuplicates)
	assert.Empty(t, rep.AnalyzerFailures)
	require.NotNil(t, rep.CrossReference)
	assert.Len(t, rep.Classifications, 25)
	assert.True(t, rep.Passed())
	assert.True(t, rep.PublishReady())
}

func TestRun_RepeatedWeeksAreExactDuplicates(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1, 2)

	rep := run(t, New(DefaultConfig(root), nil))

	assert.Len(t, rep.ExactDuplicates, 25)
	assert.True(t, rep.Passed(), "duplicates are advisory to the run")
	assert.False(t, rep.PublishReady())
}

func TestRun_QuarterMismatchIsFieldError(t *testing.T) {
	root := t.TempDir()
	curriculumtest.WriteJSON(t, root, "materials.json", curriculumtest.Inventory())
	week := curriculumtest.Week(model.LevelPrimary, 10)
	week[4].Quarter = curriculumtest.Int(1)
	curriculumtest.WriteJSON(t, root, "primary/week-10.json", week)

	rep := run(t, New(DefaultConfig(root), nil))

	require.Len(t, rep.FieldErrors, 1)
	assert.Equal(t, "quarter", rep.FieldErrors[0].Field)
	assert.False(t, rep.Passed())
}

func TestRun_Idempotent(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1, 2, 11)
	e := New(DefaultConfig(root), nil)

	first := run(t, e)
	second := run(t, e)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, first.FieldErrors, second.FieldErrors)
	assert.Equal(t, first.ExactDuplicates, second.ExactDuplicates)
	assert.Equal(t, first.NearDuplicates, second.NearDuplicates)
	assert.Equal(t, first.Distribution, second.Distribution)
	assert.Equal(t, first.CrossReference, second.CrossReference)
	assert.Equal(t, first.Classifications, second.Classifications)
	assert.Equal(t, first.Modalities, second.Modalities)
}

func TestRun_LevelAndWeekFilters(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1, 2)
	curriculumtest.WriteJSON(t, root, "lower_elementary/week-02.json", curriculumtest.Week(model.LevelLowerElementary, 2))

	cfg := DefaultConfig(root)
	cfg.Content.Levels = []model.Level{model.LevelPrimary}
	cfg.Content.Week = 2
	rep := run(t, New(cfg, nil))

	assert.Equal(t, 1, rep.Totals.Weeks)
	assert.Equal(t, "primary/w02", rep.Scope.Key())
}

// =============================================================================
// Degenerate input
// =============================================================================

func TestRun_NoCollectionsStillReports(t *testing.T) {
	root := t.TempDir()
	curriculumtest.WriteJSON(t, root, "materials.json", curriculumtest.Inventory())

	rep, err := New(DefaultConfig(root), nil).Run(context.Background())

	require.ErrorIs(t, err, ErrNoCollections)
	require.NotNil(t, rep)
	assert.Equal(t, 0, rep.Totals.Weeks)
	assert.Equal(t, 0, rep.Totals.Lessons)
	assert.Nil(t, rep.CrossReference, "analyzers are skipped")
	assert.Empty(t, rep.Classifications)
}

func TestRun_MissingRootIsParseFailure(t *testing.T) {
	rep, err := New(DefaultConfig(filepath.Join(t.TempDir(), "absent")), nil).Run(context.Background())

	require.ErrorIs(t, err, ErrNoCollections)
	assert.Len(t, rep.ParseFailures, 1)
	assert.False(t, rep.Passed())
}

func TestRun_CancelledContext(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := New(DefaultConfig(root), nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rep)
}

// =============================================================================
// Isolation
// =============================================================================

func TestAnalyze_PanicIsolated(t *testing.T) {
	e := New(DefaultConfig("testdata"), nil)
	e.analyzers = append(e.analyzers, Analyzer{
		Name: "exploding",
		Run: func(context.Context, *model.Corpus, *report.Collector) error {
			var m map[string]int
			m["boom"]++
			return nil
		},
	})

	rep, err := e.Analyze(context.Background(), curriculumtest.Corpus(curriculumtest.Collection(model.LevelPrimary, 1)))

	require.NoError(t, err)
	require.Len(t, rep.AnalyzerFailures, 1)
	assert.Equal(t, "exploding", rep.AnalyzerFailures[0].Analyzer)
	assert.Contains(t, rep.AnalyzerFailures[0].Message, "panic")
	assert.Len(t, rep.Classifications, 25, "the other analyzers still report")
	assert.NotNil(t, rep.CrossReference)
	assert.False(t, rep.Passed())
}

func TestAnalyze_ClassifierConfigFlowsThrough(t *testing.T) {
	cfg := DefaultConfig("testdata")
	cfg.Classifier = classify.DefaultConfig()
	e := New(cfg, nil)

	rep, err := e.Analyze(context.Background(), curriculumtest.Corpus(curriculumtest.Collection(model.LevelPrimary, 1)))

	require.NoError(t, err)
	total := 0
	for _, n := range rep.Modalities.ByModality {
		total += n
	}
	assert.Equal(t, 25, total)
	assert.Equal(t, 1, rep.Modalities.ByModality[classify.ModalityNone], "grace and courtesy is exempt")
}

// =============================================================================
// Metrics
// =============================================================================

func TestMetrics_WriteTextfile(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1)
	e := New(DefaultConfig(root), nil)
	run(t, e)

	path := filepath.Join(t.TempDir(), "lessonlint.prom")
	require.NoError(t, e.Metrics().WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `lessonlint_runs_total{result="pass"} 1`)
	assert.Contains(t, text, "lessonlint_lessons 25")
	assert.Contains(t, text, `lessonlint_findings{category="parse-errors",severity="error"} 0`)
	assert.True(t, strings.Contains(text, `lessonlint_analyzer_duration_seconds_count{analyzer="xref"} 1`))
}
