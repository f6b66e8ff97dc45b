// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lessonlint/services/curriculum/curriculumtest"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

func load(t *testing.T, opts Options) *model.Corpus {
	t.Helper()
	corpus, err := New(opts, nil).Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, corpus)
	return corpus
}

// =============================================================================
// Happy Path
// =============================================================================

func TestLoad_CleanTree(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 2, 1)

	corpus := load(t, Options{Root: root})

	require.Len(t, corpus.Collections, 2)
	assert.Equal(t, 1, corpus.Collections[0].Key.Week, "collections are sorted by week")
	assert.Equal(t, 2, corpus.Collections[1].Key.Week)
	assert.Equal(t, 50, corpus.LessonCount())
	assert.Empty(t, corpus.Failures)
	assert.Empty(t, corpus.Issues)
	assert.Len(t, corpus.Inventory, len(curriculumtest.Inventory()))

	first := corpus.Collections[0].Lessons[0]
	assert.Equal(t, "primary/week-01.json", first.Source.File)
	assert.Equal(t, model.WeekKey{Level: model.LevelPrimary, Week: 1}, first.Source.Key)
	assert.Equal(t, 0, first.Source.Index)
}

func TestLoad_YAMLCollection(t *testing.T) {
	root := t.TempDir()
	curriculumtest.WriteJSON(t, root, "materials.json", curriculumtest.Inventory())
	curriculumtest.WriteFile(t, root, "primary/week_03.yaml", []byte(`
- level: primary
  subject: math
  week_number: 3
  day_of_week: 1
  quarter: 1
  title: Number Rods
  description: Count the rods.
  instructions: Lay out the rods.
  duration_minutes: 15
  lesson_type: guided
  materials_needed: [number rods]
  sort_order: 1
`))

	corpus := load(t, Options{Root: root})

	require.Len(t, corpus.Collections, 1)
	require.Len(t, corpus.Collections[0].Lessons, 1)
	rec := corpus.Collections[0].Lessons[0]
	assert.Equal(t, "Number Rods", rec.GetTitle())
	assert.Equal(t, []string{"number rods"}, rec.MaterialsNeeded)
	assert.Nil(t, rec.SlideContent)
}

func TestLoad_Filters(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1, 2, 3)
	curriculumtest.WriteJSON(t, root, "upper_elementary/week-02.json", curriculumtest.Week(model.LevelUpperElementary, 2))

	corpus := load(t, Options{Root: root, Week: 2})
	require.Len(t, corpus.Collections, 2)
	assert.Equal(t, model.LevelPrimary, corpus.Collections[0].Key.Level, "levels follow schedule order")
	assert.Equal(t, model.LevelUpperElementary, corpus.Collections[1].Key.Level)

	corpus = load(t, Options{Root: root, Levels: []model.Level{model.LevelUpperElementary}})
	require.Len(t, corpus.Collections, 1)
	assert.Equal(t, 2, corpus.Collections[0].Key.Week)
}

// =============================================================================
// Failures
// =============================================================================

func TestLoad_CorruptFileDoesNotAbortRun(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1, 2)
	curriculumtest.WriteFile(t, root, "primary/week-03.json", []byte(`[{"title": "unterminated`))

	corpus := load(t, Options{Root: root})

	assert.Len(t, corpus.Collections, 2, "the readable weeks are still loaded")
	require.Len(t, corpus.Failures, 1)
	assert.Equal(t, "primary/week-03.json", corpus.Failures[0].File)
}

func TestLoad_TopLevelNotList(t *testing.T) {
	root := t.TempDir()
	curriculumtest.WriteJSON(t, root, "materials.json", curriculumtest.Inventory())
	curriculumtest.WriteFile(t, root, "primary/week-01.json", []byte(`{"lessons": []}`))
	curriculumtest.WriteFile(t, root, "primary/week-02.yaml", []byte("lessons: []\n"))

	corpus := load(t, Options{Root: root})

	assert.Empty(t, corpus.Collections)
	require.Len(t, corpus.Failures, 2)
	for _, f := range corpus.Failures {
		assert.Contains(t, f.Message, "not a list")
	}
}

func TestLoad_RecordCoercionFailureIsolated(t *testing.T) {
	root := t.TempDir()
	curriculumtest.WriteJSON(t, root, "materials.json", curriculumtest.Inventory())
	curriculumtest.WriteFile(t, root, "primary/week-01.json", []byte(`[
		{"title": "Pink Tower", "week_number": 1, "sort_order": 1},
		{"title": "Broken", "week_number": "one"},
		null
	]`))

	corpus := load(t, Options{Root: root})

	require.Len(t, corpus.Collections, 1)
	assert.Len(t, corpus.Collections[0].Lessons, 1)
	require.Len(t, corpus.Failures, 2)
	assert.Equal(t, "primary/week-01.json[1]", corpus.Failures[0].File)
	assert.Equal(t, "primary/week-01.json[2]", corpus.Failures[1].File)
}

func TestLoad_FilenameWithoutWeek(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1)
	curriculumtest.WriteJSON(t, root, "primary/extras.json", []any{})

	corpus := load(t, Options{Root: root})

	require.Len(t, corpus.Failures, 1)
	assert.Contains(t, corpus.Failures[0].Message, "week number")
}

func TestLoad_FilenameWeekMismatchFlaggedOnce(t *testing.T) {
	root := t.TempDir()
	curriculumtest.WriteJSON(t, root, "materials.json", curriculumtest.Inventory())
	// Week 4 content saved under week 5's filename.
	curriculumtest.WriteJSON(t, root, "primary/week-05.json", curriculumtest.Week(model.LevelPrimary, 4))

	corpus := load(t, Options{Root: root})

	require.Len(t, corpus.Collections, 1)
	assert.Equal(t, 5, corpus.Collections[0].Key.Week, "the filename week is the collection identity")
	require.Len(t, corpus.Issues, 1)
	assert.Equal(t, IssueWeekMismatch, corpus.Issues[0].Kind)
	assert.Contains(t, corpus.Issues[0].Message, "25 record(s)")
}

func TestLoad_FilenameWeekNotTruncated(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1)
	curriculumtest.WriteJSON(t, root, "primary/week-100.json", curriculumtest.Week(model.LevelPrimary, 10))
	curriculumtest.WriteJSON(t, root, "primary/week-7b.json", curriculumtest.Week(model.LevelPrimary, 7))

	corpus := load(t, Options{Root: root})

	require.Len(t, corpus.Collections, 1, "neither file is loaded as week 10 or week 7")
	assert.Equal(t, 1, corpus.Collections[0].Key.Week)
	require.Len(t, corpus.Failures, 2)
	messages := map[string]string{}
	for _, f := range corpus.Failures {
		messages[f.File] = f.Message
	}
	assert.Contains(t, messages["primary/week-100.json"], "filename week 100 is outside 1..36")
	assert.Contains(t, messages["primary/week-7b.json"], "week number")
}

func TestLoad_MissingRootStillReturnsCorpus(t *testing.T) {
	corpus := load(t, Options{Root: filepath.Join(t.TempDir(), "nope")})

	assert.Empty(t, corpus.Collections)
	assert.Equal(t, 0, corpus.LessonCount())
	require.Len(t, corpus.Failures, 1)
}

func TestLoad_InventoryProblems(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1)
	curriculumtest.WriteFile(t, root, "materials.json", []byte(`[
		{"code": "SEN-001", "name": "Pink Tower"},
		{"code": "SEN-001", "name": "Pink Tower Copy"},
		{"name": "No Code"}
	]`))

	corpus := load(t, Options{Root: root})

	require.Len(t, corpus.Inventory, 1)
	require.Len(t, corpus.Failures, 2)
	joined := corpus.Failures[0].Message + corpus.Failures[1].Message
	assert.True(t, strings.Contains(joined, "duplicate inventory code"))
	assert.True(t, strings.Contains(joined, "no code"))
}

func TestLoad_CancelledContext(t *testing.T) {
	root := curriculumtest.WriteContentTree(t, model.LevelPrimary, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{Root: root}, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWeekFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"week-01.json", 1, true},
		{"Week_12.yaml", 12, true},
		{"week7.yml", 7, true},
		{"lessons.json", 0, false},
		{"week-100.json", 100, true},
		{"week-123.yaml", 123, true},
		{"week-7b.json", 0, false},
		{"week-07", 7, true},
	}
	for _, tt := range tests {
		got, ok := weekFromFilename(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}
