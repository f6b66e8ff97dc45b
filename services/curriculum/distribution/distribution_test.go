// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lessonlint/services/curriculum/curriculumtest"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

func kinds(issues []Issue) []Kind {
	out := make([]Kind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func ofKind(issues []Issue, kind Kind) []Issue {
	var out []Issue
	for _, is := range issues {
		if is.Kind == kind {
			out = append(out, is)
		}
	}
	return out
}

// Fixture indexes: record i sits on day i%5+1 in slot i/5.
const (
	idxScienceDay2   = 16
	idxSensorialDay3 = 17
	idxMathDay1      = 0
	idxGeography     = 20
)

func TestCheckWeek_CleanWeekHasNoIssues(t *testing.T) {
	c := New(DefaultConfig())
	for _, level := range model.Levels {
		assert.Empty(t, c.CheckWeek(curriculumtest.Collection(level, 14)), level)
	}
}

func TestCheckWeek_SortOrderDuplicateAndGap(t *testing.T) {
	col := curriculumtest.Collection(model.LevelPrimary, 1)
	col.Lessons[2].SortOrder = curriculumtest.Int(2)

	issues := New(DefaultConfig()).CheckWeek(col)

	assert.Equal(t, []Kind{KindSortOrderDuplicate, KindSortOrderGap}, kinds(issues))
	assert.Equal(t, []int{2}, issues[0].Values)
	assert.Equal(t, []int{3}, issues[1].Values)
	assert.Contains(t, issues[1].Message, "missing {3}")
	assert.Contains(t, issues[1].Message, "observed 1..25")
}

func TestCheckWeek_TruncatedWeekSortOrder(t *testing.T) {
	col := curriculumtest.Collection(model.LevelPrimary, 1)
	col.Lessons = col.Lessons[:5]
	for i, v := range []int{1, 2, 2, 4, 5} {
		col.Lessons[i].SortOrder = curriculumtest.Int(v)
	}

	issues := New(Config{Default: Template{}}).CheckWeek(col)

	require.Len(t, issues, 2)
	assert.Equal(t, KindSortOrderDuplicate, issues[0].Kind)
	assert.Equal(t, []int{2}, issues[0].Values)
	assert.Equal(t, KindSortOrderGap, issues[1].Kind)
	assert.Equal(t, []int{3}, issues[1].Values)
	assert.Contains(t, issues[1].Message, "observed 1..5")
}

func TestCheckWeek_OutOfRangeSortOrderReportsObservedMax(t *testing.T) {
	col := curriculumtest.Collection(model.LevelPrimary, 1)
	col.Lessons[24].SortOrder = curriculumtest.Int(30)

	gaps := ofKind(New(DefaultConfig()).CheckWeek(col), KindSortOrderGap)

	require.Len(t, gaps, 1)
	assert.Equal(t, []int{25}, gaps[0].Values)
	assert.Contains(t, gaps[0].Message, "observed 1..30")
}

func TestCheckWeek_PlacementIsDistinctFromCount(t *testing.T) {
	col := curriculumtest.Collection(model.LevelPrimary, 1)
	col.Lessons[idxScienceDay2].DayOfWeek = curriculumtest.Int(3)
	col.Lessons[idxSensorialDay3].DayOfWeek = curriculumtest.Int(2)

	issues := New(DefaultConfig()).CheckWeek(col)

	assert.Equal(t, []Kind{KindSubjectPlacement, KindSubjectPlacement}, kinds(issues))
	assert.Equal(t, []model.Subject{model.SubjectSensorial}, issues[0].Subject)
	assert.Equal(t, []int{1, 2, 5}, issues[0].Values)
	assert.Equal(t, []model.Subject{model.SubjectScience}, issues[1].Subject)
	assert.Equal(t, []int{3, 4}, issues[1].Values)
}

func TestCheckWeek_SubjectCount(t *testing.T) {
	col := curriculumtest.Collection(model.LevelPrimary, 1)
	art := model.SubjectArt
	col.Lessons[idxMathDay1].Subject = &art

	issues := New(DefaultConfig()).CheckWeek(col)

	assert.Equal(t, []Kind{KindSubjectCount, KindSubjectPlacement}, kinds(issues))
	assert.Contains(t, issues[0].Message, "math taught 4 times, expected 5")
}

func TestCheckWeek_PairedSubjectBand(t *testing.T) {
	col := curriculumtest.Collection(model.LevelPrimary, 1)
	art := model.SubjectArt
	col.Lessons[idxGeography].Subject = &art

	issues := New(DefaultConfig()).CheckWeek(col)

	require.Equal(t, []Kind{KindPairedSubjectBand}, kinds(issues))
	assert.Equal(t, []int{1}, issues[0].Values)
	assert.Contains(t, issues[0].Message, "geography+history")
}

func TestCheckWeek_DayCount(t *testing.T) {
	col := curriculumtest.Collection(model.LevelPrimary, 1)
	// Move the day-1 language lesson to day 2.
	col.Lessons[5].DayOfWeek = curriculumtest.Int(2)

	dayIssues := ofKind(New(DefaultConfig()).CheckWeek(col), KindDayCount)

	require.Len(t, dayIssues, 2)
	assert.Equal(t, []int{1}, dayIssues[0].Values)
	assert.Equal(t, []int{2}, dayIssues[1].Values)
}

func TestConfig_PerLevelTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Levels = map[model.Level]Template{model.LevelUpperElementary: {LessonsPerDay: 5}}
	col := curriculumtest.Collection(model.LevelUpperElementary, 1)
	art := model.SubjectArt
	col.Lessons[idxGeography].Subject = &art

	assert.Empty(t, New(cfg).CheckWeek(col), "upper elementary has no subject rules")
}

func TestCheck_SortedAcrossWeeks(t *testing.T) {
	w2 := curriculumtest.Collection(model.LevelPrimary, 2)
	w2.Lessons[2].SortOrder = curriculumtest.Int(2)
	w1 := curriculumtest.Collection(model.LevelPrimary, 1)
	w1.Lessons[2].SortOrder = curriculumtest.Int(2)

	issues := New(DefaultConfig()).Check(curriculumtest.Corpus(w2, w1))

	require.Len(t, issues, 4)
	assert.Equal(t, 1, issues[0].Week)
	assert.Equal(t, 2, issues[3].Week)
}
