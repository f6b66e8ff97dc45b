// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package duplicates

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lessonlint/services/curriculum/curriculumtest"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

// titled builds a collection holding one lesson per title.
func titled(week int, titles ...string) *model.WeekCollection {
	col := &model.WeekCollection{
		Key:  model.WeekKey{Level: model.LevelPrimary, Week: week},
		File: "primary/week.json",
	}
	for i, title := range titles {
		rec := curriculumtest.Lesson(model.LevelPrimary, week, i%5+1, i+1, model.SubjectSensorial, title)
		rec.Source = model.SourceRef{Key: col.Key, File: col.File, Index: i}
		col.Lessons = append(col.Lessons, rec)
	}
	return col
}

func detect(t *testing.T, cfg Config, cols ...*model.WeekCollection) *Result {
	t.Helper()
	res, err := New(cfg, nil).Detect(context.Background(), curriculumtest.Corpus(cols...))
	require.NoError(t, err)
	return res
}

// =============================================================================
// Levenshtein
// =============================================================================

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"pink tower", "pink towers", 1},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q/%q", tt.a, tt.b)
		assert.Equal(t, tt.want, levenshtein(tt.b, tt.a), "symmetric %q/%q", tt.b, tt.a)
	}
}

// =============================================================================
// Exact
// =============================================================================

func TestDetect_ExactAcrossWeeks(t *testing.T) {
	res := detect(t, DefaultConfig(),
		curriculumtest.Collection(model.LevelPrimary, 1),
		curriculumtest.Collection(model.LevelPrimary, 2),
	)

	require.Len(t, res.Exact, 25)
	for _, f := range res.Exact {
		require.Len(t, f.Occurrences, 2, f.Title)
		assert.Equal(t, 1, f.Occurrences[0].Week)
		assert.Equal(t, 2, f.Occurrences[1].Week)
	}
	assert.Empty(t, res.Near, "fixture titles are far apart")
	assert.Empty(t, res.IntroRepeats)
}

func TestDetect_ExactIgnoresCaseAndPadding(t *testing.T) {
	res := detect(t, DefaultConfig(), titled(1, "Pink Tower", "  pink tower "))

	require.Len(t, res.Exact, 1)
	assert.Equal(t, "pink tower", res.Exact[0].Title)
	assert.Len(t, res.Exact[0].Occurrences, 2)
	assert.Empty(t, res.Near, "identical folded titles are not a pair")
}

func TestDetect_LevelsAreIndependent(t *testing.T) {
	upper := curriculumtest.Collection(model.LevelUpperElementary, 1)
	res := detect(t, DefaultConfig(), curriculumtest.Collection(model.LevelPrimary, 1), upper)

	assert.Empty(t, res.Exact)
}

// =============================================================================
// Near
// =============================================================================

func TestDetect_SameBaseReportedOnce(t *testing.T) {
	res := detect(t, DefaultConfig(),
		titled(1, "Pink Tower"),
		titled(2, "Pink Tower (Extension)"),
	)

	require.Len(t, res.Near, 1)
	f := res.Near[0]
	assert.Equal(t, ReasonSameBase, f.Reason)
	assert.Equal(t, "Pink Tower", f.Title)
	assert.Equal(t, "Pink Tower (Extension)", f.Other)
	assert.Equal(t, 10, f.Distance)
	assert.Len(t, f.Occurrences, 2)
}

func TestDetect_SiblingVariantsAreNotSameBase(t *testing.T) {
	res := detect(t, DefaultConfig(),
		titled(1, "Map (Africa)", "Pink Tower (Large Cubes)"),
		titled(2, "Map (Europe)", "Pink Tower (Small Cubes)"),
	)

	for _, f := range res.Near {
		assert.NotEqual(t, ReasonSameBase, f.Reason, "%q ~ %q", f.Title, f.Other)
	}
}

func TestDetect_SameBaseEitherOrder(t *testing.T) {
	res := detect(t, DefaultConfig(),
		titled(1, "Bead Chains (Short)"),
		titled(2, "Bead Chains"),
	)

	require.Len(t, res.Near, 1)
	assert.Equal(t, ReasonSameBase, res.Near[0].Reason)
}

func TestDetect_EditDistanceBand(t *testing.T) {
	res := detect(t, DefaultConfig(), titled(1, "Bead Chains", "Bead Chain", "Bead Frames", "Geometric Cabinet"))

	var pairs []string
	for _, f := range res.Near {
		assert.Equal(t, ReasonEditDistance, f.Reason)
		assert.Greater(t, f.Distance, 0)
		assert.Less(t, f.Distance, 5)
		pairs = append(pairs, f.Title+"|"+f.Other)
	}
	assert.Contains(t, pairs, "Bead Chain|Bead Chains")
	assert.NotContains(t, pairs, "Bead Chains|Geometric Cabinet")
}

func TestDetect_ThresholdIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NearThreshold = 2

	res := detect(t, cfg, titled(1, "Bead Chain", "Bead Chains", "Bead Chainss"))

	require.Len(t, res.Near, 2, "only distance-1 pairs survive a threshold of 2")
	for _, f := range res.Near {
		assert.Equal(t, 1, f.Distance)
	}
}

// =============================================================================
// Introduction repeat
// =============================================================================

func TestDetect_IntroductionRepeatAcrossWeeks(t *testing.T) {
	res := detect(t, DefaultConfig(),
		titled(3, "Introduction to Fractions"),
		titled(7, "INTRODUCTION to fractions!"),
		titled(9, "Introduction to Maps"),
	)

	require.Len(t, res.IntroRepeats, 1)
	f := res.IntroRepeats[0]
	assert.Equal(t, "to fractions", f.Title)
	assert.Equal(t, []int{3, 7}, f.Weeks)
}

func TestDetect_IntroductionSameWeekIsNotRepeat(t *testing.T) {
	res := detect(t, DefaultConfig(), titled(3, "Introduction to Fractions", "Introduction - to fractions"))

	assert.Empty(t, res.IntroRepeats)
}

// =============================================================================
// Determinism
// =============================================================================

func TestDetect_PermutationInvariant(t *testing.T) {
	build := func() []*model.WeekCollection {
		return []*model.WeekCollection{
			titled(1, "Pink Tower", "Bead Chain", "Introduction to Maps", "Brown Stair"),
			titled(2, "Pink Tower (Extension)", "Bead Chains", "Brown Stairs", "Introduction to Maps"),
			titled(3, "Red Rods", "Red Rod", "Pink Tower"),
		}
	}

	cfg := DefaultConfig()
	cfg.Workers = 1
	want := detect(t, cfg, build()...)

	rng := rand.New(rand.NewPCG(7, 11))
	for range 5 {
		cols := build()
		rng.Shuffle(len(cols), func(i, j int) { cols[i], cols[j] = cols[j], cols[i] })
		for _, c := range cols {
			rng.Shuffle(len(c.Lessons), func(i, j int) { c.Lessons[i], c.Lessons[j] = c.Lessons[j], c.Lessons[i] })
		}
		cfg.Workers = 1 + rng.IntN(6)

		assert.Equal(t, want, detect(t, cfg, cols...))
	}
}

func TestDetect_Idempotent(t *testing.T) {
	cols := []*model.WeekCollection{titled(1, "Pink Tower", "Pink Towers"), titled(2, "Pink Tower")}
	d := New(DefaultConfig(), nil)
	corpus := curriculumtest.Corpus(cols...)

	first, err := d.Detect(context.Background(), corpus)
	require.NoError(t, err)
	second, err := d.Detect(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDetect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultConfig(), nil).Detect(ctx, curriculumtest.Corpus(titled(1, "Pink Tower", "Red Rods")))
	assert.ErrorIs(t, err, context.Canceled)
}
