// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lessonlint/services/curriculum/curriculumtest"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

// bare builds a lesson whose text is exactly what the test supplies.
func bare(subject model.Subject, title, description string, materials ...string) *model.LessonRecord {
	rec := curriculumtest.Lesson(model.LevelPrimary, 4, 1, 1, subject, title, materials...)
	rec.Description = curriculumtest.Str(description)
	rec.Instructions = curriculumtest.Str("")
	return rec
}

func TestClassify_MathWithoutKeywordsDefaultsToPrintable(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.SubjectMath, "Quiet Reflection", "Sit together and breathe slowly."))

	assert.Equal(t, ModalityPrintable, got.Modality)
	assert.Equal(t, BasisDefault, got.Basis)
	assert.Contains(t, got.Reason, "default")
	assert.NotContains(t, got.Reason, "keyword match")
	assert.Zero(t, got.Evidence.DirectScore)
	assert.Zero(t, got.Evidence.PrintableScore)
	assert.Equal(t, []string{"activity_sheet"}, got.PDFTemplates, "every printable lesson gets a template")
}

func TestClassify_ExemptSubjectIsNone(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.SubjectGraceCourtesy, "Pouring Tea for a Guest", "Write a thank-you card.", "pitcher"))

	assert.Equal(t, ModalityNone, got.Modality)
	assert.Equal(t, BasisExempt, got.Basis)
	assert.Empty(t, got.PDFTemplates)
	assert.Empty(t, got.HouseholdItems)
	assert.Empty(t, got.SubstitutionRule)
}

func TestClassify_PrintableKeywords(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.SubjectLanguage, "Sandpaper Letter Tracing", ""))

	assert.Equal(t, ModalityPrintable, got.Modality)
	assert.Equal(t, BasisKeyword, got.Basis)
	assert.Equal(t, 2, got.Evidence.PrintableScore)
	assert.Equal(t, 1, got.Evidence.DirectScore, "sandpaper contains sand")
	assert.Equal(t, []string{"tracing_sheet"}, got.PDFTemplates)
}

func TestClassify_MultipleTemplatesInOrder(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.SubjectGeography, "Continent Map Labels", "Label each continent on the map, then check with the control chart."))

	assert.Equal(t, ModalityPrintable, got.Modality)
	assert.Equal(t, []string{"map_outline", "labeling_diagram"}, got.PDFTemplates)
}

func TestClassify_DirectKeywordsUseFirstMatchingRule(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.SubjectPracticalLife, "Pouring Beans", "Pour from one pitcher to another with a spoon nearby.", "two pitchers"))

	assert.Equal(t, ModalityDirect, got.Modality)
	assert.Equal(t, "pouring", got.SubstitutionRule, "pouring precedes spooning")
	assert.NotEmpty(t, got.HouseholdItems)
	assert.NotEmpty(t, got.Preparation)
	assert.NotEmpty(t, got.ControlOfError)
	assert.NotEmpty(t, got.Extension)
	assert.Empty(t, got.PDFTemplates)
}

func TestClassify_DirectFallbackUsesListedMaterials(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.SubjectScience, "Magnet Hunt", "Find what the magnet picks up.", "bar magnet", " paper clips ", ""))

	assert.Equal(t, ModalityDirect, got.Modality)
	assert.Equal(t, "generic", got.SubstitutionRule)
	assert.Equal(t, []string{"bar magnet", "paper clips"}, got.HouseholdItems)
	assert.Contains(t, got.ControlOfError, "observe for independence")
}

func TestClassify_TieBreak(t *testing.T) {
	rec := bare(model.SubjectArt, "Leaf Rubbing", "Touch the card gently.")

	got := New(DefaultConfig()).Classify(rec)
	assert.Equal(t, ModalityDirect, got.Modality, "art defaults to direct")
	assert.Equal(t, BasisTieBreak, got.Basis)
	assert.Contains(t, got.Reason, "tie-break")
	assert.Equal(t, "texture", got.SubstitutionRule)

	cfg := DefaultConfig()
	cfg.TieBreak = ModalityPrintable
	got = New(cfg).Classify(rec)
	assert.Equal(t, ModalityPrintable, got.Modality)
	assert.Equal(t, BasisTieBreak, got.Basis)
}

func TestClassify_UnknownSubjectDefaultsToDirect(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.Subject("astronomy"), "Quiet Reflection", ""))

	assert.Equal(t, ModalityDirect, got.Modality)
	assert.Equal(t, BasisDefault, got.Basis)
}

func TestClassify_NilFieldsAreEmpty(t *testing.T) {
	got := New(DefaultConfig()).Classify(&model.LessonRecord{})

	assert.Equal(t, ModalityDirect, got.Modality)
	assert.Equal(t, "generic", got.SubstitutionRule)
}

// =============================================================================
// Determinism and contract
// =============================================================================

func TestClassify_Deterministic(t *testing.T) {
	corpus := curriculumtest.Corpus(curriculumtest.Collection(model.LevelPrimary, 1))
	c := New(DefaultConfig())

	first := c.ClassifyCorpus(corpus)
	second := New(DefaultConfig()).ClassifyCorpus(corpus)

	require.Len(t, first, 25)
	assert.Equal(t, first, second)
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "bit-for-bit identical output")
}

func TestClassifyCorpus_FixtureWeek(t *testing.T) {
	results := New(DefaultConfig()).ClassifyCorpus(curriculumtest.Corpus(curriculumtest.Collection(model.LevelPrimary, 1)))

	for i, r := range results {
		assert.Equal(t, i+1, r.SortOrder)
		switch r.Modality {
		case ModalityPrintable:
			assert.NotEmpty(t, r.PDFTemplates, r.Title)
		case ModalityDirect:
			assert.NotEmpty(t, r.SubstitutionRule, r.Title)
		case ModalityNone:
			assert.Equal(t, model.SubjectGraceCourtesy, r.Subject)
		}
	}

	s := Summarize(results)
	assert.Equal(t, 1, s.ByModality[ModalityNone])
	assert.Equal(t, 25, s.ByModality[ModalityPrintable]+s.ByModality[ModalityDirect]+s.ByModality[ModalityNone])
}

func TestResult_JSONContract(t *testing.T) {
	got := New(DefaultConfig()).Classify(bare(model.SubjectPracticalLife, "Pouring Beans", "Pour carefully."))
	data, err := json.Marshal(got)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"modality", "reason", "basis", "evidence", "household_items", "preparation", "control_of_error", "extension"} {
		assert.Contains(t, fields, key)
	}
}

func TestRemediators_CoverEveryModality(t *testing.T) {
	for _, m := range Modalities {
		_, ok := remediators[m]
		assert.True(t, ok, m)
	}
	assert.False(t, Modality("HOLOGRAM").Valid())
}
