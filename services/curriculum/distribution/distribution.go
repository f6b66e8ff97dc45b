// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package distribution checks the per-week pedagogical template: lessons
// per weekday, subject counts and placement, interchangeable subject
// bands, and sort-order contiguity.
//
// Count and placement are checked separately: a subject taught the right
// number of times on the wrong days is a different issue from one taught
// the wrong number of times.
package distribution

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

// Kind classifies a distribution issue.
type Kind string

const (
	KindDayCount           Kind = "day-count"
	KindSubjectCount       Kind = "subject-count"
	KindSubjectPlacement   Kind = "subject-placement"
	KindPairedSubjectBand  Kind = "paired-subject-band"
	KindSortOrderDuplicate Kind = "sort-order-duplicate"
	KindSortOrderGap       Kind = "sort-order-gap"
)

// Issue is one per-week distribution defect.
type Issue struct {
	Kind    Kind            `json:"kind"`
	Level   model.Level     `json:"level"`
	Week    int             `json:"week"`
	File    string          `json:"file"`
	Subject []model.Subject `json:"subject,omitempty"`
	Values  []int           `json:"values,omitempty"`
	Message string          `json:"message"`
}

// =============================================================================
// TEMPLATE
// =============================================================================

// SubjectRule fixes how often a subject is taught and on which days.
// An empty Days list skips the placement check.
type SubjectRule struct {
	Subject model.Subject `yaml:"subject"`
	Count   int           `yaml:"count"`
	Days    []int         `yaml:"days"`
}

// PairRule bounds the combined count of interchangeable subjects.
type PairRule struct {
	Subjects []model.Subject `yaml:"subjects"`
	Min      int             `yaml:"min"`
	Max      int             `yaml:"max"`
}

// Template is the weekly shape of one level.
type Template struct {
	LessonsPerDay int           `yaml:"lessons_per_day"`
	Subjects      []SubjectRule `yaml:"subjects"`
	Pairs         []PairRule    `yaml:"pairs"`
}

// Config holds the default template and per-level overrides.
type Config struct {
	Default Template                 `yaml:"default"`
	Levels  map[model.Level]Template `yaml:"levels"`
}

// DefaultConfig returns the template every level follows unless overridden.
func DefaultConfig() Config {
	everyDay := []int{1, 2, 3, 4, 5}
	return Config{Default: Template{
		LessonsPerDay: model.DefaultLessonsPerDay,
		Subjects: []SubjectRule{
			{Subject: model.SubjectMath, Count: 5, Days: everyDay},
			{Subject: model.SubjectLanguage, Count: 5, Days: everyDay},
			{Subject: model.SubjectPracticalLife, Count: 5, Days: everyDay},
			{Subject: model.SubjectSensorial, Count: 3, Days: []int{1, 3, 5}},
			{Subject: model.SubjectScience, Count: 2, Days: []int{2, 4}},
		},
		Pairs: []PairRule{
			{Subjects: []model.Subject{model.SubjectGeography, model.SubjectHistory}, Min: 2, Max: 3},
		},
	}}
}

// TemplateFor returns the level's template, or the default.
func (c Config) TemplateFor(level model.Level) Template {
	if t, ok := c.Levels[level]; ok {
		return t
	}
	return c.Default
}

// =============================================================================
// CHECKER
// =============================================================================

// Checker applies templates to week collections.
type Checker struct {
	cfg Config
}

// New creates a Checker.
func New(cfg Config) *Checker {
	return &Checker{cfg: cfg}
}

// Check returns the issues for every collection, sorted by week.
func (c *Checker) Check(corpus *model.Corpus) []Issue {
	var out []Issue
	for _, col := range corpus.Collections {
		out = append(out, c.CheckWeek(col)...)
	}
	SortIssues(out)
	return out
}

// CheckWeek returns the issues for one collection in a fixed kind order.
func (c *Checker) CheckWeek(col *model.WeekCollection) []Issue {
	tmpl := c.cfg.TemplateFor(col.Key.Level)
	w := &weekCheck{col: col}

	w.dayCounts(tmpl.LessonsPerDay)
	for _, rule := range tmpl.Subjects {
		w.subject(rule)
	}
	for _, pair := range tmpl.Pairs {
		w.pair(pair)
	}
	w.sortOrder()
	return w.issues
}

type weekCheck struct {
	col    *model.WeekCollection
	issues []Issue
}

func (w *weekCheck) add(kind Kind, subjects []model.Subject, values []int, format string, args ...any) {
	w.issues = append(w.issues, Issue{
		Kind:    kind,
		Level:   w.col.Key.Level,
		Week:    w.col.Key.Week,
		File:    w.col.File,
		Subject: subjects,
		Values:  values,
		Message: fmt.Sprintf(format, args...),
	})
}

func (w *weekCheck) dayCounts(perDay int) {
	if perDay <= 0 {
		return
	}
	counts := make(map[int]int)
	for _, rec := range w.col.Lessons {
		counts[rec.GetDay()]++
	}
	for day := model.MinDay; day <= model.MaxDay; day++ {
		if counts[day] != perDay {
			w.add(KindDayCount, nil, []int{day}, "day %d has %d lessons, expected %d", day, counts[day], perDay)
		}
	}
}

func (w *weekCheck) subject(rule SubjectRule) {
	count := 0
	daySet := make(map[int]bool)
	for _, rec := range w.col.Lessons {
		if rec.GetSubject() == rule.Subject {
			count++
			daySet[rec.GetDay()] = true
		}
	}
	subjects := []model.Subject{rule.Subject}
	if count != rule.Count {
		w.add(KindSubjectCount, subjects, nil, "%s taught %d times, expected %d", rule.Subject, count, rule.Count)
	}
	if len(rule.Days) == 0 {
		return
	}
	observed := sortedKeys(daySet)
	expected := slices.Clone(rule.Days)
	slices.Sort(expected)
	expected = slices.Compact(expected)
	if !slices.Equal(observed, expected) {
		w.add(KindSubjectPlacement, subjects, observed, "%s taught on days %s, expected %s",
			rule.Subject, formatInts(observed), formatInts(expected))
	}
}

func (w *weekCheck) pair(rule PairRule) {
	sum := 0
	for _, rec := range w.col.Lessons {
		if slices.Contains(rule.Subjects, rec.GetSubject()) {
			sum++
		}
	}
	if sum < rule.Min || sum > rule.Max {
		names := make([]string, len(rule.Subjects))
		for i, s := range rule.Subjects {
			names[i] = string(s)
		}
		w.add(KindPairedSubjectBand, rule.Subjects, []int{sum}, "%s taught %d times combined, expected %d..%d",
			strings.Join(names, "+"), sum, rule.Min, rule.Max)
	}
}

// sortOrder requires the week's sort_order values to be exactly 1..N where
// N is the number of records. Records without a sort_order are skipped;
// the structural validator reports them.
func (w *weekCheck) sortOrder() {
	seen := make(map[int]int)
	var observed []int
	for _, rec := range w.col.Lessons {
		if rec.SortOrder == nil {
			continue
		}
		seen[*rec.SortOrder]++
		observed = append(observed, *rec.SortOrder)
	}
	if len(observed) == 0 {
		return
	}

	var dups []int
	for v, n := range seen {
		if n > 1 {
			dups = append(dups, v)
		}
	}
	slices.Sort(dups)
	if len(dups) > 0 {
		w.add(KindSortOrderDuplicate, nil, dups, "sort_order values repeated: %s", formatInts(dups))
	}

	n := len(w.col.Lessons)
	var missing []int
	for v := 1; v <= n; v++ {
		if seen[v] == 0 {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		lo, hi := slices.Min(observed), slices.Max(observed)
		w.add(KindSortOrderGap, nil, missing, "sort_order is not contiguous 1..%d: missing %s (observed %d..%d)",
			n, formatInts(missing), lo, hi)
	}
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func formatInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// SortIssues orders issues by week then kind, for stable rendering.
func SortIssues(issues []Issue) {
	slices.SortStableFunc(issues, func(a, b Issue) int {
		return cmp.Or(
			model.CompareWeekKeys(model.WeekKey{Level: a.Level, Week: a.Week}, model.WeekKey{Level: b.Level, Week: b.Week}),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
