// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/distribution"
	"github.com/AleutianAI/lessonlint/services/curriculum/duplicates"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/structural"
	"github.com/AleutianAI/lessonlint/services/curriculum/xref"
)

// Collector accumulates findings from concurrent analyzers.
//
// Thread Safety: every method is safe for concurrent use. Finding order
// is irrelevant; Finalize sorts each section.
type Collector struct {
	mu     sync.Mutex
	report ValidationReport
	now    func() time.Time
}

// NewCollector starts a report for scope with a fresh run ID.
func NewCollector(scope Scope) *Collector {
	c := &Collector{now: time.Now}
	c.report = ValidationReport{
		RunID:     uuid.NewString(),
		StartedAt: c.now().UTC(),
		Scope:     scope,
	}
	return c
}

// SetCorpus records input totals and parse failures.
func (c *Collector) SetCorpus(corpus *model.Corpus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Totals = Totals{
		Weeks:          len(corpus.Collections),
		Lessons:        corpus.LessonCount(),
		InventoryItems: len(corpus.Inventory),
		Files:          len(corpus.Collections) + len(corpus.Failures),
	}
	c.report.ParseFailures = append(c.report.ParseFailures, corpus.Failures...)
}

// AddViolations files structural violations as lesson-count or field errors.
func (c *Collector) AddViolations(vs []structural.Violation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range vs {
		if v.Kind.IsCardinality() {
			c.report.LessonCountErrors = append(c.report.LessonCountErrors, v)
		} else {
			c.report.FieldErrors = append(c.report.FieldErrors, v)
		}
	}
}

// AddDuplicates appends duplicate findings.
func (c *Collector) AddDuplicates(res *duplicates.Result) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.ExactDuplicates = append(c.report.ExactDuplicates, res.Exact...)
	c.report.NearDuplicates = append(c.report.NearDuplicates, res.Near...)
	c.report.IntroRepeats = append(c.report.IntroRepeats, res.IntroRepeats...)
}

// SetCrossReference records the resolver output.
func (c *Collector) SetCrossReference(res *xref.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.CrossReference = res
}

// AddDistribution appends distribution issues.
func (c *Collector) AddDistribution(issues []distribution.Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Distribution = append(c.report.Distribution, issues...)
}

// AddClassifications appends classifier results.
func (c *Collector) AddClassifications(results []classify.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Classifications = append(c.report.Classifications, results...)
}

// AddAnalyzerFailure records an analyzer that panicked or errored.
func (c *Collector) AddAnalyzerFailure(analyzer, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.AnalyzerFailures = append(c.report.AnalyzerFailures, AnalyzerFailure{Analyzer: analyzer, Message: message})
}

// Finalize sorts every section, stamps the finish time, and returns the
// report. The collector must not be used afterwards.
func (c *Collector) Finalize() *ValidationReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &c.report

	slices.SortFunc(r.ParseFailures, func(a, b model.ParseFailure) int {
		return cmp.Or(cmp.Compare(a.File, b.File), cmp.Compare(a.Message, b.Message))
	})
	sortViolations(r.LessonCountErrors)
	sortViolations(r.FieldErrors)
	slices.SortFunc(r.AnalyzerFailures, func(a, b AnalyzerFailure) int {
		return cmp.Or(cmp.Compare(a.Analyzer, b.Analyzer), cmp.Compare(a.Message, b.Message))
	})
	sortFindings(r.ExactDuplicates)
	sortFindings(r.NearDuplicates)
	sortFindings(r.IntroRepeats)
	distribution.SortIssues(r.Distribution)
	slices.SortStableFunc(r.Classifications, func(a, b classify.Result) int {
		return cmp.Or(
			model.CompareWeekKeys(model.WeekKey{Level: a.Level, Week: a.Week}, model.WeekKey{Level: b.Level, Week: b.Week}),
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.Title, b.Title),
		)
	})
	r.Modalities = classify.Summarize(r.Classifications)
	r.FinishedAt = c.now().UTC()
	return r
}

func sortViolations(vs []structural.Violation) {
	slices.SortFunc(vs, func(a, b structural.Violation) int {
		return cmp.Or(
			model.CompareWeekKeys(model.WeekKey{Level: a.Level, Week: a.Week}, model.WeekKey{Level: b.Level, Week: b.Week}),
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Index, b.Index),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Field, b.Field),
		)
	})
}

func sortFindings(fs []duplicates.Finding) {
	slices.SortFunc(fs, func(a, b duplicates.Finding) int {
		return cmp.Or(
			model.CompareWeekKeys(model.WeekKey{Level: a.Level}, model.WeekKey{Level: b.Level}),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.Other, b.Other),
		)
	})
}
