// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report aggregates every analyzer's findings into the
// ValidationReport that gates publishing.
//
// Findings arrive through a Collector, which appends under a mutex and
// sorts once when the report is finalized, so analyzers may report in any
// order and from any goroutine.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/distribution"
	"github.com/AleutianAI/lessonlint/services/curriculum/duplicates"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/structural"
	"github.com/AleutianAI/lessonlint/services/curriculum/xref"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is how a category affects the publish gate.
type Severity int

const (
	// SeverityInfo is reported for context only.
	SeverityInfo Severity = iota

	// SeverityWarning is advisory and never fails the run.
	SeverityWarning

	// SeverityError fails the run.
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is one report section.
type Category string

const (
	CategoryParse          Category = "parse-errors"
	CategoryLessonCount    Category = "lesson-count-errors"
	CategoryField          Category = "field-validation-errors"
	CategoryAnalyzer       Category = "analyzer-failures"
	CategoryExactDuplicate Category = "exact-duplicates"
	CategoryNearDuplicate  Category = "near-duplicates"
	CategoryIntroRepeat    Category = "introduction-repeats"
	CategoryUnmatched      Category = "unmatched-materials"
	CategoryUnreferenced   Category = "unreferenced-inventory"
	CategoryDistribution   Category = "distribution-issues"
)

// Categories lists every section in dashboard order.
var Categories = []Category{
	CategoryParse,
	CategoryLessonCount,
	CategoryField,
	CategoryAnalyzer,
	CategoryExactDuplicate,
	CategoryNearDuplicate,
	CategoryIntroRepeat,
	CategoryUnmatched,
	CategoryUnreferenced,
	CategoryDistribution,
}

// Severity returns the category's severity. Exact duplicates are advisory
// to the run and blocking only to PublishReady.
func (c Category) Severity() Severity {
	switch c {
	case CategoryParse, CategoryLessonCount, CategoryField, CategoryAnalyzer:
		return SeverityError
	case CategoryUnreferenced:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Blocking reports whether a non-empty category fails the run.
func (c Category) Blocking() bool {
	return c.Severity() == SeverityError
}

// Title is the human-readable section heading.
func (c Category) Title() string {
	s := strings.ReplaceAll(string(c), "-", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// REPORT
// =============================================================================

// AnalyzerFailure records an analyzer that did not complete.
type AnalyzerFailure struct {
	Analyzer string `json:"analyzer"`
	Message  string `json:"message"`
}

// Totals describes the size of the input.
type Totals struct {
	Weeks          int `json:"weeks"`
	Lessons        int `json:"lessons"`
	InventoryItems int `json:"inventory_items"`
	Files          int `json:"files"`
}

// Scope records the selectors a run was made with.
type Scope struct {
	Root   string        `json:"root"`
	Levels []model.Level `json:"levels"`
	Week   int           `json:"week,omitempty"`
}

// Key is a stable identifier of the selector, used to compare runs.
func (s Scope) Key() string {
	levels := "all"
	if len(s.Levels) > 0 {
		names := make([]string, len(s.Levels))
		for i, l := range s.Levels {
			names[i] = string(l)
		}
		levels = strings.Join(names, "+")
	}
	if s.Week > 0 {
		return fmt.Sprintf("%s/w%02d", levels, s.Week)
	}
	return levels
}

// ValidationReport is the terminal artifact of a run.
type ValidationReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scope      Scope     `json:"scope"`
	Totals     Totals    `json:"totals"`

	ParseFailures     []model.ParseFailure   `json:"parse_failures"`
	LessonCountErrors []structural.Violation `json:"lesson_count_errors"`
	FieldErrors       []structural.Violation `json:"field_errors"`
	AnalyzerFailures  []AnalyzerFailure      `json:"analyzer_failures"`

	ExactDuplicates []duplicates.Finding `json:"exact_duplicates"`
	NearDuplicates  []duplicates.Finding `json:"near_duplicates"`
	IntroRepeats    []duplicates.Finding `json:"introduction_repeats"`

	CrossReference *xref.Result         `json:"cross_reference,omitempty"`
	Distribution   []distribution.Issue `json:"distribution"`

	Classifications []classify.Result `json:"classifications,omitempty"`
	Modalities      classify.Summary  `json:"modalities"`
}

// Count returns the number of findings in a category.
func (r *ValidationReport) Count(c Category) int {
	switch c {
	case CategoryParse:
		return len(r.ParseFailures)
	case CategoryLessonCount:
		return len(r.LessonCountErrors)
	case CategoryField:
		return len(r.FieldErrors)
	case CategoryAnalyzer:
		return len(r.AnalyzerFailures)
	case CategoryExactDuplicate:
		return len(r.ExactDuplicates)
	case CategoryNearDuplicate:
		return len(r.NearDuplicates)
	case CategoryIntroRepeat:
		return len(r.IntroRepeats)
	case CategoryUnmatched:
		if r.CrossReference == nil {
			return 0
		}
		return len(r.CrossReference.Unmatched)
	case CategoryUnreferenced:
		if r.CrossReference == nil {
			return 0
		}
		return len(r.CrossReference.Unreferenced)
	case CategoryDistribution:
		return len(r.Distribution)
	}
	return 0
}

// BlockingCount sums every blocking category.
func (r *ValidationReport) BlockingCount() int {
	n := 0
	for _, c := range Categories {
		if c.Blocking() {
			n += r.Count(c)
		}
	}
	return n
}

// AdvisoryCount sums every warning category.
func (r *ValidationReport) AdvisoryCount() int {
	n := 0
	for _, c := range Categories {
		if c.Severity() == SeverityWarning {
			n += r.Count(c)
		}
	}
	return n
}

// Passed is the exit gate: no blocking category has findings.
func (r *ValidationReport) Passed() bool {
	return r.BlockingCount() == 0
}

// PublishReady is the publish gate: the run passed and no lesson title is
// an exact duplicate.
func (r *ValidationReport) PublishReady() bool {
	return r.Passed() && len(r.ExactDuplicates) == 0
}

// SummaryLine is the single pass/fail line the dashboard ends with.
func (r *ValidationReport) SummaryLine() string {
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	publish := "publish-ready"
	if !r.PublishReady() {
		publish = "not publish-ready"
	}
	return fmt.Sprintf("%s: %d blocking, %d advisory across %d weeks and %d lessons (%s)",
		status, r.BlockingCount(), r.AdvisoryCount(), r.Totals.Weeks, r.Totals.Lessons, publish)
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the compact record of a run kept in history.
type Summary struct {
	RunID        string           `json:"run_id"`
	ScopeKey     string           `json:"scope"`
	StartedAt    time.Time        `json:"started_at"`
	Duration     time.Duration    `json:"duration"`
	Totals       Totals           `json:"totals"`
	Counts       map[Category]int `json:"counts"`
	Blocking     int              `json:"blocking"`
	Advisory     int              `json:"advisory"`
	Passed       bool             `json:"passed"`
	PublishReady bool             `json:"publish_ready"`
}

// Summary condenses the report.
func (r *ValidationReport) Summary() Summary {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = r.Count(c)
	}
	return Summary{
		RunID:        r.RunID,
		ScopeKey:     r.Scope.Key(),
		StartedAt:    r.StartedAt,
		Duration:     r.FinishedAt.Sub(r.StartedAt),
		Totals:       r.Totals,
		Counts:       counts,
		Blocking:     r.BlockingCount(),
		Advisory:     r.AdvisoryCount(),
		Passed:       r.Passed(),
		PublishReady: r.PublishReady(),
	}
}
