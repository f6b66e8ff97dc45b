// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package structural checks lesson records against the field/shape contract
// and each week collection against its expected size.
//
// Every defect is reported at field granularity: a record missing three
// fields yields three violations, each naming its field, so a report can
// say exactly what to fix.
package structural

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/lessonlint/services/curriculum/loader"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

// =============================================================================
// VIOLATION KINDS
// =============================================================================

// Kind classifies a structural violation.
type Kind string

const (
	KindMissingField        Kind = "missing-field"
	KindEmptyTitle          Kind = "empty-title"
	KindInvalidEnum         Kind = "invalid-enum"
	KindSlidesMissing       Kind = "slides-missing"
	KindSlidesTooShort      Kind = "slides-too-short"
	KindQuarterMismatch     Kind = "quarter-mismatch"
	KindWeekOutOfRange      Kind = "week-out-of-range"
	KindDayOutOfRange       Kind = "day-out-of-range"
	KindSortOrderOutOfRange Kind = "sort-order-out-of-range"
	KindDurationNotPositive Kind = "duration-not-positive"
	KindLessonCount         Kind = "lesson-count"
	KindWeekMismatch        Kind = Kind(loader.IssueWeekMismatch)
	KindLevelMismatch       Kind = Kind(loader.IssueLevelMismatch)
)

// IsCardinality reports whether the kind is a per-collection size defect
// rather than a field defect.
func (k Kind) IsCardinality() bool {
	return k == KindLessonCount
}

// Violation is one field-level or collection-level defect.
//
// Index is the record position in its file, or -1 for collection-level
// violations.
type Violation struct {
	Kind      Kind        `json:"kind"`
	Level     model.Level `json:"level"`
	Week      int         `json:"week"`
	SortOrder int         `json:"sort_order,omitempty"`
	Title     string      `json:"title,omitempty"`
	File      string      `json:"file"`
	Index     int         `json:"index"`
	Field     string      `json:"field,omitempty"`
	Message   string      `json:"message"`
}

// Location renders "primary/w03 #7 \"Pink Tower\"" style context.
func (v Violation) Location() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/w%02d", v.Level, v.Week)
	if v.SortOrder > 0 {
		fmt.Fprintf(&b, " #%d", v.SortOrder)
	} else if v.Index >= 0 {
		fmt.Fprintf(&b, " [%d]", v.Index)
	}
	if v.Title != "" {
		fmt.Fprintf(&b, " %q", v.Title)
	}
	return b.String()
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds the structural contract parameters.
type Config struct {
	// LessonsPerWeek is the expected collection length per level. Levels
	// not listed use DefaultLessonsPerWeek.
	LessonsPerWeek map[model.Level]int `yaml:"lessons_per_week"`

	// DefaultLessonsPerWeek applies to levels absent from LessonsPerWeek.
	DefaultLessonsPerWeek int `yaml:"default_lessons_per_week"`

	// MinSlides is the minimum slide count when slide_content is present.
	MinSlides int `yaml:"min_slides"`

	// SlidesRequiredQuarter is the quarter in which slide_content must be
	// present. Zero disables the requirement.
	SlidesRequiredQuarter int `yaml:"slides_required_quarter"`

	// TitlePrefixLen is how many runes of the title a violation carries.
	TitlePrefixLen int `yaml:"title_prefix_len"`
}

// DefaultConfig returns the production contract.
func DefaultConfig() Config {
	return Config{
		LessonsPerWeek: map[model.Level]int{
			model.LevelPrimary:         model.DefaultLessonsPerWeek,
			model.LevelLowerElementary: model.DefaultLessonsPerWeek,
			model.LevelUpperElementary: model.DefaultLessonsPerWeek,
		},
		DefaultLessonsPerWeek: model.DefaultLessonsPerWeek,
		MinSlides:             3,
		SlidesRequiredQuarter: 1,
		TitlePrefixLen:        40,
	}
}

// ExpectedLessons returns the expected collection length for level.
func (c Config) ExpectedLessons(level model.Level) int {
	if n, ok := c.LessonsPerWeek[level]; ok && n > 0 {
		return n
	}
	if c.DefaultLessonsPerWeek > 0 {
		return c.DefaultLessonsPerWeek
	}
	return model.DefaultLessonsPerWeek
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks records and collections. It is safe for concurrent use
// once constructed.
type Validator struct {
	cfg      Config
	presence *validator.Validate
}

// New creates a Validator for cfg.
func New(cfg Config) *Validator {
	presence := validator.New()
	presence.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{cfg: cfg, presence: presence}
}

// Validate checks every collection in the corpus, plus the collection
// issues the loader raised. The result is sorted by location.
func (v *Validator) Validate(corpus *model.Corpus) []Violation {
	var out []Violation
	for _, col := range corpus.Collections {
		out = append(out, v.ValidateCollection(col)...)
	}
	for _, issue := range corpus.Issues {
		out = append(out, Violation{
			Kind:    Kind(issue.Kind),
			Level:   issue.Key.Level,
			Week:    issue.Key.Week,
			File:    issue.File,
			Index:   -1,
			Message: issue.Message,
		})
	}
	sortViolations(out)
	return out
}

// ValidateCollection checks the collection size and every record in it.
func (v *Validator) ValidateCollection(col *model.WeekCollection) []Violation {
	var out []Violation
	if want := v.cfg.ExpectedLessons(col.Key.Level); len(col.Lessons) != want {
		out = append(out, Violation{
			Kind:    KindLessonCount,
			Level:   col.Key.Level,
			Week:    col.Key.Week,
			File:    col.File,
			Index:   -1,
			Message: fmt.Sprintf("collection has %d lessons, expected %d", len(col.Lessons), want),
		})
	}
	for _, rec := range col.Lessons {
		out = append(out, v.ValidateRecord(rec)...)
	}
	return out
}

// ValidateRecord checks one record. Presence, range, and cross-field
// checks are independent: a record can fail any subset of them.
func (v *Validator) ValidateRecord(rec *model.LessonRecord) []Violation {
	if rec == nil {
		return nil
	}
	var out []Violation
	add := func(kind Kind, field, format string, args ...any) {
		out = append(out, v.violation(rec, kind, field, fmt.Sprintf(format, args...)))
	}

	for _, field := range v.missingFields(rec) {
		add(KindMissingField, field, "required field %q is missing or null", field)
	}

	if rec.Title != nil && strings.TrimSpace(*rec.Title) == "" {
		add(KindEmptyTitle, "title", "title is blank")
	}
	if rec.Level != nil && !rec.Level.Valid() {
		add(KindInvalidEnum, "level", "unknown level %q", *rec.Level)
	}
	if rec.Subject != nil && !rec.Subject.Valid() {
		add(KindInvalidEnum, "subject", "unknown subject %q", *rec.Subject)
	}
	if rec.LessonType != nil && !rec.LessonType.Valid() {
		add(KindInvalidEnum, "lesson_type", "unknown lesson type %q", *rec.LessonType)
	}

	if rec.WeekNumber != nil && !model.WeekInRange(*rec.WeekNumber) {
		add(KindWeekOutOfRange, "week_number", "week_number %d is outside %d..%d", *rec.WeekNumber, model.MinWeek, model.MaxWeek)
	}
	if rec.DayOfWeek != nil && !model.DayInRange(*rec.DayOfWeek) {
		add(KindDayOutOfRange, "day_of_week", "day_of_week %d is outside %d..%d", *rec.DayOfWeek, model.MinDay, model.MaxDay)
	}
	if rec.SortOrder != nil && !model.SortOrderInRange(*rec.SortOrder) {
		add(KindSortOrderOutOfRange, "sort_order", "sort_order %d is outside %d..%d", *rec.SortOrder, model.MinSortOrder, model.MaxSortOrder)
	}
	if rec.DurationMinutes != nil && *rec.DurationMinutes <= 0 {
		add(KindDurationNotPositive, "duration_minutes", "duration_minutes must be positive, got %d", *rec.DurationMinutes)
	}

	if rec.Quarter != nil && rec.WeekNumber != nil && model.WeekInRange(*rec.WeekNumber) {
		if want := model.ExpectedQuarter(*rec.WeekNumber); *rec.Quarter != want {
			add(KindQuarterMismatch, "quarter", "quarter mismatch: found Q%d, expected Q%d for week %d", *rec.Quarter, want, *rec.WeekNumber)
		}
	}

	out = append(out, v.checkSlides(rec)...)
	return out
}

// missingFields returns the JSON names of required fields that are nil.
func (v *Validator) missingFields(rec *model.LessonRecord) []string {
	err := v.presence.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			fields = append(fields, fe.Field())
		}
	}
	return fields
}

// checkSlides applies the slide_content contract. Absence is only a
// violation in the configured quarter; a present payload always needs a
// slides list of at least MinSlides entries.
func (v *Validator) checkSlides(rec *model.LessonRecord) []Violation {
	sc := rec.SlideContent
	if sc == nil {
		if v.cfg.SlidesRequiredQuarter > 0 && model.ExpectedQuarter(rec.Source.Key.Week) == v.cfg.SlidesRequiredQuarter {
			return []Violation{v.violation(rec, KindMissingField, "slide_content",
				fmt.Sprintf("slide_content is required in Q%d", v.cfg.SlidesRequiredQuarter))}
		}
		return nil
	}
	switch n := len(sc.Slides); {
	case n == 0:
		return []Violation{v.violation(rec, KindSlidesMissing, "slide_content.slides",
			"slide_content is present but has no slides")}
	case n < v.cfg.MinSlides:
		return []Violation{v.violation(rec, KindSlidesTooShort, "slide_content.slides",
			fmt.Sprintf("slide_content has %d slides, need at least %d", n, v.cfg.MinSlides))}
	}
	return nil
}

func (v *Validator) violation(rec *model.LessonRecord, kind Kind, field, msg string) Violation {
	return Violation{
		Kind:      kind,
		Level:     rec.Source.Key.Level,
		Week:      rec.Source.Key.Week,
		SortOrder: rec.GetSortOrder(),
		Title:     rec.TitlePrefix(v.cfg.TitlePrefixLen),
		File:      rec.Source.File,
		Index:     rec.Source.Index,
		Field:     field,
		Message:   msg,
	}
}

func sortViolations(vs []Violation) {
	slices.SortFunc(vs, func(a, b Violation) int {
		return cmp.Or(
			model.CompareWeekKeys(model.WeekKey{Level: a.Level, Week: a.Week}, model.WeekKey{Level: b.Level, Week: b.Week}),
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Index, b.Index),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Field, b.Field),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
