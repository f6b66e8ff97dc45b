// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model defines the typed in-memory representation of the lesson
// library: lesson records, week collections, the materials inventory, and
// the loaded corpus every analyzer reads.
//
// # Presence
//
// Required fields on LessonRecord are pointers. After decoding, a nil
// pointer means the field was absent or explicitly null in the source file,
// which the structural validator reports per field. Analyzers that only
// need a value use the Get* accessors, which return the zero value for nil
// so no string operation ever runs on missing data.
//
// # Thread Safety
//
// Values are produced once by the loader and treated as immutable
// afterwards. They are safe for concurrent reads.
package model

import "strings"

// SourceRef locates a record in the content tree.
type SourceRef struct {
	// Key is the (level, week) of the collection the record was loaded from.
	Key WeekKey `json:"key"`

	// File is the path of the collection file relative to the content root.
	File string `json:"file"`

	// Index is the 0-based position of the record within the file.
	Index int `json:"index"`
}

// SlideContent is the optional presentation payload of a lesson.
//
// Slides is a pointer-free slice: nil means the "slides" key was absent,
// an empty non-nil slice means it was present but empty.
type SlideContent struct {
	Slides []any `json:"slides" yaml:"slides"`
}

// LessonRecord is one scheduled unit of instruction.
type LessonRecord struct {
	Level           *Level        `json:"level" yaml:"level" validate:"required"`
	Subject         *Subject      `json:"subject" yaml:"subject" validate:"required"`
	WeekNumber      *int          `json:"week_number" yaml:"week_number" validate:"required"`
	DayOfWeek       *int          `json:"day_of_week" yaml:"day_of_week" validate:"required"`
	Quarter         *int          `json:"quarter" yaml:"quarter" validate:"required"`
	Title           *string       `json:"title" yaml:"title" validate:"required"`
	Description     *string       `json:"description" yaml:"description" validate:"required"`
	Instructions    *string       `json:"instructions" yaml:"instructions" validate:"required"`
	DurationMinutes *int          `json:"duration_minutes" yaml:"duration_minutes" validate:"required"`
	LessonType      *LessonType   `json:"lesson_type" yaml:"lesson_type" validate:"required"`
	MaterialsNeeded []string      `json:"materials_needed" yaml:"materials_needed" validate:"required"`
	SlideContent    *SlideContent `json:"slide_content,omitempty" yaml:"slide_content,omitempty"`
	SortOrder       *int          `json:"sort_order" yaml:"sort_order" validate:"required"`

	// Source is filled by the loader and never read from content files.
	Source SourceRef `json:"-" yaml:"-"`
}

// GetLevel returns the level or "" when absent.
func (r *LessonRecord) GetLevel() Level {
	if r == nil || r.Level == nil {
		return ""
	}
	return *r.Level
}

// GetSubject returns the subject or "" when absent.
func (r *LessonRecord) GetSubject() Subject {
	if r == nil || r.Subject == nil {
		return ""
	}
	return *r.Subject
}

// GetLessonType returns the lesson type or "" when absent.
func (r *LessonRecord) GetLessonType() LessonType {
	if r == nil || r.LessonType == nil {
		return ""
	}
	return *r.LessonType
}

// GetWeek returns the week number or 0 when absent.
func (r *LessonRecord) GetWeek() int {
	if r == nil || r.WeekNumber == nil {
		return 0
	}
	return *r.WeekNumber
}

// GetDay returns the day of week or 0 when absent.
func (r *LessonRecord) GetDay() int {
	if r == nil || r.DayOfWeek == nil {
		return 0
	}
	return *r.DayOfWeek
}

// GetQuarter returns the quarter or 0 when absent.
func (r *LessonRecord) GetQuarter() int {
	if r == nil || r.Quarter == nil {
		return 0
	}
	return *r.Quarter
}

// GetSortOrder returns the sort order or 0 when absent.
func (r *LessonRecord) GetSortOrder() int {
	if r == nil || r.SortOrder == nil {
		return 0
	}
	return *r.SortOrder
}

// GetDuration returns the duration in minutes or 0 when absent.
func (r *LessonRecord) GetDuration() int {
	if r == nil || r.DurationMinutes == nil {
		return 0
	}
	return *r.DurationMinutes
}

// GetTitle returns the title or "" when absent.
func (r *LessonRecord) GetTitle() string {
	if r == nil {
		return ""
	}
	return derefString(r.Title)
}

// GetDescription returns the description or "" when absent.
func (r *LessonRecord) GetDescription() string {
	if r == nil {
		return ""
	}
	return derefString(r.Description)
}

// GetInstructions returns the instructions or "" when absent.
func (r *LessonRecord) GetInstructions() string {
	if r == nil {
		return ""
	}
	return derefString(r.Instructions)
}

// TitlePrefix returns at most n runes of the title, with an ellipsis when
// the title was cut. Used to locate a record in reports.
func (r *LessonRecord) TitlePrefix(n int) string {
	title := strings.TrimSpace(r.GetTitle())
	runes := []rune(title)
	if len(runes) <= n {
		return title
	}
	return string(runes[:n]) + "…"
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
