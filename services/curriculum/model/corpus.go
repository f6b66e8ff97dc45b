// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"cmp"
	"fmt"
	"slices"
)

// =============================================================================
// INVENTORY
// =============================================================================

// MaterialInventoryItem is a canonical physical or printable resource.
type MaterialInventoryItem struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	SubjectArea string `json:"subject_area" yaml:"subject_area"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// =============================================================================
// COLLECTIONS
// =============================================================================

// WeekKey identifies one week of one level.
type WeekKey struct {
	Level Level `json:"level"`
	Week  int   `json:"week"`
}

// String renders the key as "primary/w07".
func (k WeekKey) String() string {
	return fmt.Sprintf("%s/w%02d", k.Level, k.Week)
}

// CompareWeekKeys orders keys by level schedule order, then week.
func CompareWeekKeys(a, b WeekKey) int {
	if c := cmp.Compare(levelRank(a.Level), levelRank(b.Level)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Level, b.Level); c != 0 {
		return c
	}
	return cmp.Compare(a.Week, b.Week)
}

func levelRank(l Level) int {
	if i := slices.Index(Levels, l); i >= 0 {
		return i
	}
	return len(Levels)
}

// WeekCollection is the ordered list of lessons scheduled for one week.
type WeekCollection struct {
	Key     WeekKey
	File    string
	Lessons []*LessonRecord
}

// ParseFailure records a collection or record that could not be read.
type ParseFailure struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

func (f ParseFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.File, f.Message)
}

// CollectionIssue is a defect detected while loading a collection that
// does not prevent it from being analyzed, such as a week number in the
// filename that disagrees with the records.
type CollectionIssue struct {
	Key     WeekKey `json:"key"`
	File    string  `json:"file"`
	Index   int     `json:"index"`
	Kind    string  `json:"kind"`
	Message string  `json:"message"`
}

// =============================================================================
// CORPUS
// =============================================================================

// Corpus is the fully loaded, read-only model for one run.
type Corpus struct {
	// Root is the content directory the corpus was loaded from.
	Root string

	// Collections are sorted by (level, week).
	Collections []*WeekCollection

	// Inventory is sorted by code.
	Inventory []MaterialInventoryItem

	// Failures are sorted by file.
	Failures []ParseFailure

	// Issues are loader-detected collection defects.
	Issues []CollectionIssue
}

// LessonCount returns the number of lessons across all collections.
func (c *Corpus) LessonCount() int {
	n := 0
	for _, col := range c.Collections {
		n += len(col.Lessons)
	}
	return n
}

// Lessons returns every lesson in collection order.
func (c *Corpus) Lessons() []*LessonRecord {
	out := make([]*LessonRecord, 0, c.LessonCount())
	for _, col := range c.Collections {
		out = append(out, col.Lessons...)
	}
	return out
}

// LessonsByLevel groups lessons by their collection's level.
func (c *Corpus) LessonsByLevel() map[Level][]*LessonRecord {
	out := make(map[Level][]*LessonRecord)
	for _, col := range c.Collections {
		out[col.Key.Level] = append(out[col.Key.Level], col.Lessons...)
	}
	return out
}

// SortedLevels returns the levels present in the corpus in schedule order.
func (c *Corpus) SortedLevels() []Level {
	seen := make(map[Level]bool)
	var levels []Level
	for _, col := range c.Collections {
		if !seen[col.Key.Level] {
			seen[col.Key.Level] = true
			levels = append(levels, col.Key.Level)
		}
	}
	slices.SortFunc(levels, func(a, b Level) int {
		return CompareWeekKeys(WeekKey{Level: a}, WeekKey{Level: b})
	})
	return levels
}
