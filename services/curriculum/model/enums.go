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
	"fmt"
	"strings"
)

// =============================================================================
// LEVEL
// =============================================================================

// Level is a grade band. Each level owns its own 36-week schedule.
type Level string

const (
	LevelPrimary         Level = "primary"
	LevelLowerElementary Level = "lower_elementary"
	LevelUpperElementary Level = "upper_elementary"
)

// Levels is the closed set of grade bands in schedule order.
var Levels = []Level{LevelPrimary, LevelLowerElementary, LevelUpperElementary}

// Valid reports whether l is one of the known grade bands.
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLevel parses a level selector. Hyphens are accepted in place of
// underscores so "lower-elementary" and "lower_elementary" are equivalent.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q (want one of %s)", s, joinLevels())
	}
	return l, nil
}

func joinLevels() string {
	names := make([]string, len(Levels))
	for i, l := range Levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// SUBJECT
// =============================================================================

// Subject is a curriculum area.
type Subject string

const (
	SubjectPracticalLife   Subject = "practical_life"
	SubjectSensorial       Subject = "sensorial"
	SubjectMath            Subject = "math"
	SubjectLanguage        Subject = "language"
	SubjectScience         Subject = "science"
	SubjectGeography       Subject = "geography"
	SubjectHistory         Subject = "history"
	SubjectArt             Subject = "art"
	SubjectMusic           Subject = "music"
	SubjectCulturalStudies Subject = "cultural_studies"
	SubjectGraceCourtesy   Subject = "grace_and_courtesy"
)

// Subjects is the closed set of curriculum areas.
var Subjects = []Subject{
	SubjectPracticalLife,
	SubjectSensorial,
	SubjectMath,
	SubjectLanguage,
	SubjectScience,
	SubjectGeography,
	SubjectHistory,
	SubjectArt,
	SubjectMusic,
	SubjectCulturalStudies,
	SubjectGraceCourtesy,
}

// Valid reports whether s is a known subject.
func (s Subject) Valid() bool {
	for _, known := range Subjects {
		if s == known {
			return true
		}
	}
	return false
}

// =============================================================================
// LESSON TYPE
// =============================================================================

// LessonType describes how a lesson is delivered.
type LessonType string

const (
	LessonTypeGuided      LessonType = "guided"
	LessonTypeIndependent LessonType = "independent"
	LessonTypeGreatLesson LessonType = "great_lesson"
	LessonTypeGroup       LessonType = "group"
	LessonTypeReview      LessonType = "review"
)

// LessonTypes is the closed set of delivery types.
var LessonTypes = []LessonType{
	LessonTypeGuided,
	LessonTypeIndependent,
	LessonTypeGreatLesson,
	LessonTypeGroup,
	LessonTypeReview,
}

// Valid reports whether t is a known lesson type.
func (t LessonType) Valid() bool {
	for _, known := range LessonTypes {
		if t == known {
			return true
		}
	}
	return false
}
