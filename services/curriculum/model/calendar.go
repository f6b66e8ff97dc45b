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

// School-year calendar bounds.
const (
	MinWeek      = 1
	MaxWeek      = 36
	MinDay       = 1
	MaxDay       = 5
	MinSortOrder = 1
	MaxSortOrder = 25
	WeeksPerTerm = 9

	// DefaultLessonsPerWeek is the collection size every level uses unless
	// configured otherwise.
	DefaultLessonsPerWeek = 25

	// DefaultLessonsPerDay is the number of lessons scheduled per weekday.
	DefaultLessonsPerDay = 5
)

// ExpectedQuarter returns the quarter a week belongs to.
//
// The partition is fixed: weeks 1–9 are Q1, 10–18 Q2, 19–27 Q3 and
// 28–36 Q4. Weeks below 1 clamp to Q1 and weeks above 36 clamp to Q4 so
// a range violation on the week does not also produce a bogus quarter.
func ExpectedQuarter(week int) int {
	switch {
	case week <= 9:
		return 1
	case week <= 18:
		return 2
	case week <= 27:
		return 3
	default:
		return 4
	}
}

// WeekInRange reports whether week is a schedulable week number.
func WeekInRange(week int) bool {
	return week >= MinWeek && week <= MaxWeek
}

// DayInRange reports whether day is a weekday (Monday=1 .. Friday=5).
func DayInRange(day int) bool {
	return day >= MinDay && day <= MaxDay
}

// SortOrderInRange reports whether order fits the per-week slot range.
func SortOrderInRange(order int) bool {
	return order >= MinSortOrder && order <= MaxSortOrder
}
