// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package curriculumtest builds well-formed lesson collections for tests.
//
// Week returns 25 records that satisfy every structural and distribution
// rule of the default configuration: sort_order 1..25 exactly once, days
// cycling 1..5 five times, the correct quarter, slide content with three
// slides, and the default subject template.
package curriculumtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

type slot struct {
	subject   model.Subject
	title     string
	materials []string
}

// schedule[day-1][position] is the lesson taught in that slot.
var schedule = [5][5]slot{
	{
		{model.SubjectMath, "Golden Bead Addition", []string{"golden bead material", "work mat"}},
		{model.SubjectLanguage, "Sandpaper Letters", []string{"sandpaper letters", "tray"}},
		{model.SubjectPracticalLife, "Pouring Dry Beans", []string{"two small pitchers", "dry beans", "tray"}},
		{model.SubjectSensorial, "Pink Tower", []string{"pink tower", "rug"}},
		{model.SubjectGeography, "Land and Water Forms", []string{"land and water form trays", "water"}},
	},
	{
		{model.SubjectMath, "Spindle Box Counting", []string{"spindle box", "45 spindles"}},
		{model.SubjectLanguage, "Moveable Alphabet", []string{"moveable alphabet"}},
		{model.SubjectPracticalLife, "Folding Napkins", []string{"cloth napkins", "basket"}},
		{model.SubjectScience, "Parts of a Flower", []string{"fresh flower", "flower nomenclature cards"}},
		{model.SubjectHistory, "Timeline of My Life", []string{"blank timeline strip", "family photos"}},
	},
	{
		{model.SubjectMath, "Teen Board", []string{"seguin board", "bead bars"}},
		{model.SubjectLanguage, "Object Box Rhyming", []string{"rhyming object box"}},
		{model.SubjectPracticalLife, "Table Scrubbing", []string{"scrub brush", "bucket", "sponge"}},
		{model.SubjectSensorial, "Color Tablets Grading", []string{"color box 3"}},
		{model.SubjectArt, "Watercolor Wash", []string{"watercolor paints", "paper", "brush"}},
	},
	{
		{model.SubjectMath, "Number Rods", []string{"number rods", "numeral cards"}},
		{model.SubjectLanguage, "Classified Nomenclature", []string{"three-part cards"}},
		{model.SubjectPracticalLife, "Buttoning Frame", []string{"button dressing frame"}},
		{model.SubjectScience, "Sink or Float", []string{"basin", "water", "sink and float objects"}},
		{model.SubjectMusic, "Bells Matching", []string{"montessori bells", "striker"}},
	},
	{
		{model.SubjectMath, "Stamp Game Subtraction", []string{"stamp game", "paper", "pencil"}},
		{model.SubjectLanguage, "Metal Insets", []string{"metal insets", "colored pencils"}},
		{model.SubjectPracticalLife, "Flower Arranging", []string{"small vase", "fresh flowers", "scissors"}},
		{model.SubjectSensorial, "Knobbed Cylinders", []string{"knobbed cylinder block 1"}},
		{model.SubjectGraceCourtesy, "Greeting a Visitor", []string{}},
	},
}

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Week returns a clean 25-lesson week for level.
func Week(level model.Level, week int) []*model.LessonRecord {
	file := fmt.Sprintf("%s/week-%02d.json", level, week)
	key := model.WeekKey{Level: level, Week: week}
	out := make([]*model.LessonRecord, 0, 25)
	for i := range 25 {
		order := i + 1
		day := i%5 + 1
		s := schedule[day-1][i/5]
		out = append(out, Lesson(level, week, day, order, s.subject, s.title, s.materials...))
		out[i].Source = model.SourceRef{Key: key, File: file, Index: i}
	}
	return out
}

// Lesson builds one complete record.
func Lesson(level model.Level, week, day, order int, subject model.Subject, title string, materials ...string) *model.LessonRecord {
	lt := model.LessonTypeGuided
	if materials == nil {
		materials = []string{}
	}
	return &model.LessonRecord{
		Level:           &level,
		Subject:         &subject,
		WeekNumber:      Int(week),
		DayOfWeek:       Int(day),
		Quarter:         Int(model.ExpectedQuarter(week)),
		Title:           Str(title),
		Description:     Str("Present " + title + " to a small group."),
		Instructions:    Str("Invite the child, model the activity slowly, then offer a turn."),
		DurationMinutes: Int(20),
		LessonType:      &lt,
		MaterialsNeeded: materials,
		SlideContent: &model.SlideContent{Slides: []any{
			map[string]any{"heading": "Invitation"},
			map[string]any{"heading": "Presentation"},
			map[string]any{"heading": "Practice"},
		}},
		SortOrder: Int(order),
		Source:    model.SourceRef{Key: model.WeekKey{Level: level, Week: week}},
	}
}

// Collection wraps Week in a WeekCollection.
func Collection(level model.Level, week int) *model.WeekCollection {
	return &model.WeekCollection{
		Key:     model.WeekKey{Level: level, Week: week},
		File:    fmt.Sprintf("%s/week-%02d.json", level, week),
		Lessons: Week(level, week),
	}
}

// Inventory returns a small canonical inventory that covers most fixture
// materials.
func Inventory() []model.MaterialInventoryItem {
	return []model.MaterialInventoryItem{
		{Code: "LAN-001", Name: "Sandpaper Letters", SubjectArea: "language"},
		{Code: "LAN-002", Name: "Moveable Alphabet", SubjectArea: "language"},
		{Code: "LAN-003", Name: "Metal Insets", SubjectArea: "language"},
		{Code: "MAT-001", Name: "Golden Bead Material", SubjectArea: "math"},
		{Code: "MAT-002", Name: "Spindle Box", SubjectArea: "math"},
		{Code: "MAT-003", Name: "Number Rods", SubjectArea: "math"},
		{Code: "MAT-004", Name: "Stamp Game", SubjectArea: "math"},
		{Code: "MAT-005", Name: "Seguin Boards", SubjectArea: "math"},
		{Code: "MUS-001", Name: "Montessori Bells", SubjectArea: "music"},
		{Code: "SEN-001", Name: "Pink Tower", SubjectArea: "sensorial"},
		{Code: "SEN-002", Name: "Knobbed Cylinder Blocks", SubjectArea: "sensorial"},
		{Code: "SEN-003", Name: "Color Box 3", SubjectArea: "sensorial"},
		{Code: "SEN-009", Name: "Geometric Solids", SubjectArea: "sensorial"},
	}
}

// Corpus assembles collections and the default inventory.
func Corpus(cols ...*model.WeekCollection) *model.Corpus {
	return &model.Corpus{Root: "testdata", Collections: cols, Inventory: Inventory()}
}

// WriteJSON marshals v into root/rel, creating parent directories.
func WriteJSON(tb testing.TB, root, rel string, v any) string {
	tb.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		tb.Fatalf("marshal %s: %v", rel, err)
	}
	return WriteFile(tb, root, rel, data)
}

// WriteFile writes raw bytes into root/rel, creating parent directories.
func WriteFile(tb testing.TB, root, rel string, data []byte) string {
	tb.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", rel, err)
	}
	return path
}

// WriteContentTree writes one clean week per (level, week) pair plus the
// default inventory and returns the root directory.
func WriteContentTree(tb testing.TB, level model.Level, weeks ...int) string {
	tb.Helper()
	root := tb.TempDir()
	for _, w := range weeks {
		WriteJSON(tb, root, fmt.Sprintf("%s/week-%02d.json", level, w), Week(level, w))
	}
	WriteJSON(tb, root, "materials.json", Inventory())
	return root
}
