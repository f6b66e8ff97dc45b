// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export writes a ValidationReport as an XLSX workbook for the
// curriculum team: a summary sheet, one sheet per finding section, and
// the classification sheet the asset renderer works from.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/AleutianAI/lessonlint/services/curriculum/duplicates"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
	"github.com/AleutianAI/lessonlint/services/curriculum/structural"
)

// Sheet names, in workbook order.
const (
	SheetSummary         = "Summary"
	SheetParse           = "Parse Errors"
	SheetStructural      = "Structural"
	SheetDuplicates      = "Duplicates"
	SheetMaterials       = "Materials"
	SheetDistribution    = "Distribution"
	SheetClassifications = "Classifications"
)

// Sheets lists every sheet in workbook order.
var Sheets = []string{
	SheetSummary,
	SheetParse,
	SheetStructural,
	SheetDuplicates,
	SheetMaterials,
	SheetDistribution,
	SheetClassifications,
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) append(values ...any) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

// Workbook builds the workbook in memory. The caller must Close it.
func Workbook(r *report.ValidationReport) (*excelize.File, error) {
	f := excelize.NewFile()
	// NewFile starts with "Sheet1"; rename it rather than leave it empty.
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range Sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	writers := []func(*sheetWriter, *report.ValidationReport){
		writeSummary,
		writeParse,
		writeStructural,
		writeDuplicates,
		writeMaterials,
		writeDistribution,
		writeClassifications,
	}
	for i, write := range writers {
		w := &sheetWriter{f: f, sheet: Sheets[i]}
		write(w, r)
		if w.err != nil {
			f.Close()
			return nil, fmt.Errorf("writing sheet %s: %w", Sheets[i], w.err)
		}
		if err := f.SetRowStyle(Sheets[i], 1, 1, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("styling sheet %s: %w", Sheets[i], err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, r *report.ValidationReport) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to path.
func SaveAs(path string, r *report.ValidationReport) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// SHEETS
// =============================================================================

func writeSummary(w *sheetWriter, r *report.ValidationReport) {
	w.append("Field", "Value")
	w.append("Run", r.RunID)
	w.append("Scope", r.Scope.Key())
	w.append("Started", r.StartedAt.Format("2006-01-02 15:04:05"))
	w.append("Weeks", r.Totals.Weeks)
	w.append("Lessons", r.Totals.Lessons)
	w.append("Inventory items", r.Totals.InventoryItems)
	for _, c := range report.Categories {
		w.append(c.Title(), r.Count(c))
	}
	w.append("Passed", r.Passed())
	w.append("Publish ready", r.PublishReady())
	w.append("Result", r.SummaryLine())
}

func writeParse(w *sheetWriter, r *report.ValidationReport) {
	w.append("File", "Message")
	for _, f := range r.ParseFailures {
		w.append(f.File, f.Message)
	}
	for _, f := range r.AnalyzerFailures {
		w.append("analyzer:"+f.Analyzer, f.Message)
	}
}

func writeStructural(w *sheetWriter, r *report.ValidationReport) {
	w.append("Level", "Week", "Sort Order", "Title", "File", "Kind", "Field", "Message")
	row := func(v structural.Violation) {
		w.append(string(v.Level), v.Week, v.SortOrder, v.Title, v.File, string(v.Kind), v.Field, v.Message)
	}
	for _, v := range r.LessonCountErrors {
		row(v)
	}
	for _, v := range r.FieldErrors {
		row(v)
	}
}

func writeDuplicates(w *sheetWriter, r *report.ValidationReport) {
	w.append("Class", "Level", "Title", "Other", "Reason", "Distance", "Occurrences")
	for _, group := range [][]duplicates.Finding{r.ExactDuplicates, r.NearDuplicates, r.IntroRepeats} {
		for _, d := range group {
			occ := make([]string, len(d.Occurrences))
			for i, o := range d.Occurrences {
				occ[i] = fmt.Sprintf("w%02d #%d", o.Week, o.SortOrder)
			}
			w.append(string(d.Class), string(d.Level), d.Title, d.Other, string(d.Reason), d.Distance, strings.Join(occ, ", "))
		}
	}
}

func writeMaterials(w *sheetWriter, r *report.ValidationReport) {
	w.append("Material", "Strategy", "Codes", "Weeks", "Mentions")
	if r.CrossReference == nil {
		return
	}
	for _, res := range r.CrossReference.Resolutions {
		w.append(res.Material, string(res.Strategy), strings.Join(res.Codes, ", "), len(res.Weeks), res.Mentions)
	}
	for _, item := range r.CrossReference.Unreferenced {
		w.append(item.Name, "unreferenced", item.Code, 0, 0)
	}
}

func writeDistribution(w *sheetWriter, r *report.ValidationReport) {
	w.append("Level", "Week", "Kind", "File", "Message")
	for _, d := range r.Distribution {
		w.append(string(d.Level), d.Week, string(d.Kind), d.File, d.Message)
	}
}

func writeClassifications(w *sheetWriter, r *report.ValidationReport) {
	w.append("Level", "Week", "Sort Order", "Subject", "Title", "Modality", "Basis", "Reason",
		"PDF Templates", "Household Items", "Preparation", "Control of Error", "Extension")
	for _, c := range r.Classifications {
		w.append(string(c.Level), c.Week, c.SortOrder, string(c.Subject), c.Title, string(c.Modality), string(c.Basis), c.Reason,
			strings.Join(c.PDFTemplates, ", "), strings.Join(c.HouseholdItems, ", "), c.Preparation, c.ControlOfError, c.Extension)
	}
}
