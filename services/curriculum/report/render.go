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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/lessonlint/pkg/ux"
	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/duplicates"
	"github.com/AleutianAI/lessonlint/services/curriculum/xref"
)

// maxItems caps how many findings a dashboard section lists.
const maxItems = 50

var strategyOrder = []xref.Strategy{
	xref.StrategyExplicit,
	xref.StrategySubstring,
	xref.StrategyWordOverlap,
	xref.StrategyGeneric,
	xref.StrategyUnmatched,
}

// Render writes the dashboard: one section per category in Categories
// order with the cross-reference summary ahead of the material sections,
// then the PASS/FAIL line.
func Render(p *ux.Printer, r *ValidationReport) {
	p.Title(fmt.Sprintf("lessonlint report %s", r.Scope.Key()))
	p.KeyValue("run", r.RunID)
	p.KeyValue("root", r.Scope.Root)
	p.KeyValue("weeks", r.Totals.Weeks)
	p.KeyValue("lessons", r.Totals.Lessons)
	p.KeyValue("inventory items", r.Totals.InventoryItems)

	for _, c := range Categories {
		if c == CategoryUnmatched {
			renderCrossReference(p, r)
		}
		renderSection(p, r, c)
	}
	renderModalities(p, r)

	switch {
	case p.Level() == ux.PersonalityFull:
		p.Box("Summary", []string{r.SummaryLine()}, !r.Passed())
	case r.Passed():
		p.Success(r.SummaryLine())
	default:
		p.Error(r.SummaryLine())
	}
}

func renderSection(p *ux.Printer, r *ValidationReport, c Category) {
	n := r.Count(c)
	icon := ux.IconSuccess
	if n > 0 {
		switch c.Severity() {
		case SeverityError:
			icon = ux.IconError
		case SeverityWarning:
			icon = ux.IconWarning
		default:
			icon = ux.IconInfo
		}
	}
	p.Section(c.Title(), n, icon)
	items := sectionItems(r, c)
	for i, item := range items {
		if i == maxItems {
			p.Muted(fmt.Sprintf("  ... %d more", len(items)-maxItems))
			break
		}
		p.Item(item)
	}
}

// sectionItems renders each finding of a category as one line.
func sectionItems(r *ValidationReport, c Category) []string {
	var out []string
	switch c {
	case CategoryParse:
		for _, f := range r.ParseFailures {
			out = append(out, f.Error())
		}
	case CategoryLessonCount:
		for _, v := range r.LessonCountErrors {
			out = append(out, fmt.Sprintf("%s: %s", v.File, v.Message))
		}
	case CategoryField:
		for _, v := range r.FieldErrors {
			out = append(out, fmt.Sprintf("%s: %s", v.Location(), v.Message))
		}
	case CategoryAnalyzer:
		for _, f := range r.AnalyzerFailures {
			out = append(out, fmt.Sprintf("%s: %s", f.Analyzer, f.Message))
		}
	case CategoryExactDuplicate:
		for _, f := range r.ExactDuplicates {
			out = append(out, fmt.Sprintf("%s %q at %s", f.Level, f.Title, occurrenceList(f.Occurrences)))
		}
	case CategoryNearDuplicate:
		for _, f := range r.NearDuplicates {
			out = append(out, fmt.Sprintf("%s %q ~ %q (%s, distance %d)", f.Level, f.Title, f.Other, f.Reason, f.Distance))
		}
	case CategoryIntroRepeat:
		for _, f := range r.IntroRepeats {
			out = append(out, fmt.Sprintf("%s %q introduced in weeks %s", f.Level, f.Title, joinInts(f.Weeks)))
		}
	case CategoryUnmatched:
		if r.CrossReference != nil {
			for _, u := range r.CrossReference.Unmatched {
				out = append(out, fmt.Sprintf("%q in %d week(s), %d mention(s)", u.Material, len(u.Weeks), u.Mentions))
			}
		}
	case CategoryUnreferenced:
		if r.CrossReference != nil {
			for _, item := range r.CrossReference.Unreferenced {
				out = append(out, fmt.Sprintf("%s %s", item.Code, item.Name))
			}
		}
	case CategoryDistribution:
		for _, d := range r.Distribution {
			out = append(out, fmt.Sprintf("%s/w%02d %s: %s", d.Level, d.Week, d.Kind, d.Message))
		}
	}
	return out
}

func renderCrossReference(p *ux.Printer, r *ValidationReport) {
	x := r.CrossReference
	if x == nil {
		return
	}
	p.Section("Materials cross-reference", len(x.Resolutions), ux.IconInfo)
	p.KeyValue("referenced codes", len(x.Referenced))
	p.KeyValue("unreferenced items", len(x.Unreferenced))
	p.KeyValue("unmatched materials", len(x.Unmatched))
	counts := x.CountByStrategy()
	for _, s := range strategyOrder {
		if counts[s] > 0 {
			p.KeyValue("resolved by "+string(s), counts[s])
		}
	}
	if len(x.UnknownCodes) > 0 {
		p.Warning("explicit table names unknown codes: " + strings.Join(x.UnknownCodes, ", "))
	}
}

func renderModalities(p *ux.Printer, r *ValidationReport) {
	if len(r.Classifications) == 0 {
		return
	}
	p.Section("Modalities", len(r.Classifications), ux.IconInfo)
	for _, m := range classify.Modalities {
		p.KeyValue(string(m), r.Modalities.ByModality[m])
	}
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *ValidationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func occurrenceList(occ []duplicates.Occurrence) string {
	parts := make([]string, len(occ))
	for i, o := range occ {
		parts[i] = fmt.Sprintf("w%02d #%d", o.Week, o.SortOrder)
	}
	return strings.Join(parts, ", ")
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
