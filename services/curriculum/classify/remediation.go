// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"strings"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

// remediator fills the modality-specific payload of a result.
type remediator func(c *Classifier, rec *model.LessonRecord, text string, res *Result)

// remediators has exactly one handler per modality. NONE has an explicit
// empty handler and is also the fallback for an unknown modality.
var remediators = map[Modality]remediator{
	ModalityPrintable: printableRemediation,
	ModalityDirect:    directRemediation,
	ModalityNone:      noRemediation,
}

func remediatorFor(m Modality) remediator {
	if r, ok := remediators[m]; ok {
		return r
	}
	return noRemediation
}

// printableRemediation lists every template whose keywords match, in
// template order. A lesson always gets at least the fallback template.
func printableRemediation(c *Classifier, _ *model.LessonRecord, text string, res *Result) {
	for _, t := range c.cfg.Templates {
		if containsAny(text, t.Keywords) {
			res.PDFTemplates = append(res.PDFTemplates, t.ID)
		}
	}
	if len(res.PDFTemplates) == 0 {
		res.PDFTemplates = []string{c.cfg.FallbackTemplate}
	}
}

// directRemediation applies the first substitution rule that matches. The
// fallback reuses the lesson's own materials.
func directRemediation(c *Classifier, rec *model.LessonRecord, text string, res *Result) {
	rule := c.cfg.FallbackSubstitution
	items := rule.HouseholdItems
	matched := false
	for _, r := range c.cfg.Substitutions {
		if containsAny(text, r.Keywords) {
			rule, items, matched = r, r.HouseholdItems, true
			break
		}
	}
	if !matched && len(items) == 0 {
		for _, m := range rec.MaterialsNeeded {
			if m = strings.TrimSpace(m); m != "" {
				items = append(items, m)
			}
		}
	}
	res.SubstitutionRule = rule.Name
	res.HouseholdItems = append([]string(nil), items...)
	res.Preparation = rule.Preparation
	res.ControlOfError = rule.ControlOfError
	res.Extension = rule.Extension
}

func noRemediation(*Classifier, *model.LessonRecord, string, *Result) {}
