// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify labels each lesson with the physical-interaction
// modality it needs and derives the matching remediation payload.
//
// # Description
//
// The lesson text (title, description, instructions, and materials) is
// scored against two keyword vocabularies by counting literal substring
// occurrences. The decision rule, in order:
//
//  1. The exempt subject is NONE.
//  2. A higher printable score is PRINTABLE.
//  3. A higher direct score is DIRECT.
//  4. Two zero scores use the subject default.
//  5. A non-zero tie uses the subject default (or Config.TieBreak) and is
//     recorded as a tie-break.
//
// # Determinism
//
// Classify is a pure function of the lesson and the Config. The output is
// advisory and never alters the lesson.
package classify

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/textnorm"
)

// Modality is the physical-interaction category a lesson requires.
type Modality string

const (
	ModalityPrintable Modality = "PRINTABLE"
	ModalityDirect    Modality = "DIRECT"
	ModalityNone      Modality = "NONE"
)

// Modalities lists every modality in report order.
var Modalities = []Modality{ModalityPrintable, ModalityDirect, ModalityNone}

// Valid reports whether m is a known modality.
func (m Modality) Valid() bool {
	return slices.Contains(Modalities, m)
}

// Basis records which rule decided the modality.
type Basis string

const (
	BasisExempt   Basis = "exempt"
	BasisKeyword  Basis = "keyword"
	BasisDefault  Basis = "default"
	BasisTieBreak Basis = "tie-break"
)

// KeywordHit is one vocabulary keyword found in the lesson text.
type KeywordHit struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Count   int    `json:"count" yaml:"count"`
}

// Evidence is the keyword scoring behind a decision.
type Evidence struct {
	DirectScore    int          `json:"direct_score" yaml:"direct_score"`
	PrintableScore int          `json:"printable_score" yaml:"printable_score"`
	Direct         []KeywordHit `json:"direct,omitempty" yaml:"direct,omitempty"`
	Printable      []KeywordHit `json:"printable,omitempty" yaml:"printable,omitempty"`
}

// Result is the classification of one lesson. The JSON field names are
// the contract the asset renderer and lesson display key on.
type Result struct {
	Level     model.Level   `json:"level" yaml:"level"`
	Week      int           `json:"week" yaml:"week"`
	SortOrder int           `json:"sort_order" yaml:"sort_order"`
	Subject   model.Subject `json:"subject" yaml:"subject"`
	Title     string        `json:"title" yaml:"title"`

	Modality Modality `json:"modality" yaml:"modality"`
	Reason   string   `json:"reason" yaml:"reason"`
	Basis    Basis    `json:"basis" yaml:"basis"`
	Evidence Evidence `json:"evidence" yaml:"evidence"`

	PDFTemplates     []string `json:"pdf_templates,omitempty" yaml:"pdf_templates,omitempty"`
	SubstitutionRule string   `json:"substitution_rule,omitempty" yaml:"substitution_rule,omitempty"`
	HouseholdItems   []string `json:"household_items,omitempty" yaml:"household_items,omitempty"`
	Preparation      string   `json:"preparation,omitempty" yaml:"preparation,omitempty"`
	ControlOfError   string   `json:"control_of_error,omitempty" yaml:"control_of_error,omitempty"`
	Extension        string   `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// Summary counts results per modality and basis.
type Summary struct {
	ByModality map[Modality]int `json:"by_modality" yaml:"by_modality"`
	ByBasis    map[Basis]int    `json:"by_basis" yaml:"by_basis"`
	Templates  map[string]int   `json:"templates" yaml:"templates"`
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	s := Summary{
		ByModality: make(map[Modality]int),
		ByBasis:    make(map[Basis]int),
		Templates:  make(map[string]int),
	}
	for _, r := range results {
		s.ByModality[r.Modality]++
		s.ByBasis[r.Basis]++
		for _, id := range r.PDFTemplates {
			s.Templates[id]++
		}
	}
	return s
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier applies one Config. It holds no mutable state.
type Classifier struct {
	cfg Config
}

// New creates a Classifier. Empty fallbacks are filled from DefaultConfig.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.FallbackTemplate == "" {
		cfg.FallbackTemplate = def.FallbackTemplate
	}
	if cfg.FallbackSubstitution.Name == "" {
		cfg.FallbackSubstitution = def.FallbackSubstitution
	}
	if !cfg.UnknownSubjectDefault.Valid() {
		cfg.UnknownSubjectDefault = ModalityDirect
	}
	return &Classifier{cfg: cfg}
}

// ClassifyCorpus classifies every lesson, ordered by level, week, and
// sort order.
func (c *Classifier) ClassifyCorpus(corpus *model.Corpus) []Result {
	lessons := corpus.Lessons()
	out := make([]Result, 0, len(lessons))
	for _, rec := range lessons {
		out = append(out, c.Classify(rec))
	}
	slices.SortStableFunc(out, func(a, b Result) int {
		return cmp.Or(
			model.CompareWeekKeys(model.WeekKey{Level: a.Level, Week: a.Week}, model.WeekKey{Level: b.Level, Week: b.Week}),
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.Title, b.Title),
		)
	})
	return out
}

// Classify decides the modality of one lesson and derives its remediation.
func (c *Classifier) Classify(rec *model.LessonRecord) Result {
	res := Result{
		Level:     rec.Source.Key.Level,
		Week:      rec.Source.Key.Week,
		SortOrder: rec.GetSortOrder(),
		Subject:   rec.GetSubject(),
		Title:     strings.TrimSpace(rec.GetTitle()),
	}
	if res.Level == "" {
		res.Level = rec.GetLevel()
	}
	if res.Week == 0 {
		res.Week = rec.GetWeek()
	}

	text := blob(rec)
	res.Evidence = c.score(text)
	res.Modality, res.Basis, res.Reason = c.decide(res.Subject, res.Evidence)
	remediatorFor(res.Modality)(c, rec, text, &res)
	return res
}

func (c *Classifier) decide(subject model.Subject, ev Evidence) (Modality, Basis, string) {
	if subject == c.cfg.ExemptSubject {
		return ModalityNone, BasisExempt, fmt.Sprintf("subject %s needs no physical conversion", subject)
	}
	switch {
	case ev.PrintableScore > ev.DirectScore:
		return ModalityPrintable, BasisKeyword, fmt.Sprintf("keyword match: printable score %d beats direct score %d", ev.PrintableScore, ev.DirectScore)
	case ev.DirectScore > ev.PrintableScore:
		return ModalityDirect, BasisKeyword, fmt.Sprintf("keyword match: direct score %d beats printable score %d", ev.DirectScore, ev.PrintableScore)
	}

	def := c.subjectDefault(subject)
	if ev.DirectScore == 0 {
		return def, BasisDefault, fmt.Sprintf("subject default: no keywords matched, %s defaults to %s", subjectName(subject), def)
	}
	if c.cfg.TieBreak.Valid() {
		return c.cfg.TieBreak, BasisTieBreak, fmt.Sprintf("tie-break: both scores are %d, configured tie-break is %s", ev.DirectScore, c.cfg.TieBreak)
	}
	return def, BasisTieBreak, fmt.Sprintf("tie-break: both scores are %d, %s defaults to %s", ev.DirectScore, subjectName(subject), def)
}

func (c *Classifier) subjectDefault(subject model.Subject) Modality {
	if m, ok := c.cfg.SubjectDefaults[subject]; ok && m.Valid() {
		return m
	}
	return c.cfg.UnknownSubjectDefault
}

func (c *Classifier) score(text string) Evidence {
	var ev Evidence
	ev.Direct, ev.DirectScore = hits(text, c.cfg.DirectVocabulary)
	ev.Printable, ev.PrintableScore = hits(text, c.cfg.PrintableVocabulary)
	return ev
}

// hits counts every keyword in vocabulary order. Repeated keywords in the
// vocabulary are counted once.
func hits(text string, vocabulary []string) ([]KeywordHit, int) {
	var out []KeywordHit
	total := 0
	seen := make(map[string]bool, len(vocabulary))
	for _, kw := range vocabulary {
		kw = strings.ToLower(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if n := textnorm.CountOccurrences(text, kw); n > 0 {
			out = append(out, KeywordHit{Keyword: kw, Count: n})
			total += n
		}
	}
	return out, total
}

// blob joins the lesson's searchable text in lowercase. Nil fields read
// as empty.
func blob(rec *model.LessonRecord) string {
	parts := []string{rec.GetTitle(), rec.GetDescription(), rec.GetInstructions()}
	parts = append(parts, rec.MaterialsNeeded...)
	return strings.ToLower(strings.Join(parts, "\n"))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw = strings.ToLower(kw); kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func subjectName(s model.Subject) string {
	if s == "" {
		return "unknown subject"
	}
	return string(s)
}
