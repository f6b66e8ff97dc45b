// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package duplicates finds lesson titles that collide within a level.
//
// # Description
//
// Three independent passes run over every week of a level:
//
//   - Exact: titles equal after lowercasing and trimming.
//   - Near: distinct folded titles that share a base once a trailing
//     parenthetical is stripped ("same-base"), or whose edit distance is
//     below the configured threshold ("near-duplicate").
//   - Introduction-repeat: "introduction" titles whose remaining words recur
//     in more than one week.
//
// # Determinism
//
// Every output slice is sorted, so shuffling records or collections never
// changes the result. The near pass is sharded across workers with errgroup;
// shard boundaries do not affect the findings.
//
// # Thread Safety
//
// A Detector is immutable and safe for concurrent use.
package duplicates

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/textnorm"
)

// Class is the kind of duplicate finding.
type Class string

const (
	ClassExact       Class = "exact"
	ClassNear        Class = "near"
	ClassIntroRepeat Class = "introduction-repeat"
)

// Reason explains why two titles are near-duplicates.
type Reason string

const (
	ReasonSameBase     Reason = "same-base"
	ReasonEditDistance Reason = "near-duplicate"
)

const (
	defaultIntroWord     = "introduction"
	defaultNearThreshold = 5
)

// Occurrence is one place a title is scheduled.
type Occurrence struct {
	Week      int           `json:"week"`
	SortOrder int           `json:"sort_order"`
	Subject   model.Subject `json:"subject"`
	Title     string        `json:"title"`
	File      string        `json:"file"`
	Index     int           `json:"index"`
}

// Finding is one duplicate group or pair.
type Finding struct {
	Class Class       `json:"class"`
	Level model.Level `json:"level"`

	// Title is the shared title (exact), the first title of the pair
	// (near), or the base left after removing "introduction" (repeat).
	Title string `json:"title"`

	// Other is the second title of a near pair.
	Other string `json:"other,omitempty"`

	Reason   Reason `json:"reason,omitempty"`
	Distance int    `json:"distance,omitempty"`

	// Weeks lists the distinct weeks of an introduction-repeat.
	Weeks []int `json:"weeks,omitempty"`

	Occurrences []Occurrence `json:"occurrences"`
}

// Result holds the findings of all three passes.
type Result struct {
	Exact        []Finding `json:"exact"`
	Near         []Finding `json:"near"`
	IntroRepeats []Finding `json:"introduction_repeats"`
}

// Config tunes the detector.
type Config struct {
	// NearThreshold is the exclusive upper bound on edit distance for a
	// near-duplicate. Distances in 1..NearThreshold-1 are flagged.
	NearThreshold int `yaml:"near_threshold"`

	// Workers is the number of near-pass shards. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`

	// IntroWord is the word that marks an introduction lesson.
	IntroWord string `yaml:"intro_word"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		NearThreshold: defaultNearThreshold,
		IntroWord:     defaultIntroWord,
	}
}

// Detector runs the duplicate passes.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Detector. A nil logger discards output.
func New(cfg Config, logger *slog.Logger) *Detector {
	if cfg.NearThreshold <= 0 {
		cfg.NearThreshold = defaultNearThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if strings.TrimSpace(cfg.IntroWord) == "" {
		cfg.IntroWord = defaultIntroWord
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{cfg: cfg, logger: logger.With(slog.String("component", "duplicates"))}
}

// Detect runs all three passes for every level in the corpus.
//
// The only errors are context cancellation and a recovered panic inside a
// near-pass shard.
func (d *Detector) Detect(ctx context.Context, corpus *model.Corpus) (*Result, error) {
	res := &Result{}
	byLevel := corpus.LessonsByLevel()
	for _, level := range corpus.SortedLevels() {
		lessons := byLevel[level]
		res.Exact = append(res.Exact, d.exact(level, lessons)...)

		near, err := d.near(ctx, level, lessons)
		if err != nil {
			return nil, fmt.Errorf("near-duplicate pass for %s: %w", level, err)
		}
		res.Near = append(res.Near, near...)

		res.IntroRepeats = append(res.IntroRepeats, d.introRepeats(level, lessons)...)
	}
	d.logger.Debug("duplicate passes complete",
		slog.Int("exact", len(res.Exact)),
		slog.Int("near", len(res.Near)),
		slog.Int("intro_repeats", len(res.IntroRepeats)))
	return res, nil
}

// =============================================================================
// EXACT
// =============================================================================

func (d *Detector) exact(level model.Level, lessons []*model.LessonRecord) []Finding {
	groups := make(map[string][]Occurrence)
	for _, rec := range lessons {
		key := textnorm.Key(rec.GetTitle())
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], occurrenceOf(rec))
	}

	var out []Finding
	for key, occ := range groups {
		if len(occ) < 2 {
			continue
		}
		sortOccurrences(occ)
		out = append(out, Finding{Class: ClassExact, Level: level, Title: key, Occurrences: occ})
	}
	slices.SortFunc(out, func(a, b Finding) int { return cmp.Compare(a.Title, b.Title) })
	return out
}

// =============================================================================
// NEAR
// =============================================================================

// titleGroup is one distinct folded title and where it occurs.
type titleGroup struct {
	folded string
	base   string
	title  string
	occ    []Occurrence
}

func (d *Detector) near(ctx context.Context, level model.Level, lessons []*model.LessonRecord) ([]Finding, error) {
	groups := groupByFolded(lessons)
	if len(groups) < 2 {
		return nil, nil
	}

	workers := min(d.cfg.Workers, len(groups))
	shards := make([][]Finding, workers)

	g, gCtx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("shard %d panicked: %v", w, r)
				}
			}()
			// Rows are dealt round-robin so long and short rows mix.
			for i := w; i < len(groups); i += workers {
				if err := gCtx.Err(); err != nil {
					return err
				}
				for j := i + 1; j < len(groups); j++ {
					if f, ok := d.comparePair(level, groups[i], groups[j]); ok {
						shards[w] = append(shards[w], f)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Finding
	for _, shard := range shards {
		for _, f := range shard {
			key := pairKey(textnorm.Fold(f.Title), textnorm.Fold(f.Other))
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b Finding) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.Other, b.Other))
	})
	return out, nil
}

// comparePair decides whether two distinct folded titles are near
// duplicates. Same-base takes precedence over edit distance; the distance
// is recorded either way.
func (d *Detector) comparePair(level model.Level, a, b titleGroup) (Finding, bool) {
	if a.folded == b.folded {
		return Finding{}, false
	}
	// Same-base means one whole title is the other with its trailing
	// parenthetical removed. Two siblings that only share a base
	// ("Map (Africa)", "Map (Europe)") are left to the distance check.
	sameBase := (a.base != a.folded && a.base == b.folded) ||
		(b.base != b.folded && b.base == a.folded)
	if !sameBase && absDiff(len([]rune(a.folded)), len([]rune(b.folded))) >= d.cfg.NearThreshold {
		return Finding{}, false
	}

	dist := levenshtein(a.folded, b.folded)
	var reason Reason
	switch {
	case sameBase:
		reason = ReasonSameBase
	case dist > 0 && dist < d.cfg.NearThreshold:
		reason = ReasonEditDistance
	default:
		return Finding{}, false
	}

	occ := append(slices.Clone(a.occ), b.occ...)
	sortOccurrences(occ)
	return Finding{
		Class:       ClassNear,
		Level:       level,
		Title:       a.title,
		Other:       b.title,
		Reason:      reason,
		Distance:    dist,
		Occurrences: occ,
	}, true
}

// groupByFolded collapses lessons onto their folded titles, sorted by the
// folded form. The representative title is the smallest raw title.
func groupByFolded(lessons []*model.LessonRecord) []titleGroup {
	index := make(map[string]int)
	var groups []titleGroup
	for _, rec := range lessons {
		raw := strings.TrimSpace(rec.GetTitle())
		folded := textnorm.Fold(raw)
		if folded == "" {
			continue
		}
		i, ok := index[folded]
		if !ok {
			i = len(groups)
			index[folded] = i
			groups = append(groups, titleGroup{
				folded: folded,
				base:   textnorm.Fold(textnorm.StripTrailingParenthetical(raw)),
				title:  raw,
			})
		}
		g := &groups[i]
		if raw < g.title {
			g.title = raw
			g.base = textnorm.Fold(textnorm.StripTrailingParenthetical(raw))
		}
		g.occ = append(g.occ, occurrenceOf(rec))
	}
	slices.SortFunc(groups, func(a, b titleGroup) int { return cmp.Compare(a.folded, b.folded) })
	return groups
}

// pairKey is the same for (a, b) and (b, a).
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// =============================================================================
// INTRODUCTION REPEAT
// =============================================================================

func (d *Detector) introRepeats(level model.Level, lessons []*model.LessonRecord) []Finding {
	type group struct {
		weeks map[int]bool
		occ   []Occurrence
	}
	groups := make(map[string]*group)
	for _, rec := range lessons {
		title := rec.GetTitle()
		if !textnorm.HasWord(title, d.cfg.IntroWord) {
			continue
		}
		base := textnorm.RemoveWord(title, d.cfg.IntroWord)
		if base == "" {
			continue
		}
		g, ok := groups[base]
		if !ok {
			g = &group{weeks: make(map[int]bool)}
			groups[base] = g
		}
		g.weeks[rec.Source.Key.Week] = true
		g.occ = append(g.occ, occurrenceOf(rec))
	}

	var out []Finding
	for base, g := range groups {
		if len(g.weeks) < 2 {
			continue
		}
		weeks := make([]int, 0, len(g.weeks))
		for w := range g.weeks {
			weeks = append(weeks, w)
		}
		slices.Sort(weeks)
		sortOccurrences(g.occ)
		out = append(out, Finding{
			Class:       ClassIntroRepeat,
			Level:       level,
			Title:       base,
			Weeks:       weeks,
			Occurrences: g.occ,
		})
	}
	slices.SortFunc(out, func(a, b Finding) int { return cmp.Compare(a.Title, b.Title) })
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func occurrenceOf(rec *model.LessonRecord) Occurrence {
	return Occurrence{
		Week:      rec.Source.Key.Week,
		SortOrder: rec.GetSortOrder(),
		Subject:   rec.GetSubject(),
		Title:     strings.TrimSpace(rec.GetTitle()),
		File:      rec.Source.File,
		Index:     rec.Source.Index,
	}
}

func sortOccurrences(occ []Occurrence) {
	slices.SortFunc(occ, func(a, b Occurrence) int {
		return cmp.Or(
			cmp.Compare(a.Week, b.Week),
			cmp.Compare(a.SortOrder, b.SortOrder),
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Index, b.Index),
			cmp.Compare(a.Title, b.Title),
		)
	})
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
