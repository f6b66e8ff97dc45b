// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package xref resolves free-text lesson materials to inventory codes.
//
// Each distinct normalized material is resolved once, in strict priority
// order, stopping at the first strategy that succeeds:
//
//  1. explicit: a curated generic-name table; every key contained in the
//     material credits all of its codes.
//  2. substring: the first inventory item (in code order) whose name
//     contains, or is contained in, the material.
//  3. word-overlap: the item sharing the most significant words with the
//     material, given at least MinOverlap shared words.
//
// The curated table is authoritative: once it matches, substring noise
// from unrelated inventory names is never consulted.
package xref

import (
	"cmp"
	"slices"
	"strings"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/textnorm"
)

// Strategy names how a material was resolved.
type Strategy string

const (
	StrategyExplicit    Strategy = "explicit"
	StrategySubstring   Strategy = "substring"
	StrategyWordOverlap Strategy = "word-overlap"
	StrategyGeneric     Strategy = "generic"
	StrategyUnmatched   Strategy = "unmatched"
)

// Resolved reports whether the strategy credited inventory codes.
func (s Strategy) Resolved() bool {
	switch s {
	case StrategyExplicit, StrategySubstring, StrategyWordOverlap:
		return true
	}
	return false
}

// Config is the immutable matching configuration.
type Config struct {
	// Explicit maps a generic material name to one or more codes.
	Explicit map[string][]string `yaml:"explicit"`

	// GenericItems are household materials that never need an inventory
	// code. A trailing plural "s" on the material is tolerated.
	GenericItems []string `yaml:"generic_items"`

	// MinWordLen is the shortest token that counts in word overlap.
	MinWordLen int `yaml:"min_word_len"`

	// MinOverlap is the fewest shared tokens for a word-overlap match.
	MinOverlap int `yaml:"min_overlap"`
}

// DefaultConfig returns the curated table and household list.
func DefaultConfig() Config {
	return Config{
		Explicit: map[string][]string{
			"golden bead":    {"MAT-001"},
			"bead bar":       {"MAT-001", "MAT-005"},
			"seguin board":   {"MAT-005"},
			"teen board":     {"MAT-005"},
			"cylinder block": {"SEN-002"},
			"color tablet":   {"SEN-003"},
			"bells":          {"MUS-001"},
		},
		GenericItems: []string{
			"apron", "basket", "bowl", "brush", "bucket", "chair", "cloth",
			"colored pencils", "crayons", "cup", "glue", "jar", "markers",
			"mat", "paper", "pencil", "pitcher", "rug", "scissors", "sponge",
			"spoon", "table", "tape", "timer", "towel", "tray", "water",
			"work mat",
		},
		MinWordLen: 3,
		MinOverlap: 2,
	}
}

// Resolution is the outcome for one distinct normalized material.
type Resolution struct {
	Material string   `json:"material"`
	Strategy Strategy `json:"strategy"`
	Codes    []string `json:"codes,omitempty"`

	// Weeks are the distinct collections the material appears in.
	Weeks []model.WeekKey `json:"weeks"`

	// Mentions counts every lesson mention, including repeats.
	Mentions int `json:"mentions"`
}

// Result is the corpus-wide cross-reference.
type Result struct {
	// Resolutions are sorted by material.
	Resolutions []Resolution `json:"resolutions"`

	// Referenced are the inventory codes credited by any lesson, sorted.
	Referenced []string `json:"referenced"`

	// Unreferenced inventory items are over-provisioned.
	Unreferenced []model.MaterialInventoryItem `json:"unreferenced"`

	// Unmatched non-generic materials are under-provisioned, ranked by the
	// number of distinct weeks they appear in, then by name.
	Unmatched []Resolution `json:"unmatched"`

	// UnknownCodes are explicit-table codes absent from the inventory.
	UnknownCodes []string `json:"unknown_codes,omitempty"`
}

// CountByStrategy tallies resolutions per strategy.
func (r *Result) CountByStrategy() map[Strategy]int {
	out := make(map[Strategy]int)
	for _, res := range r.Resolutions {
		out[res.Strategy]++
	}
	return out
}

// Resolver matches materials against one inventory.
type Resolver struct {
	cfg       Config
	keys      []string
	inventory []indexedItem
	generic   map[string]bool
}

type indexedItem struct {
	code  string
	name  string
	words []string
}

// New prepares a Resolver for inventory. Inventory order does not matter.
func New(cfg Config, inventory []model.MaterialInventoryItem) *Resolver {
	if cfg.MinWordLen <= 0 {
		cfg.MinWordLen = 3
	}
	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = 2
	}

	r := &Resolver{cfg: cfg, generic: make(map[string]bool, len(cfg.GenericItems))}
	for key := range cfg.Explicit {
		if k := textnorm.Key(key); k != "" {
			r.keys = append(r.keys, key)
		}
	}
	slices.Sort(r.keys)
	for _, g := range cfg.GenericItems {
		r.generic[textnorm.Key(g)] = true
	}

	sorted := slices.Clone(inventory)
	slices.SortFunc(sorted, func(a, b model.MaterialInventoryItem) int { return cmp.Compare(a.Code, b.Code) })
	for _, item := range sorted {
		name := textnorm.Key(item.Name)
		if name == "" {
			continue
		}
		r.inventory = append(r.inventory, indexedItem{
			code:  item.Code,
			name:  name,
			words: textnorm.Words(name, cfg.MinWordLen),
		})
	}
	return r
}

// Resolve cross-references every material in the corpus.
func (r *Resolver) Resolve(corpus *model.Corpus) *Result {
	type usage struct {
		weeks    map[model.WeekKey]bool
		mentions int
	}
	seen := make(map[string]*usage)
	for _, col := range corpus.Collections {
		for _, rec := range col.Lessons {
			for _, raw := range rec.MaterialsNeeded {
				m := textnorm.Key(raw)
				if m == "" {
					continue
				}
				u, ok := seen[m]
				if !ok {
					u = &usage{weeks: make(map[model.WeekKey]bool)}
					seen[m] = u
				}
				u.weeks[col.Key] = true
				u.mentions++
			}
		}
	}

	res := &Result{}
	referenced := make(map[string]bool)
	for m, u := range seen {
		resolution := r.ResolveMaterial(m)
		resolution.Mentions = u.mentions
		for key := range u.weeks {
			resolution.Weeks = append(resolution.Weeks, key)
		}
		slices.SortFunc(resolution.Weeks, model.CompareWeekKeys)
		for _, code := range resolution.Codes {
			referenced[code] = true
		}
		res.Resolutions = append(res.Resolutions, resolution)
		if resolution.Strategy == StrategyUnmatched {
			res.Unmatched = append(res.Unmatched, resolution)
		}
	}
	slices.SortFunc(res.Resolutions, func(a, b Resolution) int { return cmp.Compare(a.Material, b.Material) })
	slices.SortFunc(res.Unmatched, func(a, b Resolution) int {
		return cmp.Or(cmp.Compare(len(b.Weeks), len(a.Weeks)), cmp.Compare(a.Material, b.Material))
	})

	for code := range referenced {
		res.Referenced = append(res.Referenced, code)
	}
	slices.Sort(res.Referenced)

	known := make(map[string]bool, len(corpus.Inventory))
	for _, item := range corpus.Inventory {
		known[item.Code] = true
		if !referenced[item.Code] {
			res.Unreferenced = append(res.Unreferenced, item)
		}
	}
	slices.SortFunc(res.Unreferenced, func(a, b model.MaterialInventoryItem) int { return cmp.Compare(a.Code, b.Code) })
	res.UnknownCodes = r.unknownCodes(known)
	return res
}

// ResolveMaterial resolves one material string. It is a pure function of
// the material and the resolver's configuration.
func (r *Resolver) ResolveMaterial(material string) Resolution {
	m := textnorm.Key(material)
	out := Resolution{Material: m, Strategy: StrategyUnmatched}
	if m == "" {
		return out
	}

	if codes := r.explicit(m); len(codes) > 0 {
		out.Strategy, out.Codes = StrategyExplicit, codes
		return out
	}
	if code, ok := r.substring(m); ok {
		out.Strategy, out.Codes = StrategySubstring, []string{code}
		return out
	}
	if code, ok := r.wordOverlap(m); ok {
		out.Strategy, out.Codes = StrategyWordOverlap, []string{code}
		return out
	}
	if r.isGeneric(m) {
		out.Strategy = StrategyGeneric
	}
	return out
}

func (r *Resolver) explicit(m string) []string {
	var codes []string
	for _, key := range r.keys {
		if !strings.Contains(m, textnorm.Key(key)) {
			continue
		}
		for _, code := range r.cfg.Explicit[key] {
			if !slices.Contains(codes, code) {
				codes = append(codes, code)
			}
		}
	}
	slices.Sort(codes)
	return codes
}

func (r *Resolver) substring(m string) (string, bool) {
	for _, item := range r.inventory {
		if strings.Contains(m, item.name) || strings.Contains(item.name, m) {
			return item.code, true
		}
	}
	return "", false
}

// wordOverlap counts material words that contain, or are contained in,
// some word of the item name. The highest count wins; ties keep the
// lowest code.
func (r *Resolver) wordOverlap(m string) (string, bool) {
	words := textnorm.Words(m, r.cfg.MinWordLen)
	if len(words) < r.cfg.MinOverlap {
		return "", false
	}
	best, bestCount := "", 0
	for _, item := range r.inventory {
		n := overlap(words, item.words)
		if n >= r.cfg.MinOverlap && n > bestCount {
			best, bestCount = item.code, n
		}
	}
	return best, bestCount > 0
}

func overlap(material, item []string) int {
	n := 0
	for _, w := range material {
		for _, v := range item {
			if strings.Contains(w, v) || strings.Contains(v, w) {
				n++
				break
			}
		}
	}
	return n
}

func (r *Resolver) isGeneric(m string) bool {
	if r.generic[m] {
		return true
	}
	if s, ok := strings.CutSuffix(m, "s"); ok && r.generic[s] {
		return true
	}
	return false
}

func (r *Resolver) unknownCodes(known map[string]bool) []string {
	var out []string
	for _, key := range r.keys {
		for _, code := range r.cfg.Explicit[key] {
			if !known[code] && !slices.Contains(out, code) {
				out = append(out, code)
			}
		}
	}
	slices.Sort(out)
	return out
}
