// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package loader reads week collections and the materials inventory from a
// content tree into a model.Corpus.
//
// # Layout
//
//	<root>/
//	  materials.json            inventory (list of MaterialInventoryItem)
//	  primary/
//	    week-01.json            list of LessonRecord
//	    week-02.yaml
//	  lower_elementary/
//	    ...
//
// # Failure Model
//
// The loader never aborts on bad content. A file that cannot be read, does
// not decode, or whose top-level value is not a list becomes a
// model.ParseFailure and is excluded. A single record that cannot be
// coerced into model.LessonRecord becomes a ParseFailure naming the file
// and index; the remaining records of that file are kept. The only error
// Load returns is context cancellation.
package loader

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lessonlint/services/curriculum/model"
)

// DefaultInventoryFile is the inventory path used when none is configured.
const DefaultInventoryFile = "materials.json"

// Issue kinds raised while loading.
const (
	IssueWeekMismatch  = "filename-week-mismatch"
	IssueLevelMismatch = "level-mismatch"
)

// weekPattern takes every digit after "week" and requires a separator or
// the end of the name after them, so "week-100" is week 100 (and rejected
// by the range check) and "week-7b" is not a week at all.
var weekPattern = regexp.MustCompile(`(?i)week[-_ ]?(\d+)(?:[-_ .]|$)`)

// Options selects what to load.
type Options struct {
	// Root is the content directory.
	Root string

	// InventoryPath is the inventory file. Relative paths resolve against
	// Root. Empty means DefaultInventoryFile.
	InventoryPath string

	// Levels restricts loading to these levels. Empty loads every level.
	Levels []model.Level

	// Week restricts loading to a single week. Zero loads every week.
	Week int
}

// Loader reads a content tree. It holds no state between calls.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Loader. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.InventoryPath == "" {
		opts.InventoryPath = DefaultInventoryFile
	}
	return &Loader{opts: opts, logger: logger.With(slog.String("component", "loader"))}
}

// Load reads the configured levels and the inventory.
//
// # Outputs
//
//   - *model.Corpus: Always non-nil unless ctx is cancelled. Collections are
//     sorted by (level, week), inventory by code, failures by file.
//   - error: Only ctx.Err().
func (l *Loader) Load(ctx context.Context) (*model.Corpus, error) {
	corpus := &model.Corpus{Root: l.opts.Root}

	info, err := os.Stat(l.opts.Root)
	if err != nil || !info.IsDir() {
		msg := "content root is not a directory"
		if err != nil {
			msg = err.Error()
		}
		corpus.Failures = append(corpus.Failures, model.ParseFailure{File: l.opts.Root, Message: msg})
		return corpus, nil
	}

	levels := l.opts.Levels
	if len(levels) == 0 {
		levels = model.Levels
	}
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.loadLevel(ctx, corpus, level)
	}

	l.loadInventory(corpus)

	slices.SortFunc(corpus.Collections, func(a, b *model.WeekCollection) int {
		return model.CompareWeekKeys(a.Key, b.Key)
	})
	slices.SortFunc(corpus.Failures, func(a, b model.ParseFailure) int {
		return cmp.Or(cmp.Compare(a.File, b.File), cmp.Compare(a.Message, b.Message))
	})
	slices.SortFunc(corpus.Issues, func(a, b model.CollectionIssue) int {
		return cmp.Or(model.CompareWeekKeys(a.Key, b.Key), cmp.Compare(a.Kind, b.Kind))
	})

	l.logger.Info("corpus loaded",
		slog.Int("collections", len(corpus.Collections)),
		slog.Int("lessons", corpus.LessonCount()),
		slog.Int("inventory_items", len(corpus.Inventory)),
		slog.Int("parse_failures", len(corpus.Failures)),
	)
	return corpus, nil
}

// loadLevel reads every collection file in <root>/<level>.
func (l *Loader) loadLevel(ctx context.Context, corpus *model.Corpus, level model.Level) {
	dir := filepath.Join(l.opts.Root, string(level))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("level directory absent", slog.String("level", string(level)))
			return
		}
		corpus.Failures = append(corpus.Failures, model.ParseFailure{File: l.rel(dir), Message: err.Error()})
		return
	}

	seen := make(map[int]string)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() || !isCollectionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		rel := l.rel(path)

		week, ok := weekFromFilename(entry.Name())
		if !ok {
			corpus.Failures = append(corpus.Failures, model.ParseFailure{
				File:    rel,
				Message: "filename does not contain a week number",
			})
			continue
		}
		if l.opts.Week != 0 && week != l.opts.Week {
			continue
		}
		if prev, dup := seen[week]; dup {
			corpus.Failures = append(corpus.Failures, model.ParseFailure{
				File:    rel,
				Message: fmt.Sprintf("duplicate collection for week %d (already loaded from %s)", week, prev),
			})
			continue
		}
		if !model.WeekInRange(week) {
			corpus.Failures = append(corpus.Failures, model.ParseFailure{
				File:    rel,
				Message: fmt.Sprintf("filename week %d is outside %d..%d", week, model.MinWeek, model.MaxWeek),
			})
			continue
		}

		key := model.WeekKey{Level: level, Week: week}
		col, failures := l.loadCollection(path, rel, key)
		corpus.Failures = append(corpus.Failures, failures...)
		if col == nil {
			continue
		}
		seen[week] = rel
		corpus.Collections = append(corpus.Collections, col)
		corpus.Issues = append(corpus.Issues, checkCollection(col)...)
	}
}

// loadCollection decodes one file. A nil collection means the whole file
// was rejected.
func (l *Loader) loadCollection(path, rel string, key model.WeekKey) (*model.WeekCollection, []model.ParseFailure) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []model.ParseFailure{{File: rel, Message: fmt.Sprintf("read: %v", err)}}
	}

	var (
		records  []*model.LessonRecord
		failures []model.ParseFailure
	)
	if isYAML(path) {
		records, failures, err = decodeYAMLList[model.LessonRecord](data, rel)
	} else {
		records, failures, err = decodeJSONList[model.LessonRecord](data, rel)
	}
	if err != nil {
		return nil, []model.ParseFailure{{File: rel, Message: err.Error()}}
	}

	for i, rec := range records {
		if rec == nil {
			continue
		}
		rec.Source = model.SourceRef{Key: key, File: rel, Index: i}
	}
	lessons := slices.DeleteFunc(records, func(r *model.LessonRecord) bool { return r == nil })

	l.logger.Debug("collection loaded",
		slog.String("file", rel),
		slog.Int("lessons", len(lessons)),
		slog.Int("rejected", len(failures)),
	)
	return &model.WeekCollection{Key: key, File: rel, Lessons: lessons}, failures
}

// checkCollection flags records whose own week or level disagree with the
// file they were loaded from. Each kind is reported once per file.
func checkCollection(col *model.WeekCollection) []model.CollectionIssue {
	var issues []model.CollectionIssue
	weekFirst, weekCount := -1, 0
	levelFirst, levelCount := -1, 0
	var seenWeeks, seenLevels []string

	for _, rec := range col.Lessons {
		if rec.WeekNumber != nil && *rec.WeekNumber != col.Key.Week {
			weekCount++
			if weekFirst < 0 {
				weekFirst = rec.Source.Index
			}
			seenWeeks = appendUnique(seenWeeks, strconv.Itoa(*rec.WeekNumber))
		}
		if rec.Level != nil && *rec.Level != col.Key.Level {
			levelCount++
			if levelFirst < 0 {
				levelFirst = rec.Source.Index
			}
			seenLevels = appendUnique(seenLevels, string(*rec.Level))
		}
	}
	if weekCount > 0 {
		issues = append(issues, model.CollectionIssue{
			Key:   col.Key,
			File:  col.File,
			Index: weekFirst,
			Kind:  IssueWeekMismatch,
			Message: fmt.Sprintf("%d record(s) declare week_number %s but the filename says week %d",
				weekCount, strings.Join(seenWeeks, ","), col.Key.Week),
		})
	}
	if levelCount > 0 {
		issues = append(issues, model.CollectionIssue{
			Key:   col.Key,
			File:  col.File,
			Index: levelFirst,
			Kind:  IssueLevelMismatch,
			Message: fmt.Sprintf("%d record(s) declare level %s but the file is under %s",
				levelCount, strings.Join(seenLevels, ","), col.Key.Level),
		})
	}
	return issues
}

// loadInventory reads the materials inventory. Failures leave the inventory
// empty or partial; they never stop the run.
func (l *Loader) loadInventory(corpus *model.Corpus) {
	path := l.opts.InventoryPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.opts.Root, path)
	}
	rel := l.rel(path)

	data, err := os.ReadFile(path)
	if err != nil {
		corpus.Failures = append(corpus.Failures, model.ParseFailure{File: rel, Message: fmt.Sprintf("read inventory: %v", err)})
		return
	}

	var (
		items    []*model.MaterialInventoryItem
		failures []model.ParseFailure
	)
	if isYAML(path) {
		items, failures, err = decodeYAMLList[model.MaterialInventoryItem](data, rel)
	} else {
		items, failures, err = decodeJSONList[model.MaterialInventoryItem](data, rel)
	}
	if err != nil {
		corpus.Failures = append(corpus.Failures, model.ParseFailure{File: rel, Message: err.Error()})
		return
	}
	corpus.Failures = append(corpus.Failures, failures...)

	codes := make(map[string]bool, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		code := strings.TrimSpace(item.Code)
		switch {
		case code == "":
			corpus.Failures = append(corpus.Failures, model.ParseFailure{
				File:    fmt.Sprintf("%s[%d]", rel, i),
				Message: "inventory item has no code",
			})
			continue
		case codes[code]:
			corpus.Failures = append(corpus.Failures, model.ParseFailure{
				File:    fmt.Sprintf("%s[%d]", rel, i),
				Message: fmt.Sprintf("duplicate inventory code %q", code),
			})
			continue
		}
		codes[code] = true
		item.Code = code
		corpus.Inventory = append(corpus.Inventory, *item)
	}
	slices.SortFunc(corpus.Inventory, func(a, b model.MaterialInventoryItem) int {
		return cmp.Compare(a.Code, b.Code)
	})
}

func (l *Loader) rel(path string) string {
	if r, err := filepath.Rel(l.opts.Root, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}

// =============================================================================
// DECODING
// =============================================================================

// decodeJSONList decodes a top-level JSON array element by element. The
// returned error is file-level; element errors are returned as failures
// with a nil placeholder in the slice so indexes stay aligned.
func decodeJSONList[T any](data []byte, rel string) ([]*T, []model.ParseFailure, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, fmt.Errorf("top-level value is not a list")
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}

	out := make([]*T, len(raw))
	var failures []model.ParseFailure
	for i, msg := range raw {
		if !isJSONObject(msg) {
			failures = append(failures, model.ParseFailure{
				File:    fmt.Sprintf("%s[%d]", rel, i),
				Message: "entry is not an object",
			})
			continue
		}
		var v T
		if err := json.Unmarshal(msg, &v); err != nil {
			failures = append(failures, model.ParseFailure{File: fmt.Sprintf("%s[%d]", rel, i), Message: err.Error()})
			continue
		}
		out[i] = &v
	}
	return out, failures, nil
}

func isJSONObject(msg json.RawMessage) bool {
	t := bytes.TrimSpace(msg)
	return len(t) > 0 && t[0] == '{'
}

// decodeYAMLList is the YAML counterpart of decodeJSONList.
func decodeYAMLList[T any](data []byte, rel string) ([]*T, []model.ParseFailure, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, nil, fmt.Errorf("top-level value is not a list")
	}

	seq := doc.Content[0].Content
	out := make([]*T, len(seq))
	var failures []model.ParseFailure
	for i, node := range seq {
		if node.Kind != yaml.MappingNode {
			failures = append(failures, model.ParseFailure{
				File:    fmt.Sprintf("%s[%d]", rel, i),
				Message: "entry is not an object",
			})
			continue
		}
		var v T
		if err := node.Decode(&v); err != nil {
			failures = append(failures, model.ParseFailure{File: fmt.Sprintf("%s[%d]", rel, i), Message: err.Error()})
			continue
		}
		out[i] = &v
	}
	return out, failures, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isCollectionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// weekFromFilename extracts the week number embedded in a collection
// filename such as "week-07.json" or "Week_7.yaml".
func weekFromFilename(name string) (int, bool) {
	m := weekPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	week, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return week, true
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
