// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history keeps a summary of every validation run so a run can be
// compared with the previous run over the same scope.
package history

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	badgerstore "github.com/AleutianAI/lessonlint/services/curriculum/storage/badger"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
)

const (
	runPrefix = "run:"
	scopeSep  = "|"
)

// ErrInvalidSummary is returned when a summary cannot be keyed.
var ErrInvalidSummary = errors.New("summary needs a run id, scope, and start time")

// Store persists run summaries in BadgerDB.
//
// Keys are "run:<scope>|<start unix nanos>|<run id>", so a prefix scan over
// one scope yields its runs in time order.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *badgerstore.DB
	logger *slog.Logger
}

// NewStore wraps an open database. A nil logger discards output.
func NewStore(db *badgerstore.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger.With(slog.String("component", "history"))}
}

func runKey(s report.Summary) []byte {
	return []byte(fmt.Sprintf("%s%s%s%020d%s%s", runPrefix, s.ScopeKey, scopeSep, s.StartedAt.UnixNano(), scopeSep, s.RunID))
}

func scopePrefix(scope string) []byte {
	return []byte(runPrefix + scope + scopeSep)
}

// Record stores one summary.
func (s *Store) Record(ctx context.Context, sum report.Summary) error {
	if sum.RunID == "" || sum.ScopeKey == "" || sum.StartedAt.IsZero() || strings.Contains(sum.ScopeKey, scopeSep) {
		return ErrInvalidSummary
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encoding summary %s: %w", sum.RunID, err)
	}
	if err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(runKey(sum), data)
	}); err != nil {
		return fmt.Errorf("recording run %s: %w", sum.RunID, err)
	}
	s.logger.Debug("run recorded", slog.String("run_id", sum.RunID), slog.String("scope", sum.ScopeKey))
	return nil
}

// List returns up to limit summaries, newest first. An empty scope lists
// every scope; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, scope string, limit int) ([]report.Summary, error) {
	prefix := []byte(runPrefix)
	if scope != "" {
		prefix = scopePrefix(scope)
	}
	var out []report.Summary
	err := s.db.ScanPrefix(ctx, prefix, true, func(key, value []byte) (bool, error) {
		var sum report.Summary
		if err := json.Unmarshal(value, &sum); err != nil {
			return false, fmt.Errorf("decoding %s: %w", key, err)
		}
		out = append(out, sum)
		// Within one scope keys are time ordered, so the scan can stop.
		return scope == "" || limit <= 0 || len(out) < limit, nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	slices.SortStableFunc(out, func(a, b report.Summary) int {
		return cmp.Or(b.StartedAt.Compare(a.StartedAt), cmp.Compare(a.RunID, b.RunID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Previous returns the latest run of scope that started before t.
func (s *Store) Previous(ctx context.Context, scope string, before time.Time) (report.Summary, bool, error) {
	var found report.Summary
	ok := false
	err := s.db.ScanPrefix(ctx, scopePrefix(scope), true, func(_, value []byte) (bool, error) {
		var sum report.Summary
		if err := json.Unmarshal(value, &sum); err != nil {
			return false, err
		}
		if sum.StartedAt.Before(before) {
			found, ok = sum, true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return report.Summary{}, false, fmt.Errorf("finding previous run of %s: %w", scope, err)
	}
	return found, ok, nil
}

// =============================================================================
// DELTA
// =============================================================================

// Direction is how a run compares with its predecessor.
type Direction string

const (
	DirectionImproved  Direction = "IMPROVED"
	DirectionRegressed Direction = "REGRESSED"
	DirectionUnchanged Direction = "UNCHANGED"
	DirectionFirst     Direction = "FIRST_RUN"
)

// Delta is the change between two runs of one scope.
type Delta struct {
	Previous  *report.Summary         `json:"previous,omitempty"`
	Direction Direction               `json:"direction"`
	Blocking  int                     `json:"blocking_change"`
	Advisory  int                     `json:"advisory_change"`
	Changed   map[report.Category]int `json:"changed,omitempty"`
}

// Compare computes the delta from prev to cur. A nil prev is a first run.
// Blocking findings dominate the direction; advisory findings only decide
// it when the blocking count is unchanged.
func Compare(prev *report.Summary, cur report.Summary) Delta {
	if prev == nil {
		return Delta{Direction: DirectionFirst}
	}
	d := Delta{
		Previous: prev,
		Blocking: cur.Blocking - prev.Blocking,
		Advisory: cur.Advisory - prev.Advisory,
		Changed:  make(map[report.Category]int),
	}
	for _, c := range report.Categories {
		if diff := cur.Counts[c] - prev.Counts[c]; diff != 0 {
			d.Changed[c] = diff
		}
	}
	switch {
	case d.Blocking < 0, d.Blocking == 0 && d.Advisory < 0:
		d.Direction = DirectionImproved
	case d.Blocking > 0, d.Advisory > 0:
		d.Direction = DirectionRegressed
	default:
		d.Direction = DirectionUnchanged
	}
	return d
}

// String renders the delta as one dashboard line.
func (d Delta) String() string {
	if d.Previous == nil {
		return "first recorded run for this scope"
	}
	return fmt.Sprintf("%s since %s: blocking %+d, advisory %+d",
		d.Direction, d.Previous.StartedAt.Format(time.RFC3339), d.Blocking, d.Advisory)
}

// RecordAndCompare stores cur and returns its delta against the previous
// run of the same scope.
func (s *Store) RecordAndCompare(ctx context.Context, cur report.Summary) (Delta, error) {
	prev, ok, err := s.Previous(ctx, cur.ScopeKey, cur.StartedAt)
	if err != nil {
		return Delta{}, err
	}
	if err := s.Record(ctx, cur); err != nil {
		return Delta{}, err
	}
	if !ok {
		return Compare(nil, cur), nil
	}
	return Compare(&prev, cur), nil
}
