// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package publish seeds validated lessons and the materials inventory into
// the live SQL store. Seeding is gated: a report that is not publish-ready
// is refused before any connection is used.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
)

var (
	// ErrNotPublishReady is returned when the report fails the publish gate.
	ErrNotPublishReady = errors.New("report is not publish-ready")

	// ErrSlotConflict is returned when two lessons share a (level, week,
	// sort_order) slot. Upserting both would silently keep only one.
	ErrSlotConflict = errors.New("lessons share a slot")

	// ErrUnknownDriver is returned for an unsupported SQL driver name.
	ErrUnknownDriver = errors.New("unknown SQL driver")
)

// Driver names a SQL backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// =============================================================================
// TABLES
// =============================================================================

// LessonRow is one published lesson. (level, week, sort_order) is the
// natural key, so reseeding a week updates rows in place.
type LessonRow struct {
	ID              uint   `gorm:"primaryKey"`
	Level           string `gorm:"size:32;not null;uniqueIndex:idx_lesson_slot"`
	Week            int    `gorm:"not null;uniqueIndex:idx_lesson_slot"`
	SortOrder       int    `gorm:"not null;uniqueIndex:idx_lesson_slot"`
	DayOfWeek       int    `gorm:"not null"`
	Quarter         int    `gorm:"not null"`
	Subject         string `gorm:"size:32;not null;index"`
	Title           string `gorm:"size:255;not null"`
	Description     string `gorm:"type:text"`
	Instructions    string `gorm:"type:text"`
	DurationMinutes int
	LessonType      string `gorm:"size:32"`
	Materials       string `gorm:"type:text"`
	SlideCount      int
	Modality        string `gorm:"size:16"`
	RunID           string `gorm:"size:36;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName pins the table name.
func (LessonRow) TableName() string { return "lessons" }

// MaterialRow is one inventory item.
type MaterialRow struct {
	Code        string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"size:255;not null"`
	SubjectArea string `gorm:"size:64"`
	Description string `gorm:"type:text"`
	UpdatedAt   time.Time
}

// TableName pins the table name.
func (MaterialRow) TableName() string { return "materials" }

// =============================================================================
// CONNECTION
// =============================================================================

// Open connects to the store. For sqlite the DSN is a file path.
func Open(driver Driver, dsn string, logger *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	gormLog := gormLogger.New(
		slogWriter{logger: logger.With(slog.String("component", "gorm"))},
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return db, nil
}

// slogWriter adapts slog to gorm's Printf-style logger writer.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// =============================================================================
// SEEDER
// =============================================================================

// Result counts the rows written by a seed.
type Result struct {
	Lessons   int `json:"lessons"`
	Materials int `json:"materials"`
}

// Seeder writes a corpus to the store.
type Seeder struct {
	db        *gorm.DB
	logger    *slog.Logger
	batchSize int
}

// NewSeeder creates a Seeder. A nil logger discards output.
func NewSeeder(db *gorm.DB, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Seeder{db: db, logger: logger.With(slog.String("component", "publish")), batchSize: 100}
}

// Migrate creates or updates the tables.
func (s *Seeder) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&LessonRow{}, &MaterialRow{}); err != nil {
		return fmt.Errorf("migrating tables: %w", err)
	}
	return nil
}

// Seed upserts every lesson and inventory item of corpus in one
// transaction. It refuses with ErrNotPublishReady unless rep passed the
// publish gate, and with ErrSlotConflict when two lessons share a slot.
func (s *Seeder) Seed(ctx context.Context, rep *report.ValidationReport, corpus *model.Corpus) (Result, error) {
	if rep == nil || !rep.PublishReady() {
		summary := "no report"
		if rep != nil {
			summary = rep.SummaryLine()
		}
		return Result{}, fmt.Errorf("%w: %s", ErrNotPublishReady, summary)
	}
	lessons, err := lessonRows(rep, corpus)
	if err != nil {
		return Result{}, err
	}
	if err := s.Migrate(ctx); err != nil {
		return Result{}, err
	}
	materials := materialRows(corpus.Inventory)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(lessons) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "level"}, {Name: "week"}, {Name: "sort_order"}},
				UpdateAll: true,
			}).CreateInBatches(lessons, s.batchSize).Error; err != nil {
				return fmt.Errorf("upserting lessons: %w", err)
			}
		}
		if len(materials) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				UpdateAll: true,
			}).CreateInBatches(materials, s.batchSize).Error; err != nil {
				return fmt.Errorf("upserting materials: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Lessons: len(lessons), Materials: len(materials)}
	s.logger.Info("seeded store",
		slog.String("run_id", rep.RunID),
		slog.Int("lessons", res.Lessons),
		slog.Int("materials", res.Materials))
	return res, nil
}

type slotKey struct {
	level model.Level
	week  int
	order int
}

func lessonRows(rep *report.ValidationReport, corpus *model.Corpus) ([]LessonRow, error) {
	modality := make(map[slotKey]classify.Modality, len(rep.Classifications))
	for _, c := range rep.Classifications {
		modality[slotKey{c.Level, c.Week, c.SortOrder}] = c.Modality
	}

	var rows []LessonRow
	seen := make(map[slotKey]string)
	for _, col := range corpus.Collections {
		for _, rec := range col.Lessons {
			key := slotKey{col.Key.Level, col.Key.Week, rec.GetSortOrder()}
			if prev, dup := seen[key]; dup {
				return nil, fmt.Errorf("%w: %s/w%02d sort_order %d is used by %q and %q",
					ErrSlotConflict, key.level, key.week, key.order, prev, rec.GetTitle())
			}
			seen[key] = rec.GetTitle()

			materials, err := json.Marshal(rec.MaterialsNeeded)
			if err != nil {
				return nil, fmt.Errorf("encoding materials of %s: %w", rec.Source.File, err)
			}
			slides := 0
			if rec.SlideContent != nil {
				slides = len(rec.SlideContent.Slides)
			}
			rows = append(rows, LessonRow{
				Level:           string(col.Key.Level),
				Week:            col.Key.Week,
				SortOrder:       rec.GetSortOrder(),
				DayOfWeek:       rec.GetDay(),
				Quarter:         rec.GetQuarter(),
				Subject:         string(rec.GetSubject()),
				Title:           strings.TrimSpace(rec.GetTitle()),
				Description:     rec.GetDescription(),
				Instructions:    rec.GetInstructions(),
				DurationMinutes: rec.GetDuration(),
				LessonType:      string(rec.GetLessonType()),
				Materials:       string(materials),
				SlideCount:      slides,
				Modality:        string(modality[key]),
				RunID:           rep.RunID,
			})
		}
	}
	return rows, nil
}

func materialRows(items []model.MaterialInventoryItem) []MaterialRow {
	rows := make([]MaterialRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, MaterialRow{
			Code:        item.Code,
			Name:        item.Name,
			SubjectArea: item.SubjectArea,
			Description: item.Description,
		})
	}
	return rows
}
