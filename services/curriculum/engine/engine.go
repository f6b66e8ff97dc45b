// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine runs one validation pass: load the corpus once, run every
// analyzer concurrently over it, and aggregate the findings into a report.
//
// Analyzers are isolated from each other. A panic or error inside one is
// recovered and reported as an analyzer failure; the others still finish
// and the report is always produced.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
	"github.com/AleutianAI/lessonlint/services/curriculum/distribution"
	"github.com/AleutianAI/lessonlint/services/curriculum/duplicates"
	"github.com/AleutianAI/lessonlint/services/curriculum/loader"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
	"github.com/AleutianAI/lessonlint/services/curriculum/structural"
	"github.com/AleutianAI/lessonlint/services/curriculum/xref"
)

var tracer = otel.Tracer("lessonlint.engine")

// ErrNoCollections is returned with the report when no week collection
// could be loaded. The report is still complete and states zero totals.
var ErrNoCollections = errors.New("no week collections loaded")

// Config gathers every component's configuration for one run.
type Config struct {
	Content      loader.Options
	Structural   structural.Config
	Duplicates   duplicates.Config
	Xref         xref.Config
	Distribution distribution.Config
	Classifier   classify.Config
}

// DefaultConfig returns each component's defaults for root.
func DefaultConfig(root string) Config {
	return Config{
		Content:      loader.Options{Root: root},
		Structural:   structural.DefaultConfig(),
		Duplicates:   duplicates.DefaultConfig(),
		Xref:         xref.DefaultConfig(),
		Distribution: distribution.DefaultConfig(),
		Classifier:   classify.DefaultConfig(),
	}
}

// Analyzer is one independent consumer of the loaded corpus. Run must
// treat the corpus as read-only and report through the collector.
type Analyzer struct {
	Name string
	Run  func(ctx context.Context, corpus *model.Corpus, c *report.Collector) error
}

// Engine runs validation passes. It is safe to call Run repeatedly; each
// call loads the content tree afresh.
type Engine struct {
	cfg       Config
	logger    *slog.Logger
	metrics   *Metrics
	analyzers []Analyzer
}

// New creates an Engine with the standard analyzers. A nil logger
// discards output.
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "engine")),
		metrics: NewMetrics(),
	}
	e.analyzers = e.standardAnalyzers()
	return e
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Metrics returns the engine's metric set.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Scope describes the selectors of the configured content.
func (e *Engine) Scope() report.Scope {
	return report.Scope{Root: e.cfg.Content.Root, Levels: e.cfg.Content.Levels, Week: e.cfg.Content.Week}
}

// Load reads the configured content tree.
func (e *Engine) Load(ctx context.Context) (*model.Corpus, error) {
	corpus, err := loader.New(e.cfg.Content, e.logger).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", e.cfg.Content.Root, err)
	}
	return corpus, nil
}

// Run loads the content tree and analyzes it.
//
// The report is non-nil whenever err is nil or ErrNoCollections. Other
// errors are load failures or context cancellation.
func (e *Engine) Run(ctx context.Context) (*report.ValidationReport, error) {
	ctx, span := tracer.Start(ctx, "Engine.Run",
		trace.WithAttributes(
			attribute.String("lessonlint.root", e.cfg.Content.Root),
			attribute.String("lessonlint.scope", e.Scope().Key()),
		),
	)
	defer span.End()

	corpus, err := e.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	rep, err := e.Analyze(ctx, corpus)
	if rep != nil {
		span.SetAttributes(
			attribute.Int("lessonlint.lessons", rep.Totals.Lessons),
			attribute.Int("lessonlint.blocking", rep.BlockingCount()),
			attribute.Bool("lessonlint.passed", rep.Passed()),
		)
	}
	if err != nil && !errors.Is(err, ErrNoCollections) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rep, err
}

// Analyze runs every analyzer over an already loaded corpus.
func (e *Engine) Analyze(ctx context.Context, corpus *model.Corpus) (*report.ValidationReport, error) {
	start := time.Now()
	collector := report.NewCollector(e.Scope())
	collector.SetCorpus(corpus)

	if len(corpus.Collections) == 0 {
		e.logger.Warn("no week collections loaded, skipping analyzers",
			slog.String("root", corpus.Root),
			slog.Int("parse_failures", len(corpus.Failures)))
		rep := collector.Finalize()
		e.metrics.ObserveRun(rep, time.Since(start))
		return rep, ErrNoCollections
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range e.analyzers {
		g.Go(func() error {
			e.runAnalyzer(gctx, a, corpus, collector)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("validation cancelled: %w", err)
	}

	rep := collector.Finalize()
	e.metrics.ObserveRun(rep, time.Since(start))
	e.logger.Info("validation complete",
		slog.String("run_id", rep.RunID),
		slog.Int("weeks", rep.Totals.Weeks),
		slog.Int("lessons", rep.Totals.Lessons),
		slog.Int("blocking", rep.BlockingCount()),
		slog.Int("advisory", rep.AdvisoryCount()),
		slog.Bool("passed", rep.Passed()))
	return rep, nil
}

// runAnalyzer runs a under its own span, converting a panic or returned
// error into an analyzer failure.
func (e *Engine) runAnalyzer(ctx context.Context, a Analyzer, corpus *model.Corpus, c *report.Collector) {
	ctx, span := tracer.Start(ctx, "Analyzer."+a.Name)
	defer span.End()
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("analyzer panicked",
					slog.String("analyzer", a.Name),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return a.Run(ctx, corpus, c)
	}()

	e.metrics.ObserveAnalyzer(a.Name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.AddAnalyzerFailure(a.Name, err.Error())
		e.logger.Warn("analyzer failed", slog.String("analyzer", a.Name), slog.String("error", err.Error()))
	}
}

func (e *Engine) standardAnalyzers() []Analyzer {
	return []Analyzer{
		{Name: "structural", Run: func(_ context.Context, corpus *model.Corpus, c *report.Collector) error {
			c.AddViolations(structural.New(e.cfg.Structural).Validate(corpus))
			return nil
		}},
		{Name: "duplicates", Run: func(ctx context.Context, corpus *model.Corpus, c *report.Collector) error {
			res, err := duplicates.New(e.cfg.Duplicates, e.logger).Detect(ctx, corpus)
			if err != nil {
				return err
			}
			c.AddDuplicates(res)
			return nil
		}},
		{Name: "xref", Run: func(_ context.Context, corpus *model.Corpus, c *report.Collector) error {
			c.SetCrossReference(xref.New(e.cfg.Xref, corpus.Inventory).Resolve(corpus))
			return nil
		}},
		{Name: "distribution", Run: func(_ context.Context, corpus *model.Corpus, c *report.Collector) error {
			c.AddDistribution(distribution.New(e.cfg.Distribution).Check(corpus))
			return nil
		}},
		{Name: "classify", Run: func(_ context.Context, corpus *model.Corpus, c *report.Collector) error {
			c.AddClassifications(classify.New(e.cfg.Classifier).ClassifyCorpus(corpus))
			return nil
		}},
	}
}
