// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lessonlint/cmd/lessonlint/config"
	"github.com/AleutianAI/lessonlint/cmd/lessonlint/gcs"
	"github.com/AleutianAI/lessonlint/pkg/ux"
	"github.com/AleutianAI/lessonlint/services/curriculum/engine"
	"github.com/AleutianAI/lessonlint/services/curriculum/export"
	"github.com/AleutianAI/lessonlint/services/curriculum/history"
	"github.com/AleutianAI/lessonlint/services/curriculum/model"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
	badgerstore "github.com/AleutianAI/lessonlint/services/curriculum/storage/badger"
	"github.com/AleutianAI/lessonlint/services/curriculum/telemetry"
)

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := appLogger.Slog()

	shutdown, err := initTracing(ctx)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	eng, err := newEngine()
	if err != nil {
		return err
	}
	rep, runErr := eng.Run(ctx)
	if runErr != nil && !errors.Is(runErr, engine.ErrNoCollections) {
		return runErr
	}

	// With --json stdout carries only the report; everything else goes to
	// stderr.
	out := io.Writer(os.Stdout)
	if jsonOutput {
		out = os.Stderr
		if err := report.RenderJSON(os.Stdout, rep); err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
	} else {
		report.Render(ux.NewPrinter(os.Stdout), rep)
	}
	p := ux.NewPrinter(out)

	if appConfig.History.Dir != "" {
		delta, err := recordHistory(ctx, appConfig.History.Dir, rep)
		if err != nil {
			logger.Warn("history not recorded", slog.String("error", err.Error()))
		} else {
			printDelta(p, delta)
		}
	}

	if xlsxPath != "" {
		if err := export.SaveAs(xlsxPath, rep); err != nil {
			return err
		}
		p.Success(fmt.Sprintf("Workbook written to %s", xlsxPath))
	}

	if uploadURL != "" {
		object, err := uploadReport(ctx, uploadURL, rep)
		if err != nil {
			return err
		}
		p.Success(fmt.Sprintf("Report uploaded to %s", object))
	}

	if err := writeMetrics(eng); err != nil {
		logger.Warn("metrics not written", slog.String("error", err.Error()))
	}

	if !rep.Passed() {
		return errValidationFailed
	}
	return runErr
}

// newEngine builds an engine from the resolved config and the level and
// week selectors.
func newEngine() (*engine.Engine, error) {
	levels, err := parseLevelFlag()
	if err != nil {
		return nil, err
	}
	return engine.New(appConfig.EngineConfig(levels, weekFlag), appLogger.Slog()), nil
}

func parseLevelFlag() ([]model.Level, error) {
	levels, err := config.ParseLevels(levelFlag)
	if err != nil {
		return nil, fmt.Errorf("--level: %w", err)
	}
	return levels, nil
}

func initTracing(ctx context.Context) (func(context.Context) error, error) {
	cfg := appConfig.TelemetryConfig(version)
	if traceRun {
		cfg.TraceExporter = telemetry.ExporterStdout
	}
	// Spans must never interleave with a report on stdout.
	cfg.Output = os.Stderr
	return telemetry.Init(ctx, cfg)
}

// openHistory opens the badger store under dir. The returned closer must
// be called once the store is no longer needed.
func openHistory(dir string) (*history.Store, func(), error) {
	cfg := badgerstore.DefaultConfig(dir)
	cfg.Logger = appLogger.Slog()
	db, err := badgerstore.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history store: %w", err)
	}
	return history.NewStore(db, appLogger.Slog()), func() { db.Close() }, nil
}

func recordHistory(ctx context.Context, dir string, rep *report.ValidationReport) (history.Delta, error) {
	store, closeStore, err := openHistory(dir)
	if err != nil {
		return history.Delta{}, err
	}
	defer closeStore()
	return store.RecordAndCompare(ctx, rep.Summary())
}

func printDelta(p *ux.Printer, d history.Delta) {
	switch d.Direction {
	case history.DirectionImproved:
		p.Success(d.String())
	case history.DirectionRegressed:
		p.Warning(d.String())
	default:
		p.Muted(d.String())
	}
}

// uploadReport writes the JSON report to <prefix>/<run id>.json and
// returns the object URL.
func uploadReport(ctx context.Context, rawURL string, rep *report.ValidationReport) (string, error) {
	loc, err := gcs.ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := report.RenderJSON(&buf, rep); err != nil {
		return "", err
	}
	client, err := gcs.NewClient(ctx, loc.Bucket, gcsKeyPath, appLogger.Slog())
	if err != nil {
		return "", err
	}
	defer client.Close()

	object := loc.Object(rep.RunID + ".json")
	if err := client.Upload(ctx, &buf, object, "application/json"); err != nil {
		return "", err
	}
	return "gs://" + loc.Bucket + "/" + object, nil
}

func writeMetrics(eng *engine.Engine) error {
	if appConfig.Metrics.Textfile == "" {
		return nil
	}
	return eng.Metrics().WriteTextfile(appConfig.Metrics.Textfile)
}
