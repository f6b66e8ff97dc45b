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
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lessonlint/pkg/ux"
	"github.com/AleutianAI/lessonlint/services/curriculum/engine"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
	"github.com/AleutianAI/lessonlint/services/curriculum/watch"
)

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine()
	if err != nil {
		return err
	}
	logger := appLogger.Slog()
	p := ux.NewPrinter(os.Stdout)

	validateOnce := func(ctx context.Context) {
		rep, err := eng.Run(ctx)
		if err != nil && !errors.Is(err, engine.ErrNoCollections) {
			if ctx.Err() == nil {
				p.Error(err.Error())
			}
			return
		}
		report.Render(p, rep)
		if appConfig.History.Dir != "" {
			delta, err := recordHistory(ctx, appConfig.History.Dir, rep)
			if err != nil {
				logger.Warn("history not recorded", slog.String("error", err.Error()))
			} else {
				printDelta(p, delta)
			}
		}
		if err := writeMetrics(eng); err != nil {
			logger.Warn("metrics not written", slog.String("error", err.Error()))
		}
	}

	validateOnce(ctx)

	w, err := watch.New(appConfig.Content.Root, func(ctx context.Context, changes []watch.Change) {
		p.Muted("")
		for _, c := range changes {
			p.Muted(c.Op.String() + " " + c.Path)
		}
		validateOnce(ctx)
	}, watch.DefaultOptions(), logger)
	if err != nil {
		return err
	}
	p.Muted("Watching " + appConfig.Content.Root + " (Ctrl+C to stop)")
	return w.Run(ctx)
}
