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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lessonlint/pkg/ux"
	"github.com/AleutianAI/lessonlint/services/curriculum/publish"
	"github.com/AleutianAI/lessonlint/services/curriculum/report"
)

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, err := newEngine()
	if err != nil {
		return err
	}
	corpus, err := eng.Load(ctx)
	if err != nil {
		return err
	}
	rep, err := eng.Analyze(ctx, corpus)
	if err != nil {
		return err
	}

	db, err := publish.Open(publish.Driver(seedDriver), seedDSN, appLogger.Slog())
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	p := ux.NewPrinter(os.Stdout)
	res, err := publish.NewSeeder(db, appLogger.Slog()).Seed(ctx, rep, corpus)
	if errors.Is(err, publish.ErrNotPublishReady) {
		report.Render(p, rep)
		p.Error("Refusing to seed: content is not publish-ready")
		return errValidationFailed
	}
	if err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Seeded %d lessons and %d materials", res.Lessons, res.Materials))
	return nil
}
