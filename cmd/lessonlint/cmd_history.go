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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lessonlint/pkg/ux"
)

func runHistory(cmd *cobra.Command, args []string) error {
	if appConfig.History.Dir == "" {
		return errors.New("no history store configured (use --store or history.dir)")
	}
	store, closeStore, err := openHistory(appConfig.History.Dir)
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := store.List(cmd.Context(), historyScope, historyLimit)
	if err != nil {
		return err
	}

	p := ux.NewPrinter(os.Stdout)
	p.Section("Validation runs", len(runs), ux.IconInfo)
	for _, s := range runs {
		status := "PASSED"
		if !s.Passed {
			status = "FAILED"
		}
		p.Item(fmt.Sprintf("%s  %-24s %s  blocking=%d advisory=%d lessons=%d  %s",
			s.StartedAt.Local().Format(time.DateTime), s.ScopeKey, status,
			s.Blocking, s.Advisory, s.Totals.Lessons, shortID(s.RunID)))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
