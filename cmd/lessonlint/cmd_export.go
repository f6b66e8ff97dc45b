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
	"github.com/AleutianAI/lessonlint/services/curriculum/engine"
	"github.com/AleutianAI/lessonlint/services/curriculum/export"
)

func runExport(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	rep, err := eng.Run(cmd.Context())
	if err != nil && !errors.Is(err, engine.ErrNoCollections) {
		return err
	}
	if err := export.SaveAs(exportOut, rep); err != nil {
		return err
	}
	ux.NewPrinter(os.Stdout).Success(fmt.Sprintf("Workbook written to %s (%s)", exportOut, rep.SummaryLine()))
	return nil
}
