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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lessonlint/cmd/lessonlint/config"
	"github.com/AleutianAI/lessonlint/pkg/ux"
)

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := config.Marshal(appConfig)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.FileName
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteDefault(path, forceWrite); err != nil {
		return err
	}
	ux.NewPrinter(os.Stdout).Success(fmt.Sprintf("Default configuration written to %s", path))
	return nil
}
