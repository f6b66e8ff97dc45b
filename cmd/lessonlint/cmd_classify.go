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
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lessonlint/services/curriculum/classify"
)

// classifyOutput is the document the classify command prints.
type classifyOutput struct {
	Summary classify.Summary  `json:"summary" yaml:"summary"`
	Results []classify.Result `json:"results" yaml:"results"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	corpus, err := eng.Load(cmd.Context())
	if err != nil {
		return err
	}
	for _, f := range corpus.Failures {
		appLogger.Warn("skipped unreadable content", "file", f.File, "error", f.Message)
	}

	results := classify.New(appConfig.Classifier).ClassifyCorpus(corpus)
	return writeClassification(os.Stdout, classifyFormat, classifyOutput{
		Summary: classify.Summarize(results),
		Results: results,
	})
}

func writeClassification(w io.Writer, format string, doc classifyOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown --format %q (want json or yaml)", format)
	}
}
