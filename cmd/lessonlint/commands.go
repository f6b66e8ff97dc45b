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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lessonlint/cmd/lessonlint/config"
	"github.com/AleutianAI/lessonlint/pkg/logging"
	"github.com/AleutianAI/lessonlint/pkg/ux"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// errValidationFailed makes the process exit non-zero after the report
// has already been printed.
var errValidationFailed = errors.New("validation failed")

// --- Global Command Variables ---
var (
	configPath    string
	contentRoot   string
	inventoryPath string
	levelFlag     string
	weekFlag      int
	outputMode    string // UX output mode (styled/plain/machine)
	logLevel      string

	// validate
	jsonOutput  bool
	xlsxPath    string
	storeDir    string
	uploadURL   string
	gcsKeyPath  string
	metricsFile string
	traceRun    bool

	classifyFormat string
	historyLimit   int
	historyScope   string
	seedDSN        string
	seedDriver     string
	exportOut      string
	forceWrite     bool

	// Resolved in PersistentPreRunE
	appConfig config.LessonlintConfig
	appLogger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "lessonlint",
		Short: "Validate and normalize a weekly lesson curriculum",
		Long: `lessonlint checks a tree of weekly lesson collections for structural
defects, duplicates, unresolved materials, and broken weekly distribution,
and classifies each lesson by activity modality.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ux.InitPersonality(outputMode)
			return loadAppConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appLogger != nil {
				appLogger.Close()
			}
		},
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Run every check and print the validation report",
		Args:  cobra.NoArgs,
		RunE:  runValidate, // Defined in cmd_validate.go
	}

	classifyCmd = &cobra.Command{
		Use:   "classify",
		Short: "Classify every lesson as direct, printable, or none",
		Args:  cobra.NoArgs,
		RunE:  runClassify, // Defined in cmd_classify.go
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-validate whenever content files change",
		Args:  cobra.NoArgs,
		RunE:  runWatch, // Defined in cmd_watch.go
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistory, // Defined in cmd_history.go
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Publish validated lessons and inventory to a SQL store",
		Long: `seed validates the content first and refuses to write anything unless
the run is publish-ready: no blocking findings and no exact duplicates.`,
		Args: cobra.NoArgs,
		RunE: runSeed, // Defined in cmd_seed.go
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write the validation report as an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE:  runExport, // Defined in cmd_export.go
	}

	// --- Config ---
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect or create lessonlint.yaml",
	}
	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow, // Defined in cmd_config.go
	}
	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit, // Defined in cmd_config.go
	}
)

func init() {
	rootCmd.AddCommand(validateCmd, classifyCmd, watchCmd, historyCmd, seedCmd, exportCmd, configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "",
		"Path to lessonlint.yaml (default: <root>/lessonlint.yaml if present)")
	pf.StringVar(&contentRoot, "root", "", "Content directory (overrides content.root)")
	pf.StringVar(&inventoryPath, "inventory", "", "Materials inventory file, relative to the root")
	pf.StringVar(&levelFlag, "level", "all", "Level to check: all, primary, lower_elementary, upper_elementary")
	pf.IntVar(&weekFlag, "week", 0, "Restrict to a single week (1-36)")
	pf.StringVar(&outputMode, "output", "",
		"Output mode: styled, plain, or machine (env: "+ux.OutputEnv+")")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	validateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	validateCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report as an XLSX workbook")
	validateCmd.Flags().StringVar(&storeDir, "store", "", "History directory (overrides history.dir)")
	validateCmd.Flags().StringVar(&uploadURL, "upload", "", "Upload the JSON report to gs://bucket/prefix")
	validateCmd.Flags().StringVar(&gcsKeyPath, "gcs-key", "", "Service account key for --upload (default: application credentials)")
	validateCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	validateCmd.Flags().BoolVar(&traceRun, "trace", false, "Print OpenTelemetry spans to stderr")

	classifyCmd.Flags().StringVar(&classifyFormat, "format", "json", "Output format: json or yaml")

	watchCmd.Flags().StringVar(&storeDir, "store", "", "History directory (overrides history.dir)")

	historyCmd.Flags().StringVar(&storeDir, "store", "", "History directory (overrides history.dir)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
	historyCmd.Flags().StringVar(&historyScope, "scope", "", "Only runs with this scope key, e.g. primary/w03")

	seedCmd.Flags().StringVar(&seedDSN, "dsn", "", "Postgres DSN or sqlite file path")
	seedCmd.Flags().StringVar(&seedDriver, "driver", "postgres", "SQL driver: postgres or sqlite")
	seedCmd.MarkFlagRequired("dsn")

	exportCmd.Flags().StringVar(&exportOut, "out", "", "Workbook path (.xlsx)")
	exportCmd.MarkFlagRequired("out")

	configInitCmd.Flags().BoolVar(&forceWrite, "force", false, "Overwrite an existing file")
}

// loadAppConfig resolves the config file and applies flag overrides.
func loadAppConfig() error {
	cfg, err := config.Load(config.Resolve(configPath, contentRoot))
	if err != nil {
		return err
	}
	if contentRoot != "" {
		cfg.Content.Root = contentRoot
	}
	if inventoryPath != "" {
		cfg.Content.Inventory = inventoryPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if storeDir != "" {
		cfg.History.Dir = storeDir
	}
	if metricsFile != "" {
		cfg.Metrics.Textfile = metricsFile
	}
	if weekFlag < 0 {
		return fmt.Errorf("--week must be positive, got %d", weekFlag)
	}
	appConfig = cfg
	appLogger = logging.New(cfg.LoggerConfig())
	return nil
}
