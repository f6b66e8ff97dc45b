// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/lessonlint/services/curriculum/report"
)

// Metrics is the Prometheus metric set of one engine. Each engine owns its
// registry so a CLI run can write exactly its own metrics to a textfile
// for the node-exporter textfile collector.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	findings         *prometheus.GaugeVec
	lessons          prometheus.Gauge
	weeks            prometheus.Gauge
	analyzerDuration *prometheus.HistogramVec
	analyzerFailures *prometheus.CounterVec
	lastRun          prometheus.Gauge
}

// NewMetrics registers the metric set in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lessonlint_runs_total",
			Help: "Validation runs by result",
		}, []string{"result"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lessonlint_run_duration_seconds",
			Help:    "Duration of a validation run after loading",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}),
		findings: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lessonlint_findings",
			Help: "Findings per report category in the last run",
		}, []string{"category", "severity"}),
		lessons: f.NewGauge(prometheus.GaugeOpts{
			Name: "lessonlint_lessons",
			Help: "Lessons loaded in the last run",
		}),
		weeks: f.NewGauge(prometheus.GaugeOpts{
			Name: "lessonlint_weeks",
			Help: "Week collections loaded in the last run",
		}),
		analyzerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lessonlint_analyzer_duration_seconds",
			Help:    "Duration of each analyzer",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}, []string{"analyzer"}),
		analyzerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lessonlint_analyzer_failures_total",
			Help: "Analyzers that panicked or returned an error",
		}, []string{"analyzer"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "lessonlint_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records the outcome of a finalized report.
func (m *Metrics) ObserveRun(r *report.ValidationReport, d time.Duration) {
	result := "pass"
	if !r.Passed() {
		result = "fail"
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(d.Seconds())
	for _, c := range report.Categories {
		m.findings.WithLabelValues(string(c), c.Severity().String()).Set(float64(r.Count(c)))
	}
	m.lessons.Set(float64(r.Totals.Lessons))
	m.weeks.Set(float64(r.Totals.Weeks))
	m.lastRun.Set(float64(r.FinishedAt.Unix()))
}

// ObserveAnalyzer records one analyzer execution.
func (m *Metrics) ObserveAnalyzer(name string, d time.Duration, err error) {
	m.analyzerDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.analyzerFailures.WithLabelValues(name).Inc()
	}
}

// WriteTextfile writes the current values in the text exposition format.
// The write is atomic so a concurrent scrape never sees a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
