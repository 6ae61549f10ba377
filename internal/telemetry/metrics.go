// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aare-ai/aare-core/internal/verify"
)

// Metrics holds the Prometheus collectors recorded on every verification
// request.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ConstraintResults *prometheus.CounterVec

	influx *influxSink
}

// NewMetrics registers every collector against reg. Registering twice in
// the same process (e.g. tests that construct more than one server) is
// tolerated: an AlreadyRegisteredError hands back the already-registered
// collector instead of panicking.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: registerOrReuseCounterVec(reg, prometheus.CounterOpts{
			Name: "ontologyverifier_requests_total",
			Help: "Total verification requests, labeled by ontology and outcome.",
		}, []string{"ontology", "outcome"}),
		RequestDuration: registerOrReuseHistogramVec(reg, prometheus.HistogramOpts{
			Name:    "ontologyverifier_request_duration_seconds",
			Help:    "Verification request wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"ontology"}),
		ConstraintResults: registerOrReuseCounterVec(reg, prometheus.CounterOpts{
			Name: "ontologyverifier_constraint_results_total",
			Help: "Per-constraint verification outcomes.",
		}, []string{"ontology", "constraint_id", "status"}),
	}
}

func registerOrReuseCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(cv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return cv
}

func registerOrReuseHistogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labels)
	if err := reg.Register(hv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		panic(err)
	}
	return hv
}

// Observe records one completed Report's outcome in both Prometheus and,
// if configured, the InfluxDB sink.
func (m *Metrics) Observe(ctx context.Context, report *verify.Report) {
	satisfied, violated, indeterminate := report.Summary()
	outcome := "satisfied"
	if indeterminate > 0 {
		outcome = "indeterminate"
	} else if violated > 0 {
		outcome = "violated"
	}

	m.RequestsTotal.WithLabelValues(report.Ontology.Name, outcome).Inc()
	m.RequestDuration.WithLabelValues(report.Ontology.Name).Observe(float64(report.ExecutionTimeMS) / 1000.0)

	for _, v := range report.Results {
		m.ConstraintResults.WithLabelValues(report.Ontology.Name, v.ConstraintID, string(v.Status)).Inc()
	}

	if m.influx != nil {
		go m.influx.write(context.WithoutCancel(ctx), report, satisfied, violated, indeterminate)
	}
}

// influxSink is a best-effort, fire-and-forget mirror of verification
// outcomes into InfluxDB, for operators who already run an Influx-backed
// dashboard stack. A write failure is logged and dropped; it never
// affects the verification response path.
type influxSink struct {
	client influxdb2.Client
	org    string
	bucket string
}

// NewInfluxSink constructs a sink, or returns nil if url is empty — the
// sink is entirely optional.
func NewInfluxSink(url, token, org, bucket string) *influxSink {
	if url == "" {
		return nil
	}
	return &influxSink{
		client: influxdb2.NewClient(url, token),
		org:    org,
		bucket: bucket,
	}
}

// WithInflux attaches an optional sink built by NewInfluxSink.
func (m *Metrics) WithInflux(sink *influxSink) *Metrics {
	m.influx = sink
	return m
}

func (s *influxSink) write(ctx context.Context, report *verify.Report, satisfied, violated, indeterminate int) {
	writeAPI := s.client.WriteAPIBlocking(s.org, s.bucket)
	point := write.NewPoint(
		"verification",
		map[string]string{
			"ontology":      report.Ontology.Name,
			"ontology_ver":  report.Ontology.Version,
			"proof_method":  report.Proof.Method,
		},
		map[string]interface{}{
			"satisfied":         satisfied,
			"violated":          violated,
			"indeterminate":     indeterminate,
			"execution_time_ms": report.ExecutionTimeMS,
		},
		time.Now(),
	)
	if err := writeAPI.WritePoint(ctx, point); err != nil {
		slog.Warn("influx sink: write failed", slog.String("error", err.Error()))
	}
}

// Close releases the Influx client, if one was configured.
func (s *influxSink) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}
