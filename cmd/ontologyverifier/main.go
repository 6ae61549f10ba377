// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ontologyverifier starts the ontology-driven constraint
// verification API server.
//
// Usage:
//
//	go run ./cmd/ontologyverifier
//	go run ./cmd/ontologyverifier -port 9090 -ontology-dir ./ontologies
//
// With a GCS-backed ontology source:
//
//	go run ./cmd/ontologyverifier -gcs-bucket my-bucket -gcs-prefix ontologies/
//
// Example requests:
//
//	curl http://localhost:8080/v1/health
//	curl http://localhost:8080/v1/ontologies
//	curl -X POST http://localhost:8080/v1/verify \
//	  -H "Content-Type: application/json" \
//	  -d '{"ontology": "lease-terms", "text": "The monthly rent of $2,500 is due."}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aare-ai/aare-core/internal/config"
	"github.com/aare-ai/aare-core/internal/httpapi"
	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/smt"
	"github.com/aare-ai/aare-core/internal/telemetry"
	"github.com/aare-ai/aare-core/internal/verify"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional; env vars and flags override it)")
	port := flag.Int("port", 0, "Port to listen on (0 uses the config default)")
	debug := flag.Bool("debug", false, "Enable debug mode (gin debug logging, stdout trace exporter)")
	ontologyDir := flag.String("ontology-dir", "", "Local directory of *.json ontology documents")
	gcsBucket := flag.String("gcs-bucket", "", "GCS bucket holding ontology documents (alternative to -ontology-dir)")
	gcsPrefix := flag.String("gcs-prefix", "", "Object key prefix within -gcs-bucket")
	useFakeSolver := flag.Bool("fake-solver", false, "Use the in-process FakeSolver instead of Z3 (for smoke testing without a Z3 build)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *ontologyDir != "" {
		cfg.OntologyDir, cfg.GCSBucket = *ontologyDir, ""
	}
	if *gcsBucket != "" {
		cfg.GCSBucket, cfg.OntologyDir = *gcsBucket, ""
		cfg.GCSPrefix = *gcsPrefix
	}
	if *debug {
		cfg.Debug = true
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "ontologyverifier", cfg.Debug)
	if err != nil {
		slog.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		slog.Error("failed to build ontology registry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer registry.Close()
	startWatching(ctx, registry, cfg)

	var solver smt.Solver = smt.NewZ3Solver()
	if *useFakeSolver {
		solver = &smt.FakeSolver{}
	}
	verifier := verify.New(solver)
	verifier.ConstraintTimeout = cfg.ConstraintTimeout

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	if cfg.InfluxURL != "" {
		metrics = metrics.WithInflux(telemetry.NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}

	handlers := httpapi.NewHandlers(registry, verifier, metrics)
	streamer := httpapi.NewStreamer(registry, verifier, metrics)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("ontologyverifier"))
	router.Use(httpapi.CORSConfig(cfg.CORSOrigins))
	router.Use(httpapi.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	httpapi.RegisterRoutes(v1, handlers, streamer)

	printBanner(cfg.Port, solver)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down ontology verifier server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", slog.String("error", err.Error()))
		}
	}()

	slog.Info("starting ontology verifier server", slog.Int("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildRegistry constructs the ontology Source cfg describes and loads
// it into a fresh Registry. Exactly one of cfg.OntologyDir/cfg.GCSBucket
// is set, enforced by config.validate at load time.
func buildRegistry(ctx context.Context, cfg config.Config) (*ontology.Registry, error) {
	var src ontology.Source
	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("building GCS client: %w", err)
		}
		src = ontology.GCSSource{Client: client, Bucket: cfg.GCSBucket, Prefix: cfg.GCSPrefix}
	} else {
		src = ontology.DirSource{Dir: cfg.OntologyDir}
	}
	return ontology.NewRegistry(ctx, src)
}

// startWatching wires hot-reload for the configured ontology source, if
// enabled: an fsnotify watch for a local directory, or ticker-driven
// polling for GCS, which has no filesystem events to subscribe to.
func startWatching(ctx context.Context, registry *ontology.Registry, cfg config.Config) {
	if !cfg.WatchOntologies {
		return
	}
	if cfg.OntologyDir != "" {
		if err := registry.WatchDir(ctx, cfg.OntologyDir); err != nil {
			slog.Warn("ontology directory watch unavailable, hot reload disabled", slog.String("error", err.Error()))
		}
		return
	}
	registry.WatchPoll(ctx, cfg.PollInterval)
}

func printBanner(port int, solver smt.Solver) {
	name, version := solver.Identity()
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                   ONTOLOGY VERIFIER SERVER                        ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Natural-language constraint verification, backed by %-8s    ║
║  (%s)
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ curl http://localhost:%-5d/v1/health                        │  ║
║  │ curl http://localhost:%-5d/v1/ontologies                    │  ║
║  │ curl -X POST http://localhost:%-5d/v1/verify \               │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"ontology": "...", "text": "..."}'                    │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, name, version, port, port, port)
}
