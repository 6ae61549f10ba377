// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and caches the server's runtime configuration:
// ontology source location, solver timeouts, CORS origins, and the
// optional InfluxDB sink, as a process-wide YAML-backed singleton.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxYAMLFileSize bounds how large a config file this process will read,
// a defensive ceiling against an accidentally-huge or malformed file.
const MaxYAMLFileSize = 1 << 20 // 1 MiB

// Config is the full server configuration, loaded once at startup and
// treated as immutable thereafter.
type Config struct {
	Port int `yaml:"port"`

	// OntologyDir is a local directory of *.json ontology documents. Set
	// either this or the GCS fields, not both.
	OntologyDir string `yaml:"ontology_dir"`

	// GCSBucket/GCSPrefix configure a Google Cloud Storage-backed
	// ontology source as an alternative to OntologyDir.
	GCSBucket string `yaml:"gcs_bucket"`
	GCSPrefix string `yaml:"gcs_prefix"`

	// WatchOntologies enables fsnotify-based (or, for GCS, poll-based)
	// hot reload of the ontology registry.
	WatchOntologies bool          `yaml:"watch_ontologies"`
	PollInterval    time.Duration `yaml:"poll_interval"`

	// ConstraintTimeout bounds a single constraint's solver check.
	ConstraintTimeout time.Duration `yaml:"constraint_timeout"`

	// CORSOrigins is the allow-list for the HTTP API's CORS middleware.
	CORSOrigins []string `yaml:"cors_origins"`

	// RateLimitRPS/RateLimitBurst configure the HTTP layer's token-bucket
	// backpressure.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// InfluxURL/InfluxToken/InfluxOrg/InfluxBucket configure the optional
	// fire-and-forget metrics sink; InfluxURL empty disables it.
	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`

	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() Config {
	return Config{
		Port:              8080,
		OntologyDir:       "./ontologies",
		WatchOntologies:   true,
		PollInterval:      30 * time.Second,
		ConstraintTimeout: 2 * time.Second,
		CORSOrigins:       []string{"*"},
		RateLimitRPS:      50,
		RateLimitBurst:    100,
	}
}

// Load reads a YAML config file (if path is non-empty and exists),
// layers environment variable overrides on top, and validates the
// result. Every field has a sane default, so a missing file is not an
// error — only a malformed one, or one that fails validation, is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else {
			if len(data) > MaxYAMLFileSize {
				return Config{}, fmt.Errorf("config: %s exceeds maximum size (%d > %d)", path, len(data), MaxYAMLFileSize)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ONTOLOGYVERIFIER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("ONTOLOGYVERIFIER_ONTOLOGY_DIR"); v != "" {
		cfg.OntologyDir = v
	}
	if v := os.Getenv("ONTOLOGYVERIFIER_GCS_BUCKET"); v != "" {
		cfg.GCSBucket = v
	}
	if v := os.Getenv("ONTOLOGYVERIFIER_GCS_PREFIX"); v != "" {
		cfg.GCSPrefix = v
	}
	if v := os.Getenv("ONTOLOGYVERIFIER_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("ONTOLOGYVERIFIER_INFLUX_URL"); v != "" {
		cfg.InfluxURL = v
	}
	if v := os.Getenv("ONTOLOGYVERIFIER_INFLUX_TOKEN"); v != "" {
		cfg.InfluxToken = v
	}
	if v := os.Getenv("ONTOLOGYVERIFIER_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d is out of range", cfg.Port)
	}
	if cfg.OntologyDir == "" && cfg.GCSBucket == "" {
		return fmt.Errorf("one of ontology_dir or gcs_bucket is required")
	}
	if cfg.OntologyDir != "" && cfg.GCSBucket != "" {
		return fmt.Errorf("ontology_dir and gcs_bucket are mutually exclusive")
	}
	if cfg.ConstraintTimeout <= 0 {
		return fmt.Errorf("constraint_timeout must be positive")
	}
	if len(cfg.CORSOrigins) == 0 {
		return fmt.Errorf("cors_origins must not be empty")
	}
	return nil
}

var (
	mu          sync.RWMutex
	loaded      bool
	cached      Config
	cachedError error
)

// Get returns the process-wide cached configuration, loading it from
// path on first call. Subsequent calls return the cached value
// regardless of path — Get is a singleton accessor, not a per-argument
// cache.
func Get(path string) (Config, error) {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cached, cachedError
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cached, cachedError
	}

	cached, cachedError = Load(path)
	loaded = true
	return cached, cachedError
}

// Reset clears the cached configuration, for tests that need to reload
// with a different file or environment.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cached = Config{}
	cachedError = nil
	loaded = false
}
