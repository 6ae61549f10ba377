// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package httpapi exposes the ontology registry and verification core
// over HTTP: a thin Handlers struct wired with its collaborators, one
// method per route, and a uniform JSON error envelope.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aare-ai/aare-core/internal/apperr"
	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/telemetry"
	"github.com/aare-ai/aare-core/internal/verify"
)

// ErrorResponse is the uniform JSON error envelope for every non-2xx
// response this API returns.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handlers holds the collaborators every route needs. It carries no
// mutable state of its own — the registry and verifier are already safe
// for concurrent use.
type Handlers struct {
	Registry *ontology.Registry
	Verifier *verify.Verifier
	Metrics  *telemetry.Metrics
}

// NewHandlers constructs a Handlers. metrics may be nil, in which case
// requests are served without recording Prometheus/Influx observations.
func NewHandlers(registry *ontology.Registry, verifier *verify.Verifier, metrics *telemetry.Metrics) *Handlers {
	return &Handlers{Registry: registry, Verifier: verifier, Metrics: metrics}
}

// VerifyRequest is the body of POST /v1/verify.
type VerifyRequest struct {
	Ontology string `json:"ontology" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

// getOrCreateRequestID returns the inbound X-Request-Id header, or mints
// a fresh one, and echoes it back on the response so a caller can
// correlate logs across a retried request.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-Id"); id != "" {
		c.Header("X-Request-Id", id)
		return id
	}
	id := uuid.NewString()
	c.Header("X-Request-Id", id)
	return id
}

// HandleVerify handles POST /v1/verify.
//
// Description:
//
//	Extracts the request's typed environment from its text body against
//	the named ontology's extractors, compiles and checks every
//	constraint, and returns a verification Report.
//
// Response:
//
//	200 OK: verify.Report
//	400 Bad Request: malformed body
//	404 Not Found: no ontology registered under that name
//	500 Internal Server Error: solver or internal failure
func (h *Handlers) HandleVerify(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleVerify")

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
		return
	}

	o, ok := h.Registry.Get(req.Ontology)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no ontology registered under name " + req.Ontology,
			Code:  "UNKNOWN_ONTOLOGY",
		})
		return
	}

	start := time.Now()
	report, err := h.Verifier.Verify(c.Request.Context(), o, req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		code := "INTERNAL_ERROR"
		var ae *apperr.Error
		if errors.As(err, &ae) {
			status = ae.Kind.HTTPStatus()
			code = string(ae.Kind)
		}
		logger.Error("verification failed", slog.String("error", err.Error()))
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	report.ExecutionTimeMS = time.Since(start).Milliseconds()

	if h.Metrics != nil {
		h.Metrics.Observe(c.Request.Context(), report)
	}

	c.JSON(http.StatusOK, report)
}

// HandleListOntologies handles GET /v1/ontologies.
//
// Response:
//
//	200 OK: []ontology.Summary
func (h *Handlers) HandleListOntologies(c *gin.Context) {
	c.JSON(http.StatusOK, h.Registry.List())
}

// HandleGetOntology handles GET /v1/ontologies/:name.
//
// Response:
//
//	200 OK: ontology.Ontology
//	404 Not Found: no ontology registered under that name
func (h *Handlers) HandleGetOntology(c *gin.Context) {
	name := c.Param("name")
	o, ok := h.Registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no ontology registered under name " + name,
			Code:  "UNKNOWN_ONTOLOGY",
		})
		return
	}
	c.JSON(http.StatusOK, o)
}

// HandleHealth handles GET /v1/health. It reports healthy unconditionally
// — process liveness, not dependency health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	getOrCreateRequestID(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/ready. It reports not ready whenever the
// most recent ontology reload failed, even though the registry keeps
// serving the snapshot from the last successful load.
func (h *Handlers) HandleReady(c *gin.Context) {
	if err := h.Registry.LastError(); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "ontology registry unhealthy: " + err.Error(),
			Code:  "NOT_READY",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
