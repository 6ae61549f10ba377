// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/telemetry"
	"github.com/aare-ai/aare-core/internal/verify"
)

// streamMessage is one frame of the /v1/verify/stream protocol. A
// connection receives zero or more "violation" frames, each carrying one
// constraint's verdict as soon as it is checked, followed by exactly one
// "done" frame carrying the assembled Report, or one "error" frame if
// the request could not be served at all.
type streamMessage struct {
	Type      string           `json:"type"` // "violation" | "done" | "error"
	Violation *verify.Violation `json:"violation,omitempty"`
	Report    *verify.Report    `json:"report,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// streamRequest is the first (and only) client->server frame: the
// ontology to verify against and the text to check.
type streamRequest struct {
	Ontology string `json:"ontology"`
	Text     string `json:"text"`
}

// Streamer upgrades /v1/verify/stream to a websocket and drives
// Verifier.VerifyStream, forwarding each constraint's verdict to the
// client the moment it is available instead of waiting for the whole
// ontology to finish — useful for ontologies with many constraints and
// UIs that want to render progress incrementally.
type Streamer struct {
	Registry *ontology.Registry
	Verifier *verify.Verifier
	Metrics  *telemetry.Metrics
	upgrader websocket.Upgrader
}

// NewStreamer builds a Streamer. CheckOrigin is left permissive (true)
// deliberately: this endpoint has no cookie-based session to protect
// against cross-site hijacking, and origin enforcement for browser
// callers is the CORS middleware's job on the plain HTTP routes.
func NewStreamer(registry *ontology.Registry, verifier *verify.Verifier, metrics *telemetry.Metrics) *Streamer {
	return &Streamer{
		Registry: registry,
		Verifier: verifier,
		Metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleStream handles GET /v1/verify/stream.
//
// Description:
//
//	Upgrades the connection to a websocket, reads one streamRequest
//	frame, and streams back one "violation" frame per constraint as it
//	is checked, followed by a terminal "done" frame carrying the full
//	Report. The connection is closed after the terminal frame.
func (s *Streamer) HandleStream(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleStream")

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	var req streamRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.writeError(conn, "malformed request: "+err.Error())
		return
	}

	o, ok := s.Registry.Get(req.Ontology)
	if !ok {
		s.writeError(conn, "no ontology registered under name "+req.Ontology)
		return
	}

	start := time.Now()
	report, err := s.Verifier.VerifyStream(c.Request.Context(), o, req.Text, func(v verify.Violation) {
		if err := conn.WriteJSON(streamMessage{Type: "violation", Violation: &v}); err != nil {
			logger.Warn("websocket write failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		s.writeError(conn, err.Error())
		return
	}
	report.ExecutionTimeMS = time.Since(start).Milliseconds()

	if s.Metrics != nil {
		s.Metrics.Observe(c.Request.Context(), report)
	}

	if err := conn.WriteJSON(streamMessage{Type: "done", Report: report}); err != nil {
		logger.Warn("websocket write failed", slog.String("error", err.Error()))
	}
}

func (s *Streamer) writeError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(streamMessage{Type: "error", Error: message})
}
