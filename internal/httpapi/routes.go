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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers every /v1/* endpoint on rg.
//
// Description:
//
//	Registers the verification core's HTTP surface: ontology listing and
//	retrieval, constraint verification, a streaming variant of
//	verification over a websocket, and health/readiness checks.
//
// Endpoints:
//
//	GET    /v1/health              - liveness check
//	GET    /v1/ready               - readiness check (registry loaded)
//	GET    /v1/ontologies          - list known ontologies
//	GET    /v1/ontologies/:name    - fetch one ontology document
//	POST   /v1/verify              - verify text against an ontology
//	GET    /v1/verify/stream       - websocket: verify with per-constraint progress
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, streamer *Streamer) {
	rg.GET("/health", handlers.HandleHealth)
	rg.GET("/ready", handlers.HandleReady)

	rg.GET("/ontologies", handlers.HandleListOntologies)
	rg.GET("/ontologies/:name", handlers.HandleGetOntology)

	rg.POST("/verify", handlers.HandleVerify)
	rg.GET("/verify/stream", streamer.HandleStream)
}
