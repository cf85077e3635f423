// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/deepresearch/services/cot"
)

// SetupRoutes registers the research API on a gin router.
func SetupRoutes(router *gin.Engine, m *Manager, log *cot.Logger) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "session_id": log.SessionID()})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/research", HandleResearch(m))

		reasoning := v1.Group("/reasoning")
		{
			reasoning.GET("/entries", HandleEntries(log))
			reasoning.GET("/sessions/:session_id", HandleSessionEntries(log))
			reasoning.GET("/chain", HandleReasoningChain(log))
			reasoning.GET("/summary", HandleSummary(log))
			reasoning.POST("/export", HandleExport(log))
			reasoning.DELETE("/entries", HandleClear(log))
			reasoning.POST("/sessions", HandleNewSession(log))
		}
	}
}
