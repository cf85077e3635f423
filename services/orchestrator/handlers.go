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
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/deepresearch/services/cot"
)

// ResearchRequest is the POST /v1/research body.
type ResearchRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// HandleResearch runs the pipeline for a topic.
func HandleResearch(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		result, err := m.StartResearch(c.Request.Context(), req.Topic)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrEmptyTopic) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleEntries returns reasoning entries, filtered by the optional
// agent, level, and limit query parameters.
func HandleEntries(log *cot.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := cot.EntryFilter{
			Agent: c.Query("agent"),
			Level: cot.Level(c.Query("level")),
		}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			filter.Limit = limit
		}

		entries := log.Entries(filter)
		c.JSON(http.StatusOK, gin.H{
			"entries": entries,
			"count":   len(entries),
		})
	}
}

// HandleSessionEntries returns one session's reasoning entries.
// "current" resolves to the active session.
func HandleSessionEntries(log *cot.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")
		if sessionID == "current" {
			sessionID = ""
		}

		entries := log.SessionEntries(sessionID)
		c.JSON(http.StatusOK, gin.H{
			"entries": entries,
			"count":   len(entries),
		})
	}
}

// HandleReasoningChain returns entries touching a topic.
func HandleReasoningChain(log *cot.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.Query("topic")
		if topic == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "topic query parameter is required"})
			return
		}

		entries := log.ReasoningChain(topic)
		c.JSON(http.StatusOK, gin.H{
			"entries": entries,
			"count":   len(entries),
		})
	}
}

// HandleSummary returns the reasoning summary for a session, or for
// the whole log when no session_id is given.
func HandleSummary(log *cot.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, log.CreateSummary(c.Query("session_id")))
	}
}

// ExportRequest is the POST /v1/reasoning/export body.
type ExportRequest struct {
	Path      string `json:"path" binding:"required"`
	SessionID string `json:"session_id"`
}

// HandleExport writes a reasoning log document to a file on the
// server.
func HandleExport(log *cot.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ExportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := log.ExportToJSON(req.Path, req.SessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": req.Path})
	}
}

// HandleClear removes reasoning entries, scoped to a session when
// session_id is given.
func HandleClear(log *cot.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cleared := log.ClearLogs(c.Query("session_id"))
		c.JSON(http.StatusOK, gin.H{"cleared": cleared})
	}
}

// HandleNewSession starts a fresh reasoning session.
func HandleNewSession(log *cot.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"session_id": log.StartNewSession()})
	}
}
