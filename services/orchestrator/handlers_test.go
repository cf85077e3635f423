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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/deepresearch/services/cot"
	"github.com/AleutianAI/deepresearch/services/llm"
)

func testRouter(t *testing.T) (*gin.Engine, *cot.Logger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := llm.NewStubClient(planJSON, "findings A", "findings B", "# Report")
	m, log := newTestManager(t, client, &fakeWebSearcher{}, nil)

	router := gin.New()
	SetupRoutes(router, m, log)
	return router, log
}

func TestResearchEndpoint(t *testing.T) {
	t.Run("valid request runs the pipeline", func(t *testing.T) {
		router, _ := testRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/research",
			strings.NewReader(`{"topic": "quantum computing"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var result ResearchResult
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "quantum computing", result.Topic)
		assert.Len(t, result.Findings, 2)
		assert.NotEmpty(t, result.Report)
	})

	t.Run("missing topic is a bad request", func(t *testing.T) {
		router, _ := testRouter(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/research", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReasoningEndpoints(t *testing.T) {
	seed := func(t *testing.T) (*gin.Engine, *cot.Logger) {
		router, log := testRouter(t)
		log.LogStep("planner", "Plan research for: fusion",
			cot.WithDecision("Plan approved"),
			cot.WithConfidence(0.9))
		log.LogStep("researcher", "Research section: Background",
			cot.WithLevel(cot.LevelWarning))
		return router, log
	}

	t.Run("entries with agent filter", func(t *testing.T) {
		router, _ := seed(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/v1/reasoning/entries?agent=planner", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Count   int         `json:"count"`
			Entries []cot.Entry `json:"entries"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, "planner", body.Entries[0].Agent)
	})

	t.Run("invalid limit is rejected", func(t *testing.T) {
		router, _ := seed(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/v1/reasoning/entries?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("current session entries", func(t *testing.T) {
		router, _ := seed(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/v1/reasoning/sessions/current", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Count int `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Count)
	})

	t.Run("reasoning chain requires a topic", func(t *testing.T) {
		router, _ := seed(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reasoning/chain", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/v1/reasoning/chain?topic=fusion", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Count int `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
	})

	t.Run("summary aggregates the log", func(t *testing.T) {
		router, _ := seed(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reasoning/summary", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var summary cot.Summary
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
		assert.Equal(t, 2, summary.TotalSteps)
		assert.Contains(t, summary.AgentsInvolved, "planner")
	})

	t.Run("export writes a document", func(t *testing.T) {
		router, _ := seed(t)
		path := filepath.Join(t.TempDir(), "export.json")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/reasoning/export",
			strings.NewReader(`{"path": "`+path+`"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("clear reports the count", func(t *testing.T) {
		router, _ := seed(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/reasoning/entries", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Cleared int `json:"cleared"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Cleared)
	})

	t.Run("new session rotates the id", func(t *testing.T) {
		router, log := seed(t)
		before := log.SessionID()

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/reasoning/sessions", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, before, log.SessionID())
	})

	t.Run("healthz", func(t *testing.T) {
		router, _ := seed(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
