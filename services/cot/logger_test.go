// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cot

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/AleutianAI/deepresearch/pkg/logging"
)

func newTestLogger(t *testing.T, maxEntries int) *Logger {
	t.Helper()
	return New(Config{
		LogFile:    filepath.Join(t.TempDir(), "chain_of_thought.json"),
		MaxEntries: maxEntries,
		Diag:       logging.New(logging.Config{Quiet: true}),
	})
}

func TestLogStep(t *testing.T) {
	t.Run("returns a step id prefixed with the agent name", func(t *testing.T) {
		logger := newTestLogger(t, 10)

		stepID := logger.LogStep("planner", "plan research for: quantum computing")

		if !strings.HasPrefix(stepID, "planner_") {
			t.Errorf("expected step id prefixed with agent, got %q", stepID)
		}
		if logger.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", logger.Len())
		}
	})

	t.Run("applies defaults for confidence and level", func(t *testing.T) {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "prompt")

		entry := logger.Entries(EntryFilter{})[0]
		if entry.Confidence != 1.0 {
			t.Errorf("expected default confidence 1.0, got %f", entry.Confidence)
		}
		if entry.Level != LevelInfo {
			t.Errorf("expected default level info, got %s", entry.Level)
		}
		if entry.ToolCalls == nil || len(entry.ToolCalls) != 0 {
			t.Errorf("expected empty tool calls, got %v", entry.ToolCalls)
		}
	})

	t.Run("options are recorded", func(t *testing.T) {
		logger := newTestLogger(t, 10)
		call := NewToolCall("web_search", "golang", map[string]any{"num": 5}, "results", 0, nil)

		logger.LogStep("researcher", "research golang",
			WithToolCalls(call),
			WithLLMResponse("found sources"),
			WithDecision("use sources"),
			WithReasoning("sources are credible"),
			WithConfidence(0.8),
			WithLevel(LevelWarning),
			WithMetadata(map[string]any{"section": "Background"}),
		)

		entry := logger.Entries(EntryFilter{})[0]
		if len(entry.ToolCalls) != 1 || entry.ToolCalls[0].ToolName != "web_search" {
			t.Fatalf("expected one web_search tool call, got %v", entry.ToolCalls)
		}
		if entry.Decision != "use sources" || entry.Confidence != 0.8 {
			t.Errorf("options not applied: %+v", entry)
		}
		if entry.Metadata["section"] != "Background" {
			t.Errorf("expected caller metadata preserved, got %v", entry.Metadata)
		}
	})

	t.Run("caller session_id metadata is overwritten", func(t *testing.T) {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "prompt",
			WithMetadata(map[string]any{"session_id": "forged"}))

		entry := logger.Entries(EntryFilter{})[0]
		if entry.SessionID() != logger.SessionID() {
			t.Errorf("expected session_id %q, got %q", logger.SessionID(), entry.SessionID())
		}
	})

	t.Run("step ids are unique under rapid logging", func(t *testing.T) {
		logger := newTestLogger(t, 200)
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			id := logger.LogStep("planner", "prompt")
			if seen[id] {
				t.Fatalf("duplicate step id %q", id)
			}
			seen[id] = true
		}
	})
}

func TestCapacityInvariant(t *testing.T) {
	t.Run("length never exceeds max entries", func(t *testing.T) {
		logger := newTestLogger(t, 5)
		for i := 0; i < 20; i++ {
			logger.LogStep("planner", "prompt")
			if logger.Len() > 5 {
				t.Fatalf("capacity exceeded: %d entries", logger.Len())
			}
		}
		if logger.Len() != 5 {
			t.Errorf("expected exactly 5 entries, got %d", logger.Len())
		}
	})

	t.Run("eviction drops oldest first and preserves order", func(t *testing.T) {
		logger := newTestLogger(t, 2)
		logger.LogStep("a", "step A")
		logger.LogStep("b", "step B")
		logger.LogStep("c", "step C")

		entries := logger.Entries(EntryFilter{})
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Agent != "b" || entries[1].Agent != "c" {
			t.Errorf("expected [b, c], got [%s, %s]", entries[0].Agent, entries[1].Agent)
		}
	})
}

func TestSessions(t *testing.T) {
	t.Run("start new session does not clear entries", func(t *testing.T) {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "prompt")

		first := logger.SessionID()
		second := logger.StartNewSession()

		if first == second {
			t.Error("expected a fresh session id")
		}
		if !strings.HasPrefix(second, "session_") {
			t.Errorf("unexpected session id format %q", second)
		}
		if logger.Len() != 1 {
			t.Errorf("expected entries preserved, got %d", logger.Len())
		}
	})

	t.Run("session entries are scoped and ordered", func(t *testing.T) {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "first session step")
		session1 := logger.SessionID()

		logger.StartNewSession()
		logger.LogStep("researcher", "second session step one")
		logger.LogStep("writer", "second session step two")

		if got := logger.SessionEntries(session1); len(got) != 1 || got[0].Agent != "planner" {
			t.Errorf("expected one planner entry for session1, got %v", got)
		}
		current := logger.SessionEntries("")
		if len(current) != 2 || current[0].Agent != "researcher" || current[1].Agent != "writer" {
			t.Errorf("expected ordered [researcher, writer], got %v", current)
		}
	})
}

func TestClearLogs(t *testing.T) {
	t.Run("clear all returns count and empties log", func(t *testing.T) {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "one")
		logger.LogStep("planner", "two")

		if cleared := logger.ClearLogs(""); cleared != 2 {
			t.Errorf("expected 2 cleared, got %d", cleared)
		}
		if logger.Len() != 0 {
			t.Errorf("expected empty log, got %d entries", logger.Len())
		}
	})

	t.Run("session-scoped clear keeps other sessions", func(t *testing.T) {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "old step")
		oldSession := logger.SessionID()

		logger.StartNewSession()
		logger.LogStep("writer", "new step")

		if cleared := logger.ClearLogs(oldSession); cleared != 1 {
			t.Errorf("expected 1 cleared, got %d", cleared)
		}
		remaining := logger.Entries(EntryFilter{})
		if len(remaining) != 1 || remaining[0].Agent != "writer" {
			t.Errorf("expected only the writer entry, got %v", remaining)
		}
	})
}

func TestConcurrentLogging(t *testing.T) {
	logger := newTestLogger(t, 50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				logger.LogStep("worker", "concurrent step")
			}
		}()
	}
	wg.Wait()

	if logger.Len() != 50 {
		t.Errorf("expected log capped at 50, got %d", logger.Len())
	}
}
