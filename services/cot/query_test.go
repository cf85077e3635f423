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

import "testing"

func TestEntries(t *testing.T) {
	setup := func(t *testing.T) *Logger {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "plan the report")
		logger.LogStep("researcher", "research section one", WithLevel(LevelWarning))
		logger.LogStep("researcher", "research section two")
		logger.LogStep("writer", "write the report", WithLevel(LevelWarning))
		return logger
	}

	t.Run("empty filter returns everything", func(t *testing.T) {
		logger := setup(t)
		if got := logger.Entries(EntryFilter{}); len(got) != 4 {
			t.Errorf("expected 4 entries, got %d", len(got))
		}
	})

	t.Run("agent filter", func(t *testing.T) {
		logger := setup(t)
		got := logger.Entries(EntryFilter{Agent: "researcher"})
		if len(got) != 2 {
			t.Fatalf("expected 2 researcher entries, got %d", len(got))
		}
		for _, e := range got {
			if e.Agent != "researcher" {
				t.Errorf("unexpected agent %q", e.Agent)
			}
		}
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		logger := setup(t)
		got := logger.Entries(EntryFilter{Agent: "researcher", Level: LevelWarning})
		if len(got) != 1 || got[0].InputPrompt != "research section one" {
			t.Errorf("expected the single warning researcher entry, got %v", got)
		}
	})

	t.Run("limit keeps the most recent matches", func(t *testing.T) {
		logger := setup(t)
		got := logger.Entries(EntryFilter{Limit: 2})
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got))
		}
		if got[0].Agent != "researcher" || got[1].Agent != "writer" {
			t.Errorf("expected the last two entries, got [%s, %s]", got[0].Agent, got[1].Agent)
		}
	})

	t.Run("limit applies after filtering", func(t *testing.T) {
		logger := setup(t)
		got := logger.Entries(EntryFilter{Agent: "researcher", Limit: 1})
		if len(got) != 1 || got[0].InputPrompt != "research section two" {
			t.Errorf("expected the last researcher entry, got %v", got)
		}
	})

	t.Run("unknown agent matches nothing", func(t *testing.T) {
		logger := setup(t)
		if got := logger.Entries(EntryFilter{Agent: "no_such_agent"}); len(got) != 0 {
			t.Errorf("expected no matches, got %d", len(got))
		}
	})

	t.Run("invalid level matches nothing", func(t *testing.T) {
		logger := setup(t)
		got := logger.Entries(EntryFilter{Level: Level("verbose")})
		if got == nil {
			t.Fatal("expected empty slice, got nil")
		}
		if len(got) != 0 {
			t.Errorf("expected no matches, got %d", len(got))
		}
	})
}

func TestReasoningChain(t *testing.T) {
	setup := func(t *testing.T) *Logger {
		logger := newTestLogger(t, 10)
		logger.LogStep("planner", "Plan research on Quantum Computing")
		logger.LogStep("researcher", "gather sources",
			WithReasoning("quantum computing papers are mostly on arXiv"))
		logger.LogStep("writer", "draft introduction",
			WithDecision("open with a QUANTUM COMPUTING primer"))
		logger.LogStep("writer", "draft conclusion")
		return logger
	}

	t.Run("matches prompt, reasoning, and decision case-insensitively", func(t *testing.T) {
		logger := setup(t)
		got := logger.ReasoningChain("quantum computing")
		if len(got) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(got))
		}
		if got[0].Agent != "planner" || got[1].Agent != "researcher" || got[2].Agent != "writer" {
			t.Errorf("unexpected order: %v", got)
		}
	})

	t.Run("mixed-case topic matches the same entries", func(t *testing.T) {
		logger := setup(t)
		lower := logger.ReasoningChain("quantum computing")
		mixed := logger.ReasoningChain("QuAnTuM CoMpUtInG")
		if len(lower) != len(mixed) {
			t.Errorf("case changed the result: %d vs %d", len(lower), len(mixed))
		}
	})

	t.Run("no matches returns empty slice", func(t *testing.T) {
		logger := setup(t)
		got := logger.ReasoningChain("cold fusion")
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty slice, got %v", got)
		}
	})
}
