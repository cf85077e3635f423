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
	"fmt"
	"math"
	"sort"
	"time"
)

// keyDecisionThreshold is the confidence an entry must strictly
// exceed for its decision to count as a key decision.
const keyDecisionThreshold = 0.7

// KeyDecision is a high-confidence decision extracted for a Summary.
type KeyDecision struct {
	Agent      string  `json:"agent"`
	Decision   string  `json:"decision"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

// Summary aggregates a set of reasoning entries for reporting.
type Summary struct {
	// Summary is a one-line human description of the reasoning run.
	Summary string `json:"summary"`

	// TotalSteps is the number of entries summarized.
	TotalSteps int `json:"total_steps"`

	// AgentsInvolved lists the distinct agent names, sorted.
	AgentsInvolved []string `json:"agents_involved"`

	// ToolsUsed lists the distinct tool names across all tool calls
	// of all entries, sorted.
	ToolsUsed []string `json:"tools_used"`

	// AverageConfidence is the arithmetic mean of entry confidences,
	// rounded to two decimals.
	AverageConfidence float64 `json:"average_confidence"`

	// LevelDistribution counts entries per severity level. Only
	// levels that occur are present.
	LevelDistribution map[Level]int `json:"level_distribution,omitempty"`

	// KeyDecisions holds every entry with a non-empty decision and
	// confidence strictly above keyDecisionThreshold, in entry order.
	KeyDecisions []KeyDecision `json:"key_decisions,omitempty"`

	// SessionID is the session the summary covers.
	SessionID string `json:"session_id,omitempty"`

	// TimeSpan is a human rendering of the duration between the
	// first and last entry (largest applicable unit only).
	TimeSpan string `json:"time_span,omitempty"`
}

// CreateSummary computes aggregate statistics over the log.
//
// Description:
//
//	Summarizes the session's entries if sessionID is non-empty,
//	otherwise the whole log. An empty entry set yields a zeroed
//	summary structure rather than an error; summaries are always
//	best-effort and total.
//
// Inputs:
//
//	sessionID - Session to summarize; "" summarizes the whole log
//
// Outputs:
//
//	Summary - Aggregate statistics
func (l *Logger) CreateSummary(sessionID string) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.entries
	summarySession := l.sessionID
	if sessionID != "" {
		summarySession = sessionID
		entries = filterSession(l.entries, sessionID)
	}

	if len(entries) == 0 {
		return Summary{
			Summary:           "No reasoning steps recorded",
			TotalSteps:        0,
			AgentsInvolved:    []string{},
			ToolsUsed:         []string{},
			AverageConfidence: 0.0,
		}
	}

	agentSet := map[string]struct{}{}
	toolSet := map[string]struct{}{}
	levelCounts := map[Level]int{}
	var totalConfidence float64
	var keyDecisions []KeyDecision

	for _, e := range entries {
		agentSet[e.Agent] = struct{}{}
		for _, call := range e.ToolCalls {
			toolSet[call.ToolName] = struct{}{}
		}
		levelCounts[e.Level]++
		totalConfidence += e.Confidence

		if e.Decision != "" && e.Confidence > keyDecisionThreshold {
			keyDecisions = append(keyDecisions, KeyDecision{
				Agent:      e.Agent,
				Decision:   e.Decision,
				Confidence: e.Confidence,
				Timestamp:  e.Timestamp,
			})
		}
	}

	agents := sortedKeys(agentSet)
	average := totalConfidence / float64(len(entries))

	return Summary{
		Summary: fmt.Sprintf("Reasoning process with %d steps across %d agents",
			len(entries), len(agents)),
		TotalSteps:        len(entries),
		AgentsInvolved:    agents,
		ToolsUsed:         sortedKeys(toolSet),
		AverageConfidence: math.Round(average*100) / 100,
		LevelDistribution: levelCounts,
		KeyDecisions:      keyDecisions,
		SessionID:         summarySession,
		TimeSpan:          timeSpan(entries[0].Timestamp, entries[len(entries)-1].Timestamp),
	}
}

// timeSpan renders the duration between two entry timestamps using
// the largest applicable unit only: days if at least one day, else
// hours if the remainder exceeds an hour, else minutes if it exceeds
// a minute, else seconds. This is a lossy one-unit summary (90
// minutes renders as "1 hours"), kept bit-compatible with the
// historical log format.
//
// Returns "unknown" if either timestamp fails to parse.
func timeSpan(first, last string) string {
	start, errStart := parseTimestamp(first)
	end, errEnd := parseTimestamp(last)
	if errStart != nil || errEnd != nil {
		return "unknown"
	}

	delta := end.Sub(start)
	if days := int(delta / (24 * time.Hour)); days > 0 {
		return fmt.Sprintf("%d days", days)
	}

	// Seconds within the day, mirroring the days/seconds split the
	// format was defined with.
	seconds := int(delta/time.Second) % 86400
	switch {
	case seconds > 3600:
		return fmt.Sprintf("%d hours", seconds/3600)
	case seconds > 60:
		return fmt.Sprintf("%d minutes", seconds/60)
	default:
		return fmt.Sprintf("%d seconds", seconds)
	}
}

// timestampLayouts are the accepted entry timestamp forms, most
// specific first. Entries written by this package use the first;
// the rest cover hand-edited or externally produced logs.
var timestampLayouts = []string{
	timestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
