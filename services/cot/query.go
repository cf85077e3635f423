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

import "strings"

// EntryFilter selects entries for Entries. Zero-value fields are
// ignored; set fields combine with logical AND.
//
// There is no validation: an agent name or level that matches no
// entry simply yields an empty result, keeping queries total.
type EntryFilter struct {
	// Agent filters by exact agent name.
	Agent string

	// Level filters by exact severity level.
	Level Level

	// Limit, when positive, keeps only the last Limit matches.
	// Filtering happens first, then the tail is taken.
	Limit int
}

// Entries returns entries matching the filter, in insertion order.
//
// Outputs:
//
//	[]Entry - Matching entries; never nil
func (l *Logger) Entries(filter EntryFilter) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if filter.Agent != "" && e.Agent != filter.Agent {
			continue
		}
		if filter.Level != "" && e.Level != filter.Level {
			continue
		}
		matched = append(matched, e)
	}

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[len(matched)-filter.Limit:]
	}
	return matched
}

// SessionEntries returns entries belonging to a session, in
// insertion order.
//
// Inputs:
//
//	sessionID - Session to select; "" means the current session
//
// Outputs:
//
//	[]Entry - Entries whose metadata session_id matches; never nil
func (l *Logger) SessionEntries(sessionID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sessionID == "" {
		sessionID = l.sessionID
	}
	matched := filterSession(l.entries, sessionID)
	if matched == nil {
		matched = []Entry{}
	}
	return matched
}

// ReasoningChain returns entries touching a topic, in insertion
// order.
//
// Description:
//
//	An entry matches when topic appears, case-insensitively, as a
//	substring of its input prompt, its reasoning, or its decision.
//
// Inputs:
//
//	topic - Topic to search for
//
// Outputs:
//
//	[]Entry - Matching entries; never nil
func (l *Logger) ReasoningChain(topic string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	needle := strings.ToLower(topic)
	matched := make([]Entry, 0)
	for _, e := range l.entries {
		if strings.Contains(strings.ToLower(e.InputPrompt), needle) ||
			strings.Contains(strings.ToLower(e.Reasoning), needle) ||
			strings.Contains(strings.ToLower(e.Decision), needle) {
			matched = append(matched, e)
		}
	}
	return matched
}

// filterSession returns the subset of entries recorded under
// sessionID, preserving order. Returns nil when nothing matches.
func filterSession(entries []Entry, sessionID string) []Entry {
	var matched []Entry
	for _, e := range entries {
		if e.SessionID() == sessionID {
			matched = append(matched, e)
		}
	}
	return matched
}
