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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// document is the persisted log file shape.
//
// Exactly one of SavedAt (auto-persist) or ExportedAt (explicit
// export) is set.
type document struct {
	SessionID    string  `json:"session_id"`
	SavedAt      string  `json:"saved_at,omitempty"`
	ExportedAt   string  `json:"exported_at,omitempty"`
	TotalEntries int     `json:"total_entries"`
	Entries      []Entry `json:"entries"`
}

// saveLogs rewrites the full log file from the in-memory entries.
//
// The write goes to a temp file in the same directory followed by a
// rename, so a crash mid-write never corrupts the previously
// persisted state. Any failure is diagnosed and swallowed; the
// in-memory log is authoritative and callers are never blocked by a
// persistence error.
//
// Caller must hold mu.
func (l *Logger) saveLogs() {
	doc := document{
		SessionID:    l.sessionID,
		SavedAt:      time.Now().Format(timestampLayout),
		TotalEntries: len(l.entries),
		Entries:      l.entries,
	}
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		l.config.Diag.Error("failed to serialize chain-of-thought log",
			"log_file", l.config.LogFile,
			"error", err.Error())
		return
	}

	if err := writeFileAtomic(l.config.LogFile, data); err != nil {
		l.config.Diag.Error("failed to save chain-of-thought log",
			"log_file", l.config.LogFile,
			"entries", len(l.entries),
			"error", err.Error())
	}
}

// loadLogs replays the log file into memory, keeping at most the
// last MaxEntries persisted entries.
//
// The file may be the wrapped document form or, for backward
// compatibility, a bare entry array. A corrupt entry (missing
// required field, invalid level, malformed tool call) is diagnosed
// and skipped; loading continues with the rest. An unreadable file
// or unknown structure yields an empty log, never an error.
//
// Called from New before the logger is shared; no locking needed.
func (l *Logger) loadLogs() {
	data, err := os.ReadFile(l.config.LogFile)
	if err != nil {
		if !os.IsNotExist(err) {
			l.config.Diag.Warn("failed to read chain-of-thought log",
				"log_file", l.config.LogFile,
				"error", err.Error())
		}
		return
	}

	raws, ok := rawEntries(data)
	if !ok {
		l.config.Diag.Warn("unrecognized chain-of-thought log structure, starting empty",
			"log_file", l.config.LogFile)
		return
	}

	if len(raws) > l.config.MaxEntries {
		raws = raws[len(raws)-l.config.MaxEntries:]
	}

	for i, raw := range raws {
		entry, err := decodeEntry(raw)
		if err != nil {
			l.config.Diag.Warn("skipping corrupt chain-of-thought entry",
				"log_file", l.config.LogFile,
				"index", i,
				"error", err.Error())
			continue
		}
		l.entries = append(l.entries, entry)
	}
}

// ExportToJSON writes a self-contained log document to path,
// independent of the logger's own log file.
//
// Inputs:
//
//	path      - Destination file path
//	sessionID - Session to export; "" exports the whole log
//
// Outputs:
//
//	error - Non-nil if serialization or the write fails
func (l *Logger) ExportToJSON(path, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.entries
	docSession := l.sessionID
	if sessionID != "" {
		docSession = sessionID
		entries = filterSession(l.entries, sessionID)
	}
	if entries == nil {
		entries = []Entry{}
	}

	doc := document{
		SessionID:    docSession,
		ExportedAt:   time.Now().Format(timestampLayout),
		TotalEntries: len(entries),
		Entries:      entries,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize export: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// rawEntries extracts the entry array from either accepted file
// structure. Returns ok=false for anything else.
func rawEntries(data []byte) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, false
	}

	switch trimmed[0] {
	case '{':
		var doc struct {
			Entries []json.RawMessage `json:"entries"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, false
		}
		return doc.Entries, true
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, false
		}
		return list, true
	default:
		return nil, false
	}
}

// requiredEntryKeys are the fields a persisted entry must carry to be
// reconstructed. tool_calls is optional (defaults to empty).
var requiredEntryKeys = []string{
	"timestamp", "agent", "step_id", "input_prompt",
	"llm_response", "decision", "reasoning", "confidence",
	"level", "metadata",
}

// decodeEntry reconstructs one Entry from its raw JSON, enforcing
// field presence, level validity, and tool-call shape.
func decodeEntry(raw json.RawMessage) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Entry{}, fmt.Errorf("entry is not an object: %w", err)
	}
	for _, key := range requiredEntryKeys {
		if _, ok := fields[key]; !ok {
			return Entry{}, fmt.Errorf("missing required field %q", key)
		}
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, fmt.Errorf("malformed entry: %w", err)
	}
	if !entry.Level.Valid() {
		return Entry{}, fmt.Errorf("invalid level %q", string(entry.Level))
	}

	// Re-check tool calls strictly: each must be an object with the
	// full invocation shape, not whatever json.Unmarshal tolerated.
	if rawCalls, ok := fields["tool_calls"]; ok {
		if err := validateToolCalls(rawCalls); err != nil {
			return Entry{}, err
		}
	}
	if entry.ToolCalls == nil {
		entry.ToolCalls = []ToolCall{}
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	return entry, nil
}

var requiredToolCallKeys = []string{
	"tool_name", "query", "parameters", "results", "execution_time", "success",
}

func validateToolCalls(raw json.RawMessage) error {
	var calls []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &calls); err != nil {
		return fmt.Errorf("malformed tool_calls: %w", err)
	}
	for i, call := range calls {
		for _, key := range requiredToolCallKeys {
			if _, ok := call[key]; !ok {
				return fmt.Errorf("tool call %d missing required field %q", i, key)
			}
		}
	}
	return nil
}

// writeFileAtomic writes data to path via a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
