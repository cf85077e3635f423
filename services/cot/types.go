// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cot records and persists agent chain-of-thought traces.
//
// Every reasoning event an agent performs (prompt in, tools invoked,
// response out, decision taken) is captured as an Entry and held in a
// bounded in-memory log that is rewritten to disk after every append.
// The log answers filtered queries (by agent, level, session, topic)
// and computes rolling summaries for reporting and the dashboard.
//
// Design points:
//
//   - Availability over strictness: LogStep always succeeds, persistence
//     failures are reported to the diagnostic channel and swallowed, and
//     a corrupt persisted entry is skipped on load rather than aborting.
//   - The in-memory log is authoritative; the file is a best-effort
//     mirror rewritten in full on every append so a crash after any
//     single step loses nothing. This is O(total entries) per step,
//     a known scaling limit accepted for its durability guarantee and
//     because external tooling tails the file mid-session.
//   - One Logger owns a given log file. Concurrent processes writing
//     the same path race (last full rewrite wins); run one process.
//
// # Thread Safety
//
// Logger is safe for concurrent use. A single mutex spans the
// append-evict-persist sequence so disk and memory cannot diverge
// mid-operation.
package cot

// Level is the severity of a chain-of-thought entry.
//
// This is a closed five-value enumeration with a stable lowercase
// serialization. It is deliberately string-based: an invalid value
// used as a query filter simply matches nothing, keeping query
// operations total.
type Level string

const (
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Valid reports whether l is one of the five defined levels.
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical:
		return true
	}
	return false
}

// ParseLevel converts a persisted level string into a Level.
//
// Outputs:
//
//	Level - The parsed level
//	bool  - False if s is not one of the five defined levels
func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	return l, l.Valid()
}

// ToolCall describes one external tool invocation made during a
// reasoning step.
//
// A ToolCall is owned by exactly one Entry and has no identity beyond
// its content. Treat it as immutable after creation.
type ToolCall struct {
	// ToolName is the name of the invoked tool (e.g. "web_search").
	ToolName string `json:"tool_name"`

	// Query is the query string sent to the tool.
	Query string `json:"query"`

	// Parameters are the parameters the tool was invoked with.
	Parameters map[string]any `json:"parameters"`

	// Results is the tool's result in whatever serializable shape the
	// tool produced.
	Results any `json:"results"`

	// ExecutionTime is the wall-clock duration of the call in seconds.
	ExecutionTime float64 `json:"execution_time"`

	// Success reports whether the call completed without error.
	Success bool `json:"success"`

	// ErrorMessage holds the failure description when Success is false.
	// Nil (serialized as null) on success.
	ErrorMessage *string `json:"error_message"`
}

// Entry is a single recorded reasoning step.
//
// Entries are created only by Logger.LogStep and destroyed only by
// capacity eviction or an explicit clear. Timestamp and StepID are
// set at creation and never mutated.
type Entry struct {
	// Timestamp is the creation time as an ISO-8601 string with
	// microsecond precision.
	Timestamp string `json:"timestamp"`

	// Agent is the name of the agent that performed the step.
	Agent string `json:"agent"`

	// StepID uniquely identifies the step within a process lifetime.
	// Format: "{agent}_{fractional-unix-seconds}".
	StepID string `json:"step_id"`

	// InputPrompt is the prompt the agent received.
	InputPrompt string `json:"input_prompt"`

	// ToolCalls are the tool invocations made during this step, in
	// invocation order. May be empty.
	ToolCalls []ToolCall `json:"tool_calls"`

	// LLMResponse is the raw model response text. May be empty.
	LLMResponse string `json:"llm_response"`

	// Decision is the decision the agent arrived at. May be empty.
	Decision string `json:"decision"`

	// Reasoning is the free-text reasoning behind the decision.
	Reasoning string `json:"reasoning"`

	// Confidence is the agent's self-reported confidence in [0.0, 1.0].
	// Callers are trusted; the range is not enforced.
	Confidence float64 `json:"confidence"`

	// Level is the severity of this step.
	Level Level `json:"level"`

	// Metadata is an open, caller-extensible mapping. It always
	// contains the "session_id" key; the logger sets it on append.
	Metadata map[string]any `json:"metadata"`
}

// SessionID returns the session this entry belongs to, or "" if the
// metadata is malformed.
func (e *Entry) SessionID() string {
	if e.Metadata == nil {
		return ""
	}
	id, _ := e.Metadata["session_id"].(string)
	return id
}
