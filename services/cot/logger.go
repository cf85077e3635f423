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
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/AleutianAI/deepresearch/pkg/logging"
)

// timestampLayout is the ISO-8601 form entries are stamped with
// (local time, microsecond precision, no zone; matches the shape
// external tooling already parses).
const timestampLayout = "2006-01-02T15:04:05.000000"

// Config configures a chain-of-thought Logger.
//
// All fields have defaults; a zero-value Config is usable.
type Config struct {
	// LogFile is the path the log is persisted to.
	// The parent directory is created if it doesn't exist.
	// Default: "logs/chain_of_thought.json"
	LogFile string

	// MaxEntries bounds the in-memory log. On overflow the oldest
	// entries are evicted first.
	// Default: 1000
	MaxEntries int

	// Diag is the diagnostic channel for recoverable internal errors
	// (persistence failures, corrupt entries on load). It is never
	// used for chain-of-thought content.
	// Default: logging.Default()
	Diag *logging.Logger
}

func (c *Config) applyDefaults() {
	if c.LogFile == "" {
		c.LogFile = "logs/chain_of_thought.json"
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 1000
	}
	if c.Diag == nil {
		c.Diag = logging.Default()
	}
}

// Logger is a bounded, persistent log of agent reasoning steps.
//
// Description:
//
//	Logger holds an ordered sequence of Entries capped at MaxEntries,
//	scoped to a current session id. Every LogStep appends, evicts if
//	over capacity, and synchronously rewrites the full log file before
//	returning. Construct one Logger at the orchestration boundary and
//	pass the handle into every component that needs to log.
//
// Thread Safety:
//
//	Safe for concurrent use. mu spans append-evict-persist as one
//	atomic unit; a partial sequence would leave disk and memory
//	inconsistent.
type Logger struct {
	mu        sync.Mutex
	entries   []Entry
	sessionID string
	config    Config

	// lastStepNanos guards step id uniqueness when two steps land in
	// the same microsecond.
	lastStepNanos int64
}

// New creates a Logger and loads any previously persisted entries.
//
// Description:
//
//	Creates the log directory if needed and replays the existing log
//	file. Load problems are never fatal: a corrupt entry is skipped,
//	an unreadable or structurally unknown file yields an empty log.
//	A fresh session id is generated; persisted entries keep the
//	session ids they were recorded under.
//
// Inputs:
//
//	config - Logger configuration (see Config for defaults)
//
// Outputs:
//
//	*Logger - Ready-to-use logger; never nil
func New(config Config) *Logger {
	config.applyDefaults()

	l := &Logger{
		config:    config,
		sessionID: generateSessionID(time.Now()),
	}

	if dir := filepath.Dir(config.LogFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			config.Diag.Warn("failed to create log directory",
				"dir", dir,
				"error", err.Error())
		}
	}

	l.loadLogs()
	return l
}

// SessionID returns the current session id.
func (l *Logger) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// Len returns the number of entries currently held in memory.
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// MaxEntries returns the configured capacity bound.
func (l *Logger) MaxEntries() int {
	return l.config.MaxEntries
}

// LogFile returns the path the log is persisted to.
func (l *Logger) LogFile() string {
	return l.config.LogFile
}

// StepOption customizes a single LogStep call.
type StepOption func(*Entry)

// WithToolCalls attaches the tool invocations made during the step.
func WithToolCalls(calls ...ToolCall) StepOption {
	return func(e *Entry) { e.ToolCalls = calls }
}

// WithLLMResponse records the raw model response for the step.
func WithLLMResponse(response string) StepOption {
	return func(e *Entry) { e.LLMResponse = response }
}

// WithDecision records the decision the agent arrived at.
func WithDecision(decision string) StepOption {
	return func(e *Entry) { e.Decision = decision }
}

// WithReasoning records the reasoning behind the decision.
func WithReasoning(reasoning string) StepOption {
	return func(e *Entry) { e.Reasoning = reasoning }
}

// WithConfidence sets the agent's confidence. Default: 1.0.
// Out-of-range values are recorded as given; callers are trusted.
func WithConfidence(confidence float64) StepOption {
	return func(e *Entry) { e.Confidence = confidence }
}

// WithLevel sets the entry severity. Default: LevelInfo.
func WithLevel(level Level) StepOption {
	return func(e *Entry) { e.Level = level }
}

// WithMetadata merges caller metadata into the entry.
//
// The "session_id" key is reserved; the logger overwrites it with
// the current session id on append.
func WithMetadata(metadata map[string]any) StepOption {
	return func(e *Entry) {
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

// LogStep records one reasoning step.
//
// Description:
//
//	Builds an Entry stamped with the current time and a fresh unique
//	step id, appends it, evicts oldest-first if the log exceeds
//	MaxEntries, and synchronously persists the full log before
//	returning. LogStep always succeeds: nothing is validated and a
//	persistence failure is diagnosed and swallowed; the in-memory
//	log is authoritative.
//
// Inputs:
//
//	agent       - Name of the agent performing the step
//	inputPrompt - Prompt the agent received
//	opts        - Optional response/decision/confidence/level/metadata
//
// Outputs:
//
//	string - The step id, for later reference
func (l *Logger) LogStep(agent, inputPrompt string, opts ...StepOption) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.stepTime()
	entry := Entry{
		Timestamp:   now.Format(timestampLayout),
		Agent:       agent,
		StepID:      stepID(agent, now),
		InputPrompt: inputPrompt,
		ToolCalls:   []ToolCall{},
		Confidence:  1.0,
		Level:       LevelInfo,
		Metadata:    map[string]any{},
	}
	for _, opt := range opts {
		opt(&entry)
	}
	entry.Metadata["session_id"] = l.sessionID

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.config.MaxEntries {
		l.entries = l.entries[len(l.entries)-l.config.MaxEntries:]
	}

	l.saveLogs()
	return entry.StepID
}

// NewToolCall builds a ToolCall record for a completed invocation.
//
// Inputs:
//
//	toolName      - Name of the tool
//	query         - Query sent to the tool
//	parameters    - Parameters the tool was invoked with (may be nil)
//	results       - Whatever the tool returned
//	executionTime - Wall-clock duration of the call
//	err           - Non-nil if the invocation failed
//
// Outputs:
//
//	ToolCall - Record ready to attach via WithToolCalls
func NewToolCall(toolName, query string, parameters map[string]any, results any, executionTime time.Duration, err error) ToolCall {
	call := ToolCall{
		ToolName:      toolName,
		Query:         query,
		Parameters:    parameters,
		Results:       results,
		ExecutionTime: executionTime.Seconds(),
		Success:       err == nil,
	}
	if parameters == nil {
		call.Parameters = map[string]any{}
	}
	if err != nil {
		msg := err.Error()
		call.ErrorMessage = &msg
	}
	return call
}

// StartNewSession generates a fresh session id and makes it current.
//
// Existing entries are untouched; they keep the session ids they
// were recorded under.
//
// Outputs:
//
//	string - The new session id
func (l *Logger) StartNewSession() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessionID = generateSessionID(time.Now())
	return l.sessionID
}

// ClearLogs removes entries and persists the reduced state.
//
// Inputs:
//
//	sessionID - Session to clear; "" clears the whole log
//
// Outputs:
//
//	int - Number of entries removed
func (l *Logger) ClearLogs(sessionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var cleared int
	if sessionID == "" {
		cleared = len(l.entries)
		l.entries = nil
	} else {
		kept := l.entries[:0]
		for _, e := range l.entries {
			if e.SessionID() == sessionID {
				cleared++
				continue
			}
			kept = append(kept, e)
		}
		l.entries = kept
	}

	l.saveLogs()
	return cleared
}

// stepTime returns a creation time that is strictly later than the
// previous step's, so step ids derived from it never collide even
// when two steps land in the same microsecond.
//
// Caller must hold mu.
func (l *Logger) stepTime() time.Time {
	now := time.Now()
	if nanos := now.UnixNano(); nanos <= l.lastStepNanos {
		now = time.Unix(0, l.lastStepNanos+int64(time.Microsecond))
	}
	l.lastStepNanos = now.UnixNano()
	return now
}

// stepID formats "{agent}_{fractional-unix-seconds}".
func stepID(agent string, t time.Time) string {
	seconds := float64(t.UnixNano()) / float64(time.Second)
	return fmt.Sprintf("%s_%s", agent, strconv.FormatFloat(seconds, 'f', 6, 64))
}

// generateSessionID formats "session_{yyyyMMdd_HHmmss}_{microsecond}".
func generateSessionID(t time.Time) string {
	return fmt.Sprintf("session_%s_%d", t.Format("20060102_150405"), t.Nanosecond()/1000)
}
