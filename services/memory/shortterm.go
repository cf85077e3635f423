// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Message is one turn held in short-term memory.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// BufferConfig configures a ConversationBuffer.
type BufferConfig struct {
	// MaxMessages bounds the buffer; oldest messages are evicted
	// first on overflow.
	// Default: 50
	MaxMessages int

	// MaxAge evicts messages older than this on every access.
	// Zero disables age-based eviction.
	MaxAge time.Duration
}

func (c *BufferConfig) applyDefaults() {
	if c.MaxMessages <= 0 {
		c.MaxMessages = 50
	}
}

// ConversationBuffer is bounded short-term memory for a research run.
//
// Description:
//
//	Holds the recent conversation turns the agents exchange during a
//	session. The buffer is capacity-bounded (oldest-first eviction)
//	and optionally age-bounded. It never persists; long-term recall
//	goes through a Store.
//
// Thread Safety: safe for concurrent use.
type ConversationBuffer struct {
	mu       sync.Mutex
	messages []Message
	config   BufferConfig

	// now is replaceable for age-eviction tests.
	now func() time.Time
}

// NewConversationBuffer creates an empty buffer.
func NewConversationBuffer(config BufferConfig) *ConversationBuffer {
	config.applyDefaults()
	return &ConversationBuffer{
		config: config,
		now:    time.Now,
	}
}

// Add appends a turn, evicting the oldest if the buffer is full.
func (b *ConversationBuffer) Add(role, content string) {
	b.AddMessage(Message{Role: role, Content: content})
}

// AddMessage appends a pre-built turn, stamping the time if unset.
func (b *ConversationBuffer) AddMessage(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = b.now()
	}
	b.messages = append(b.messages, msg)
	if len(b.messages) > b.config.MaxMessages {
		b.messages = b.messages[len(b.messages)-b.config.MaxMessages:]
	}
}

// Messages returns a copy of the buffered turns, oldest first.
func (b *ConversationBuffer) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictExpired()
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Recent returns a copy of the last n turns, oldest first.
func (b *ConversationBuffer) Recent(n int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictExpired()
	if n <= 0 || n > len(b.messages) {
		n = len(b.messages)
	}
	out := make([]Message, n)
	copy(out, b.messages[len(b.messages)-n:])
	return out
}

// Context renders the buffer as a prompt context block, one
// "role: content" line per turn, oldest first.
func (b *ConversationBuffer) Context() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictExpired()
	var sb strings.Builder
	for _, msg := range b.messages {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}
	return sb.String()
}

// Search returns turns whose content contains the query,
// case-insensitively, oldest first.
func (b *ConversationBuffer) Search(query string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictExpired()
	needle := strings.ToLower(query)
	matched := make([]Message, 0)
	for _, msg := range b.messages {
		if strings.Contains(strings.ToLower(msg.Content), needle) {
			matched = append(matched, msg)
		}
	}
	return matched
}

// ConversationSummary aggregates the buffered turns for reporting.
type ConversationSummary struct {
	// Summary is a one-line human description of the conversation.
	Summary string `json:"summary"`

	// TotalMessages is the number of buffered turns.
	TotalMessages int `json:"total_messages"`

	// RoleCounts counts turns per role. Only roles that occur are
	// present.
	RoleCounts map[string]int `json:"role_counts,omitempty"`

	// KeyTopics lists the most frequent content words, most frequent
	// first. At most five.
	KeyTopics []string `json:"key_topics,omitempty"`

	// TimeSpan is a human rendering of the duration between the first
	// and last turn (largest applicable unit only).
	TimeSpan string `json:"time_span"`
}

// topicStopwords are skipped during key topic extraction.
var topicStopwords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "have": {}, "has": {}, "had": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "they": {},
	"them": {}, "from": {}, "into": {}, "about": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "been": {}, "were": {}, "was": {}, "are": {},
	"does": {}, "did": {}, "can": {}, "may": {}, "might": {}, "you": {},
}

// Summarize aggregates the buffer into a ConversationSummary.
//
// Description:
//
//	Counts turns per role, extracts the most frequent content words as
//	key topics, and renders the time span between the first and last
//	turn. An empty buffer yields a zeroed summary rather than an error.
func (b *ConversationBuffer) Summarize() ConversationSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictExpired()
	if len(b.messages) == 0 {
		return ConversationSummary{
			Summary:  "No conversation history",
			TimeSpan: "0 seconds",
		}
	}

	roleCounts := make(map[string]int)
	for _, msg := range b.messages {
		roleCounts[msg.Role]++
	}

	first := b.messages[0]
	last := b.messages[len(b.messages)-1]
	summary := fmt.Sprintf("Conversation of %d turns, started with: %s",
		len(b.messages), headline(first.Content))
	if len(b.messages) > 1 {
		summary += fmt.Sprintf(" Most recent: %s", headline(last.Content))
	}

	return ConversationSummary{
		Summary:       summary,
		TotalMessages: len(b.messages),
		RoleCounts:    roleCounts,
		KeyTopics:     b.keyTopics(),
		TimeSpan:      messageTimeSpan(first.Timestamp, last.Timestamp),
	}
}

// TrimToLimit shrinks the buffer to at most n turns, keeping the most
// recent, and returns the removed turns oldest first.
func (b *ConversationBuffer) TrimToLimit(n int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n >= len(b.messages) {
		return nil
	}
	removed := make([]Message, len(b.messages)-n)
	copy(removed, b.messages[:len(b.messages)-n])
	b.messages = b.messages[len(b.messages)-n:]
	return removed
}

// keyTopics extracts the five most frequent content words longer than
// three characters, skipping stopwords. Caller must hold mu.
func (b *ConversationBuffer) keyTopics() []string {
	freq := make(map[string]int)
	for _, msg := range b.messages {
		for _, word := range strings.Fields(strings.ToLower(msg.Content)) {
			word = strings.Trim(word, `.,!?;:"()[]{}`)
			if len(word) <= 3 {
				continue
			}
			if _, skip := topicStopwords[word]; skip {
				continue
			}
			freq[word]++
		}
	}

	topics := make([]string, 0, len(freq))
	for word := range freq {
		topics = append(topics, word)
	}
	sort.Slice(topics, func(i, j int) bool {
		if freq[topics[i]] != freq[topics[j]] {
			return freq[topics[i]] > freq[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > 5 {
		topics = topics[:5]
	}
	return topics
}

// headline truncates content for use in a summary line, cutting on a
// rune boundary so the summary stays valid UTF-8.
func headline(content string) string {
	if len(content) <= 100 {
		return content
	}
	n := 100
	for n > 0 && !utf8.RuneStart(content[n]) {
		n--
	}
	return content[:n] + "..."
}

// messageTimeSpan renders the duration between two turns using the
// largest applicable unit only.
func messageTimeSpan(first, last time.Time) string {
	delta := last.Sub(first)
	if delta < 0 {
		return "unknown"
	}
	switch {
	case delta >= 24*time.Hour:
		return fmt.Sprintf("%d days", int(delta.Hours()/24))
	case delta > time.Hour:
		return fmt.Sprintf("%d hours", int(delta.Hours()))
	case delta > time.Minute:
		return fmt.Sprintf("%d minutes", int(delta.Minutes()))
	default:
		return fmt.Sprintf("%d seconds", int(delta.Seconds()))
	}
}

// Len returns the current number of buffered turns.
func (b *ConversationBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictExpired()
	return len(b.messages)
}

// Clear empties the buffer and returns how many turns were dropped.
func (b *ConversationBuffer) Clear() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.messages)
	b.messages = nil
	return n
}

// evictExpired drops turns older than MaxAge. Caller must hold mu.
func (b *ConversationBuffer) evictExpired() {
	if b.config.MaxAge <= 0 {
		return
	}
	cutoff := b.now().Add(-b.config.MaxAge)
	idx := 0
	for idx < len(b.messages) && b.messages[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		b.messages = b.messages[idx:]
	}
}
