// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memory provides the research assistant's memory tiers.
//
// Short-term memory is a bounded in-process conversation buffer
// (ConversationBuffer). Long-term memory is a Store of research
// findings with three backends:
//
//	Hot (RAM)     → MemStore      (testing, single-run sessions)
//	Warm (Badger) → BadgerStore   (local embedded persistence)
//	Cold (Weaviate) → WeaviateStore (semantic retrieval)
//
// All backends implement Store, so the orchestrator is wired against
// the interface and the backend is a deployment decision.
package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
)

var (
	// ErrNotFound indicates the record id does not exist in the store.
	ErrNotFound = errors.New("memory record not found")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("memory store is closed")
)

// recordTimestampLayout matches the chain-of-thought entry timestamp
// form so records and reasoning entries correlate by eye.
const recordTimestampLayout = "2006-01-02T15:04:05.000000"

// Record is one unit of long-term memory: a research finding tied to
// a topic and the session that produced it.
type Record struct {
	// ID is assigned by the store on save when empty.
	ID string `json:"id"`

	// SessionID is the research session the finding came from.
	SessionID string `json:"session_id"`

	// Topic is the research topic the finding belongs to.
	Topic string `json:"topic"`

	// Content is the finding text.
	Content string `json:"content"`

	// Source names where the finding came from (tool name, URL, agent).
	Source string `json:"source"`

	// CreatedAt is set by the store on save when empty.
	CreatedAt string `json:"created_at"`

	// Metadata carries caller context the schema doesn't model.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Store is long-term memory.
//
// Thread Safety: implementations are safe for concurrent use.
type Store interface {
	// Save persists a record, assigning ID and CreatedAt if unset,
	// and returns the record id.
	Save(ctx context.Context, rec Record) (string, error)

	// Search returns up to limit records relevant to the query,
	// most relevant first. A limit <= 0 uses the backend default.
	Search(ctx context.Context, query string, limit int) ([]Record, error)

	// SessionRecords returns all records saved under a session.
	SessionRecords(ctx context.Context, sessionID string) ([]Record, error)

	// Delete removes a record by id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// defaultSearchLimit is used when Search is called with limit <= 0.
const defaultSearchLimit = 10

// newRecordID returns a fresh store-assigned record id.
func newRecordID() string {
	return uuid.NewString()
}

// stampRecord fills in the store-assigned fields of a record.
func stampRecord(rec *Record) {
	if rec.ID == "" {
		rec.ID = newRecordID()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().Format(recordTimestampLayout)
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
}

// ChunkConfig controls how SaveDocument splits long content.
type ChunkConfig struct {
	// ChunkSize is the target chunk length in characters.
	// Default: 1500
	ChunkSize int

	// ChunkOverlap is how much consecutive chunks share.
	// Default: 200
	ChunkOverlap int
}

func (c *ChunkConfig) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1500
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 200
	}
}

// SaveDocument splits a long document into overlapping chunks and
// saves each as its own record, so retrieval returns passages rather
// than whole documents.
//
// Inputs:
//
//	ctx   - Context for cancellation
//	store - Destination store
//	rec   - Template record; Content is the full document
//	cfg   - Chunking parameters (zero value is usable)
//
// Outputs:
//
//	[]string - Ids of the saved chunk records, in document order
//	error    - Non-nil if splitting or any save fails
func SaveDocument(ctx context.Context, store Store, rec Record, cfg ChunkConfig) ([]string, error) {
	cfg.applyDefaults()

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
	)
	chunks, err := splitter.SplitText(rec.Content)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		chunkRec := rec
		chunkRec.ID = ""
		chunkRec.Content = chunk
		chunkRec.Metadata = map[string]any{}
		for k, v := range rec.Metadata {
			chunkRec.Metadata[k] = v
		}
		chunkRec.Metadata["chunk_index"] = i
		chunkRec.Metadata["chunk_count"] = len(chunks)

		id, err := store.Save(ctx, chunkRec)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// matchScore is the shared lexical relevance used by the MemStore and
// BadgerStore backends: topic hits weigh more than content hits, and
// term frequency breaks ties. Zero means no match.
func matchScore(rec Record, query string) int {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return 0
	}

	var score int
	topic := strings.ToLower(rec.Topic)
	content := strings.ToLower(rec.Content)

	for _, term := range strings.Fields(needle) {
		if strings.Contains(topic, term) {
			score += 3
		}
		score += strings.Count(content, term)
	}
	return score
}
