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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// Key layout:
//
//	rec/<id>               -> Record JSON
//	sess/<session>/<id>    -> empty (session index)
const (
	recordKeyPrefix  = "rec/"
	sessionKeyPrefix = "sess/"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the directory for database files.
	// Required unless InMemory is true; created if absent.
	Path string

	// InMemory opens the database without disk persistence.
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	// Default: true for persistent databases.
	SyncWrites bool
}

// BadgerStore is embedded local long-term memory.
//
// Description:
//
//	Persists records in BadgerDB for low-latency local access. Search
//	is a full scan with lexical scoring (matchScore); for semantic
//	retrieval use WeaviateStore. A secondary key per record indexes
//	records by session.
//
// Thread Safety: safe for concurrent use.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database and wraps it.
//
// Inputs:
//
//	cfg - Store configuration; Path required unless InMemory
//
// Outputs:
//
//	*BadgerStore - Ready store; caller must Close
//	error        - Non-nil if the database cannot be opened
func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Save implements Store.
func (s *BadgerStore) Save(ctx context.Context, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stampRecord(&rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("serialize record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(rec.ID), data); err != nil {
			return err
		}
		return txn.Set(sessionKey(rec.SessionID, rec.ID), nil)
	})
	if err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}
	return rec.ID, nil
}

// Search implements Store. Scans all records and ranks them by
// descending lexical score.
func (s *BadgerStore) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	type scored struct {
		rec   Record
		score int
		pos   int
	}
	var matches []scored

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		pos := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode record %s: %w", it.Item().Key(), err)
			}
			if score := matchScore(rec, query); score > 0 {
				matches = append(matches, scored{rec, score, pos})
			}
			pos++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].pos < matches[j].pos
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Record, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out, nil
}

// SessionRecords implements Store via the session index.
func (s *BadgerStore) SessionRecords(ctx context.Context, sessionID string) ([]Record, error) {
	out := make([]Record, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = sessionKey(sessionID, "")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := string(it.Item().Key()[len(sessionKey(sessionID, "")):])
			item, err := txn.Get(recordKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				// Stale index entry; the record was deleted.
				continue
			}
			if err != nil {
				return err
			}
			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode record %s: %w", id, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var rec Record
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return fmt.Errorf("decode record %s: %w", id, err)
		}

		if err := txn.Delete(recordKey(id)); err != nil {
			return err
		}
		return txn.Delete(sessionKey(rec.SessionID, id))
	})
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func recordKey(id string) []byte {
	return []byte(recordKeyPrefix + id)
}

func sessionKey(sessionID, id string) []byte {
	return []byte(sessionKeyPrefix + sessionID + "/" + id)
}
