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
	"errors"
	"testing"
)

// storeUnderTest runs the shared Store contract tests against a
// backend. Weaviate is excluded here; it needs a running instance.
func storeUnderTest(t *testing.T, name string, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run(name+"/save assigns id and timestamp", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		id, err := store.Save(ctx, Record{
			SessionID: "session_a",
			Topic:     "quantum computing",
			Content:   "qubits hold superpositions",
			Source:    "web_search",
		})
		if err != nil {
			t.Fatal(err)
		}
		if id == "" {
			t.Error("expected a generated record id")
		}

		recs, err := store.SessionRecords(ctx, "session_a")
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 1 || recs[0].ID != id || recs[0].CreatedAt == "" {
			t.Errorf("unexpected stored record: %+v", recs)
		}
	})

	t.Run(name+"/search ranks topic hits above content hits", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		if _, err := store.Save(ctx, Record{
			SessionID: "s", Topic: "climate policy",
			Content: "quantum appears once here",
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Save(ctx, Record{
			SessionID: "s", Topic: "quantum computing",
			Content: "error correction milestones",
		}); err != nil {
			t.Fatal(err)
		}

		recs, err := store.Search(ctx, "quantum", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(recs))
		}
		if recs[0].Topic != "quantum computing" {
			t.Errorf("expected topic match ranked first, got %q", recs[0].Topic)
		}
	})

	t.Run(name+"/search respects limit", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		for i := 0; i < 5; i++ {
			if _, err := store.Save(ctx, Record{
				SessionID: "s", Topic: "golang", Content: "notes",
			}); err != nil {
				t.Fatal(err)
			}
		}

		recs, err := store.Search(ctx, "golang", 3)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 3 {
			t.Errorf("expected 3 results, got %d", len(recs))
		}
	})

	t.Run(name+"/no match yields empty result", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		if _, err := store.Save(ctx, Record{SessionID: "s", Topic: "a", Content: "b"}); err != nil {
			t.Fatal(err)
		}
		recs, err := store.Search(ctx, "zzz_absent", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 0 {
			t.Errorf("expected no matches, got %d", len(recs))
		}
	})

	t.Run(name+"/session records are scoped", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		if _, err := store.Save(ctx, Record{SessionID: "s1", Topic: "t", Content: "one"}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Save(ctx, Record{SessionID: "s2", Topic: "t", Content: "two"}); err != nil {
			t.Fatal(err)
		}

		recs, err := store.SessionRecords(ctx, "s1")
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 1 || recs[0].Content != "one" {
			t.Errorf("unexpected session records: %+v", recs)
		}
	})

	t.Run(name+"/delete removes record and index", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		id, err := store.Save(ctx, Record{SessionID: "s", Topic: "t", Content: "c"})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Delete(ctx, id); err != nil {
			t.Fatal(err)
		}
		recs, err := store.SessionRecords(ctx, "s")
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 0 {
			t.Errorf("expected record gone from session index, got %+v", recs)
		}
		if err := store.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on double delete, got %v", err)
		}
	})

	t.Run(name+"/delete unknown id", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		if err := store.Delete(ctx, newRecordID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMemStore(t *testing.T) {
	storeUnderTest(t, "mem", func(t *testing.T) Store {
		return NewMemStore()
	})

	t.Run("operations on a closed store fail", func(t *testing.T) {
		store := NewMemStore()
		store.Close()

		if _, err := store.Save(context.Background(), Record{}); !errors.Is(err, ErrStoreClosed) {
			t.Errorf("expected ErrStoreClosed, got %v", err)
		}
	})
}

func TestBadgerStore(t *testing.T) {
	storeUnderTest(t, "badger", func(t *testing.T) Store {
		store, err := NewBadgerStore(BadgerConfig{InMemory: true})
		if err != nil {
			t.Fatal(err)
		}
		return store
	})

	t.Run("persistent store requires a path", func(t *testing.T) {
		if _, err := NewBadgerStore(BadgerConfig{}); err == nil {
			t.Error("expected an error for missing path")
		}
	})

	t.Run("records survive reopen", func(t *testing.T) {
		ctx := context.Background()
		path := t.TempDir()

		store, err := NewBadgerStore(BadgerConfig{Path: path})
		if err != nil {
			t.Fatal(err)
		}
		id, err := store.Save(ctx, Record{SessionID: "s", Topic: "t", Content: "persisted"})
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Close(); err != nil {
			t.Fatal(err)
		}

		reopened, err := NewBadgerStore(BadgerConfig{Path: path})
		if err != nil {
			t.Fatal(err)
		}
		defer reopened.Close()

		recs, err := reopened.SessionRecords(ctx, "s")
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 1 || recs[0].ID != id || recs[0].Content != "persisted" {
			t.Errorf("record did not survive reopen: %+v", recs)
		}
	})
}

func TestSaveDocument(t *testing.T) {
	t.Run("short document saves one chunk", func(t *testing.T) {
		store := NewMemStore()
		defer store.Close()

		ids, err := SaveDocument(context.Background(), store, Record{
			SessionID: "s",
			Topic:     "quantum computing",
			Content:   "a short finding",
			Source:    "web_search",
		}, ChunkConfig{})
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 1 {
			t.Fatalf("expected 1 chunk, got %d", len(ids))
		}
	})

	t.Run("long document splits into ordered chunks", func(t *testing.T) {
		store := NewMemStore()
		defer store.Close()

		var long string
		for i := 0; i < 200; i++ {
			long += "quantum error correction continues to improve steadily. "
		}

		ids, err := SaveDocument(context.Background(), store, Record{
			SessionID: "s",
			Topic:     "quantum computing",
			Content:   long,
		}, ChunkConfig{ChunkSize: 500, ChunkOverlap: 50})
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(ids))
		}

		recs, err := store.SessionRecords(context.Background(), "s")
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != len(ids) {
			t.Fatalf("expected %d records, got %d", len(ids), len(recs))
		}
		for _, rec := range recs {
			if rec.Metadata["chunk_count"] != len(ids) {
				t.Errorf("chunk_count mismatch: %v", rec.Metadata["chunk_count"])
			}
		}
	})
}
