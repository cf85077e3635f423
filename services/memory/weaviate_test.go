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
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

func TestParseRecords(t *testing.T) {
	t.Run("parses a well-formed response", func(t *testing.T) {
		data := map[string]models.JSONObject{
			"Get": map[string]interface{}{
				ResearchMemoryClassName: []interface{}{
					map[string]interface{}{
						"sessionId":    "session_a",
						"topic":        "quantum computing",
						"content":      "qubits hold superpositions",
						"source":       "web_search",
						"createdAt":    "2025-06-01T10:00:00.000000",
						"metadataJson": `{"chunk_index": 0}`,
						"_additional": map[string]interface{}{
							"id": "8b5a2f6e-0000-0000-0000-000000000001",
						},
					},
				},
			},
		}

		recs, err := parseRecords(data)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 1 {
			t.Fatalf("expected 1 record, got %d", len(recs))
		}
		rec := recs[0]
		if rec.ID != "8b5a2f6e-0000-0000-0000-000000000001" ||
			rec.SessionID != "session_a" ||
			rec.Topic != "quantum computing" {
			t.Errorf("unexpected record: %+v", rec)
		}
		if rec.Metadata["chunk_index"] != float64(0) {
			t.Errorf("metadata not decoded: %v", rec.Metadata)
		}
	})

	t.Run("missing class yields empty result", func(t *testing.T) {
		recs, err := parseRecords(map[string]models.JSONObject{
			"Get": map[string]interface{}{},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 0 {
			t.Errorf("expected no records, got %d", len(recs))
		}
	})

	t.Run("unreadable metadata does not drop the record", func(t *testing.T) {
		data := map[string]models.JSONObject{
			"Get": map[string]interface{}{
				ResearchMemoryClassName: []interface{}{
					map[string]interface{}{
						"topic":        "t",
						"content":      "c",
						"metadataJson": "{not json",
					},
				},
			},
		}

		recs, err := parseRecords(data)
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 1 {
			t.Fatalf("expected 1 record, got %d", len(recs))
		}
	})
}

func TestNewWeaviateStoreValidation(t *testing.T) {
	if _, err := NewWeaviateStore(WeaviateConfig{}); err == nil {
		t.Error("expected an error for missing url")
	}
}
