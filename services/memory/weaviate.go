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
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

// ResearchMemoryClassName is the Weaviate class long-term records
// live in.
const ResearchMemoryClassName = "ResearchMemory"

// WeaviateConfig configures a WeaviateStore.
type WeaviateConfig struct {
	// URL is the Weaviate endpoint, e.g. "http://localhost:8080".
	URL string

	// EnsureSchema creates the ResearchMemory class on connect if it
	// doesn't exist.
	// Default: true (set SkipSchema to opt out)
	SkipSchema bool
}

// WeaviateStore is semantic long-term memory backed by Weaviate.
//
// Description:
//
//	Records are stored as ResearchMemory objects with the record id
//	as the object uuid. Search uses nearText semantic retrieval, so
//	the Weaviate instance must run a text vectorizer module.
//
// Thread Safety: safe for concurrent use; the underlying client is.
type WeaviateStore struct {
	client *weaviate.Client
}

// NewWeaviateStore connects to Weaviate and ensures the schema.
//
// Inputs:
//
//	cfg - Endpoint configuration
//
// Outputs:
//
//	*WeaviateStore - Ready store
//	error          - Non-nil if the URL is invalid or schema creation fails
func NewWeaviateStore(cfg WeaviateConfig) (*WeaviateStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("weaviate url is required")
	}

	clientCfg := weaviate.Config{
		Host:   cfg.URL,
		Scheme: "http",
	}
	if strings.HasPrefix(cfg.URL, "https://") {
		clientCfg.Scheme = "https"
		clientCfg.Host = cfg.URL[8:]
	} else if strings.HasPrefix(cfg.URL, "http://") {
		clientCfg.Host = cfg.URL[7:]
	}

	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	store := &WeaviateStore{client: client}
	if !cfg.SkipSchema {
		if err := store.ensureSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// researchMemorySchema describes the ResearchMemory class.
func researchMemorySchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       ResearchMemoryClassName,
		Description: "A research finding saved by the assistant for later recall.",
		Properties: []*models.Property{
			{
				Name:            "sessionId",
				DataType:        []string{"text"},
				Description:     "Research session the finding came from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "topic",
				DataType:    []string{"text"},
				Description: "Research topic the finding belongs to.",
			},
			{
				Name:        "content",
				DataType:    []string{"text"},
				Description: "The finding text.",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Where the finding came from (tool, URL, agent).",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "createdAt",
				DataType:    []string{"text"},
				Description: "Creation timestamp.",
			},
			{
				Name:        "metadataJson",
				DataType:    []string{"text"},
				Description: "Caller metadata, JSON-encoded.",
			},
		},
	}
}

func (s *WeaviateStore) ensureSchema(ctx context.Context) error {
	_, err := s.client.Schema().ClassGetter().
		WithClassName(ResearchMemoryClassName).
		Do(ctx)
	if err == nil {
		return nil
	}

	// ClassGetter errors when the class is absent; create it.
	if err := s.client.Schema().ClassCreator().
		WithClass(researchMemorySchema()).
		Do(ctx); err != nil {
		return fmt.Errorf("create %s schema: %w", ResearchMemoryClassName, err)
	}
	return nil
}

// Save implements Store.
func (s *WeaviateStore) Save(ctx context.Context, rec Record) (string, error) {
	stampRecord(&rec)

	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return "", fmt.Errorf("serialize record metadata: %w", err)
	}

	_, err = s.client.Data().Creator().
		WithClassName(ResearchMemoryClassName).
		WithID(rec.ID).
		WithProperties(map[string]interface{}{
			"sessionId":    rec.SessionID,
			"topic":        rec.Topic,
			"content":      rec.Content,
			"source":       rec.Source,
			"createdAt":    rec.CreatedAt,
			"metadataJson": string(metadataJSON),
		}).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}
	return rec.ID, nil
}

var researchMemoryFields = []graphql.Field{
	{Name: "sessionId"},
	{Name: "topic"},
	{Name: "content"},
	{Name: "source"},
	{Name: "createdAt"},
	{Name: "metadataJson"},
	{Name: "_additional { id }"},
}

// Search implements Store via nearText semantic retrieval.
func (s *WeaviateStore) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	result, err := s.client.GraphQL().Get().
		WithClassName(ResearchMemoryClassName).
		WithFields(researchMemoryFields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("semantic search: %s", result.Errors[0].Message)
	}

	return parseRecords(result.Data)
}

// SessionRecords implements Store via a sessionId filter.
func (s *WeaviateStore) SessionRecords(ctx context.Context, sessionID string) ([]Record, error) {
	whereFilter := filters.Where().
		WithPath([]string{"sessionId"}).
		WithOperator(filters.Equal).
		WithValueString(sessionID)

	result, err := s.client.GraphQL().Get().
		WithClassName(ResearchMemoryClassName).
		WithFields(researchMemoryFields...).
		WithWhere(whereFilter).
		WithLimit(1000).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("session query: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("session query: %s", result.Errors[0].Message)
	}

	return parseRecords(result.Data)
}

// Delete implements Store.
func (s *WeaviateStore) Delete(ctx context.Context, id string) error {
	exists, err := s.client.Data().Checker().
		WithClassName(ResearchMemoryClassName).
		WithID(id).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("check record: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.client.Data().Deleter().
		WithClassName(ResearchMemoryClassName).
		WithID(id).
		Do(ctx); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Close implements Store. The weaviate client holds no connections
// that need explicit teardown.
func (s *WeaviateStore) Close() error {
	return nil
}

// parseRecords converts a GraphQL Get response into Records.
func parseRecords(data map[string]models.JSONObject) ([]Record, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return []Record{}, nil
	}
	objects, ok := get[ResearchMemoryClassName].([]interface{})
	if !ok {
		return []Record{}, nil
	}

	out := make([]Record, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		rec := Record{
			SessionID: stringProp(m, "sessionId"),
			Topic:     stringProp(m, "topic"),
			Content:   stringProp(m, "content"),
			Source:    stringProp(m, "source"),
			CreatedAt: stringProp(m, "createdAt"),
			Metadata:  map[string]any{},
		}
		if additional, ok := m["_additional"].(map[string]interface{}); ok {
			rec.ID = stringProp(additional, "id")
		}
		if raw := stringProp(m, "metadataJson"); raw != "" {
			// Best effort; a record with unreadable metadata is still
			// a usable record.
			_ = json.Unmarshal([]byte(raw), &rec.Metadata)
		}
		out = append(out, rec)
	}
	return out, nil
}

func stringProp(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
