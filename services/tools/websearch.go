// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const serpAPIEndpoint = "https://serpapi.com/search"

// WebSearchConfig configures a WebSearchClient.
type WebSearchConfig struct {
	// APIKey is the SerpAPI key. Required.
	APIKey string

	// Endpoint overrides the SerpAPI endpoint. Tests point this at a
	// local server.
	// Default: https://serpapi.com/search
	Endpoint string

	// MaxResults caps the results per search.
	// Default: 5
	MaxResults int

	// HTTPClient is the transport. Default: http.Client with a
	// 30-second timeout.
	HTTPClient HTTPClient
}

func (c *WebSearchConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = serpAPIEndpoint
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 5
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
}

// WebSearchClient searches the web through SerpAPI's Google engine.
type WebSearchClient struct {
	config WebSearchConfig
}

// NewWebSearchClient validates the config and builds a client.
func NewWebSearchClient(config WebSearchConfig) (*WebSearchClient, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	config.applyDefaults()
	return &WebSearchClient{config: config}, nil
}

// Name returns the tool name used in reasoning logs.
func (c *WebSearchClient) Name() string { return "web_search" }

// serpResponse is the subset of the SerpAPI payload we consume.
type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic_results"`
}

// Search runs a Google search and normalizes the organic results.
//
// Inputs:
//
//	ctx   - Context for cancellation and deadlines
//	query - Search query
//
// Outputs:
//
//	[]SearchResult - Up to MaxResults hits; never nil on success
//	error          - Non-nil on transport, HTTP, or API errors
func (c *WebSearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.config.MaxResults))
	params.Set("api_key", c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call serpapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi returned status %s", resp.Status)
	}

	var payload serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("serpapi error: %s", payload.Error)
	}

	results := make([]SearchResult, 0, len(payload.OrganicResults))
	for _, hit := range payload.OrganicResults {
		if len(results) >= c.config.MaxResults {
			break
		}
		results = append(results, SearchResult{
			Title:     hit.Title,
			URL:       hit.Link,
			Snippet:   hit.Snippet,
			Source:    c.Name(),
			Published: hit.Date,
		})
	}
	return results, nil
}
