// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools implements the research agents' external search tools:
// general web search through SerpAPI and academic search across arXiv
// and PubMed. Every client takes an injectable HTTPClient so tests
// run without network access.
package tools

import (
	"errors"
	"net/http"
)

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	// ErrMissingAPIKey indicates a client was built without its
	// required credential.
	ErrMissingAPIKey = errors.New("api key is required")

	// ErrEmptyQuery indicates a search was invoked with no query.
	ErrEmptyQuery = errors.New("search query is empty")
)

// SearchResult is one hit from any search tool, normalized so the
// researcher agent can treat sources uniformly.
type SearchResult struct {
	// Title of the page or paper.
	Title string `json:"title"`

	// URL of the source.
	URL string `json:"url"`

	// Snippet is a short excerpt or abstract.
	Snippet string `json:"snippet"`

	// Source names the tool that produced the hit
	// ("web_search", "arxiv_search", "pubmed_search").
	Source string `json:"source"`

	// Authors, for academic hits. Empty for web results.
	Authors []string `json:"authors,omitempty"`

	// Published is the publication date as reported by the source.
	Published string `json:"published,omitempty"`
}
