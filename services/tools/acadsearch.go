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
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	arxivEndpoint  = "http://export.arxiv.org/api/query"
	pubmedEndpoint = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
)

// AcademicSearchConfig configures an AcademicSearchClient.
type AcademicSearchConfig struct {
	// PubMedAPIKey raises the NCBI rate limit. Optional.
	PubMedAPIKey string

	// ArxivEndpoint and PubMedEndpoint override the upstream URLs.
	// Tests point these at a local server.
	ArxivEndpoint  string
	PubMedEndpoint string

	// MaxResults caps the results per source.
	// Default: 10
	MaxResults int

	// HTTPClient is the transport. Default: http.Client with a
	// 30-second timeout.
	HTTPClient HTTPClient
}

func (c *AcademicSearchConfig) applyDefaults() {
	if c.ArxivEndpoint == "" {
		c.ArxivEndpoint = arxivEndpoint
	}
	if c.PubMedEndpoint == "" {
		c.PubMedEndpoint = pubmedEndpoint
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
}

// AcademicSearchClient searches arXiv and PubMed.
//
// Description:
//
//	arXiv is queried through its Atom API; PubMed through NCBI
//	E-utilities (esearch for ids, efetch for article details). Both
//	sources normalize into SearchResult so the researcher agent can
//	mix academic and web evidence.
type AcademicSearchClient struct {
	config AcademicSearchConfig
}

// NewAcademicSearchClient builds a client. No credential is required;
// a PubMed API key is optional.
func NewAcademicSearchClient(config AcademicSearchConfig) *AcademicSearchClient {
	config.applyDefaults()
	return &AcademicSearchClient{config: config}
}

// Name returns the tool name used in reasoning logs.
func (c *AcademicSearchClient) Name() string { return "academic_search" }

// atomFeed is the subset of the arXiv Atom response we consume.
type atomFeed struct {
	Entries []struct {
		ID        string `xml:"id"`
		Title     string `xml:"title"`
		Summary   string `xml:"summary"`
		Published string `xml:"published"`
		Authors   []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// SearchArxiv queries arXiv, sorted by relevance.
func (c *AcademicSearchClient) SearchArxiv(ctx context.Context, query string) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(c.config.MaxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	body, err := c.get(ctx, c.config.ArxivEndpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("arxiv search: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	results := make([]SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		var authors []string
		for _, a := range entry.Authors {
			authors = append(authors, a.Name)
		}
		results = append(results, SearchResult{
			Title:     strings.TrimSpace(entry.Title),
			URL:       entry.ID,
			Snippet:   strings.TrimSpace(entry.Summary),
			Source:    "arxiv_search",
			Authors:   authors,
			Published: entry.Published,
		})
	}
	return results, nil
}

// esearchResult is the subset of the esearch XML we consume.
type esearchResult struct {
	IDs []string `xml:"IdList>Id"`
}

// pubmedArticleSet is the subset of the efetch XML we consume.
type pubmedArticleSet struct {
	Articles []struct {
		PMID     string `xml:"MedlineCitation>PMID"`
		Title    string `xml:"MedlineCitation>Article>ArticleTitle"`
		Abstract string `xml:"MedlineCitation>Article>Abstract>AbstractText"`
		Authors  []struct {
			LastName string `xml:"LastName"`
			ForeName string `xml:"ForeName"`
		} `xml:"MedlineCitation>Article>AuthorList>Author"`
		PubDate struct {
			Year  string `xml:"Year"`
			Month string `xml:"Month"`
		} `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate"`
	} `xml:"PubmedArticle"`
}

// SearchPubMed queries PubMed in two steps: esearch for matching
// article ids, then efetch for the article details. A query matching
// nothing returns an empty result, not an error.
func (c *AcademicSearchClient) SearchPubMed(ctx context.Context, query string) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	searchParams := url.Values{}
	searchParams.Set("db", "pubmed")
	searchParams.Set("term", query)
	searchParams.Set("retmax", strconv.Itoa(c.config.MaxResults))
	searchParams.Set("retmode", "xml")
	if c.config.PubMedAPIKey != "" {
		searchParams.Set("api_key", c.config.PubMedAPIKey)
	}

	body, err := c.get(ctx, c.config.PubMedEndpoint+"/esearch.fcgi?"+searchParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}

	var search esearchResult
	if err := xml.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("parse pubmed search response: %w", err)
	}
	if len(search.IDs) == 0 {
		return []SearchResult{}, nil
	}

	fetchParams := url.Values{}
	fetchParams.Set("db", "pubmed")
	fetchParams.Set("id", strings.Join(search.IDs, ","))
	fetchParams.Set("retmode", "xml")
	if c.config.PubMedAPIKey != "" {
		fetchParams.Set("api_key", c.config.PubMedAPIKey)
	}

	body, err = c.get(ctx, c.config.PubMedEndpoint+"/efetch.fcgi?"+fetchParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed fetch: %w", err)
	}

	var articles pubmedArticleSet
	if err := xml.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("parse pubmed articles: %w", err)
	}

	results := make([]SearchResult, 0, len(articles.Articles))
	for _, article := range articles.Articles {
		var authors []string
		for _, a := range article.Authors {
			if a.ForeName != "" && a.LastName != "" {
				authors = append(authors, a.ForeName+" "+a.LastName)
			}
		}

		published := article.PubDate.Year
		if published != "" && article.PubDate.Month != "" {
			published += "-" + article.PubDate.Month
		}

		var link string
		if article.PMID != "" {
			link = fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", article.PMID)
		}

		results = append(results, SearchResult{
			Title:     article.Title,
			URL:       link,
			Snippet:   article.Abstract,
			Source:    "pubmed_search",
			Authors:   authors,
			Published: published,
		})
	}
	return results, nil
}

// SearchCombined queries both sources and concatenates the results,
// arXiv first. A failure in one source fails the combined search.
func (c *AcademicSearchClient) SearchCombined(ctx context.Context, query string) ([]SearchResult, error) {
	arxiv, err := c.SearchArxiv(ctx, query)
	if err != nil {
		return nil, err
	}
	pubmed, err := c.SearchPubMed(ctx, query)
	if err != nil {
		return nil, err
	}
	return append(arxiv, pubmed...), nil
}

func (c *AcademicSearchClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
