// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/deepresearch/pkg/prompts"
	"github.com/AleutianAI/deepresearch/services/cot"
	"github.com/AleutianAI/deepresearch/services/llm"
	"github.com/AleutianAI/deepresearch/services/tools"
)

// WebSearcher is the web search surface the researcher needs.
type WebSearcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]tools.SearchResult, error)
}

// AcademicSearcher is the academic search surface the researcher needs.
type AcademicSearcher interface {
	Name() string
	SearchCombined(ctx context.Context, query string) ([]tools.SearchResult, error)
}

// ResearcherConfig configures a Researcher.
type ResearcherConfig struct {
	// Web is the general web search tool. Optional; nil skips web
	// evidence.
	Web WebSearcher

	// Academic is the academic search tool. Optional.
	Academic AcademicSearcher

	// Parallel researches sections concurrently.
	Parallel bool

	// MaxConcurrent bounds concurrent section research.
	// Default: 4
	MaxConcurrent int
}

// Researcher gathers evidence for plan sections and synthesizes
// findings with the model.
type Researcher struct {
	llm     llm.Client
	prompts *prompts.Manager
	config  ResearcherConfig
}

// NewResearcher builds a researcher agent.
func NewResearcher(client llm.Client, promptMgr *prompts.Manager, config ResearcherConfig) *Researcher {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	return &Researcher{llm: client, prompts: promptMgr, config: config}
}

// ResearchAll researches every plan section.
//
// Description:
//
//	Runs ResearchSection per section, concurrently when Parallel is
//	set (bounded by MaxConcurrent). Results come back in plan order
//	regardless of completion order. Each section's reasoning step is
//	logged to the chain of thought as it completes.
//
// Outputs:
//
//	[]SectionFindings - One entry per plan section, in plan order
//	error             - First section failure, if any
func (r *Researcher) ResearchAll(ctx context.Context, log *cot.Logger, plan ResearchPlan) ([]SectionFindings, error) {
	findings := make([]SectionFindings, len(plan.Sections))

	if !r.config.Parallel {
		for i, section := range plan.Sections {
			result, err := r.ResearchSection(ctx, log, plan.Topic, section)
			if err != nil {
				return nil, err
			}
			findings[i] = result
		}
		return findings, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.MaxConcurrent)
	for i, section := range plan.Sections {
		g.Go(func() error {
			result, err := r.ResearchSection(gctx, log, plan.Topic, section)
			if err != nil {
				return err
			}
			findings[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return findings, nil
}

// ResearchSection gathers evidence for one section and synthesizes
// findings.
//
// Description:
//
//	Queries the configured search tools, renders the evidence into
//	the researcher prompt, and asks the model for section findings.
//	A failed tool call is recorded in the reasoning log and lowers
//	the step confidence, but does not fail the section; research
//	continues on the evidence that did arrive.
func (r *Researcher) ResearchSection(ctx context.Context, log *cot.Logger, topic, section string) (SectionFindings, error) {
	query := fmt.Sprintf("%s %s", topic, section)

	var sources []tools.SearchResult
	var toolCalls []cot.ToolCall
	toolFailures := 0

	if r.config.Web != nil {
		started := time.Now()
		hits, err := r.config.Web.Search(ctx, query)
		toolCalls = append(toolCalls, cot.NewToolCall(
			r.config.Web.Name(), query,
			map[string]any{"section": section},
			summarizeHits(hits), time.Since(started), err))
		if err != nil {
			toolFailures++
		} else {
			sources = append(sources, hits...)
		}
	}

	if r.config.Academic != nil {
		started := time.Now()
		hits, err := r.config.Academic.SearchCombined(ctx, query)
		toolCalls = append(toolCalls, cot.NewToolCall(
			r.config.Academic.Name(), query,
			map[string]any{"section": section},
			summarizeHits(hits), time.Since(started), err))
		if err != nil {
			toolFailures++
		} else {
			sources = append(sources, hits...)
		}
	}

	prompt, err := r.prompts.Render("section_researcher", map[string]string{
		"topic":    topic,
		"section":  section,
		"evidence": renderEvidence(sources),
	})
	if err != nil {
		return SectionFindings{}, err
	}

	response, err := r.llm.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		log.LogStep("researcher", prompt,
			cot.WithToolCalls(toolCalls...),
			cot.WithDecision("Section research failed"),
			cot.WithReasoning(err.Error()),
			cot.WithConfidence(0.0),
			cot.WithLevel(cot.LevelError),
			cot.WithMetadata(map[string]any{"section": section}))
		return SectionFindings{}, fmt.Errorf("research section %q: %w", section, err)
	}

	confidence := sectionConfidence(len(sources), toolFailures)
	log.LogStep("researcher", fmt.Sprintf("Research section: %s", section),
		cot.WithToolCalls(toolCalls...),
		cot.WithLLMResponse(response),
		cot.WithDecision(fmt.Sprintf("Data collected for %s", section)),
		cot.WithReasoning(fmt.Sprintf("Synthesized %d sources into section findings", len(sources))),
		cot.WithConfidence(confidence),
		cot.WithLevel(sectionLevel(toolFailures)),
		cot.WithMetadata(map[string]any{"section": section, "source_count": len(sources)}))

	return SectionFindings{
		Section:    section,
		Findings:   response,
		Sources:    sources,
		Confidence: confidence,
	}, nil
}

// sectionConfidence grades a section by how much evidence arrived and
// whether any tool failed.
func sectionConfidence(sourceCount, toolFailures int) float64 {
	switch {
	case sourceCount == 0:
		return 0.3
	case toolFailures > 0:
		return 0.6
	default:
		return 0.9
	}
}

func sectionLevel(toolFailures int) cot.Level {
	if toolFailures > 0 {
		return cot.LevelWarning
	}
	return cot.LevelInfo
}

// renderEvidence formats search hits for the researcher prompt.
func renderEvidence(hits []tools.SearchResult) string {
	if len(hits) == 0 {
		return "(no search evidence available)"
	}

	var sb strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&sb, "[%d] %s (%s)\n    %s\n    %s\n",
			i+1, hit.Title, hit.Source, hit.URL, hit.Snippet)
	}
	return sb.String()
}

// summarizeHits compacts search hits for the reasoning log; full
// snippets would bloat every persisted entry.
func summarizeHits(hits []tools.SearchResult) []map[string]string {
	out := make([]map[string]string, 0, len(hits))
	for _, hit := range hits {
		out = append(out, map[string]string{
			"title":  hit.Title,
			"url":    hit.URL,
			"source": hit.Source,
		})
	}
	return out
}
