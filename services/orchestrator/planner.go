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
	"encoding/json"
	"strconv"
	"strings"

	"github.com/AleutianAI/deepresearch/pkg/prompts"
	"github.com/AleutianAI/deepresearch/services/llm"
)

// defaultSections is the fallback plan structure when the model's
// plan cannot be parsed.
var defaultSections = []string{
	"Introduction", "Background", "Current State", "Analysis", "Conclusion",
}

// Planner turns a topic into a ResearchPlan via the planning prompt.
type Planner struct {
	llm         llm.Client
	prompts     *prompts.Manager
	maxSections int
}

// NewPlanner builds a planner agent.
func NewPlanner(client llm.Client, promptMgr *prompts.Manager, maxSections int) *Planner {
	if maxSections <= 0 {
		maxSections = 10
	}
	return &Planner{llm: client, prompts: promptMgr, maxSections: maxSections}
}

// plannerResponse is the JSON shape the planning prompt asks for.
type plannerResponse struct {
	Sections     []string `json:"sections"`
	KeyQuestions []string `json:"key_questions"`
	Reasoning    string   `json:"reasoning"`
}

// Plan generates a research plan for the topic.
//
// Description:
//
//	Renders the planning prompt, asks the model for a JSON plan, and
//	parses it. A response that is not valid JSON falls back to the
//	default section structure rather than failing the run; planning
//	degradation should not abort research. The raw model response is
//	returned alongside the plan for reasoning logs.
//
// Outputs:
//
//	ResearchPlan - Parsed (or fallback) plan, capped at maxSections
//	string       - Raw model response
//	error        - Non-nil only if the prompt or the model call fails
func (p *Planner) Plan(ctx context.Context, topic string) (ResearchPlan, string, error) {
	prompt, err := p.prompts.Render("research_planner", map[string]string{
		"topic":        topic,
		"max_sections": strconv.Itoa(p.maxSections),
	})
	if err != nil {
		return ResearchPlan{}, "", err
	}

	raw, err := p.llm.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil {
		return ResearchPlan{}, "", err
	}

	plan := ResearchPlan{Topic: topic}
	var parsed plannerResponse
	if jsonErr := json.Unmarshal([]byte(extractJSON(raw)), &parsed); jsonErr == nil && len(parsed.Sections) > 0 {
		plan.Sections = parsed.Sections
		plan.KeyQuestions = parsed.KeyQuestions
		plan.Reasoning = parsed.Reasoning
	} else {
		plan.Sections = append([]string(nil), defaultSections...)
		plan.Reasoning = "Model plan was not parseable; using the default section structure"
	}

	if len(plan.Sections) > p.maxSections {
		plan.Sections = plan.Sections[:p.maxSections]
	}
	return plan, raw, nil
}

// extractJSON strips markdown code fences and surrounding prose so a
// chatty model response still parses.
func extractJSON(raw string) string {
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return raw
	}
	end := strings.LastIndexAny(raw, "}]")
	if end < start {
		return raw
	}
	return raw[start : end+1]
}
