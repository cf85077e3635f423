// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator coordinates the planner, researcher, and
// writer agents into a research pipeline, recording every reasoning
// step in the chain-of-thought log.
package orchestrator

import (
	"errors"

	"github.com/AleutianAI/deepresearch/services/tools"
)

var (
	// ErrEmptyTopic indicates research was requested without a topic.
	ErrEmptyTopic = errors.New("research topic is empty")

	// ErrNoSections indicates planning produced no usable sections.
	ErrNoSections = errors.New("research plan has no sections")
)

// ResearchPlan is the planner agent's output.
type ResearchPlan struct {
	// Topic is the research topic the plan covers.
	Topic string `json:"topic"`

	// Sections are the report sections in writing order.
	Sections []string `json:"sections"`

	// KeyQuestions are the questions the research should answer.
	KeyQuestions []string `json:"key_questions,omitempty"`

	// Reasoning explains the planner's structure decisions.
	Reasoning string `json:"reasoning,omitempty"`
}

// SectionFindings is one researcher agent's output for one section.
type SectionFindings struct {
	// Section is the plan section the findings belong to.
	Section string `json:"section"`

	// Findings is the synthesized evidence for the section.
	Findings string `json:"findings"`

	// Sources are the search hits the findings are based on.
	Sources []tools.SearchResult `json:"sources"`

	// Confidence is the researcher's confidence in the findings.
	Confidence float64 `json:"confidence"`
}

// ResearchResult is the full pipeline output for one topic.
type ResearchResult struct {
	// Topic is the researched topic.
	Topic string `json:"topic"`

	// SessionID is the chain-of-thought session the run logged under.
	SessionID string `json:"session_id"`

	// Plan is the executed research plan.
	Plan ResearchPlan `json:"plan"`

	// Findings holds the per-section research, in plan order.
	Findings []SectionFindings `json:"findings"`

	// Report is the final Markdown report.
	Report string `json:"report"`
}
