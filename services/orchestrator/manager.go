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
	"unicode/utf8"

	"github.com/AleutianAI/deepresearch/pkg/logging"
	"github.com/AleutianAI/deepresearch/services/cot"
	"github.com/AleutianAI/deepresearch/services/memory"
)

// ManagerConfig wires the pipeline's collaborators.
type ManagerConfig struct {
	// Planner, Researcher, Writer are the three agents. Required.
	Planner    *Planner
	Researcher *Researcher
	Writer     *Writer

	// CoT is the chain-of-thought logger every step records to.
	// Required; construct one logger per process and share it.
	CoT *cot.Logger

	// LongTerm receives section findings for later recall. Optional.
	LongTerm memory.Store

	// Buffer is the short-term conversation memory. Optional.
	Buffer *memory.ConversationBuffer

	// Diag is the diagnostic logger.
	// Default: logging.Default()
	Diag *logging.Logger
}

// Manager runs the plan → research → write pipeline.
type Manager struct {
	config ManagerConfig
}

// NewManager validates the wiring and builds a manager.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Planner == nil || config.Researcher == nil || config.Writer == nil {
		return nil, fmt.Errorf("planner, researcher, and writer are all required")
	}
	if config.CoT == nil {
		return nil, fmt.Errorf("chain-of-thought logger is required")
	}
	if config.Diag == nil {
		config.Diag = logging.Default()
	}
	return &Manager{config: config}, nil
}

// StartResearch runs the full pipeline for a topic.
//
// Description:
//
//	Starts a fresh chain-of-thought session, then plans, researches
//	each plan section, and writes the report. Every agent step lands
//	in the reasoning log; a pipeline failure is itself logged as an
//	error-level manager step before the error is returned. Section
//	findings are saved to long-term memory when a store is wired.
//
// Inputs:
//
//	ctx   - Context for cancellation and deadlines
//	topic - Research topic
//
// Outputs:
//
//	ResearchResult - Plan, findings, and report for the topic
//	error          - Non-nil if planning or research fails
func (m *Manager) StartResearch(ctx context.Context, topic string) (ResearchResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ResearchResult{}, ErrEmptyTopic
	}

	log := m.config.CoT
	sessionID := log.StartNewSession()
	m.config.Diag.Info("starting research",
		"topic", topic,
		"session_id", sessionID)

	if m.config.Buffer != nil {
		m.config.Buffer.Add("user", fmt.Sprintf("Research topic: %s", topic))
	}

	plan, rawPlan, err := m.config.Planner.Plan(ctx, topic)
	if err != nil {
		m.logFailure(topic, "Planning failed", err)
		return ResearchResult{}, fmt.Errorf("plan research: %w", err)
	}
	if len(plan.Sections) == 0 {
		m.logFailure(topic, "Planning produced no sections", ErrNoSections)
		return ResearchResult{}, ErrNoSections
	}

	log.LogStep("planner", fmt.Sprintf("Plan research for: %s", topic),
		cot.WithLLMResponse(rawPlan),
		cot.WithDecision("Plan approved"),
		cot.WithReasoning(plan.Reasoning),
		cot.WithConfidence(0.85),
		cot.WithMetadata(map[string]any{"section_count": len(plan.Sections)}))

	findings, err := m.config.Researcher.ResearchAll(ctx, log, plan)
	if err != nil {
		m.logFailure(topic, "Research failed", err)
		return ResearchResult{}, fmt.Errorf("research topic: %w", err)
	}

	m.saveFindings(ctx, sessionID, topic, findings)

	report, modelWritten, err := m.config.Writer.Write(ctx, topic, findings)
	if err != nil {
		m.logFailure(topic, "Report writing failed", err)
		return ResearchResult{}, fmt.Errorf("write report: %w", err)
	}

	writerReasoning := "Model compiled the report from section findings"
	writerConfidence := 0.9
	if !modelWritten {
		writerReasoning = "Model unavailable; report compiled directly from findings"
		writerConfidence = 0.5
	}
	log.LogStep("writer", "Compile final report",
		cot.WithLLMResponse(truncate(report, 2000)),
		cot.WithDecision("Report completed"),
		cot.WithReasoning(writerReasoning),
		cot.WithConfidence(writerConfidence),
		cot.WithMetadata(map[string]any{"section_count": len(findings)}))

	if m.config.Buffer != nil {
		m.config.Buffer.Add("assistant", fmt.Sprintf("Completed research report on %s", topic))
	}

	return ResearchResult{
		Topic:     topic,
		SessionID: sessionID,
		Plan:      plan,
		Findings:  findings,
		Report:    report,
	}, nil
}

// saveFindings writes each section's findings to long-term memory,
// chunked into passages so retrieval returns focused excerpts rather
// than whole sections. Failures are diagnosed and skipped; recall is
// best effort.
func (m *Manager) saveFindings(ctx context.Context, sessionID, topic string, findings []SectionFindings) {
	if m.config.LongTerm == nil {
		return
	}

	for _, f := range findings {
		_, err := memory.SaveDocument(ctx, m.config.LongTerm, memory.Record{
			SessionID: sessionID,
			Topic:     topic,
			Content:   f.Findings,
			Source:    "researcher",
			Metadata:  map[string]any{"section": f.Section, "confidence": f.Confidence},
		}, memory.ChunkConfig{})
		if err != nil {
			m.config.Diag.Warn("failed to save findings to long-term memory",
				"section", f.Section,
				"error", err.Error())
		}
	}
}

func (m *Manager) logFailure(topic, decision string, err error) {
	m.config.CoT.LogStep("manager", fmt.Sprintf("Error in research process: %s", topic),
		cot.WithDecision(decision),
		cot.WithReasoning(err.Error()),
		cot.WithConfidence(0.0),
		cot.WithLevel(cot.LevelError))
}

// truncate cuts s to at most n bytes on a rune boundary, so the
// persisted reasoning log never carries invalid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
