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

	"github.com/AleutianAI/deepresearch/pkg/prompts"
	"github.com/AleutianAI/deepresearch/services/llm"
)

// Writer compiles section findings into the final report.
type Writer struct {
	llm     llm.Client
	prompts *prompts.Manager
}

// NewWriter builds a writer agent.
func NewWriter(client llm.Client, promptMgr *prompts.Manager) *Writer {
	return &Writer{llm: client, prompts: promptMgr}
}

// Write generates the final Markdown report from the findings.
//
// Description:
//
//	Renders the findings into the writing prompt and asks the model
//	for the report. If the model fails, a plain compiled report is
//	assembled from the findings instead, so a completed research run
//	always yields a report. The returned bool reports whether the
//	model wrote it (true) or the fallback did (false).
func (w *Writer) Write(ctx context.Context, topic string, findings []SectionFindings) (string, bool, error) {
	prompt, err := w.prompts.Render("report_writer", map[string]string{
		"topic":    topic,
		"findings": renderFindings(findings),
	})
	if err != nil {
		return "", false, err
	}

	report, err := w.llm.Generate(ctx, prompt, llm.GenerationParams{})
	if err != nil || strings.TrimSpace(report) == "" {
		return compileReport(topic, findings), false, nil
	}
	return report, true, nil
}

// renderFindings formats the section findings for the writer prompt.
func renderFindings(findings []SectionFindings) string {
	var sb strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&sb, "### %s (confidence %.1f)\n%s\n", f.Section, f.Confidence, f.Findings)
		for _, src := range f.Sources {
			fmt.Fprintf(&sb, "- source: %s (%s)\n", src.Title, src.URL)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// compileReport assembles a report directly from the findings: title,
// table of contents, one section per finding with its sources.
func compileReport(topic string, findings []SectionFindings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Research Report: %s\n\n", topic)

	sb.WriteString("## Table of Contents\n\n")
	for _, f := range findings {
		anchor := strings.ToLower(strings.ReplaceAll(f.Section, " ", "-"))
		fmt.Fprintf(&sb, "- [%s](#%s)\n", f.Section, anchor)
	}
	sb.WriteString("\n---\n\n")

	for _, f := range findings {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", f.Section, f.Findings)
		if len(f.Sources) > 0 {
			sb.WriteString("### Sources\n")
			for i, src := range f.Sources {
				fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, src.Title, src.URL)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
