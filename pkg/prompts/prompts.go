// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompts holds the structured prompt templates the research
// agents generate with. Templates use {variable} placeholders; Render
// fails on unresolved variables so a missing input is caught before
// the model sees a broken prompt.
package prompts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Type categorizes a template by the agent that uses it.
type Type string

const (
	TypePlanner    Type = "planner"
	TypeResearcher Type = "researcher"
	TypeWriter     Type = "writer"
	TypeSummarizer Type = "summarizer"
)

// Template is one named prompt with its placeholder variables.
type Template struct {
	Name        string
	Type        Type
	Text        string
	Variables   []string
	Description string
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Render substitutes vars into the template text.
//
// Outputs:
//
//	string - The rendered prompt
//	error  - Non-nil if any placeholder is left unresolved
func (t Template) Render(vars map[string]string) (string, error) {
	rendered := t.Text
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}

	if unresolved := placeholderPattern.FindAllStringSubmatch(rendered, -1); len(unresolved) > 0 {
		missing := make([]string, 0, len(unresolved))
		seen := map[string]bool{}
		for _, m := range unresolved {
			if !seen[m[1]] {
				missing = append(missing, m[1])
				seen[m[1]] = true
			}
		}
		sort.Strings(missing)
		return "", fmt.Errorf("template %s: unresolved variables %v", t.Name, missing)
	}
	return rendered, nil
}

// Manager is a registry of templates.
type Manager struct {
	templates map[string]Template
}

// NewManager returns a Manager preloaded with the default agent
// templates.
func NewManager() *Manager {
	m := &Manager{templates: map[string]Template{}}
	for _, t := range defaultTemplates() {
		m.templates[t.Name] = t
	}
	return m
}

// Get returns a template by name.
func (m *Manager) Get(name string) (Template, error) {
	t, ok := m.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown template %q", name)
	}
	return t, nil
}

// Register adds or replaces a template.
func (m *Manager) Register(t Template) {
	m.templates[t.Name] = t
}

// ByType returns the templates of one type, sorted by name.
func (m *Manager) ByType(typ Type) []Template {
	var out []Template
	for _, t := range m.templates {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Render looks up a template and renders it in one call.
func (m *Manager) Render(name string, vars map[string]string) (string, error) {
	t, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return t.Render(vars)
}

func defaultTemplates() []Template {
	return []Template{
		{
			Name:        "research_planner",
			Type:        TypePlanner,
			Description: "Creates a structured research plan for a topic.",
			Variables:   []string{"topic", "max_sections"},
			Text: `You are a Research Planning Agent. Analyze the research topic and create a comprehensive research plan.

TOPIC: {topic}

INSTRUCTIONS:
1. Analyze the topic to understand its scope and complexity
2. Identify key research areas and subtopics
3. Create a logical sequence of at most {max_sections} research sections

OUTPUT FORMAT:
Respond with JSON only:
- "sections": list of section titles in logical order
- "key_questions": important questions to address
- "reasoning": explanation of your planning decisions

Generate the research plan now.`,
		},
		{
			Name:        "section_researcher",
			Type:        TypeResearcher,
			Description: "Synthesizes search evidence into section findings.",
			Variables:   []string{"topic", "section", "evidence"},
			Text: `You are a Research Agent investigating one section of a larger report.

TOPIC: {topic}
SECTION: {section}

EVIDENCE:
{evidence}

INSTRUCTIONS:
1. Extract the facts relevant to this section from the evidence
2. Note conflicting claims explicitly
3. Keep source attributions with each finding

Write the section findings as concise bullet points with sources.`,
		},
		{
			Name:        "report_writer",
			Type:        TypeWriter,
			Description: "Turns section findings into a coherent report.",
			Variables:   []string{"topic", "findings"},
			Text: `You are a Report Writing Agent.

TOPIC: {topic}

SECTION FINDINGS:
{findings}

INSTRUCTIONS:
1. Write a coherent, well-structured report covering every section
2. Preserve source attributions as inline citations
3. Close with a short conclusions section

Write the full report in Markdown.`,
		},
		{
			Name:        "session_summarizer",
			Type:        TypeSummarizer,
			Description: "Condenses conversation history for context windows.",
			Variables:   []string{"conversation"},
			Text: `Summarize the following research conversation, preserving decisions and open questions.

CONVERSATION:
{conversation}

Respond with a short paragraph.`,
		},
	}
}
