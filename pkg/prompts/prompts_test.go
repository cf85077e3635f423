// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompts

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	t.Run("substitutes all variables", func(t *testing.T) {
		tpl := Template{Name: "t", Text: "Research {topic} in {depth} detail."}
		out, err := tpl.Render(map[string]string{"topic": "fusion", "depth": "great"})
		if err != nil {
			t.Fatal(err)
		}
		if out != "Research fusion in great detail." {
			t.Errorf("unexpected render: %q", out)
		}
	})

	t.Run("unresolved variable is an error", func(t *testing.T) {
		tpl := Template{Name: "t", Text: "Research {topic} for {audience}."}
		_, err := tpl.Render(map[string]string{"topic": "fusion"})
		if err == nil || !strings.Contains(err.Error(), "audience") {
			t.Errorf("expected unresolved-variable error naming audience, got %v", err)
		}
	})

	t.Run("extra variables are ignored", func(t *testing.T) {
		tpl := Template{Name: "t", Text: "Hello {name}."}
		out, err := tpl.Render(map[string]string{"name": "world", "unused": "x"})
		if err != nil || out != "Hello world." {
			t.Errorf("got %q, %v", out, err)
		}
	})
}

func TestManager(t *testing.T) {
	t.Run("default templates render", func(t *testing.T) {
		m := NewManager()
		out, err := m.Render("research_planner", map[string]string{
			"topic":        "quantum computing",
			"max_sections": "5",
		})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "TOPIC: quantum computing") ||
			!strings.Contains(out, "at most 5 research sections") {
			t.Errorf("planner prompt missing substitutions:\n%s", out)
		}
	})

	t.Run("unknown template is an error", func(t *testing.T) {
		m := NewManager()
		if _, err := m.Get("no_such_template"); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("register replaces a template", func(t *testing.T) {
		m := NewManager()
		m.Register(Template{Name: "research_planner", Type: TypePlanner, Text: "custom {topic}"})
		out, err := m.Render("research_planner", map[string]string{"topic": "x"})
		if err != nil || out != "custom x" {
			t.Errorf("got %q, %v", out, err)
		}
	})

	t.Run("by type filters and sorts", func(t *testing.T) {
		m := NewManager()
		writers := m.ByType(TypeWriter)
		if len(writers) != 1 || writers[0].Name != "report_writer" {
			t.Errorf("unexpected writer templates: %v", writers)
		}
	})
}
