// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	researchOutput string
)

// researchCmd runs the full research pipeline for one topic.
var researchCmd = &cobra.Command{
	Use:   "research TOPIC",
	Short: "Research a topic and produce a report",
	Long: `Research a topic end to end: plan the report structure, research
each section with web and academic search tools, store findings in
long-term memory, and write the final report.

Every reasoning step is recorded in the chain-of-thought log, which can
be inspected afterwards with 'deepresearch reasoning'.

Examples:
  deepresearch research "quantum error correction"
  deepresearch research "mRNA vaccine platforms" --output report.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVarP(&researchOutput, "output", "o", "",
		"Write the report to this file instead of stdout")
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	application, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer application.close()

	result, err := application.manager.StartResearch(context.Background(), topic)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	if researchOutput != "" {
		if err := os.WriteFile(researchOutput, []byte(result.Report), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s (session %s)\n", researchOutput, result.SessionID)
		return nil
	}

	fmt.Println(result.Report)
	fmt.Fprintf(os.Stderr, "\nSession: %s (%d sections researched)\n",
		result.SessionID, len(result.Findings))
	return nil
}
