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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/deepresearch/services/cot"
)

var (
	reasoningAgent   string
	reasoningLevel   string
	reasoningSession string
	reasoningLimit   int
	reasoningJSON    bool
)

// reasoningCmd is the parent command for chain-of-thought inspection.
var reasoningCmd = &cobra.Command{
	Use:   "reasoning",
	Short: "Inspect the chain-of-thought log",
	Long: `Commands for inspecting the chain-of-thought log left behind by
research runs.

Subcommands:
  entries  - List reasoning entries with optional filters
  chain    - Show the reasoning chain for a topic
  summary  - Aggregate statistics for a session or the full log
  export   - Write the log to a JSON file
  clear    - Remove entries from the log

Examples:
  deepresearch reasoning entries --agent researcher --limit 10
  deepresearch reasoning chain "quantum computing"
  deepresearch reasoning summary
  deepresearch reasoning export reasoning_export.json`,
}

// reasoningEntriesCmd lists filtered entries.
var reasoningEntriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List reasoning entries with optional filters",
	RunE:  runReasoningEntries,
}

// reasoningChainCmd shows prompt/reasoning/decision triples for a topic.
var reasoningChainCmd = &cobra.Command{
	Use:   "chain TOPIC",
	Short: "Show the reasoning chain for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runReasoningChain,
}

// reasoningSummaryCmd aggregates the log.
var reasoningSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show aggregate statistics for the log",
	RunE:  runReasoningSummary,
}

// reasoningExportCmd writes the log to a file.
var reasoningExportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Export the log to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runReasoningExport,
}

// reasoningClearCmd removes entries.
var reasoningClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear entries from the log",
	RunE:  runReasoningClear,
}

func init() {
	reasoningCmd.PersistentFlags().StringVar(&reasoningSession, "session", "",
		"Restrict to one session id")
	reasoningCmd.PersistentFlags().BoolVar(&reasoningJSON, "json", false,
		"Output as JSON for scripting")

	reasoningEntriesCmd.Flags().StringVar(&reasoningAgent, "agent", "",
		"Filter by agent name")
	reasoningEntriesCmd.Flags().StringVar(&reasoningLevel, "level", "",
		"Filter by level: info, debug, warning, error")
	reasoningEntriesCmd.Flags().IntVar(&reasoningLimit, "limit", 0,
		"Return only the most recent N entries (0 = all)")

	reasoningCmd.AddCommand(reasoningEntriesCmd)
	reasoningCmd.AddCommand(reasoningChainCmd)
	reasoningCmd.AddCommand(reasoningSummaryCmd)
	reasoningCmd.AddCommand(reasoningExportCmd)
	reasoningCmd.AddCommand(reasoningClearCmd)
}

func runReasoningEntries(cmd *cobra.Command, args []string) error {
	log, err := buildReasoningOnly(cfg)
	if err != nil {
		return err
	}

	var entries []cot.Entry
	if reasoningSession != "" {
		entries = filterEntries(log.SessionEntries(reasoningSession))
	} else {
		entries = log.Entries(cot.EntryFilter{
			Agent: reasoningAgent,
			Level: cot.Level(reasoningLevel),
			Limit: reasoningLimit,
		})
	}
	if reasoningJSON {
		return printJSON(entries)
	}
	for _, e := range entries {
		printEntry(e)
	}
	fmt.Printf("%d entries\n", len(entries))
	return nil
}

func runReasoningChain(cmd *cobra.Command, args []string) error {
	log, err := buildReasoningOnly(cfg)
	if err != nil {
		return err
	}

	chain := log.ReasoningChain(strings.Join(args, " "))
	if reasoningJSON {
		return printJSON(chain)
	}
	for i, e := range chain {
		fmt.Printf("Step %d [%s]\n", i+1, e.Agent)
		fmt.Printf("  Prompt:    %s\n", e.InputPrompt)
		fmt.Printf("  Reasoning: %s\n", e.Reasoning)
		if e.Decision != "" {
			fmt.Printf("  Decision:  %s\n", e.Decision)
		}
	}
	fmt.Printf("%d steps\n", len(chain))
	return nil
}

func runReasoningSummary(cmd *cobra.Command, args []string) error {
	log, err := buildReasoningOnly(cfg)
	if err != nil {
		return err
	}

	summary := log.CreateSummary(reasoningSession)
	if reasoningJSON {
		return printJSON(summary)
	}
	fmt.Printf("Total steps:        %d\n", summary.TotalSteps)
	fmt.Printf("Agents involved:    %s\n", strings.Join(summary.AgentsInvolved, ", "))
	fmt.Printf("Tools used:         %s\n", strings.Join(summary.ToolsUsed, ", "))
	fmt.Printf("Average confidence: %.2f\n", summary.AverageConfidence)
	fmt.Printf("Time span:          %s\n", summary.TimeSpan)
	fmt.Printf("Key decisions:      %d\n", len(summary.KeyDecisions))
	for _, d := range summary.KeyDecisions {
		fmt.Printf("  - [%s] %s (%.2f)\n", d.Agent, d.Decision, d.Confidence)
	}
	return nil
}

func runReasoningExport(cmd *cobra.Command, args []string) error {
	log, err := buildReasoningOnly(cfg)
	if err != nil {
		return err
	}

	if err := log.ExportToJSON(args[0], reasoningSession); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Printf("Exported to %s\n", args[0])
	return nil
}

func runReasoningClear(cmd *cobra.Command, args []string) error {
	log, err := buildReasoningOnly(cfg)
	if err != nil {
		return err
	}

	cleared := log.ClearLogs(reasoningSession)
	fmt.Printf("Cleared %d entries\n", cleared)
	return nil
}

// filterEntries applies the agent/level/limit flags to a pre-scoped
// entry slice.
func filterEntries(entries []cot.Entry) []cot.Entry {
	matched := make([]cot.Entry, 0, len(entries))
	for _, e := range entries {
		if reasoningAgent != "" && e.Agent != reasoningAgent {
			continue
		}
		if reasoningLevel != "" && e.Level != cot.Level(reasoningLevel) {
			continue
		}
		matched = append(matched, e)
	}
	if reasoningLimit > 0 && len(matched) > reasoningLimit {
		matched = matched[len(matched)-reasoningLimit:]
	}
	return matched
}

func printEntry(e cot.Entry) {
	fmt.Printf("[%s] %s (%s, confidence %.2f)\n", e.Timestamp, e.Agent, e.Level, e.Confidence)
	fmt.Printf("  Prompt:    %s\n", e.InputPrompt)
	fmt.Printf("  Reasoning: %s\n", e.Reasoning)
	if e.Decision != "" {
		fmt.Printf("  Decision:  %s\n", e.Decision)
	}
	for _, call := range e.ToolCalls {
		status := "ok"
		if !call.Success {
			status = "failed"
		}
		fmt.Printf("  Tool:      %s (%s, %.2fs)\n", call.ToolName, status, call.ExecutionTime)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
