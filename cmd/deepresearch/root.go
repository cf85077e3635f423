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
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/deepresearch/pkg/config"
)

var (
	cfgPath string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "deepresearch",
	Short: "Multi-agent research assistant with a chain-of-thought log",
	Long: `deepresearch coordinates planner, researcher, and writer agents to
produce research reports, recording every reasoning step in a bounded,
persistent chain-of-thought log that can be queried, summarized, and
exported.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml",
		"Path to the YAML config file")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(cfgPath, nil)
		if err != nil {
			log.Fatalf("Error loading config %s: %v", cfgPath, err)
		}
		cfg = loaded
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reasoningCmd)
}
