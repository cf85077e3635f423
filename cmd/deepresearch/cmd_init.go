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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/deepresearch/pkg/config"
)

// initCmd writes a starter config file for a first run.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a default configuration file to the --config path so a first
run has something to edit. Refuses to overwrite an existing file.

API keys are read from the environment (OPENAI_API_KEY, SERPAPI_KEY,
PUBMED_API_KEY) and never need to live in the file.

Example:
  deepresearch init --config config.yaml`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("config file %s already exists; remove it first", cfgPath)
	}
	if err := config.WriteDefault(cfgPath); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	fmt.Printf("Wrote default config to %s\n", cfgPath)
	return nil
}
