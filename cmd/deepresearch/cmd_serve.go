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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/deepresearch/services/orchestrator"
)

var (
	servePort int
)

// serveCmd exposes the research pipeline over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the research HTTP server",
	Long: `Start an HTTP server exposing the research pipeline and the
chain-of-thought inspection endpoints.

Routes:
  POST   /v1/research                        - run the pipeline for a topic
  GET    /v1/reasoning/entries               - filtered reasoning entries
  GET    /v1/reasoning/sessions/:session_id  - entries for one session
  GET    /v1/reasoning/chain                 - prompt/reasoning/decision chain
  GET    /v1/reasoning/summary               - aggregate log statistics
  POST   /v1/reasoning/export                - export the log to a file
  DELETE /v1/reasoning/entries               - clear the log
  POST   /v1/reasoning/sessions              - start a new session

Example:
  deepresearch serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer application.close()

	router := gin.Default()
	orchestrator.SetupRoutes(router, application.manager, application.cot)

	addr := fmt.Sprintf(":%d", servePort)
	application.diag.Info("starting http server", "addr", addr)
	return router.Run(addr)
}
