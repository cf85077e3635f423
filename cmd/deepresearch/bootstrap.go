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

	"github.com/AleutianAI/deepresearch/pkg/config"
	"github.com/AleutianAI/deepresearch/pkg/logging"
	"github.com/AleutianAI/deepresearch/pkg/prompts"
	"github.com/AleutianAI/deepresearch/services/cot"
	"github.com/AleutianAI/deepresearch/services/llm"
	"github.com/AleutianAI/deepresearch/services/memory"
	"github.com/AleutianAI/deepresearch/services/orchestrator"
	"github.com/AleutianAI/deepresearch/services/tools"
)

// app holds the wired components for one process. The single cot
// logger is constructed here and handed to everything that reasons.
type app struct {
	cot      *cot.Logger
	manager  *orchestrator.Manager
	longTerm memory.Store
	diag     *logging.Logger
}

// buildApp wires the full pipeline from configuration.
func buildApp(cfg config.Config) (*app, error) {
	diag, err := buildDiag(cfg)
	if err != nil {
		return nil, err
	}

	cotLogger := cot.New(cot.Config{
		LogFile:    cfg.Logging.ChainOfThoughtFile,
		MaxEntries: cfg.Logging.MaxEntries,
		Diag:       diag,
	})

	if cfg.API.OpenAIKey == "" {
		return nil, fmt.Errorf("openai api key is not configured (set OPENAI_API_KEY)")
	}
	llmClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey: cfg.API.OpenAIKey,
		Model:  cfg.API.OpenAIModel,
		Diag:   diag,
	})
	if err != nil {
		return nil, err
	}

	longTerm, err := buildLongTerm(cfg)
	if err != nil {
		return nil, err
	}

	researcherCfg := orchestrator.ResearcherConfig{
		Parallel: *cfg.Research.ParallelResearch,
	}
	if cfg.API.SerpAPIKey != "" {
		web, err := tools.NewWebSearchClient(tools.WebSearchConfig{
			APIKey:     cfg.API.SerpAPIKey,
			MaxResults: cfg.Research.MaxResultsPerSource,
		})
		if err != nil {
			return nil, err
		}
		researcherCfg.Web = web
	} else {
		diag.Warn("serpapi key not configured, web search disabled")
	}
	if *cfg.Research.IncludeAcademicSources {
		researcherCfg.Academic = tools.NewAcademicSearchClient(tools.AcademicSearchConfig{
			PubMedAPIKey: cfg.API.PubMedAPIKey,
			MaxResults:   cfg.Research.MaxResultsPerSource,
		})
	}

	promptMgr := prompts.NewManager()
	manager, err := orchestrator.NewManager(orchestrator.ManagerConfig{
		Planner:    orchestrator.NewPlanner(llmClient, promptMgr, cfg.Research.MaxSections),
		Researcher: orchestrator.NewResearcher(llmClient, promptMgr, researcherCfg),
		Writer:     orchestrator.NewWriter(llmClient, promptMgr),
		CoT:        cotLogger,
		LongTerm:   longTerm,
		Buffer: memory.NewConversationBuffer(memory.BufferConfig{
			MaxMessages: cfg.Memory.ShortTermMaxMessages,
		}),
		Diag: diag,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cot:      cotLogger,
		manager:  manager,
		longTerm: longTerm,
		diag:     diag,
	}, nil
}

// buildReasoningOnly wires just the chain-of-thought logger, for
// commands that inspect the log without running research.
func buildReasoningOnly(cfg config.Config) (*cot.Logger, error) {
	diag, err := buildDiag(cfg)
	if err != nil {
		return nil, err
	}
	return cot.New(cot.Config{
		LogFile:    cfg.Logging.ChainOfThoughtFile,
		MaxEntries: cfg.Logging.MaxEntries,
		Diag:       diag,
	}), nil
}

func buildDiag(cfg config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: "deepresearch",
	}), nil
}

func buildLongTerm(cfg config.Config) (memory.Store, error) {
	switch cfg.Memory.LongTermBackend {
	case "memory":
		return memory.NewMemStore(), nil
	case "badger":
		return memory.NewBadgerStore(memory.BadgerConfig{
			Path:       cfg.Memory.BadgerPath,
			SyncWrites: true,
		})
	case "weaviate":
		return memory.NewWeaviateStore(memory.WeaviateConfig{
			URL: cfg.Memory.WeaviateURL,
		})
	default:
		return nil, fmt.Errorf("unknown long-term backend %q", cfg.Memory.LongTermBackend)
	}
}

func (a *app) close() {
	if a.longTerm != nil {
		if err := a.longTerm.Close(); err != nil {
			a.diag.Warn("failed to close long-term store", "error", err.Error())
		}
	}
	_ = a.diag.Close()
}
