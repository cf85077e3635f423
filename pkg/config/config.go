// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the research assistant's configuration from a
// YAML file with environment-variable overrides for credentials.
//
// The loaded Config is passed explicitly to the components that need
// it; there is no global singleton.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// APIConfig holds the external service credentials.
type APIConfig struct {
	// SerpAPIKey authorizes web search. Required for web research.
	// Env override: SERPAPI_KEY
	SerpAPIKey string `yaml:"serpapi_key"`

	// OpenAIKey authorizes text generation. Required.
	// Env override: OPENAI_API_KEY
	OpenAIKey string `yaml:"openai_api_key"`

	// OpenAIModel selects the chat model.
	// Env override: OPENAI_MODEL
	OpenAIModel string `yaml:"openai_model"`

	// PubMedAPIKey raises the NCBI rate limit. Optional.
	// Env override: PUBMED_API_KEY
	PubMedAPIKey string `yaml:"pubmed_api_key"`
}

// ResearchConfig tunes the research pipeline.
type ResearchConfig struct {
	// MaxResultsPerSource caps hits per search tool (1-50).
	// Default: 10
	MaxResultsPerSource int `yaml:"max_results_per_source"`

	// MaxSections caps the plan length.
	// Default: 10
	MaxSections int `yaml:"max_sections"`

	// ParallelResearch researches plan sections concurrently.
	// Default: true
	ParallelResearch *bool `yaml:"parallel_research"`

	// IncludeAcademicSources adds arXiv and PubMed to web search.
	// Default: true
	IncludeAcademicSources *bool `yaml:"include_academic_sources"`
}

// MemoryConfig tunes the memory tiers.
type MemoryConfig struct {
	// ShortTermMaxMessages bounds the conversation buffer.
	// Default: 20
	ShortTermMaxMessages int `yaml:"short_term_max_messages"`

	// LongTermBackend selects the long-term store:
	// "memory", "badger", or "weaviate".
	// Default: "memory"
	LongTermBackend string `yaml:"long_term_backend"`

	// BadgerPath is the directory for the badger backend.
	// Default: "memory_db"
	BadgerPath string `yaml:"badger_path"`

	// WeaviateURL is the endpoint for the weaviate backend.
	WeaviateURL string `yaml:"weaviate_url"`
}

// LoggingConfig tunes the reasoning and diagnostic logs.
type LoggingConfig struct {
	// ChainOfThoughtFile is where reasoning entries persist.
	// Default: "logs/chain_of_thought.json"
	ChainOfThoughtFile string `yaml:"chain_of_thought_file"`

	// MaxEntries bounds the reasoning log.
	// Default: 1000
	MaxEntries int `yaml:"max_entries"`

	// Level is the diagnostic log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`
}

// Config is the full application configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Research ResearchConfig `yaml:"research"`
	Memory   MemoryConfig   `yaml:"memory"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Research.MaxResultsPerSource == 0 {
		c.Research.MaxResultsPerSource = 10
	}
	if c.Research.MaxSections == 0 {
		c.Research.MaxSections = 10
	}
	if c.Research.ParallelResearch == nil {
		v := true
		c.Research.ParallelResearch = &v
	}
	if c.Research.IncludeAcademicSources == nil {
		v := true
		c.Research.IncludeAcademicSources = &v
	}
	if c.Memory.ShortTermMaxMessages == 0 {
		c.Memory.ShortTermMaxMessages = 20
	}
	if c.Memory.LongTermBackend == "" {
		c.Memory.LongTermBackend = "memory"
	}
	if c.Memory.BadgerPath == "" {
		c.Memory.BadgerPath = "memory_db"
	}
	if c.Logging.ChainOfThoughtFile == "" {
		c.Logging.ChainOfThoughtFile = "logs/chain_of_thought.json"
	}
	if c.Logging.MaxEntries == 0 {
		c.Logging.MaxEntries = 1000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.Research.MaxResultsPerSource < 1 || c.Research.MaxResultsPerSource > 50 {
		return fmt.Errorf("max_results_per_source must be 1-50, got %d",
			c.Research.MaxResultsPerSource)
	}
	if c.Research.MaxSections < 1 {
		return fmt.Errorf("max_sections must be positive, got %d", c.Research.MaxSections)
	}
	if c.Memory.ShortTermMaxMessages < 1 {
		return fmt.Errorf("short_term_max_messages must be positive, got %d",
			c.Memory.ShortTermMaxMessages)
	}
	switch c.Memory.LongTermBackend {
	case "memory", "badger", "weaviate":
	default:
		return fmt.Errorf("unknown long_term_backend %q", c.Memory.LongTermBackend)
	}
	if c.Memory.LongTermBackend == "weaviate" && c.Memory.WeaviateURL == "" {
		return fmt.Errorf("weaviate_url is required for the weaviate backend")
	}
	if c.Logging.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be positive, got %d", c.Logging.MaxEntries)
	}
	return nil
}

// EnvLookup resolves an environment variable. os.LookupEnv in
// production; tests inject a map-backed lookup.
type EnvLookup func(key string) (string, bool)

// Load reads a YAML config file, applies defaults, overlays
// credential environment variables, and validates.
//
// Description:
//
//	A missing file is not an error; defaults are used. Environment
//	variables always win over file values for credentials, so keys
//	never need to live on disk.
//
// Inputs:
//
//	path   - Config file path; "" skips the file entirely
//	lookup - Environment resolver; nil means os.LookupEnv
//
// Outputs:
//
//	Config - Validated configuration
//	error  - Non-nil if the file is unreadable, malformed, or invalid
func Load(path string, lookup EnvLookup) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyDefaults()

	if v, ok := lookup("SERPAPI_KEY"); ok {
		cfg.API.SerpAPIKey = v
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok {
		cfg.API.OpenAIKey = v
	}
	if v, ok := lookup("OPENAI_MODEL"); ok {
		cfg.API.OpenAIModel = v
	}
	if v, ok := lookup("PUBMED_API_KEY"); ok {
		cfg.API.PubMedAPIKey = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WriteDefault writes the default config to path, creating the parent
// directory. The init command uses this on first run.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0640)
}
