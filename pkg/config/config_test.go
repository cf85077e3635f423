// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func mapLookup(env map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), mapLookup(nil))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Research.MaxResultsPerSource != 10 ||
			cfg.Memory.LongTermBackend != "memory" ||
			cfg.Logging.ChainOfThoughtFile != "logs/chain_of_thought.json" {
			t.Errorf("defaults not applied: %+v", cfg)
		}
		if !*cfg.Research.ParallelResearch {
			t.Error("parallel research should default on")
		}
	})

	t.Run("file values are read", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := `
api:
  openai_model: gpt-4o
research:
  max_results_per_source: 3
  parallel_research: false
memory:
  long_term_backend: badger
  badger_path: /tmp/memdb
`
		if err := os.WriteFile(path, []byte(body), 0640); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path, mapLookup(nil))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.API.OpenAIModel != "gpt-4o" ||
			cfg.Research.MaxResultsPerSource != 3 ||
			cfg.Memory.LongTermBackend != "badger" {
			t.Errorf("file values not applied: %+v", cfg)
		}
		if *cfg.Research.ParallelResearch {
			t.Error("explicit false should survive defaulting")
		}
	})

	t.Run("environment overrides credentials", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("api:\n  serpapi_key: from-file\n"), 0640); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path, mapLookup(map[string]string{
			"SERPAPI_KEY":    "from-env",
			"OPENAI_API_KEY": "openai-env",
		}))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.API.SerpAPIKey != "from-env" || cfg.API.OpenAIKey != "openai-env" {
			t.Errorf("env overrides not applied: %+v", cfg.API)
		}
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("api: [not a map"), 0640); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, mapLookup(nil)); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("research:\n  max_results_per_source: 99\n"), 0640); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, mapLookup(nil)); err == nil {
			t.Error("expected a validation error")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("weaviate backend requires a url", func(t *testing.T) {
		cfg := Default()
		cfg.Memory.LongTermBackend = "weaviate"
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for missing weaviate_url")
		}
		cfg.Memory.WeaviateURL = "http://localhost:8080"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		cfg := Default()
		cfg.Memory.LongTermBackend = "pinecone"
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for unknown backend")
		}
	})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, mapLookup(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.MaxEntries != 1000 {
		t.Errorf("written defaults do not round-trip: %+v", cfg)
	}
}
