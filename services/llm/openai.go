// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/deepresearch/pkg/logging"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	// APIKey is the OpenAI key. Required.
	APIKey string

	// Model is the chat model to use.
	// Default: gpt-4o-mini
	Model string

	// SystemPrompt is prepended to every generation.
	// Default: "You are a research assistant."
	SystemPrompt string

	// BaseURL overrides the API endpoint for compatible servers.
	BaseURL string

	// Diag is the diagnostic logger.
	// Default: logging.Default()
	Diag *logging.Logger
}

func (c *OpenAIConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = defaultOpenAIModel
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = "You are a research assistant."
	}
	if c.Diag == nil {
		c.Diag = logging.Default()
	}
}

// OpenAIClient generates text through the OpenAI chat API.
type OpenAIClient struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAIClient validates the config and builds a client.
func NewOpenAIClient(config OpenAIConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	config.applyDefaults()

	clientCfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientCfg.BaseURL = config.BaseURL
	}

	config.Diag.Info("initializing openai client", "model", config.Model)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		config: config,
	}, nil
}

// Generate implements the Client interface.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	o.config.Diag.Debug("generating text via openai", "model", o.config.Model)

	req := openai.ChatCompletionRequest{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.config.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.config.Diag.Error("openai api call failed", "error", err.Error())
		return "", fmt.Errorf("openai api call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	o.config.Diag.Debug("received openai response",
		"finish_reason", string(resp.Choices[0].FinishReason))
	return resp.Choices[0].Message.Content, nil
}
