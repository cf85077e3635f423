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
	"sync"
)

// StubClient is a deterministic Client for tests and offline runs.
//
// Responses are returned in order; when they run out, the last one
// repeats. Prompts are recorded for assertions.
type StubClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

// NewStubClient returns a stub that replies with the given responses.
func NewStubClient(responses ...string) *StubClient {
	if len(responses) == 0 {
		responses = []string{""}
	}
	return &StubClient{responses: responses}
}

// NewFailingStubClient returns a stub whose Generate always fails.
func NewFailingStubClient(err error) *StubClient {
	return &StubClient{err: err}
}

// Generate implements the Client interface.
func (s *StubClient) Generate(ctx context.Context, prompt string, _ GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}

	s.prompts = append(s.prompts, prompt)
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

// Prompts returns the prompts Generate has seen, in order.
func (s *StubClient) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}
