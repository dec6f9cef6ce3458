// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"axonflow/contentgateway/gateway/crew"
	"axonflow/contentgateway/gateway/llm"
)

// DefaultMaxConcurrentGenerations bounds process-wide in-flight crew
// runs. Waiters queue until the request deadline rather than being
// rejected.
const DefaultMaxConcurrentGenerations = 10

// CrewCaller is the dispatcher's view of the orchestration engine
// (enables testing).
type CrewCaller interface {
	Kickoff(ctx context.Context, inputs crew.Inputs) (*crew.Result, error)
}

// OutcomeKind tags a DispatchOutcome.
type OutcomeKind int

const (
	// OutcomeStructured means the engine returned a JSON object.
	OutcomeStructured OutcomeKind = iota

	// OutcomeRawText means the engine returned a non-JSON (or
	// JSON-encoded string) body.
	OutcomeRawText

	// OutcomeFailure means the call failed or timed out.
	OutcomeFailure
)

// DispatchOutcome is the tagged result of a generation call. Exactly one
// of Document, Text, or Err is meaningful, selected by Kind; the
// normalizer performs a single exhaustive match over it instead of
// probing shapes.
type DispatchOutcome struct {
	Kind     OutcomeKind
	Document json.RawMessage
	Text     string
	Err      error
}

// Dispatcher owns the external-call policy: the concurrency ceiling for
// generation runs and the per-call deadlines. It never retries — a
// failed attempt surfaces immediately; retry policy belongs to the
// caller of this API.
type Dispatcher struct {
	crew             CrewCaller
	llm              llm.Provider
	slots            chan struct{}
	generationBudget time.Duration
	transformBudget  time.Duration
}

// NewDispatcher creates a dispatcher with the given collaborators and
// policy knobs. Zero values select the defaults.
func NewDispatcher(crewCaller CrewCaller, provider llm.Provider, maxConcurrent int, generationBudget, transformBudget time.Duration) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentGenerations
	}
	if generationBudget <= 0 {
		generationBudget = 300 * time.Second
	}
	if transformBudget <= 0 {
		transformBudget = 60 * time.Second
	}
	return &Dispatcher{
		crew:             crewCaller,
		llm:              provider,
		slots:            make(chan struct{}, maxConcurrent),
		generationBudget: generationBudget,
		transformBudget:  transformBudget,
	}
}

// mapCallError classifies a failed external call. Caller abandonment
// (client disconnect) is distinct from the deadline expiring; anything
// else is a dependency failure.
func mapCallError(operation string, ctx context.Context, err error) *GatewayError {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return NewCanceledError(operation, err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return NewTimeoutError(operation, err)
	default:
		return NewDependencyError(fmt.Sprintf("%s call failed", operation), err)
	}
}

// Generate runs a multi-step crew generation under the concurrency
// ceiling and the generation deadline. Cancellation is local-only: a
// timed-out run may still complete upstream, fire-and-forget.
func (d *Dispatcher) Generate(ctx context.Context, inputs crew.Inputs) DispatchOutcome {
	ctx, cancel := context.WithTimeout(ctx, d.generationBudget)
	defer cancel()

	// Queue for a slot rather than rejecting; a waiter that hits the
	// deadline before acquiring one fails like a timed-out call.
	select {
	case d.slots <- struct{}{}:
		defer func() { <-d.slots }()
	case <-ctx.Done():
		return DispatchOutcome{Kind: OutcomeFailure, Err: mapCallError("generation", ctx, ctx.Err())}
	}

	generationsInFlight.Inc()
	defer generationsInFlight.Dec()

	result, err := d.crew.Kickoff(ctx, inputs)
	if err != nil {
		crewCalls.WithLabelValues("error").Inc()
		return DispatchOutcome{Kind: OutcomeFailure, Err: mapCallError("generation", ctx, err)}
	}
	crewCalls.WithLabelValues("success").Inc()

	if result.JSON != nil {
		return DispatchOutcome{Kind: OutcomeStructured, Document: json.RawMessage(result.Raw)}
	}
	return DispatchOutcome{Kind: OutcomeRawText, Text: result.Raw}
}

// Transform runs a single-turn completion under the transform deadline.
func (d *Dispatcher) Transform(ctx context.Context, systemPrompt, prompt string) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, d.transformBudget)
	defer cancel()

	resp, err := d.llm.Complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		llmCalls.WithLabelValues(d.llm.Name(), "error").Inc()
		return nil, mapCallError("transformation", ctx, err)
	}
	llmCalls.WithLabelValues(d.llm.Name(), "success").Inc()

	return resp, nil
}
