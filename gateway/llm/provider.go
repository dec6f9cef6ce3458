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

package llm

import "context"

// Provider is the unified interface for LLM completion providers.
// Implementations must be safe for concurrent use; a single instance is
// shared across all in-flight requests.
type Provider interface {
	// Name returns the unique identifier for this provider instance.
	Name() string

	// Type returns the provider type (e.g. "openai", "bedrock").
	Type() ProviderType

	// Complete generates a single-turn completion for the given request.
	// The context owns cancellation and the deadline.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// HealthCheck verifies the provider is operational. It should
	// complete within a short timeout and must not consume tokens.
	HealthCheck(ctx context.Context) error
}
