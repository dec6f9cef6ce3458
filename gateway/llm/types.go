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

// Package llm provides the unified interface and types for the LLM
// completion providers used by the content gateway's single-turn
// transform call.
package llm

import "time"

// ProviderType identifies the type of LLM provider.
type ProviderType string

const (
	// ProviderTypeOpenAI represents OpenAI's GPT models.
	ProviderTypeOpenAI ProviderType = "openai"

	// ProviderTypeBedrock represents AWS Bedrock managed models.
	ProviderTypeBedrock ProviderType = "bedrock"
)

// CompletionRequest encapsulates the parameters for a completion call.
type CompletionRequest struct {
	// Prompt is the user message (the composed template).
	Prompt string `json:"prompt"`

	// SystemPrompt sets the model's role for the call.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	// MaxTokens limits the response length. 0 means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness. 0 means provider default.
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse contains the result of a completion call.
type CompletionResponse struct {
	// Content is the generated text, untrimmed. The normalizer owns
	// whitespace handling.
	Content string `json:"content"`

	// Model is the model that actually served the request.
	Model string `json:"model"`

	// Usage contains token usage statistics.
	Usage UsageStats `json:"usage"`

	// Latency is the time taken to generate the response.
	Latency time.Duration `json:"latency"`
}

// UsageStats tracks token usage for monitoring.
type UsageStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
