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

// Package bedrock provides the LLM provider implementation for AWS
// Bedrock via the AWS SDK v2, using Signature V4 authentication through
// IAM roles rather than API keys.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"axonflow/contentgateway/gateway/llm"
)

const (
	// DefaultRegion is used when no Bedrock region is configured
	DefaultRegion = "us-east-1"

	// DefaultModel is the default Bedrock model ID
	DefaultModel = "anthropic.claude-3-5-sonnet-20240620-v1:0"

	// anthropicVersion is the Bedrock message-format version for
	// Anthropic model families
	anthropicVersion = "bedrock-2023-05-31"

	// defaultMaxTokens bounds completions when the caller sets none
	defaultMaxTokens = 4096
)

// InvokeAPI is the subset of the Bedrock runtime client used by the
// provider (enables testing).
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Provider implements the LLM provider interface for AWS Bedrock
type Provider struct {
	client InvokeAPI
	region string
	model  string
}

// Config contains configuration for the Bedrock provider
type Config struct {
	Region string // Optional: AWS region (default: us-east-1)
	Model  string // Optional: Bedrock model ID (default: Claude 3.5 Sonnet)
}

// NewProvider creates a new Bedrock provider. Returns an error if AWS
// config loading fails; callers should surface this rather than fall
// back silently.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for Bedrock (region: %s): %w", cfg.Region, err)
	}

	return &Provider{
		client: bedrockruntime.NewFromConfig(awsCfg),
		region: cfg.Region,
		model:  cfg.Model,
	}, nil
}

// NewProviderWithClient creates a Bedrock provider with a custom runtime
// client.
func NewProviderWithClient(client InvokeAPI, region, model string) *Provider {
	if region == "" {
		region = DefaultRegion
	}
	if model == "" {
		model = DefaultModel
	}
	return &Provider{client: client, region: region, model: model}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "bedrock"
}

// Type returns the provider type
func (p *Provider) Type() llm.ProviderType {
	return llm.ProviderTypeBedrock
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	System           string             `json:"system,omitempty"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete invokes the configured Bedrock model with the Anthropic
// message format.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		System:           req.SystemPrompt,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bedrock request: %w", err)
	}

	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock API error: %w", err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bedrock response: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("bedrock returned no completion content")
	}

	return &llm.CompletionResponse{
		Content: resp.Content[0].Text,
		Model:   model,
		Usage: llm.UsageStats{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		Latency: time.Since(start),
	}, nil
}

// HealthCheck verifies the provider has a usable client. Bedrock has no
// token-free ping endpoint; IAM/connectivity failures surface on the
// first Complete call.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("bedrock client not initialized")
	}
	return nil
}
