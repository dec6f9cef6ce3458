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

import (
	"context"
	"fmt"
	"log"
	"os"
)

// Config holds the provider credentials read from the environment.
// Exactly one configured provider is selected at startup; OpenAI wins
// when both are configured.
type Config struct {
	OpenAIKey          string
	OpenAIKeySecretARN string
	OpenAIModel        string
	BedrockRegion      string
	BedrockModel       string
	AWSRegion          string
}

// LoadConfigFromEnv reads provider configuration from the environment.
func LoadConfigFromEnv() Config {
	return Config{
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIKeySecretARN: os.Getenv("OPENAI_API_KEY_SECRET_ARN"),
		OpenAIModel:        os.Getenv("OPENAI_MODEL"),
		BedrockRegion:      os.Getenv("BEDROCK_REGION"),
		BedrockModel:       os.Getenv("BEDROCK_MODEL"),
		AWSRegion:          os.Getenv("AWS_REGION"),
	}
}

// Configured reports whether any provider credentials are present.
func (c Config) Configured() bool {
	return c.OpenAIKey != "" || c.OpenAIKeySecretARN != "" || c.BedrockRegion != ""
}

// ProviderFactory builds a Provider from configuration. openaiBuilder
// and bedrockBuilder are indirection points for tests; production code
// uses NewProviderFromConfig.
type ProviderFactory struct {
	OpenAIBuilder  func(apiKey, model string) (Provider, error)
	BedrockBuilder func(ctx context.Context, region, model string) (Provider, error)
	SecretResolver func(ctx context.Context, arn, region string) (string, error)
}

// NewFromConfig selects and constructs the provider for the given
// configuration. Resolution order: OpenAI (direct key, then Secrets
// Manager ARN), then Bedrock. No provider configured is an error — the
// caller fails fast at startup rather than serving requests that can
// only 500.
func (f *ProviderFactory) NewFromConfig(ctx context.Context, cfg Config) (Provider, error) {
	apiKey := cfg.OpenAIKey
	if apiKey == "" && cfg.OpenAIKeySecretARN != "" {
		resolved, err := f.SecretResolver(ctx, cfg.OpenAIKeySecretARN, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve OpenAI API key from Secrets Manager: %w", err)
		}
		apiKey = resolved
	}

	if apiKey != "" {
		provider, err := f.OpenAIBuilder(apiKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		log.Printf("[LLM] OpenAI provider selected (model: %s)", orDefault(cfg.OpenAIModel, "default"))
		return provider, nil
	}

	if cfg.BedrockRegion != "" {
		provider, err := f.BedrockBuilder(ctx, cfg.BedrockRegion, cfg.BedrockModel)
		if err != nil {
			return nil, err
		}
		log.Printf("[LLM] Bedrock provider selected (region: %s, model: %s)",
			cfg.BedrockRegion, orDefault(cfg.BedrockModel, "default"))
		return provider, nil
	}

	return nil, fmt.Errorf("no LLM provider configured: set OPENAI_API_KEY, OPENAI_API_KEY_SECRET_ARN, or BEDROCK_REGION")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
