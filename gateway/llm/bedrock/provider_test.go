// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/contentgateway/gateway/llm"
)

type fakeInvokeAPI struct {
	input  *bedrockruntime.InvokeModelInput
	output *bedrockruntime.InvokeModelOutput
	err    error
}

func (f *fakeInvokeAPI) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	return f.output, f.err
}

func TestNewProviderWithClient_Defaults(t *testing.T) {
	p := NewProviderWithClient(&fakeInvokeAPI{}, "", "")

	assert.Equal(t, "bedrock", p.Name())
	assert.Equal(t, llm.ProviderTypeBedrock, p.Type())
	assert.Equal(t, DefaultRegion, p.region)
	assert.Equal(t, DefaultModel, p.model)
}

func TestComplete_Success(t *testing.T) {
	fake := &fakeInvokeAPI{
		output: &bedrockruntime.InvokeModelOutput{
			Body: []byte(`{
				"content": [{"text": "umgeschriebener Text"}],
				"stop_reason": "end_turn",
				"usage": {"input_tokens": 20, "output_tokens": 5}
			}`),
		},
	}
	p := NewProviderWithClient(fake, "eu-central-1", "")

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		Prompt:       "Formuliere um: hallo",
		SystemPrompt: "Du bist ein Experte für Textoptimierung.",
	})

	require.NoError(t, err)
	assert.Equal(t, "umgeschriebener Text", resp.Content)
	assert.Equal(t, DefaultModel, resp.Model)
	assert.Equal(t, 25, resp.Usage.TotalTokens)

	require.NotNil(t, fake.input)
	assert.Equal(t, DefaultModel, *fake.input.ModelId)

	var sent anthropicRequest
	require.NoError(t, json.Unmarshal(fake.input.Body, &sent))
	assert.Equal(t, anthropicVersion, sent.AnthropicVersion)
	assert.Equal(t, "Du bist ein Experte für Textoptimierung.", sent.System)
	assert.Equal(t, defaultMaxTokens, sent.MaxTokens)
	require.Len(t, sent.Messages, 1)
	assert.Equal(t, "user", sent.Messages[0].Role)
}

func TestComplete_ModelOverride(t *testing.T) {
	fake := &fakeInvokeAPI{
		output: &bedrockruntime.InvokeModelOutput{
			Body: []byte(`{"content": [{"text": "ok"}], "usage": {}}`),
		},
	}
	p := NewProviderWithClient(fake, "", "")

	_, err := p.Complete(context.Background(), llm.CompletionRequest{
		Prompt: "hi",
		Model:  "anthropic.claude-3-haiku-20240307-v1:0",
	})

	require.NoError(t, err)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", *fake.input.ModelId)
}

func TestComplete_APIError(t *testing.T) {
	fake := &fakeInvokeAPI{err: errors.New("AccessDeniedException")}
	p := NewProviderWithClient(fake, "", "")

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "bedrock API error")
}

func TestComplete_EmptyContent(t *testing.T) {
	fake := &fakeInvokeAPI{
		output: &bedrockruntime.InvokeModelOutput{Body: []byte(`{"content": [], "usage": {}}`)},
	}
	p := NewProviderWithClient(fake, "", "")

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{Prompt: "hi"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "no completion content")
}

func TestHealthCheck(t *testing.T) {
	p := NewProviderWithClient(&fakeInvokeAPI{}, "", "")
	assert.NoError(t, p.HealthCheck(context.Background()))

	p.client = nil
	assert.Error(t, p.HealthCheck(context.Background()))
}
