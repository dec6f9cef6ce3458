// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gateway

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/contentgateway/gateway/llm"
)

// The upstream post objects must survive normalization byte-for-byte,
// German keys and key order included.
func TestNormalizeGeneration_StructuredPassthrough(t *testing.T) {
	doc := `{"posts":[{"titel":"Herbstaktion","text":"Jetzt zugreifen!"},{"titel":"Zweiter Post","text":"Mehr dazu im Shop."}],"meta":"ignored"}`

	result, err := NormalizeGeneration(DispatchOutcome{
		Kind:     OutcomeStructured,
		Document: json.RawMessage(doc),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"titel":"Herbstaktion","text":"Jetzt zugreifen!"},{"titel":"Zweiter Post","text":"Mehr dazu im Shop."}]`,
		string(result.Posts),
	)
}

func TestNormalizeGeneration_EmptyPostsArrayIsSuccess(t *testing.T) {
	result, err := NormalizeGeneration(DispatchOutcome{
		Kind:     OutcomeStructured,
		Document: json.RawMessage(`{"posts":[]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(result.Posts))
}

func TestNormalizeGeneration_MissingPosts(t *testing.T) {
	for _, doc := range []string{`{}`, `{"posts":null}`, `{"result":"done"}`} {
		_, err := NormalizeGeneration(DispatchOutcome{
			Kind:     OutcomeStructured,
			Document: json.RawMessage(doc),
		})
		assert.ErrorIs(t, err, ErrNoPosts, doc)
	}
}

func TestNormalizeGeneration_RawTextWithEncodedDocument(t *testing.T) {
	encoded, err := json.Marshal(`{"posts":[{"titel":"A","text":"B"}]}`)
	require.NoError(t, err)

	result, err := NormalizeGeneration(DispatchOutcome{
		Kind: OutcomeRawText,
		Text: string(encoded),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"titel":"A","text":"B"}]`, string(result.Posts))
}

func TestNormalizeGeneration_RawTextUnparseable(t *testing.T) {
	_, err := NormalizeGeneration(DispatchOutcome{
		Kind: OutcomeRawText,
		Text: "The crew could not produce a result.",
	})
	assert.ErrorIs(t, err, ErrNoPosts)
}

func TestNormalizeGeneration_FailurePropagates(t *testing.T) {
	cause := NewTimeoutError("generation", nil)
	_, err := NormalizeGeneration(DispatchOutcome{Kind: OutcomeFailure, Err: cause})
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestNormalizeTransform_TrimsWhitespace(t *testing.T) {
	result, err := NormalizeTransform(&llm.CompletionResponse{Content: "\n  Der neue Text.  \n\n"})
	require.NoError(t, err)
	assert.Equal(t, "Der neue Text.", result.TransformedText)
}

func TestNormalizeTransform_NilResponse(t *testing.T) {
	_, err := NormalizeTransform(nil)
	assert.ErrorIs(t, err, ErrDependency)
}
