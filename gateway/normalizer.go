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
	"bytes"
	"encoding/json"
	"strings"

	"axonflow/contentgateway/gateway/llm"
)

// GenerationResult is the canonical success shape of the generation
// endpoint. Posts is the upstream post array passed through verbatim
// (the engine's own keys, e.g. "titel"/"text", are preserved). It is
// never null: absence of posts upstream is an error, not an empty
// success.
type GenerationResult struct {
	Posts json.RawMessage `json:"posts"`
}

// TransformResult is the canonical success shape of the transform
// endpoint.
type TransformResult struct {
	TransformedText string `json:"transformed_text"`
}

// NormalizeGeneration reduces a dispatch outcome to the canonical posts
// shape with one exhaustive match over the outcome kind.
func NormalizeGeneration(outcome DispatchOutcome) (*GenerationResult, error) {
	switch outcome.Kind {
	case OutcomeStructured:
		return extractPosts(outcome.Document)
	case OutcomeRawText:
		// The engine sometimes returns its result document JSON-encoded
		// as a string; unwrap one level of quoting before extraction. A
		// parse failure here means no usable output.
		trimmed := strings.TrimSpace(outcome.Text)
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
			trimmed = strings.TrimSpace(inner)
		}
		if !json.Valid([]byte(trimmed)) {
			return nil, NewNoPostsError()
		}
		return extractPosts(json.RawMessage(trimmed))
	case OutcomeFailure:
		return nil, outcome.Err
	default:
		return nil, NewNoPostsError()
	}
}

// extractPosts pulls the posts array out of an engine result document,
// preserving its bytes.
func extractPosts(doc json.RawMessage) (*GenerationResult, error) {
	var envelope struct {
		Posts json.RawMessage `json:"posts"`
	}
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, NewNoPostsError()
	}
	if len(envelope.Posts) == 0 || bytes.Equal(envelope.Posts, []byte("null")) {
		return nil, NewNoPostsError()
	}
	return &GenerationResult{Posts: envelope.Posts}, nil
}

// NormalizeTransform reduces a completion to the canonical transform
// shape, trimming surrounding whitespace.
func NormalizeTransform(resp *llm.CompletionResponse) (*TransformResult, error) {
	if resp == nil {
		return nil, NewDependencyError("LLM returned no completion", nil)
	}
	return &TransformResult{TransformedText: strings.TrimSpace(resp.Content)}, nil
}
