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
	"fmt"
	"net/http"
	"regexp"
	"unicode/utf8"
)

// Field constraints, counted in characters, not bytes — German copy is
// full of multi-byte umlauts. Validation runs before any external call;
// a request that fails here never touches the lookup store, the crew
// engine, or the LLM provider.
const (
	maxTopicLength     = 500
	maxStyleLength     = 100
	maxTransformLength = 10000
)

var languagePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Transformation kinds accepted by the transform-text endpoint.
const (
	TransformExtend   = "extend"
	TransformShorten  = "shorten"
	TransformRephrase = "rephrase"
)

// ValidTransformations enumerates the transformation kinds, in the order
// they must appear in the prompt configuration.
var ValidTransformations = []string{TransformExtend, TransformShorten, TransformRephrase}

// TopicRequest is a content-generation request. Immutable once validated.
type TopicRequest struct {
	Topic       string `json:"topic"`
	Language    string `json:"language"`
	Address     string `json:"address,omitempty"`
	Mood        string `json:"mood,omitempty"`
	Perspective string `json:"perspective,omitempty"`
}

// Validate applies the declared constraints and reports the first
// offending field.
func (r *TopicRequest) Validate() error {
	if n := utf8.RuneCountInString(r.Topic); n < 1 || n > maxTopicLength {
		return NewValidationError("topic", fmt.Sprintf("must be between 1 and %d characters", maxTopicLength))
	}
	if !languagePattern.MatchString(r.Language) {
		return NewValidationError("language", "must be a two-letter uppercase code (e.g. DE, EN)")
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"address", r.Address},
		{"mood", r.Mood},
		{"perspective", r.Perspective},
	} {
		if utf8.RuneCountInString(f.value) > maxStyleLength {
			return NewValidationError(f.name, fmt.Sprintf("must be at most %d characters", maxStyleLength))
		}
	}
	return nil
}

// TextTransformRequest is a text-rewrite request. Immutable once validated.
type TextTransformRequest struct {
	Text           string `json:"text"`
	Transformation string `json:"transformation"`
}

// Validate applies the declared constraints. An unknown transformation is
// reported as 400 rather than 422, matching the external contract.
func (r *TextTransformRequest) Validate() error {
	if r.Text == "" {
		return NewValidationError("text", "must not be empty")
	}
	if utf8.RuneCountInString(r.Text) > maxTransformLength {
		return NewValidationError("text", fmt.Sprintf("must be at most %d characters", maxTransformLength))
	}
	if !isValidTransformation(r.Transformation) {
		err := NewValidationError("transformation", fmt.Sprintf("must be one of %v", ValidTransformations))
		err.Status = http.StatusBadRequest
		return err
	}
	return nil
}

func isValidTransformation(name string) bool {
	for _, t := range ValidTransformations {
		if name == t {
			return true
		}
	}
	return false
}
