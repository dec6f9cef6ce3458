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

// Package crew is the HTTP client for the external agent-orchestration
// engine. The engine is a black box: it receives a bag of named inputs
// and returns a structured or JSON-encoded result after a multi-step run.
package crew

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Inputs is the named input bag for a generation run.
type Inputs struct {
	Topic       string   `json:"topic"`
	Language    string   `json:"language"`
	AvoidWords  []string `json:"avoid_words"`
	Hooks       []string `json:"hooks"`
	CTAs        []string `json:"ctas"`
	Address     string   `json:"address,omitempty"`
	Mood        string   `json:"mood,omitempty"`
	Perspective string   `json:"perspective,omitempty"`
}

// Result carries the engine's response in both forms: the raw body, and
// the decoded JSON object when the body is one. Callers decide which
// form to consume; see the gateway dispatcher's tagged outcome.
type Result struct {
	Raw  string
	JSON map[string]interface{}
}

// HTTPClient is an interface for HTTP client operations (enables testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the orchestration engine's kickoff endpoint. Safe for
// concurrent use; one instance is shared process-wide.
type Client struct {
	endpoint   string
	httpClient HTTPClient
}

// NewClient creates a crew client for the given engine endpoint.
// The underlying http.Client carries no global timeout: generation runs
// are long (minutes) and the per-request deadline is owned by the
// caller's context.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewClientWithHTTPClient creates a crew client with a custom HTTP client.
func NewClientWithHTTPClient(endpoint string, httpClient HTTPClient) *Client {
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// IsConfigured reports whether an engine endpoint is set.
func (c *Client) IsConfigured() bool {
	return c.endpoint != ""
}

// Kickoff starts a generation run and waits for its result. The context
// deadline bounds the local wait only: once dispatched, the run cannot be
// aborted upstream, and cancelling here abandons it fire-and-forget.
func (c *Client) Kickoff(ctx context.Context, inputs Inputs) (*Result, error) {
	body, err := json.Marshal(map[string]interface{}{"inputs": inputs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal crew inputs: %w", err)
	}

	url := c.endpoint + "/kickoff"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create crew request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("crew kickoff request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read crew response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("crew engine returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	result := &Result{Raw: string(respBody)}

	// Opportunistic decode: the engine returns either a JSON object or a
	// plain (possibly JSON-encoded) string. A failed decode is not an
	// error here; the raw form remains available.
	var decoded map[string]interface{}
	if err := json.Unmarshal(respBody, &decoded); err == nil {
		result.JSON = decoded
	}

	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
