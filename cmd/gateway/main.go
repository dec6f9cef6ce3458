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

// Package main is the entry point for the content gateway service.
//
// The gateway is a thin HTTP API in front of two external systems:
// - An agent-orchestration engine that runs multi-step content generation
// - An LLM provider (OpenAI or AWS Bedrock) for single-turn text rewrites
//
// It validates requests, resolves per-language lexicon data from the
// lookup store, dispatches the external calls under concurrency and
// deadline policy, and normalizes the results into stable response shapes.
//
// Usage:
//
//	./gateway
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	API_KEY - shared secret for the X-API-Key header (required)
//	DATABASE_URL - PostgreSQL connection string (required)
//	CREW_ENDPOINT - orchestration engine base URL (required)
//	REDIS_ADDR - Redis address for cross-replica rate limiting (optional)
//	OPENAI_API_KEY - OpenAI API key (one LLM provider is required)
//	OPENAI_API_KEY_SECRET_ARN - Secrets Manager ARN holding the key
//	BEDROCK_REGION - AWS Bedrock region
package main

import (
	"axonflow/contentgateway/gateway"
)

func main() {
	gateway.Run()
}
