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

// Package gateway implements the content gateway's HTTP surface and
// request pipeline.
//
// A request flows through fixed stages: authentication, rate limiting,
// validation, lexicon resolution, external dispatch (crew engine or LLM
// provider), and response normalization. Each stage reports failures as
// a typed GatewayError with a fixed HTTP mapping, so handlers never
// invent status codes.
//
// The gateway holds no business logic of its own: what the posts say is
// entirely the engine's doing, and transformed text comes back from the
// LLM provider verbatim apart from whitespace trimming.
package gateway
