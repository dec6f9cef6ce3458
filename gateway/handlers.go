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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"axonflow/contentgateway/gateway/crew"
	"axonflow/contentgateway/gateway/lexicon"
)

// transformSystemPrompt frames every transform completion. The product
// copy it produces is German, hence the German framing.
const transformSystemPrompt = "Du bist ein Experte für Textoptimierung."

// handleTask runs the generation pipeline: task lookup, validation,
// lexicon resolution, crew dispatch, normalization.
func (g *Gateway) handleTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)
	taskName := mux.Vars(r)["taskName"]

	status := http.StatusOK
	defer func() { recordRequest("task", status, start) }()

	if !g.tasks.Has(taskName) {
		status = http.StatusNotFound
		g.log.Warn(callerKey(r), reqID, "unknown task requested", map[string]interface{}{
			"task":      taskName,
			"available": g.tasks.Names(),
		})
		writeError(w, NewNotFoundError("task", taskName))
		return
	}

	var req TopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeErrorStatus(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		status = httpStatus(err)
		writeError(w, err)
		return
	}

	lex, err := g.lexicon.Fetch(r.Context(), req.Language)
	if err != nil {
		var notProvisioned *lexicon.ErrLanguageNotProvisioned
		if errors.As(err, &notProvisioned) {
			verr := NewValidationError("language", fmt.Sprintf("no content configuration for language %q", req.Language))
			status = httpStatus(verr)
			writeError(w, verr)
			return
		}
		status = http.StatusInternalServerError
		g.log.Error(callerKey(r), reqID, "lexicon fetch failed", map[string]interface{}{
			"language": req.Language,
			"error":    err.Error(),
		})
		writeError(w, NewDependencyError("failed to load language configuration", err))
		return
	}

	outcome := g.dispatcher.Generate(r.Context(), crew.Inputs{
		Topic:       req.Topic,
		Language:    req.Language,
		AvoidWords:  lex.AvoidWords,
		Hooks:       lex.Hooks,
		CTAs:        lex.CTAs,
		Address:     req.Address,
		Mood:        req.Mood,
		Perspective: req.Perspective,
	})

	result, err := NormalizeGeneration(outcome)
	if err != nil {
		status = httpStatus(err)
		g.log.ErrorWithCode(callerKey(r), reqID, "generation failed", status, err, map[string]interface{}{
			"task":  taskName,
			"topic": req.Topic,
		})
		writeError(w, err)
		return
	}

	g.log.InfoWithDuration(callerKey(r), reqID, "generation completed", float64(time.Since(start).Milliseconds()), map[string]interface{}{
		"task":     taskName,
		"language": req.Language,
	})
	writeJSON(w, http.StatusOK, result)
}

// handleTransform runs the text-rewrite pipeline: validation, prompt
// composition, LLM dispatch, normalization.
func (g *Gateway) handleTransform(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)

	status := http.StatusOK
	defer func() { recordRequest("transform-text", status, start) }()

	var req TextTransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeErrorStatus(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		status = httpStatus(err)
		writeError(w, err)
		return
	}

	prompt, err := g.prompts.Compose(req.Transformation, req.Text)
	if err != nil {
		status = httpStatus(err)
		writeError(w, err)
		return
	}

	resp, err := g.dispatcher.Transform(r.Context(), transformSystemPrompt, prompt)
	if err != nil {
		status = httpStatus(err)
		g.log.ErrorWithCode(callerKey(r), reqID, "transformation failed", status, err, map[string]interface{}{
			"transformation": req.Transformation,
		})
		writeError(w, err)
		return
	}

	result, err := NormalizeTransform(resp)
	if err != nil {
		status = httpStatus(err)
		writeError(w, err)
		return
	}

	g.log.InfoWithDuration(callerKey(r), reqID, "transformation completed", float64(time.Since(start).Milliseconds()), map[string]interface{}{
		"transformation": req.Transformation,
	})
	writeJSON(w, http.StatusOK, result)
}

// handleHealth reports liveness and the configuration state of the
// downstream services. It performs no external calls, so it stays fast
// and dependency-free for load balancer probes.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	llmStatus := "not_configured"
	if g.llmConfigured {
		llmStatus = "healthy"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"api_version": APIVersion,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"services": map[string]string{
			"llm_provider": llmStatus,
		},
	})
}

// requestID returns the caller-supplied request ID, minting one when
// absent so every log line of a request correlates.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func recordRequest(endpoint string, status int, start time.Time) {
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a pipeline error to its HTTP status and the canonical
// error body.
func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, httpStatus(err), err.Error())
}

func writeErrorStatus(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
