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
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"axonflow/contentgateway/gateway/lexicon"
	"axonflow/contentgateway/shared/logger"
)

// APIVersion is reported by the health endpoint.
const APIVersion = "1.0.0"

// LexiconFetcher is the gateway's view of the lookup resolver (enables
// testing).
type LexiconFetcher interface {
	Fetch(ctx context.Context, language string) (*lexicon.Lexicon, error)
}

// Options carries the collaborators and policy knobs for a Gateway.
// Everything here is constructed once at startup and shared read-only
// across requests.
type Options struct {
	APIKey     string
	Tasks      *TaskRegistry
	Prompts    *PromptLibrary
	Lexicon    LexiconFetcher
	Dispatcher *Dispatcher
	Limiter    RateLimiter

	// GenerationRatePerMinute and TransformRatePerMinute are the edge
	// quotas per caller. Zero selects the defaults (10 and 100).
	GenerationRatePerMinute int
	TransformRatePerMinute  int

	// LLMConfigured feeds the health endpoint's service report.
	LLMConfigured bool

	Logger *logger.Logger
}

// Gateway is the HTTP request-handling pipeline: validation, lookup
// resolution, prompt composition, external-call dispatch, and response
// normalization. It holds no per-request state.
type Gateway struct {
	apiKey         string
	tasks          *TaskRegistry
	prompts        *PromptLibrary
	lexicon        LexiconFetcher
	dispatcher     *Dispatcher
	limiter        RateLimiter
	generationRate int
	transformRate  int
	llmConfigured  bool
	log            *logger.Logger
}

// New assembles a Gateway from its collaborators.
func New(opts Options) *Gateway {
	if opts.GenerationRatePerMinute <= 0 {
		opts.GenerationRatePerMinute = 10
	}
	if opts.TransformRatePerMinute <= 0 {
		opts.TransformRatePerMinute = 100
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("content-gateway")
	}
	return &Gateway{
		apiKey:         opts.APIKey,
		tasks:          opts.Tasks,
		prompts:        opts.Prompts,
		lexicon:        opts.Lexicon,
		dispatcher:     opts.Dispatcher,
		limiter:        opts.Limiter,
		generationRate: opts.GenerationRatePerMinute,
		transformRate:  opts.TransformRatePerMinute,
		llmConfigured:  opts.LLMConfigured,
		log:            opts.Logger,
	}
}

// Router builds the HTTP handler: routes, CORS, and the middleware
// chain (auth, then rate limiting) on the mutating endpoints.
func (g *Gateway) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", g.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/task/{taskName}",
		g.requireAPIKey(g.rateLimit("task", g.generationRate, g.handleTask)),
	).Methods("POST")
	r.HandleFunc("/transform-text",
		g.requireAPIKey(g.rateLimit("transform-text", g.transformRate, g.handleTransform)),
	).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// rateLimit rejects callers over their per-minute quota with 429. A
// limiter backend failure fails open with a warning: an outage of the
// quota store must not take the API down with it.
func (g *Gateway) rateLimit(endpoint string, perMinute int, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, err := g.limiter.Allow(r.Context(), endpoint+":"+callerKey(r), perMinute, time.Minute)
		if err != nil {
			g.log.Warn(callerKey(r), requestID(r), "rate limiter unavailable, failing open", map[string]interface{}{
				"endpoint": endpoint,
				"error":    err.Error(),
			})
			next(w, r)
			return
		}
		if !allowed {
			rateLimited.WithLabelValues(endpoint).Inc()
			writeError(w, NewRateLimitError(endpoint))
			return
		}
		next(w, r)
	}
}
