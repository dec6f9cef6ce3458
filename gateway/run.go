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
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"axonflow/contentgateway/gateway/crew"
	"axonflow/contentgateway/gateway/lexicon"
	"axonflow/contentgateway/gateway/llm"
	"axonflow/contentgateway/gateway/llm/bedrock"
	"axonflow/contentgateway/gateway/llm/openai"
	"axonflow/contentgateway/shared/logger"
)

// Config is the gateway's startup configuration, read from the
// environment. Missing required values fail startup; serving requests
// that can only error is worse than refusing to start.
type Config struct {
	Port   string
	APIKey string

	DatabaseURL   string
	CrewEndpoint  string
	RedisAddr     string
	RedisPassword string

	TasksFile   string
	PromptsFile string

	GenerationTimeout        time.Duration
	TransformTimeout         time.Duration
	MaxConcurrentGenerations int
	GenerationRatePerMinute  int
	TransformRatePerMinute   int

	LexiconMissingPolicy lexicon.MissingPolicy
	LLM                  llm.Config
}

// LoadConfig reads the gateway configuration from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                     envOr("PORT", "8080"),
		APIKey:                   os.Getenv("API_KEY"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		CrewEndpoint:             os.Getenv("CREW_ENDPOINT"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		TasksFile:                envOr("TASKS_FILE", "config/tasks.yaml"),
		PromptsFile:              envOr("PROMPTS_FILE", "config/prompts.md"),
		GenerationTimeout:        envSeconds("GENERATION_TIMEOUT_SECONDS", 300),
		TransformTimeout:         envSeconds("TRANSFORM_TIMEOUT_SECONDS", 60),
		MaxConcurrentGenerations: envInt("MAX_CONCURRENT_GENERATIONS", DefaultMaxConcurrentGenerations),
		GenerationRatePerMinute:  envInt("GENERATION_RATE_PER_MINUTE", 10),
		TransformRatePerMinute:   envInt("TRANSFORM_RATE_PER_MINUTE", 100),
		LexiconMissingPolicy:     lexicon.MissingPolicy(envOr("LEXICON_MISSING_LANGUAGE", string(lexicon.PolicyDegrade))),
		LLM:                      llm.LoadConfigFromEnv(),
	}

	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("API_KEY is required")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CrewEndpoint == "" {
		return cfg, fmt.Errorf("CREW_ENDPOINT is required")
	}
	if !cfg.LLM.Configured() {
		return cfg, fmt.Errorf("no LLM provider configured: set OPENAI_API_KEY, OPENAI_API_KEY_SECRET_ARN, or BEDROCK_REGION")
	}
	switch cfg.LexiconMissingPolicy {
	case lexicon.PolicyDegrade, lexicon.PolicyFail:
	default:
		return cfg, fmt.Errorf("LEXICON_MISSING_LANGUAGE must be %q or %q", lexicon.PolicyDegrade, lexicon.PolicyFail)
	}

	return cfg, nil
}

// defaultProviderFactory wires the concrete provider constructors into
// the factory's indirection points.
func defaultProviderFactory() *llm.ProviderFactory {
	return &llm.ProviderFactory{
		OpenAIBuilder: func(apiKey, model string) (llm.Provider, error) {
			return openai.NewProvider(openai.Config{APIKey: apiKey, Model: model})
		},
		BedrockBuilder: func(ctx context.Context, region, model string) (llm.Provider, error) {
			return bedrock.NewProvider(ctx, bedrock.Config{Region: region, Model: model})
		},
		SecretResolver: llm.ResolveAPIKeySecret,
	}
}

// Build assembles a production Gateway from configuration: lookup store,
// crew client, LLM provider, rate limiter. Every collaborator that can
// fail does so here, before the listener opens.
func Build(ctx context.Context, cfg Config) (*Gateway, error) {
	lg := logger.New("content-gateway")

	tasks, err := LoadTaskRegistry(cfg.TasksFile)
	if err != nil {
		return nil, err
	}
	prompts, err := LoadPromptLibrary(cfg.PromptsFile, ValidTransformations)
	if err != nil {
		return nil, err
	}

	db, err := lexicon.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	store := lexicon.NewStore(db, cfg.LexiconMissingPolicy)

	provider, err := defaultProviderFactory().NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	var limiter RateLimiter
	if cfg.RedisAddr != "" {
		redisLimiter, err := NewRedisRateLimiter(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		limiter = redisLimiter
		lg.Info("", "", "rate limiting backed by Redis", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		limiter = NewMemoryRateLimiter()
		lg.Warn("", "", "no REDIS_ADDR set, rate limiting is per-replica only", nil)
	}

	dispatcher := NewDispatcher(
		crew.NewClient(cfg.CrewEndpoint),
		provider,
		cfg.MaxConcurrentGenerations,
		cfg.GenerationTimeout,
		cfg.TransformTimeout,
	)

	return New(Options{
		APIKey:                  cfg.APIKey,
		Tasks:                   tasks,
		Prompts:                 prompts,
		Lexicon:                 store,
		Dispatcher:              dispatcher,
		Limiter:                 limiter,
		GenerationRatePerMinute: cfg.GenerationRatePerMinute,
		TransformRatePerMinute:  cfg.TransformRatePerMinute,
		LLMConfigured:           true,
		Logger:                  lg,
	}), nil
}

// Run loads configuration, builds the gateway, and serves until the
// listener fails.
func Run() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	g, err := Build(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: g.Router(),
		// Generation runs are long; the write timeout must outlast the
		// generation budget or the server cuts off in-flight responses.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerationTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.log.Info("", "", "content gateway listening", map[string]interface{}{
		"port":        cfg.Port,
		"tasks":       g.tasks.Names(),
		"api_version": APIVersion,
	})
	log.Fatal(srv.ListenAndServe())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("ignoring invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}
