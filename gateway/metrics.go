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
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_gateway_requests_total",
			Help: "Total number of requests processed by the gateway",
		},
		[]string{"endpoint", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_gateway_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 15000, 60000, 180000, 300000},
		},
		[]string{"endpoint"},
	)
	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_gateway_llm_calls_total",
			Help: "Total number of LLM completion calls",
		},
		[]string{"provider", "status"},
	)
	crewCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_gateway_crew_calls_total",
			Help: "Total number of crew engine kickoff calls",
		},
		[]string{"status"},
	)
	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_gateway_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)
	generationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "content_gateway_generations_in_flight",
			Help: "Number of crew generation runs currently in flight",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(llmCalls)
	prometheus.MustRegister(crewCalls)
	prometheus.MustRegister(rateLimited)
	prometheus.MustRegister(generationsInFlight)
}
