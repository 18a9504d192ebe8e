// Package metrics exposes Prometheus instrumentation for agent runs.
//
// The collectors live on a package-level registry rather than the global
// default so that embedding applications can gather retrolens metrics
// without inheriting them implicitly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all retrolens collectors.
var Registry = prometheus.NewRegistry()

var (
	// NodeExecutions counts state-machine node executions per agent.
	NodeExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrolens_node_executions_total",
			Help: "Number of state machine node executions",
		},
		[]string{"agent", "node"},
	)

	// LLMCompletions counts LLM completion calls by provider and outcome.
	LLMCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrolens_llm_completions_total",
			Help: "Number of LLM completion requests",
		},
		[]string{"provider", "outcome"},
	)

	// LLMDuration observes LLM completion latency per provider.
	LLMDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retrolens_llm_completion_duration_seconds",
			Help:    "LLM completion request duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider"},
	)

	// SearchRequests counts web search calls by outcome.
	SearchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrolens_search_requests_total",
			Help: "Number of web search requests",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(NodeExecutions, LLMCompletions, LLMDuration, SearchRequests)
}

// ObserveLLMCompletion records the outcome and duration of one completion call.
func ObserveLLMCompletion(provider string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	LLMCompletions.WithLabelValues(provider, outcome).Inc()
	LLMDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveSearch records the outcome of one search call.
func ObserveSearch(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	SearchRequests.WithLabelValues(outcome).Inc()
}

// ObserveNode records one node execution.
func ObserveNode(agent, node string) {
	NodeExecutions.WithLabelValues(agent, node).Inc()
}
