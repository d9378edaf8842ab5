package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolsdir_agent_generations_total",
		Help: "Agent generations by agent and provider path.",
	}, []string{"agent", "provider"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toolsdir_agent_generation_duration_seconds",
		Help:    "Time to produce an agent result, including fallback.",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
	}, []string{"agent", "provider"})

	providerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolsdir_provider_failures_total",
		Help: "Provider failures by error code.",
	}, []string{"agent", "code"})
)
