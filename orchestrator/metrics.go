package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesplit",
		Name:      "workflows_started_total",
		Help:      "Workflows that completed the initial pipeline and reached review.",
	})

	workflowsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesplit",
		Name:      "workflows_completed_total",
		Help:      "Workflows approved by a reviewer.",
	})

	revisionCycles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesplit",
		Name:      "revision_cycles_total",
		Help:      "Review cycles that requested at least one section revision.",
	})

	degradedScenes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesplit",
		Name:      "degraded_scenes_total",
		Help:      "Scene analyses that fell back to the heuristic path.",
	})

	extractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "scenesplit",
		Name:      "extraction_failures_total",
		Help:      "Start calls that found no scene structure in the script.",
	})
)
