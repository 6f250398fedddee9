package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RulesExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpialarm_rules_executed_total",
			Help: "Total number of rule executions",
		},
		[]string{"outcome"},
	)

	AlarmsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpialarm_alarms_raised_total",
			Help: "Total number of alarms raised",
		},
		[]string{"severity"},
	)

	AlarmsCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpialarm_alarms_cleared_total",
			Help: "Total number of alarms cleared",
		},
	)

	DetectionQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kpialarm_detection_query_duration_seconds",
			Help:    "Time taken to execute detection queries",
			Buckets: prometheus.DefBuckets,
		},
	)

	AlarmInsertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpialarm_alarm_insert_failures_total",
			Help: "Total number of alarm insertion failures",
		},
	)
)
