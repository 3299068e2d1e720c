package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tile session metrics
var (
	// SessionLookupsTotal tracks session-issued lookups by outcome
	// (issued, applied, failed, discarded).
	SessionLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tile_session_lookups_total",
			Help: "Lookups issued by tile sessions by outcome",
		},
		[]string{"outcome"},
	)

	// ActiveSessions tracks sessions held in memory
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tile_sessions_active",
			Help: "Tile sessions currently held in memory",
		},
	)
)

// Word lookup service metrics
var (
	// WordQueriesTotal tracks lookup service queries by dictionary and status
	WordQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "word_queries_total",
			Help: "Word lookup queries by dictionary and status",
		},
		[]string{"dict", "status"},
	)

	// WordQueryDuration tracks time spent per lookup stage in seconds
	WordQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "word_query_duration_seconds",
			Help:    "Word lookup duration in seconds by stage (words, combinations)",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	// CombinationSearchTimeouts counts combination searches cut short by their deadline
	CombinationSearchTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "combination_search_timeouts_total",
			Help: "Combination searches stopped at their deadline",
		},
	)
)
