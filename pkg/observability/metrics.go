package observability

import (
	"context"

	"github.com/aretw0/reel/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes.
const (
	LookupHit   = "hit"
	LookupEmpty = "empty"
	LookupError = "error"
)

// Dialogue outcomes.
const (
	DialogueCompleted = "completed"
	DialogueAbandoned = "abandoned"
)

// Metrics holds the dialogue collectors.
type Metrics struct {
	Turns         prometheus.Counter
	Acts          *prometheus.CounterVec
	Lookups       *prometheus.CounterVec
	LookupResults prometheus.Histogram
	Dialogues     *prometheus.CounterVec
	DialogueTurns prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reel_turns_total",
			Help: "Total number of processed user turns",
		}),
		Acts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reel_acts_total",
			Help: "Total number of system acts by intent",
		}, []string{"intent"}),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reel_db_lookups_total",
			Help: "Total number of database lookups by outcome",
		}, []string{"outcome"}),
		LookupResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reel_db_results",
			Help:    "Number of records returned per lookup",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		Dialogues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reel_dialogues_total",
			Help: "Total number of finished dialogues by outcome",
		}, []string{"outcome"}),
		DialogueTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reel_dialogue_turns",
			Help:    "Number of turns per finished dialogue",
			Buckets: prometheus.LinearBuckets(2, 4, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Turns, m.Acts, m.Lookups, m.LookupResults, m.Dialogues, m.DialogueTurns)
	}
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			m.Turns.Inc()
			for _, act := range e.SysActs {
				m.Acts.WithLabelValues(string(act.Intent)).Inc()
			}
		},
		OnLookup: func(_ context.Context, e *domain.LookupEvent) {
			switch {
			case e.Err != nil:
				m.Lookups.WithLabelValues(LookupError).Inc()
				return
			case e.Results == 0:
				m.Lookups.WithLabelValues(LookupEmpty).Inc()
			default:
				m.Lookups.WithLabelValues(LookupHit).Inc()
			}
			m.LookupResults.Observe(float64(e.Results))
		},
		OnDialogueEnd: func(_ context.Context, e *domain.DialogueEvent) {
			m.Dialogues.WithLabelValues(outcome(e.Terminal)).Inc()
			m.DialogueTurns.Observe(float64(e.Turns))
		},
	}
}

func outcome(terminal bool) string {
	if terminal {
		return DialogueCompleted
	}
	return DialogueAbandoned
}
