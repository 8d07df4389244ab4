// Package metrics holds the prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rl1809/vote-score/internal/core/domain"
)

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	votes          *prometheus.CounterVec
	score          prometheus.Gauge
	journalDropped prometheus.Counter
	journalFailed  prometheus.Counter
}

func New(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "score_votes_total",
			Help: "Votes applied to the score, by direction",
		}, []string{"direction"}),
		score: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "score_value",
			Help: "Last observed score",
		}),
		journalDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "score_journal_dropped_total",
			Help: "Votes not journaled because the queue was full",
		}),
		journalFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "score_journal_failed_total",
			Help: "Votes the journal store failed to persist",
		}),
	}

	r.MustRegister(m.votes, m.score, m.journalDropped, m.journalFailed)
	return m
}

func (m *Metrics) ObserveVote(direction domain.Direction, score int64) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(string(direction)).Inc()
	m.score.Set(float64(score))
}

func (m *Metrics) ObserveScore(score int64) {
	if m == nil {
		return
	}
	m.score.Set(float64(score))
}

func (m *Metrics) JournalDropped() {
	if m == nil {
		return
	}
	m.journalDropped.Inc()
}

func (m *Metrics) JournalFailed() {
	if m == nil {
		return
	}
	m.journalFailed.Inc()
}
