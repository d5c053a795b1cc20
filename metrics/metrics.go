// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote rejection reasons
const (
	ReasonAlreadyVoted  = "already_voted"
	ReasonInvalidOption = "invalid_option"
	ReasonNotFound      = "not_found"
	ReasonStorage       = "storage"
)

type Metrics struct {
	PollsCreated        prometheus.Counter
	VotesApplied        prometheus.Counter
	VotesRejected       *prometheus.CounterVec
	RealtimeConnections prometheus.Gauge
	BroadcastsSent      prometheus.Counter
	BroadcastsDropped   prometheus.Counter
	BroadcastsStale     prometheus.Counter
	BroadcastFailures   prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PollsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_polls_created_total",
			Help: "Total number of polls created",
		}),
		VotesApplied: f.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_votes_applied_total",
			Help: "Total number of votes committed to the store",
		}),
		VotesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livepoll_votes_rejected_total",
			Help: "Total number of votes rejected, by reason",
		}, []string{"reason"}),
		RealtimeConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "livepoll_realtime_connections",
			Help: "Current number of open realtime connections",
		}),
		BroadcastsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_broadcast_messages_sent_total",
			Help: "Total number of vote updates queued to subscribers",
		}),
		BroadcastsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_broadcast_messages_dropped_total",
			Help: "Total number of vote updates dropped because a subscriber queue was full",
		}),
		BroadcastsStale: f.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_broadcast_stale_dropped_total",
			Help: "Total number of vote updates dropped because a newer snapshot was already delivered",
		}),
		BroadcastFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "livepoll_broadcast_failures_total",
			Help: "Total number of vote updates that could not be published",
		}),
	}
}

func (m *Metrics) IncrementPollsCreated() {
	m.PollsCreated.Inc()
}

func (m *Metrics) IncrementVotesApplied() {
	m.VotesApplied.Inc()
}

func (m *Metrics) IncrementVotesRejected(reason string) {
	m.VotesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ConnectionOpened() {
	m.RealtimeConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.RealtimeConnections.Dec()
}

func (m *Metrics) AddBroadcastsSent(n int) {
	m.BroadcastsSent.Add(float64(n))
}

func (m *Metrics) IncrementBroadcastsDropped() {
	m.BroadcastsDropped.Inc()
}

func (m *Metrics) IncrementBroadcastsStale() {
	m.BroadcastsStale.Inc()
}

func (m *Metrics) IncrementBroadcastFailures() {
	m.BroadcastFailures.Inc()
}
