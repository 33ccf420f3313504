// Package metrics declares the bot's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Updates counts inbound events by kind (message, callback, ignored).
	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipbot_updates_total",
		Help: "Inbound Telegram updates by kind.",
	}, []string{"kind"})

	// Resets counts zeroings by scope (global, chat, manual).
	Resets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipbot_resets_total",
		Help: "Daily and manual resets by scope.",
	}, []string{"scope"})

	Summaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipbot_summaries_total",
		Help: "Produced summaries by outcome.",
	}, []string{"outcome"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipbot_delivery_failures_total",
		Help: "Failed Telegram API calls by operation.",
	}, []string{"op"})

	DeletionsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tipbot_deletions_scheduled_total",
		Help: "Ephemeral messages queued for deletion.",
	})
)
