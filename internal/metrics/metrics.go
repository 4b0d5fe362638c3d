// Package metrics declares the Prometheus collectors for the queue engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Messages sent counter
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elasticmq_messages_sent_total",
			Help: "Total number of messages sent",
		},
		[]string{"queue"},
	)

	// Messages delivered to receivers
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elasticmq_messages_received_total",
			Help: "Total number of message deliveries, redeliveries included",
		},
		[]string{"queue"},
	)

	// Messages deleted with a valid receipt handle
	MessagesDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elasticmq_messages_deleted_total",
			Help: "Total number of messages deleted",
		},
		[]string{"queue"},
	)

	// Messages dropped by the retention sweep
	MessagesExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elasticmq_messages_expired_total",
			Help: "Total number of messages dropped after exceeding the retention period",
		},
	)

	// Sweep passes that found newly eligible messages and woke receivers
	SweepWakeups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elasticmq_sweep_wakeups_total",
			Help: "Total number of sweep passes that woke parked receivers",
		},
	)

	// Queues created counter
	QueuesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elasticmq_queues_created_total",
			Help: "Total number of queues created",
		},
	)

	// Queues deleted counter
	QueuesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elasticmq_queues_deleted_total",
			Help: "Total number of queues deleted",
		},
	)

	// Live queues gauge
	QueuesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "elasticmq_queues_live",
			Help: "Number of queues currently live",
		},
	)

	// Time receivers spend parked on an empty queue
	ReceiveWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "elasticmq_receive_wait_duration_seconds",
			Help:    "Time long-polling receivers spend waiting for a message",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Sweep run duration
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "elasticmq_sweep_duration_seconds",
			Help:    "Time taken for one sweep over all queues",
			Buckets: prometheus.DefBuckets,
		},
	)
)
