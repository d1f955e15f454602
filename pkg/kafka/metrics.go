package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsSubsystem = "kafka_producer"

var eventLabels = []string{"topic", "event_type"}

var (
	// ProducerMessagesPublished counts events accepted by the brokers.
	ProducerMessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: TopicPrefix,
		Subsystem: metricsSubsystem,
		Name:      "events_published_total",
		Help:      "Events written to Kafka, by topic and event type.",
	}, eventLabels)

	// ProducerPublishErrors counts events the writer failed to deliver.
	ProducerPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: TopicPrefix,
		Subsystem: metricsSubsystem,
		Name:      "publish_errors_total",
		Help:      "Events that could not be written to Kafka.",
	}, eventLabels)

	ProducerPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: TopicPrefix,
		Subsystem: metricsSubsystem,
		Name:      "publish_duration_seconds",
		Help:      "Time spent in a single synchronous publish.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"topic"})
)
