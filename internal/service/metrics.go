package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zen_orders_received_total",
			Help: "Total number of orders accepted, by payment method",
		},
		[]string{"payment_method"},
	)

	orderValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zen_order_value_brl",
			Help:    "Value of accepted orders in BRL",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 250, 500},
		},
	)

	orderTotalMismatch = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zen_order_total_mismatch_total",
			Help: "Orders whose client total differed from the sum of their items",
		},
	)

	ordersReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zen_orders_replayed_total",
			Help: "Requests answered from a stored idempotency record",
		},
	)
)
