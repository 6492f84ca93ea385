package services

import "github.com/prometheus/client_golang/prometheus"

var (
	callbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Gateway callbacks handled, by receiver and outcome.",
		},
		[]string{"receiver", "outcome"},
	)

	cascadeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_cascade_failures_total",
			Help: "Push results whose sale could not be updated after the push transaction was resolved.",
		},
	)
)

func init() {
	prometheus.MustRegister(callbacksTotal, cascadeFailures)
}

func countOutcome(receiver string, o Outcome) {
	callbacksTotal.WithLabelValues(receiver, string(o)).Inc()
}
