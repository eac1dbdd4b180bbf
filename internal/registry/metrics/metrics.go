package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	BeneficiariesCreated prometheus.Counter
	DuplicatesRejected   prometheus.Counter
	AllocatorDraws       prometheus.Histogram
	AllocatorExhausted   prometheus.Counter
	ListDuration         prometheus.Histogram
}

// New creates a Metrics instance with all registry module metrics registered.
func New() *Metrics {
	return &Metrics{
		BeneficiariesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lingap_beneficiaries_created_total",
			Help: "Total number of beneficiary records created",
		}),
		DuplicatesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lingap_duplicate_records_rejected_total",
			Help: "Creates and updates rejected by the duplicate detector",
		}),
		AllocatorDraws: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lingap_identifier_allocator_draws",
			Help:    "Random draws needed per successful identifier allocation",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 35, 50},
		}),
		AllocatorExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lingap_identifier_allocator_exhausted_total",
			Help: "Allocations abandoned after the bounded retry loop",
		}),
		ListDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lingap_beneficiary_list_duration_seconds",
			Help:    "Duration of beneficiary listing queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveList records the duration of a listing query.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveList(start time.Time) {
	m.ListDuration.Observe(time.Since(start).Seconds())
}
