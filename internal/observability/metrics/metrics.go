package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking and
// session flows.
type BookingMetrics struct {
	transitionsTotal *prometheus.CounterVec
	slotConflicts    prometheus.Counter
	paymentsTotal    *prometheus.CounterVec
	eligibilityTotal *prometheus.CounterVec
	sessionDuration  prometheus.Histogram
	activeSessions   prometheus.Gauge
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telecare",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Total booking state transitions",
		}, []string{"to_state"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "telecare",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Total slot holds lost to another booking",
		}),
		paymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telecare",
			Subsystem: "booking",
			Name:      "payments_total",
			Help:      "Total payment attempts",
		}, []string{"status"}),
		eligibilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "telecare",
			Subsystem: "insurance",
			Name:      "eligibility_total",
			Help:      "Total eligibility resolutions by final status",
		}, []string{"status"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "telecare",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Duration of completed call sessions",
			Buckets:   []float64{60, 300, 600, 900, 1800, 2700, 3600},
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "telecare",
			Subsystem: "session",
			Name:      "active",
			Help:      "Currently active call sessions",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.transitionsTotal,
		m.slotConflicts,
		m.paymentsTotal,
		m.eligibilityTotal,
		m.sessionDuration,
		m.activeSessions,
	)
	return m
}

func (m *BookingMetrics) ObserveTransition(toState string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(toState).Inc()
}

func (m *BookingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}

func (m *BookingMetrics) ObservePayment(status string) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveEligibility(status string) {
	if m == nil {
		return
	}
	m.eligibilityTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *BookingMetrics) SessionEnded(seconds float64) {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	m.sessionDuration.Observe(seconds)
}
