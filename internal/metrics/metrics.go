package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "gridvolt",
	Name:      "connections_active",
	Help:      "Number of active charge point connections.",
})

var transactionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "gridvolt",
	Name:      "transactions_active",
	Help:      "Number of open charging transactions.",
})

var sessionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gridvolt",
	Name:      "sessions_total",
	Help:      "Total number of charging sessions by terminal payment status.",
}, []string{"charge_point_id", "payment_status"})

var energyCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gridvolt",
	Name:      "energy_delivered_kwh",
	Help:      "Energy delivered across settled sessions.",
}, []string{"charge_point_id"})

var framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gridvolt",
	Name:      "frames_dropped_total",
	Help:      "Inbound frames dropped without a response.",
}, []string{"reason"})

// ObserveConnections records the current connection count.
func ObserveConnections(count int) {
	connectionsGauge.Set(float64(count))
}

// ObserveTransactions records the current open transaction count.
func ObserveTransactions(count int) {
	transactionsGauge.Set(float64(count))
}

// CountSession records a closed session outcome.
func CountSession(chargePointID, paymentStatus string) {
	if len(chargePointID) == 0 || len(paymentStatus) == 0 {
		return
	}
	sessionCounter.With(prometheus.Labels{
		"charge_point_id": chargePointID,
		"payment_status":  paymentStatus,
	}).Inc()
}

// CountEnergy accumulates delivered energy.
func CountEnergy(chargePointID string, kwh float64) {
	if len(chargePointID) == 0 || kwh <= 0 {
		return
	}
	energyCounter.With(prometheus.Labels{"charge_point_id": chargePointID}).Add(kwh)
}

// CountDroppedFrame records a dropped inbound frame.
func CountDroppedFrame(reason string) {
	if len(reason) == 0 {
		return
	}
	framesDropped.With(prometheus.Labels{"reason": reason}).Inc()
}
