// Package metrics holds the Prometheus instruments exported by onair.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "onair",
		Subsystem: "led",
		Name:      "operations_total",
		Help:      "Device operations by kind and outcome",
	}, []string{"op", "outcome"})

	ledConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "onair",
		Subsystem: "led",
		Name:      "connected_devices",
		Help:      "Light devices held after the last rescan",
	})

	ledRescans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "onair",
		Subsystem: "led",
		Name:      "rescans_total",
		Help:      "Device rescans by family and outcome",
	}, []string{"family", "outcome"})

	statusCurrent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "onair",
		Subsystem: "status",
		Name:      "current",
		Help:      "1 for the status currently rendered, 0 otherwise",
	}, []string{"status"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "onair",
		Subsystem: "status",
		Name:      "applied_total",
		Help:      "Status applications by status",
	}, []string{"status"})
)

// RecordDeviceOp counts one device operation. A nil err is a success.
func RecordDeviceOp(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ledOperations.WithLabelValues(op, outcome).Inc()
}

// SetConnectedDevices records the size of the device set.
func SetConnectedDevices(n int) {
	ledConnected.Set(float64(n))
}

// RecordRescan counts one family enumeration.
func RecordRescan(family string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ledRescans.WithLabelValues(family, outcome).Inc()
}

// SetStatus marks current as the rendered status among all.
func SetStatus(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		statusCurrent.WithLabelValues(s).Set(v)
	}
	statusTransitions.WithLabelValues(current).Inc()
}
