package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	signalEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "onair",
		Subsystem: "signals",
		Name:      "events_total",
		Help:      "Signal events received by source",
	}, []string{"source"})

	micCaptureUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "onair",
		Subsystem: "mic",
		Name:      "capture_users",
		Help:      "Processes currently capturing audio",
	})

	micQueryErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "onair",
		Subsystem: "mic",
		Name:      "query_errors_total",
		Help:      "Failed capture-store walks",
	})
)

// RecordSignal counts one event from source.
func RecordSignal(source string) {
	signalEvents.WithLabelValues(source).Inc()
}

// SetCaptureUsers records the number of active capture users.
func SetCaptureUsers(n int) {
	micCaptureUsers.Set(float64(n))
}

// RecordMicQueryError counts a failed capture-store walk.
func RecordMicQueryError() {
	micQueryErrors.Inc()
}

// Handler serves every promauto-registered metric.
func Handler() http.Handler {
	return promhttp.Handler()
}
