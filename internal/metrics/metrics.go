// Package metrics exposes Prometheus instrumentation for the enumeration
// engine and the uevent monitor transports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsReceived counts uevents delivered by either monitor
	// transport, labeled by action (add/remove/change/...).
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "udevzero_events_received_total",
		Help: "Total number of uevents delivered by the monitor transports.",
	}, []string{"action", "transport"})

	// DevicesTracked reports the size of the most recent enumeration
	// result, labeled by subsystem.
	DevicesTracked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "udevzero_devices_tracked",
		Help: "Number of devices returned by the most recent enumeration, by subsystem.",
	}, []string{"subsystem"})

	// EnumerateDuration records how long a full Scan() call takes.
	EnumerateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "udevzero_enumerate_duration_seconds",
		Help:    "Duration of enumeration scans.",
		Buckets: prometheus.DefBuckets,
	})

	// MonitorErrors counts transport-level errors (socket, inotify) that
	// caused a Run loop to exit.
	MonitorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "udevzero_monitor_errors_total",
		Help: "Total number of monitor transport errors.",
	}, []string{"transport"})
)
