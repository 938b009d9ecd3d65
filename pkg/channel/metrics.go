package channel

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// channelMetrics holds the Prometheus metrics for the control channel.
type channelMetrics struct {
	connects     prometheus.Counter
	reconnects   prometheus.Counter
	authFailures prometheus.Counter
	messages     prometheus.Counter
	dropped      prometheus.Counter
	up           prometheus.Gauge
}

var (
	globalMetrics     *channelMetrics
	globalMetricsOnce sync.Once
)

// metrics returns the singleton metrics instance, registering it with the
// default registry on first use.
func metrics() *channelMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = initMetrics(prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

func initMetrics(registry prometheus.Registerer) *channelMetrics {
	factory := promauto.With(registry)

	return &channelMetrics{
		connects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "botctl",
			Subsystem: "channel",
			Name:      "connects_total",
			Help:      "Total number of completed channel handshakes",
		}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "botctl",
			Subsystem: "channel",
			Name:      "reconnects_total",
			Help:      "Total number of automatic reconnection attempts",
		}),
		authFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "botctl",
			Subsystem: "channel",
			Name:      "auth_failures_total",
			Help:      "Total number of failed challenge fetches",
		}),
		messages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "botctl",
			Subsystem: "channel",
			Name:      "messages_total",
			Help:      "Total number of event envelopes forwarded to the observer",
		}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "botctl",
			Subsystem: "channel",
			Name:      "messages_dropped_total",
			Help:      "Total number of frames dropped (malformed or pre-auth)",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "botctl",
			Subsystem: "channel",
			Name:      "up",
			Help:      "Whether the control channel is currently open (1) or not (0)",
		}),
	}
}
