package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Capacity metrics
	CheckInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdsafe_checkins_total",
			Help: "Total number of check-in and check-out attempts by operation and result",
		},
		[]string{"operation", "result"},
	)

	ZoneTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdsafe_zone_tier_transitions_total",
			Help: "Upward zone tier crossings that raised an alert",
		},
		[]string{"tier"},
	)

	// Alert metrics
	AlertsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdsafe_alerts_dispatched_total",
			Help: "Total number of alerts dispatched by type",
		},
		[]string{"type"},
	)

	AlertPersistFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdsafe_alert_persist_failures_total",
			Help: "Alerts that were broadcast but could not be stored",
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdsafe_notifications_total",
			Help: "Outbound notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// Realtime metrics
	DensityFeedsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crowdsafe_density_feeds_active",
			Help: "Number of events with a running density feed",
		},
	)

	RoomMembers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crowdsafe_room_members",
			Help: "Current number of room memberships across all events",
		},
	)

	MessagesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdsafe_room_messages_dropped_total",
			Help: "Room messages dropped because a client buffer was full",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(CheckInsTotal)
	prometheus.MustRegister(ZoneTransitionsTotal)
	prometheus.MustRegister(AlertsDispatchedTotal)
	prometheus.MustRegister(AlertPersistFailuresTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(DensityFeedsActive)
	prometheus.MustRegister(RoomMembers)
	prometheus.MustRegister(MessagesDroppedTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
