// Package metrics exposes booking counters on the default prometheus registry.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/terrainbook/booking-api/internal/domain"
)

const namespace = "booking"

var (
	ReservationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_created_total",
		Help:      "Reservations written, by sport and channel.",
	}, []string{"sport", "channel"})

	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejections_total",
		Help:      "Booking requests refused, by kind.",
	}, []string{"kind"})

	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "confirmations_total",
		Help:      "Token confirmation attempts, by outcome.",
	}, []string{"outcome"})

	Expirations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expirations_total",
		Help:      "Pending reservations cancelled for missing the confirmation window, by trigger.",
	}, []string{"trigger"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Notification deliveries that failed, by channel.",
	}, []string{"channel"})
)

// KindOf labels a rejection error. Anything else is "error".
func KindOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrExpired):
		return "expired"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrBlocked):
		return "blocked"
	default:
		return "error"
	}
}

func ObserveRejection(err error) {
	Rejections.WithLabelValues(KindOf(err)).Inc()
}
