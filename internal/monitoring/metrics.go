// Package monitoring exposes Prometheus metrics for the booking
// pipeline.  Counters are registered with promauto at init time and
// served from the /metrics endpoint registered in main.
package monitoring

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/evenzo/event-booking/internal/repository"
)

var (
	bookingsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_confirmed_total",
			Help: "Total bookings committed successfully",
		},
	)

	bookingsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Total bookings cancelled",
		},
	)

	bookingsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_rejected_total",
			Help: "Booking attempts rejected before commit",
		},
		[]string{"reason"},
	)

	seatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seats_reserved_total",
			Help: "Seats removed from event capacity by confirmed bookings",
		},
	)

	seatsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seats_released_total",
			Help: "Seats returned to event capacity by cancellations",
		},
	)
)

// BookingConfirmed records a committed booking of the given quantity.
func BookingConfirmed(quantity uint32) {
	bookingsConfirmed.Inc()
	seatsReserved.Add(float64(quantity))
}

// BookingCancelled records a cancellation returning quantity seats.
func BookingCancelled(quantity uint32) {
	bookingsCancelled.Inc()
	seatsReleased.Add(float64(quantity))
}

// BookingRejected classifies a failed reserve so capacity pressure
// shows up on dashboards separately from plain errors.
func BookingRejected(err error) {
	reason := "error"
	if errors.Is(err, repository.ErrInsufficientSeats) {
		reason = "insufficient_seats"
	}
	bookingsRejected.WithLabelValues(reason).Inc()
}
