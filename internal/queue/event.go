// Package queue defines message payloads exchanged over the message
// broker, the publisher used by the booking service and the
// background consumer that records booking activity.
package queue

// BookingConfirmedEvent is published after a booking transaction
// commits.  It carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	Reference   string `json:"booking_reference"`
	UserID      uint64 `json:"user_id"`
	EventID     uint64 `json:"event_id"`
	Quantity    uint32 `json:"quantity"`
	TotalPrice  string `json:"total_price"`
	ConfirmedAt string `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a cancellation commits;
// SeatsReleased is the quantity returned to the event's pool.
type BookingCancelledEvent struct {
	BookingID     uint64 `json:"booking_id"`
	Reference     string `json:"booking_reference"`
	UserID        uint64 `json:"user_id"`
	EventID       uint64 `json:"event_id"`
	SeatsReleased uint32 `json:"seats_released"`
	CancelledAt   string `json:"cancelled_at"`
}
