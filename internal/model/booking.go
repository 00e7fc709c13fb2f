package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking records a user's reservation of one or more seats on a
// single event. TotalPrice is a snapshot of quantity × event.price at
// booking time; later price changes on the event never alter it.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user who made the booking.
//  EventID      – event being booked.
//  Quantity     – number of seats reserved; one ticket per seat.
//  TotalPrice   – price snapshot taken when the booking was created.
//  Status       – state of the booking (CONFIRMED, CANCELLED).
//  Reference    – human-facing unique code, distinct from ID.
//  CreatedAt    – creation timestamp.
//  CancelledAt  – set once, on cancellation; nil otherwise.
type Booking struct {
	ID          uint64          // bookings.id
	UserID      uint64          // bookings.user_id
	EventID     uint64          // bookings.event_id
	Quantity    uint32          // bookings.quantity
	TotalPrice  decimal.Decimal // bookings.total_price
	Status      string          // bookings.status
	Reference   string          // bookings.booking_reference
	CreatedAt   time.Time       // bookings.created_at
	CancelledAt *time.Time      // bookings.cancelled_at (nullable)
}

// Booking states. CANCELLED is terminal.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)
