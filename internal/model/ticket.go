package model

import "time"

// Ticket is one admission unit tied to a single seat within a
// booking. A confirmed booking of quantity N always owns exactly N
// tickets. TicketNumber is globally unique: it combines the booking
// reference with a per-booking sequence index, so concurrent issuance
// for different bookings can never collide.
//
// Fields:
//  ID           – primary key identifier.
//  BookingID    – owning booking.
//  EventID      – event the ticket admits to.
//  UserID       – ticket holder.
//  TicketNumber – unique code, "TKT-<reference>-<seq>".
//  Status       – ACTIVE, or VOID after the booking is cancelled.
//  CreatedAt    – creation timestamp.
type Ticket struct {
	ID           uint64    // tickets.id
	BookingID    uint64    // tickets.booking_id
	EventID      uint64    // tickets.event_id
	UserID       uint64    // tickets.user_id
	TicketNumber string    // tickets.ticket_number
	Status       string    // tickets.status
	CreatedAt    time.Time // tickets.created_at
}

// Ticket states. Tickets are never deleted; cancellation voids them.
const (
	TicketStatusActive = "ACTIVE"
	TicketStatusVoid   = "VOID"
)
