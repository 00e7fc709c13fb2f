package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a schedulable occasion with a finite seat capacity, owned
// by an organizer. The pair total_capacity/available_seats carries the
// core consistency invariant of the whole system:
//
//	0 <= available_seats <= total_capacity
//
// available_seats is only ever changed through the conditional
// decrement in EventRepo.ReserveSeatsTx and the clamped increment in
// EventRepo.ReleaseSeatsTx; no other code writes that column.
//
// Fields:
//  ID             – primary key identifier.
//  OrganizerID    – user who owns the event.
//  Title          – display title.
//  Description    – free-form description.
//  Category       – category label used for browsing filters.
//  Location       – venue description.
//  ImageURL       – optional poster image.
//  EventDate      – calendar date of the event.
//  StartTime      – start time of day (HH:MM:SS).
//  EndTime        – end time of day; must be after StartTime.
//  Price          – per-seat price; snapshotted into bookings.
//  TotalCapacity  – seat count fixed at creation, immutable afterwards.
//  AvailableSeats – remaining seats, mutated only by reserve/release.
//  Status         – lifecycle state (DRAFT, PENDING, APPROVED).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Event struct {
	ID             uint64          // events.id
	OrganizerID    uint64          // events.organizer_id
	Title          string          // events.title
	Description    string          // events.description
	Category       string          // events.category
	Location       string          // events.location
	ImageURL       string          // events.image_url
	EventDate      time.Time       // events.event_date
	StartTime      string          // events.start_time
	EndTime        string          // events.end_time
	Price          decimal.Decimal // events.price
	TotalCapacity  uint32          // events.total_capacity
	AvailableSeats uint32          // events.available_seats
	Status         string          // events.status
	CreatedAt      time.Time       // events.created_at
	UpdatedAt      time.Time       // events.updated_at
}

// Event lifecycle states. Only APPROVED events are visible to the
// public listing and accept bookings.
const (
	EventStatusDraft    = "DRAFT"
	EventStatusPending  = "PENDING"
	EventStatusApproved = "APPROVED"
)
