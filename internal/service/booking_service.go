// Package service holds the booking orchestrator: the one component
// allowed to move seats between the event capacity counter, the
// booking ledger and the ticket table.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evenzo/event-booking/internal/model"
	"github.com/evenzo/event-booking/internal/monitoring"
	"github.com/evenzo/event-booking/internal/queue"
	"github.com/evenzo/event-booking/internal/repository"
	"github.com/evenzo/event-booking/internal/utils"
)

// ErrInvalidQuantity is returned when a booking asks for fewer than
// one seat.  Detected before any state is touched.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// BookingService coordinates the seat inventory, the booking ledger
// and ticket issuance.  Every write path runs inside a single
// database transaction: either the capacity decrement, the booking
// row and all its tickets commit together, or none of them do.  There
// is no fire-and-forget step between the capacity write and ticket
// creation.
type BookingService struct {
	db       *sql.DB
	events   *repository.EventRepo
	bookings *repository.BookingRepo
	tickets  *repository.TicketRepo
	publish  bool // broker publishing can be disabled in tests
}

// NewBookingService constructs a BookingService.  All repositories
// must be non-nil and bound to the same database as db.
func NewBookingService(db *sql.DB, events *repository.EventRepo, bookings *repository.BookingRepo, tickets *repository.TicketRepo) *BookingService {
	if db == nil || events == nil || bookings == nil || tickets == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{db: db, events: events, bookings: bookings, tickets: tickets, publish: true}
}

// DisablePublishing turns off broker notifications.  Used by tests
// and by deployments without a broker.
func (s *BookingService) DisablePublishing() { s.publish = false }

// BookingResult is what a successful CreateBooking returns: the
// ledger row and the tickets issued for it.
type BookingResult struct {
	Booking repository.BookingRecord
	Tickets []repository.TicketRecord
}

// CreateBooking books quantity seats on an event for a user.
//
// The whole operation is one transaction:
//  1. load the event's price and lifecycle state (ErrEventNotFound /
//     ErrEventNotBookable);
//  2. conditionally decrement available_seats — the UPDATE carries
//     the availability guard in its WHERE clause, so concurrent
//     bookings for the last seats serialize on the row and the loser
//     gets ErrInsufficientSeats without any oversell window;
//  3. snapshot total_price = price × quantity;
//  4. insert the CONFIRMED booking with a fresh reference;
//  5. insert one ticket per seat, numbered by per-booking sequence.
//
// Any error before commit rolls the transaction back, restoring the
// seats implicitly.  The broker notification happens only after a
// successful commit and is best effort.
func (s *BookingService) CreateBooking(ctx context.Context, userID, eventID uint64, quantity uint32) (*BookingResult, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	price, status, err := s.events.GetForBookingTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if status != model.EventStatusApproved {
		return nil, repository.ErrEventNotBookable
	}

	if err := s.events.ReserveSeatsTx(ctx, tx, eventID, quantity); err != nil {
		monitoring.BookingRejected(err)
		return nil, err
	}

	reference, err := utils.NewBookingReference()
	if err != nil {
		return nil, err
	}
	booking := repository.BookingRecord{
		UserID:     userID,
		EventID:    eventID,
		Quantity:   quantity,
		TotalPrice: price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:     model.BookingStatusConfirmed,
		Reference:  reference,
	}
	if err := s.bookings.CreateTx(ctx, tx, &booking); err != nil {
		return nil, err
	}

	tickets, err := s.tickets.CreateBulkTx(ctx, tx, booking.ID, eventID, userID, quantity, reference)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	monitoring.BookingConfirmed(quantity)
	if s.publish {
		ev := queue.BookingConfirmedEvent{
			BookingID:   booking.ID,
			Reference:   reference,
			UserID:      userID,
			EventID:     eventID,
			Quantity:    quantity,
			TotalPrice:  booking.TotalPrice.StringFixed(2),
			ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := queue.PublishBookingConfirmed(ctx, ev); err != nil {
			// The booking is already durable; a broker outage must not fail it.
			log.Printf("booking %s: publish confirmed event failed: %v", reference, err)
		}
	}
	return &BookingResult{Booking: booking, Tickets: tickets}, nil
}

// CancelResult reports the effects of a cancellation.
type CancelResult struct {
	Booking       repository.BookingRecord
	TicketsVoided int64
}

// CancelBooking cancels a user's booking, in one transaction: flip
// the booking to CANCELLED, return its quantity to the event's seat
// pool (clamped at total_capacity) and void every ticket issued for
// it.  The booking row is locked first so a concurrent cancel of the
// same booking observes the status flip and gets ErrConflict.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uint64) (*CancelResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := s.bookings.GetForCancelTx(ctx, tx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingStatusCancelled {
		return nil, repository.ErrConflict
	}

	if err := s.bookings.CancelTx(ctx, tx, booking.ID); err != nil {
		return nil, err
	}
	if err := s.events.ReleaseSeatsTx(ctx, tx, booking.EventID, booking.Quantity); err != nil {
		return nil, err
	}
	voided, err := s.tickets.VoidByBookingTx(ctx, tx, booking.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	monitoring.BookingCancelled(booking.Quantity)
	if s.publish {
		ev := queue.BookingCancelledEvent{
			BookingID:     booking.ID,
			Reference:     booking.Reference,
			UserID:        userID,
			EventID:       booking.EventID,
			SeatsReleased: booking.Quantity,
			CancelledAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := queue.PublishBookingCancelled(ctx, ev); err != nil {
			log.Printf("booking %s: publish cancelled event failed: %v", booking.Reference, err)
		}
	}
	booking.Status = model.BookingStatusCancelled
	return &CancelResult{Booking: booking, TicketsVoided: voided}, nil
}
