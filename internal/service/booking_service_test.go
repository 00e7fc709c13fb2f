package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenzo/event-booking/internal/repository"
)

func newTestService(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewBookingService(db,
		repository.NewEventRepo(db),
		repository.NewBookingRepo(db),
		repository.NewTicketRepo(db),
	)
	svc.DisablePublishing()
	return svc, mock
}

const (
	selectEventForBooking = `SELECT price, status FROM events WHERE id = \?`
	reserveSeats          = `SET available_seats = available_seats - \?`
	releaseSeats          = `SET available_seats = LEAST\(total_capacity, available_seats \+ \?\)`
	insertBooking         = `INSERT INTO bookings`
	insertTickets         = `INSERT INTO tickets`
	selectForCancel       = `FOR UPDATE`
	cancelBooking         = `UPDATE bookings SET status = 'CANCELLED'`
	voidTickets           = `UPDATE tickets SET status = 'VOID'`
)

func TestCreateBooking(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectEventForBooking).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "status"}).AddRow("150.00", "APPROVED"))
	mock.ExpectExec(reserveSeats).
		WithArgs(uint32(2), uint64(7), uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertBooking).
		WithArgs(uint64(42), uint64(7), uint32(2), sqlmock.AnyArg(), "CONFIRMED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(insertTickets).
		WillReturnResult(sqlmock.NewResult(100, 2))
	mock.ExpectCommit()

	res, err := svc.CreateBooking(context.Background(), 42, 7, 2)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, uint64(11), res.Booking.ID)
	assert.Equal(t, "CONFIRMED", res.Booking.Status)
	assert.True(t, res.Booking.TotalPrice.Equal(decimal.RequireFromString("300.00")),
		"total_price should snapshot price x quantity, got %s", res.Booking.TotalPrice)
	assert.Regexp(t, regexp.MustCompile(`^BK-[0-9A-F]{10}$`), res.Booking.Reference)

	require.Len(t, res.Tickets, 2)
	assert.Equal(t, "TKT-"+res.Booking.Reference+"-1", res.Tickets[0].TicketNumber)
	assert.Equal(t, "TKT-"+res.Booking.Reference+"-2", res.Tickets[1].TicketNumber)
	assert.Equal(t, uint64(100), res.Tickets[0].ID)
	assert.Equal(t, uint64(101), res.Tickets[1].ID)
}

func TestCreateBookingInsufficientSeats(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectEventForBooking).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "status"}).AddRow("150.00", "APPROVED"))
	// The guard in the WHERE clause matched no rows: someone else took
	// the remaining seats first.
	mock.ExpectExec(reserveSeats).
		WithArgs(uint32(5), uint64(7), uint32(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 42, 7, 5)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, repository.ErrInsufficientSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUnknownEvent(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectEventForBooking).
		WithArgs(uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "status"}))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 42, 999, 1)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingEventNotApproved(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectEventForBooking).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "status"}).AddRow("150.00", "PENDING"))
	mock.ExpectRollback()

	res, err := svc.CreateBooking(context.Background(), 42, 7, 1)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, repository.ErrEventNotBookable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingInvalidQuantity(t *testing.T) {
	svc, mock := newTestService(t)

	// Rejected before any database work.
	res, err := svc.CreateBooking(context.Background(), 42, 7, 0)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking(t *testing.T) {
	svc, mock := newTestService(t)

	cols := []string{"id", "user_id", "event_id", "quantity", "total_price", "status", "booking_reference", "created_at"}
	mock.ExpectBegin()
	mock.ExpectQuery(selectForCancel).
		WithArgs(uint64(11), uint64(42)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, 42, 7, 2, "300.00", "CONFIRMED", "BK-ABCDEF1234", time.Now()))
	mock.ExpectExec(cancelBooking).
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(releaseSeats).
		WithArgs(uint32(2), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(voidTickets).
		WithArgs(uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := svc.CancelBooking(context.Background(), 42, 11)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "CANCELLED", res.Booking.Status)
	assert.Equal(t, int64(2), res.TicketsVoided)
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	svc, mock := newTestService(t)

	cols := []string{"id", "user_id", "event_id", "quantity", "total_price", "status", "booking_reference", "created_at"}
	mock.ExpectBegin()
	mock.ExpectQuery(selectForCancel).
		WithArgs(uint64(11), uint64(42)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, 42, 7, 2, "300.00", "CANCELLED", "BK-ABCDEF1234", time.Now()))
	mock.ExpectRollback()

	res, err := svc.CancelBooking(context.Background(), 42, 11)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingNotFound(t *testing.T) {
	svc, mock := newTestService(t)

	cols := []string{"id", "user_id", "event_id", "quantity", "total_price", "status", "booking_reference", "created_at"}
	mock.ExpectBegin()
	// Either the id does not exist or it belongs to another user; both
	// look identical to the caller.
	mock.ExpectQuery(selectForCancel).
		WithArgs(uint64(99), uint64(42)).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectRollback()

	res, err := svc.CancelBooking(context.Background(), 42, 99)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
