package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx
}

func TestReserveSeatsTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(`SET available_seats = available_seats - \?`).
		WithArgs(uint32(3), uint64(7), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ReserveSeatsTx(context.Background(), tx, 7, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsTxInsufficient(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)
	tx := beginTx(t, db, mock)

	// Zero rows matched: the availability guard in the WHERE clause
	// failed, not the statement itself.
	mock.ExpectExec(`WHERE id = \? AND available_seats >= \?`).
		WithArgs(uint32(3), uint64(7), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReserveSeatsTx(context.Background(), tx, 7, 3)
	assert.ErrorIs(t, err, ErrInsufficientSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSeatsTxClampsAtCapacity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)
	tx := beginTx(t, db, mock)

	mock.ExpectExec(`SET available_seats = LEAST\(total_capacity, available_seats \+ \?\)`).
		WithArgs(uint32(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ReleaseSeatsTx(context.Background(), tx, 7, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCapacity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery(`SELECT total_capacity, available_seats FROM events`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"total_capacity", "available_seats"}).AddRow(100, 42))

	total, available, err := repo.GetCapacity(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), total)
	assert.Equal(t, uint32(42), available)
}

func TestGetCapacityUnknownEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery(`SELECT total_capacity, available_seats FROM events`).
		WithArgs(uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"total_capacity", "available_seats"}))

	_, _, err := repo.GetCapacity(context.Background(), 999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteBlockedByConfirmedBookings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery(`SELECT organizer_id FROM events`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"organizer_id"}).AddRow(42))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	err := repo.Delete(context.Background(), 7, 42)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForbiddenForOtherOrganizer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEventRepo(db)

	mock.ExpectQuery(`SELECT organizer_id FROM events`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"organizer_id"}).AddRow(42))

	err := repo.Delete(context.Background(), 7, 43)
	assert.ErrorIs(t, err, ErrForbidden)
}
