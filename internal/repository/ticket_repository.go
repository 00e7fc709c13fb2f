package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TicketRepo provides persistence for tickets.  The repository never
// touches event capacity; seat accounting belongs to EventRepo and is
// driven by the booking service.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// TicketRecord mirrors the tickets table.  Only the fields needed for
// insertion are populated by CreateBulkTx.
type TicketRecord struct {
	ID           uint64
	BookingID    uint64
	EventID      uint64
	UserID       uint64
	TicketNumber string
	Status       string
	CreatedAt    time.Time
}

// TicketNumber derives the globally unique number for one seat of a
// booking: the booking reference plus a 1-based sequence index.  The
// reference is already collision resistant, so numbers stay unique
// under concurrent issuance for different bookings without consulting
// the clock.
func TicketNumber(reference string, seq int) string {
	return fmt.Sprintf("TKT-%s-%d", reference, seq)
}

// CreateBulkTx inserts one ACTIVE ticket per seat of the booking in a
// single multi-row statement, numbering seats 1..quantity.  Running
// inside the booking transaction makes the set atomic: either all
// quantity tickets exist after commit or none do.  It returns the
// inserted records with IDs populated from the first insert ID
// (InnoDB allocates contiguous IDs for a multi-row insert under the
// default auto_increment lock mode).
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, bookingID, eventID, userID uint64, quantity uint32, reference string) ([]TicketRecord, error) {
	if quantity == 0 {
		return nil, nil
	}
	query := `INSERT INTO tickets (booking_id, event_id, user_id, ticket_number, status) VALUES `
	args := make([]any, 0, int(quantity)*5)
	records := make([]TicketRecord, 0, quantity)
	for i := 0; i < int(quantity); i++ {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		num := TicketNumber(reference, i+1)
		args = append(args, bookingID, eventID, userID, num, "ACTIVE")
		records = append(records, TicketRecord{
			BookingID:    bookingID,
			EventID:      eventID,
			UserID:       userID,
			TicketNumber: num,
			Status:       "ACTIVE",
		})
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	firstID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].ID = uint64(firstID) + uint64(i)
	}
	return records, nil
}

// VoidByBookingTx flips every ticket of a booking to VOID within the
// provided transaction.  It returns the number of tickets voided.
func (r *TicketRepo) VoidByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (int64, error) {
	const q = `UPDATE tickets SET status = 'VOID' WHERE booking_id = ? AND status = 'ACTIVE'`
	res, err := tx.ExecContext(ctx, q, bookingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TicketDetail is a ticket joined with a summary of its event and the
// owning booking's reference, as returned by the ticket endpoints.
type TicketDetail struct {
	ID           uint64 `json:"id"`
	BookingID    uint64 `json:"booking_id"`
	Reference    string `json:"booking_reference"`
	TicketNumber string `json:"ticket_number"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	EventID      uint64 `json:"event_id"`
	EventTitle   string `json:"event_title"`
	EventDate    string `json:"event_date"`
	StartTime    string `json:"start_time"`
	Location     string `json:"location"`
}

const ticketDetailColumns = `t.id, t.booking_id, b.booking_reference, t.ticket_number, t.status, t.created_at,
       e.id, e.title, DATE_FORMAT(e.event_date, '%Y-%m-%d'),
       TIME_FORMAT(e.start_time, '%H:%i'), e.location`

func scanTicketDetail(sc interface{ Scan(...any) error }) (TicketDetail, error) {
	var (
		d         TicketDetail
		createdAt time.Time
	)
	err := sc.Scan(
		&d.ID, &d.BookingID, &d.Reference, &d.TicketNumber, &d.Status, &createdAt,
		&d.EventID, &d.EventTitle, &d.EventDate, &d.StartTime, &d.Location,
	)
	if err != nil {
		return TicketDetail{}, err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return d, nil
}

// ListByUser returns the user's ACTIVE tickets joined with event
// summaries, newest first.  Voided tickets are not listed; they stay
// in the table for audit only.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	const q = `SELECT ` + ticketDetailColumns + `
	           FROM tickets t
	           JOIN bookings b ON b.id = t.booking_id
	           JOIN events e ON e.id = t.event_id
	           WHERE t.user_id = ? AND t.status = 'ACTIVE'
	           ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TicketDetail, 0)
	for rows.Next() {
		d, err := scanTicketDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetByIDForUser returns a single ticket scoped to the requesting
// user.  A ticket that exists but belongs to someone else surfaces as
// ErrTicketNotFound.
func (r *TicketRepo) GetByIDForUser(ctx context.Context, ticketID, userID uint64) (TicketDetail, error) {
	const q = `SELECT ` + ticketDetailColumns + `
	           FROM tickets t
	           JOIN bookings b ON b.id = t.booking_id
	           JOIN events e ON e.id = t.event_id
	           WHERE t.id = ? AND t.user_id = ?`
	d, err := scanTicketDetail(r.db.QueryRowContext(ctx, q, ticketID, userID))
	if err == sql.ErrNoRows {
		return TicketDetail{}, ErrTicketNotFound
	}
	return d, err
}
