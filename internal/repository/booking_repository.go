package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// BookingRepo provides persistence for the booking ledger.  Rows are
// only ever appended and cancelled; a booking is never deleted, so
// the ledger stays a full history of seat movements.  Write paths run
// inside caller supplied transactions driven by the booking service.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingRecord mirrors the schema of the bookings table.  It is used
// internally by the repository when constructing or scanning rows.
type BookingRecord struct {
	ID          uint64
	UserID      uint64
	EventID     uint64
	Quantity    uint32
	TotalPrice  decimal.Decimal
	Status      string
	Reference   string
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID on the provided record.
// The caller must commit or roll back the transaction.  Status should
// be a valid enumeration ('CONFIRMED','CANCELLED').
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *BookingRecord) error {
	const q = `INSERT INTO bookings (user_id, event_id, quantity, total_price, status, booking_reference)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.EventID, b.Quantity, b.TotalPrice, b.Status, b.Reference)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}

// GetForCancelTx loads the fields needed to cancel a booking, locking
// the row with FOR UPDATE so two concurrent cancels of the same
// booking serialize.  The query is scoped to the owning user: a
// booking belonging to someone else surfaces as ErrBookingNotFound,
// never as a permission error, to avoid leaking which IDs exist.
func (r *BookingRepo) GetForCancelTx(ctx context.Context, tx *sql.Tx, bookingID, userID uint64) (BookingRecord, error) {
	const q = `SELECT id, user_id, event_id, quantity, total_price, status, booking_reference, created_at
	           FROM bookings WHERE id = ? AND user_id = ? FOR UPDATE`
	var b BookingRecord
	err := tx.QueryRowContext(ctx, q, bookingID, userID).Scan(
		&b.ID, &b.UserID, &b.EventID, &b.Quantity, &b.TotalPrice, &b.Status, &b.Reference, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return BookingRecord{}, ErrBookingNotFound
	}
	return b, err
}

// CancelTx flips a booking to CANCELLED and stamps cancelled_at.  The
// caller has already verified ownership and status under the row lock
// taken by GetForCancelTx.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64) error {
	const q = `UPDATE bookings SET status = 'CANCELLED', cancelled_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, bookingID)
	return err
}

// BookingDetail is a booking joined with a summary projection of its
// event, as shown on a user's booking list.
type BookingDetail struct {
	ID          uint64          `json:"id"`
	EventID     uint64          `json:"event_id"`
	Quantity    uint32          `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Status      string          `json:"status"`
	Reference   string          `json:"booking_reference"`
	CreatedAt   string          `json:"created_at"`
	CancelledAt *string         `json:"cancelled_at,omitempty"`
	EventTitle  string          `json:"event_title"`
	EventDate   string          `json:"event_date"`
	StartTime   string          `json:"start_time"`
	Location    string          `json:"location"`
	ImageURL    string          `json:"image_url,omitempty"`
}

const bookingDetailColumns = `b.id, b.event_id, b.quantity, b.total_price, b.status,
       b.booking_reference, b.created_at, b.cancelled_at,
       e.title, DATE_FORMAT(e.event_date, '%Y-%m-%d'),
       TIME_FORMAT(e.start_time, '%H:%i'), e.location, e.image_url`

func scanBookingDetail(sc interface{ Scan(...any) error }) (BookingDetail, error) {
	var (
		d           BookingDetail
		createdAt   time.Time
		cancelledAt sql.NullTime
	)
	err := sc.Scan(
		&d.ID, &d.EventID, &d.Quantity, &d.TotalPrice, &d.Status,
		&d.Reference, &createdAt, &cancelledAt,
		&d.EventTitle, &d.EventDate, &d.StartTime, &d.Location, &d.ImageURL,
	)
	if err != nil {
		return BookingDetail{}, err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if cancelledAt.Valid {
		iso := cancelledAt.Time.UTC().Format(time.RFC3339)
		d.CancelledAt = &iso
	}
	return d, nil
}

// ListByUser returns all bookings made by the given user joined with
// event summaries, newest first.  When no bookings exist an empty
// slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT ` + bookingDetailColumns + `
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetByIDForUser returns a single booking scoped to the requesting
// user.  A booking that exists but belongs to someone else surfaces
// as ErrBookingNotFound.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (BookingDetail, error) {
	const q = `SELECT ` + bookingDetailColumns + `
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           WHERE b.id = ? AND b.user_id = ?`
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, q, bookingID, userID))
	if err == sql.ErrNoRows {
		return BookingDetail{}, ErrBookingNotFound
	}
	return d, err
}

// EventBookingRow is a confirmed booking joined with the booker's
// identity, as shown to the event's organizer.
type EventBookingRow struct {
	ID         uint64          `json:"id"`
	Quantity   uint32          `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Reference  string          `json:"booking_reference"`
	CreatedAt  string          `json:"created_at"`
	UserID     uint64          `json:"user_id"`
	UserName   string          `json:"user_name"`
	UserEmail  string          `json:"user_email"`
	UserPhone  string          `json:"user_phone,omitempty"`
}

// ListByEvent returns the confirmed bookings for an event joined with
// booker identity, newest first.  Authorization (organizer ownership
// or admin) is enforced by the caller at the role-gate boundary, not
// re-queried here.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]EventBookingRow, error) {
	const q = `SELECT b.id, b.quantity, b.total_price, b.booking_reference, b.created_at,
	                  u.id, u.full_name, u.email, u.phone
	           FROM bookings b
	           JOIN users u ON u.id = b.user_id
	           WHERE b.event_id = ? AND b.status = 'CONFIRMED'
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventBookingRow, 0)
	for rows.Next() {
		var (
			row       EventBookingRow
			createdAt time.Time
		)
		if err := rows.Scan(
			&row.ID, &row.Quantity, &row.TotalPrice, &row.Reference, &createdAt,
			&row.UserID, &row.UserName, &row.UserEmail, &row.UserPhone,
		); err != nil {
			return nil, err
		}
		row.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, row)
	}
	return out, rows.Err()
}
