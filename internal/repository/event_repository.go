package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evenzo/event-booking/internal/model"
)

// EventRepo provides CRUD operations for events and owns the seat
// inventory primitives.  The reserve/release pair is the only code
// that writes the available_seats column; both run inside a caller
// supplied transaction so that the seat movement commits or rolls
// back together with the booking rows it belongs to.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so that services can open
// transactions spanning several repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, organizer_id, title, description, category, location, image_url,
       DATE_FORMAT(event_date, '%Y-%m-%d'), TIME_FORMAT(start_time, '%H:%i'),
       TIME_FORMAT(end_time, '%H:%i'), price, total_capacity, available_seats,
       status, created_at, updated_at`

// EventRow mirrors the events table with date and time columns
// already formatted for presentation.  Repositories return EventRow;
// handlers shape it into response DTOs.
type EventRow struct {
	ID             uint64
	OrganizerID    uint64
	Title          string
	Description    string
	Category       string
	Location       string
	ImageURL       string
	EventDate      string
	StartTime      string
	EndTime        string
	Price          decimal.Decimal
	TotalCapacity  uint32
	AvailableSeats uint32
	Status         string
	CreatedAt      string
	UpdatedAt      string
}

func scanEventRow(sc interface{ Scan(...any) error }) (EventRow, error) {
	var (
		ev                   EventRow
		createdAt, updatedAt time.Time
	)
	err := sc.Scan(
		&ev.ID, &ev.OrganizerID, &ev.Title, &ev.Description, &ev.Category,
		&ev.Location, &ev.ImageURL, &ev.EventDate, &ev.StartTime, &ev.EndTime,
		&ev.Price, &ev.TotalCapacity, &ev.AvailableSeats, &ev.Status,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return EventRow{}, err
	}
	ev.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	ev.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)
	return ev, nil
}

// Create inserts a new event owned by the organizer.  available_seats
// is initialised to total_capacity; the row starts its lifecycle in
// PENDING unless the caller asks for a DRAFT.  The generated ID is
// populated on the passed model.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	const q = `INSERT INTO events
	    (organizer_id, title, description, category, location, image_url,
	     event_date, start_time, end_time, price, total_capacity, available_seats, status)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		ev.OrganizerID, ev.Title, ev.Description, ev.Category, ev.Location, ev.ImageURL,
		ev.EventDate.Format("2006-01-02"), ev.StartTime, ev.EndTime,
		ev.Price, ev.TotalCapacity, ev.TotalCapacity, ev.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	ev.AvailableSeats = ev.TotalCapacity
	return nil
}

// GetByID returns a single event regardless of its status.  It
// returns ErrEventNotFound when no row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (EventRow, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	ev, err := scanEventRow(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return EventRow{}, ErrEventNotFound
	}
	return ev, err
}

// GetForBookingTx loads the pricing and lifecycle fields used by the
// booking orchestrator within an open transaction.  It returns
// ErrEventNotFound when the event does not exist.  The availability
// check itself is NOT performed here; ReserveSeatsTx does the
// check-and-decrement atomically.
func (r *EventRepo) GetForBookingTx(ctx context.Context, tx *sql.Tx, id uint64) (price decimal.Decimal, status string, err error) {
	const q = `SELECT price, status FROM events WHERE id = ?`
	err = tx.QueryRowContext(ctx, q, id).Scan(&price, &status)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, "", ErrEventNotFound
	}
	return price, status, err
}

// GetCapacity returns the total and remaining seat counts for an
// event, or ErrEventNotFound.
func (r *EventRepo) GetCapacity(ctx context.Context, id uint64) (total, available uint32, err error) {
	const q = `SELECT total_capacity, available_seats FROM events WHERE id = ?`
	err = r.db.QueryRowContext(ctx, q, id).Scan(&total, &available)
	if err == sql.ErrNoRows {
		return 0, 0, ErrEventNotFound
	}
	return total, available, err
}

// ReserveSeatsTx decrements available_seats by quantity if and only
// if enough seats remain.  The guard lives in the WHERE clause, so
// the check and the decrement are a single atomic statement; two
// concurrent reserves for the last seats serialize on the row lock
// and the loser matches zero rows.  Zero rows affected maps to
// ErrInsufficientSeats (the caller has already established that the
// event exists).
func (r *EventRepo) ReserveSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, quantity uint32) error {
	const q = `UPDATE events
	           SET available_seats = available_seats - ?
	           WHERE id = ? AND available_seats >= ?`
	res, err := tx.ExecContext(ctx, q, quantity, eventID, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientSeats
	}
	return nil
}

// ReleaseSeatsTx returns quantity seats to the pool, clamped at
// total_capacity so a double release can never push available_seats
// past the fixed capacity.
func (r *EventRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, quantity uint32) error {
	const q = `UPDATE events
	           SET available_seats = LEAST(total_capacity, available_seats + ?)
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, quantity, eventID)
	return err
}

// EventSearchQuery defines filters & pagination for the public event
// listing.  Zero values mean "no filter".
type EventSearchQuery struct {
	Search   string
	Category string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	Page     int
	PageSize int
}

// SearchApproved returns APPROVED events matching the query together
// with the total match count for pagination.  Results are ordered by
// event date ascending so the soonest events come first.
func (r *EventRepo) SearchApproved(ctx context.Context, q EventSearchQuery) ([]EventRow, int64, error) {
	where := []string{"status = 'APPROVED'"}
	args := []any{}

	if q.Search != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.PriceMin != nil {
		where = append(where, "price >= ?")
		args = append(args, *q.PriceMin)
	}
	if q.PriceMax != nil {
		where = append(where, "price <= ?")
		args = append(args, *q.PriceMax)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM events WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT ` + eventColumns + ` FROM events WHERE ` + cond + `
	            ORDER BY event_date ASC, start_time ASC
	            LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]EventRow, 0, limit)
	for rows.Next() {
		ev, err := scanEventRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByOrganizer returns all events owned by the given organizer,
// newest first, regardless of status.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]EventRow, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
	           WHERE organizer_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]EventRow, 0)
	for rows.Next() {
		ev, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// EventUpdate carries the mutable fields for Update.  Nil pointers
// leave the column untouched.  Capacity fields are deliberately
// absent: total_capacity is immutable after creation and
// available_seats only moves through reserve/release.
type EventUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	ImageURL    *string
	EventDate   *string
	StartTime   *string
	EndTime     *string
	Price       *decimal.Decimal
}

// Update applies the given changes to an event owned by organizerID.
// It returns ErrEventNotFound when the row does not exist and
// ErrForbidden when it belongs to a different organizer.
func (r *EventRepo) Update(ctx context.Context, id, organizerID uint64, upd EventUpdate) error {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, `SELECT organizer_id FROM events WHERE id = ?`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != organizerID {
		return ErrForbidden
	}

	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if upd.EventDate != nil {
		add("event_date", *upd.EventDate)
	}
	if upd.StartTime != nil {
		add("start_time", *upd.StartTime)
	}
	if upd.EndTime != nil {
		add("end_time", *upd.EndTime)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err = r.db.ExecContext(ctx, `UPDATE events SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	return err
}

// Delete removes an event owned by organizerID.  Deletion is refused
// with ErrConflict while confirmed bookings reference the event, so
// ticket holders cannot lose their event from under them.
func (r *EventRepo) Delete(ctx context.Context, id, organizerID uint64) error {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, `SELECT organizer_id FROM events WHERE id = ?`, id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != organizerID {
		return ErrForbidden
	}
	var n int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = 'CONFIRMED'`, id).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	return err
}
