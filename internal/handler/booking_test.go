package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evenzo/event-booking/internal/repository"
	"github.com/evenzo/event-booking/internal/service"
)

func newBookingHandler(t *testing.T) (*BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	tickets := repository.NewTicketRepo(db)
	svc := service.NewBookingService(db, events, bookings, tickets)
	svc.DisablePublishing()
	return NewBookingHandler(svc, bookings), mock
}

// authedContext builds an echo context carrying the values the JWT
// middleware would have set.
func authedContext(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", "ATTENDEE")
	return c, rec
}

func TestBookingCreate(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT price, status FROM events`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "status"}).AddRow("25.50", "APPROVED"))
	mock.ExpectExec(`available_seats - \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(`INSERT INTO tickets`).
		WillReturnResult(sqlmock.NewResult(10, 2))
	mock.ExpectCommit()

	c, rec := authedContext(t, http.MethodPost, "/v1/bookings", `{"event_id":7,"quantity":2}`, 42)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Reference  string   `json:"booking_reference"`
		Quantity   uint32   `json:"quantity"`
		TotalPrice string   `json:"total_price"`
		Status     string   `json:"status"`
		Tickets    []string `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint32(2), resp.Quantity)
	assert.Equal(t, "51.00", resp.TotalPrice)
	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.Len(t, resp.Tickets, 2)
	assert.Contains(t, resp.Tickets[0], resp.Reference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreateInsufficientSeats(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT price, status FROM events`).
		WillReturnRows(sqlmock.NewRows([]string{"price", "status"}).AddRow("25.50", "APPROVED"))
	mock.ExpectExec(`available_seats - \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := authedContext(t, http.MethodPost, "/v1/bookings", `{"event_id":7,"quantity":500}`, 42)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingCreateUnknownEvent(t *testing.T) {
	h, mock := newBookingHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT price, status FROM events`).
		WillReturnRows(sqlmock.NewRows([]string{"price", "status"}))
	mock.ExpectRollback()

	c, rec := authedContext(t, http.MethodPost, "/v1/bookings", `{"event_id":999,"quantity":1}`, 42)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingCreateInvalidQuantity(t *testing.T) {
	h, _ := newBookingHandler(t)

	c, rec := authedContext(t, http.MethodPost, "/v1/bookings", `{"event_id":7,"quantity":0}`, 42)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingCreateMissingEventID(t *testing.T) {
	h, _ := newBookingHandler(t)

	c, rec := authedContext(t, http.MethodPost, "/v1/bookings", `{"quantity":1}`, 42)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingCancelAlreadyCancelled(t *testing.T) {
	h, mock := newBookingHandler(t)

	cols := []string{"id", "user_id", "event_id", "quantity", "total_price", "status", "booking_reference", "created_at"}
	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(11, 42, 7, 2, "51.00", "CANCELLED", "BK-ABCDEF1234", time.Now()))
	mock.ExpectRollback()

	c, rec := authedContext(t, http.MethodPost, "/v1/bookings/11/cancel", "", 42)
	c.SetParamNames("id")
	c.SetParamValues("11")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
