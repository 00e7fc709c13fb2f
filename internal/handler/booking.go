package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evenzo/event-booking/internal/repository"
	"github.com/evenzo/event-booking/internal/service"
)

// BookingHandler exposes the booking transaction endpoints.  All
// routes require an authenticated user; every query is scoped to the
// caller's own bookings.
type BookingHandler struct {
	Svc      *service.BookingService
	Bookings *repository.BookingRepo
}

func NewBookingHandler(svc *service.BookingService, bookings *repository.BookingRepo) *BookingHandler {
	if svc == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Bookings: bookings}
}

type createBookingReq struct {
	EventID  uint64 `json:"event_id"`
	Quantity uint32 `json:"quantity"`
}

type bookingResp struct {
	ID          uint64   `json:"id"`
	Reference   string   `json:"booking_reference"`
	EventID     uint64   `json:"event_id"`
	Quantity    uint32   `json:"quantity"`
	TotalPrice  string   `json:"total_price"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"created_at"`
	CancelledAt *string  `json:"cancelled_at,omitempty"`
	Tickets     []string `json:"tickets,omitempty"`
}

func toBookingResp(b repository.BookingRecord, tickets []repository.TicketRecord) bookingResp {
	resp := bookingResp{
		ID:         b.ID,
		Reference:  b.Reference,
		EventID:    b.EventID,
		Quantity:   b.Quantity,
		TotalPrice: b.TotalPrice.StringFixed(2),
		Status:     b.Status,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.CancelledAt != nil {
		s := b.CancelledAt.UTC().Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	for _, t := range tickets {
		resp.Tickets = append(resp.Tickets, t.TicketNumber)
	}
	return resp
}

// Create handles POST /v1/bookings.  The response carries the
// booking together with its ticket numbers; a 409 means the event
// ran out of seats between the caller's read and this write.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}

	res, err := h.Svc.CreateBooking(c.Request().Context(), userID, req.EventID, req.Quantity)
	if err != nil {
		switch err {
		case service.ErrInvalidQuantity:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrEventNotBookable:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event is not open for booking"})
		case repository.ErrInsufficientSeats:
			return c.JSON(http.StatusConflict, echo.Map{"error": "not enough seats available"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}
	return c.JSON(http.StatusCreated, toBookingResp(res.Booking, res.Tickets))
}

// ListMine handles GET /v1/bookings.  Newest first, both confirmed
// and cancelled.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, bookings)
}

// Get handles GET /v1/bookings/:id.  Another user's booking id reads
// as not found rather than forbidden, so ids cannot be probed.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByIDForUser(c.Request().Context(), id, userID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/bookings/:id/cancel.  Cancelling an
// already-cancelled booking is a 409.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	res, err := h.Svc.CancelBooking(c.Request().Context(), userID, id)
	if err != nil {
		switch err {
		case repository.ErrBookingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is already cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":        toBookingResp(res.Booking, nil),
		"seats_released": res.Booking.Quantity,
		"tickets_voided": res.TicketsVoided,
	})
}
