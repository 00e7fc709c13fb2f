package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/evenzo/event-booking/internal/model"
	"github.com/evenzo/event-booking/internal/repository"
)

// EventHandler serves the public event catalogue and the
// organizer-facing event management endpoints.  Role enforcement
// (organizer-only mutation) happens in the router middleware; the
// handlers only check resource ownership.
type EventHandler struct {
	Events   *repository.EventRepo
	Bookings *repository.BookingRepo
}

// NewEventHandler constructs an EventHandler.  Both repositories must
// be non-nil.
func NewEventHandler(events *repository.EventRepo, bookings *repository.BookingRepo) *EventHandler {
	if events == nil || bookings == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Bookings: bookings}
}

// ListPublic handles GET /v1/events.  It returns APPROVED events
// with optional filters: search (title substring), category,
// price_min/price_max and page/page_size pagination.  Responses are
// cached by the Redis response cache middleware.
func (h *EventHandler) ListPublic(c echo.Context) error {
	q := repository.EventSearchQuery{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Category: strings.TrimSpace(c.QueryParam("category")),
	}
	if v := c.QueryParam("price_min"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price_min"})
		}
		q.PriceMin = &d
	}
	if v := c.QueryParam("price_max"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price_max"})
		}
		q.PriceMax = &d
	}
	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

	events, total, err := h.Events.SearchApproved(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"events": toEventResponses(events),
		"total":  total,
	})
}

// GetPublic handles GET /v1/events/:id.  Unapproved events are only
// visible through the organizer's own listing, so anything not
// APPROVED is reported as missing here.
func (h *EventHandler) GetPublic(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ev.Status != model.EventStatusApproved {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, toEventResponse(ev))
}

type eventReq struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Location      string `json:"location"`
	ImageURL      string `json:"image_url"`
	EventDate     string `json:"event_date"` // YYYY-MM-DD
	StartTime     string `json:"start_time"` // HH:MM
	EndTime       string `json:"end_time"`   // HH:MM
	Price         string `json:"price"`
	TotalCapacity uint32 `json:"total_capacity"`
	Draft         bool   `json:"draft"`
}

// Create handles POST /v1/events (organizer only).  available_seats
// starts equal to total_capacity and the event enters the PENDING
// state (or DRAFT on request); approval is managed out of band.
func (h *EventHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.Location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and location are required"})
	}
	if req.TotalCapacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_capacity must be at least 1"})
	}
	date, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_date, expected YYYY-MM-DD"})
	}
	if !validTimeOfDay(req.StartTime) || !validTimeOfDay(req.EndTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time/end_time, expected HH:MM"})
	}
	if req.EndTime <= req.StartTime {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}
	price := decimal.Zero
	if req.Price != "" {
		price, err = decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
		}
	}
	status := model.EventStatusPending
	if req.Draft {
		status = model.EventStatusDraft
	}

	ev := model.Event{
		OrganizerID:   userID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      strings.TrimSpace(req.Category),
		Location:      req.Location,
		ImageURL:      strings.TrimSpace(req.ImageURL),
		EventDate:     date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Price:         price,
		TotalCapacity: req.TotalCapacity,
		Status:        status,
	}
	if err := h.Events.Create(c.Request().Context(), &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":              ev.ID,
		"title":           ev.Title,
		"status":          ev.Status,
		"total_capacity":  ev.TotalCapacity,
		"available_seats": ev.AvailableSeats,
	})
}

// Update handles PUT /v1/events/:id (organizer only, own events).
// Capacity fields are not updatable: total_capacity is fixed at
// creation and available_seats only moves through bookings.
func (h *EventHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
		Location    *string `json:"location"`
		ImageURL    *string `json:"image_url"`
		EventDate   *string `json:"event_date"`
		StartTime   *string `json:"start_time"`
		EndTime     *string `json:"end_time"`
		Price       *string `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	upd := repository.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	}
	if req.EventDate != nil {
		if _, err := time.Parse("2006-01-02", *req.EventDate); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_date, expected YYYY-MM-DD"})
		}
		upd.EventDate = req.EventDate
	}
	if req.StartTime != nil {
		if !validTimeOfDay(*req.StartTime) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_time, expected HH:MM"})
		}
		upd.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		if !validTimeOfDay(*req.EndTime) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time, expected HH:MM"})
		}
		upd.EndTime = req.EndTime
	}
	if req.StartTime != nil && req.EndTime != nil && *req.EndTime <= *req.StartTime {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
	}
	if req.Price != nil {
		d, err := decimal.NewFromString(*req.Price)
		if err != nil || d.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
		}
		upd.Price = &d
	}

	if err := h.Events.Update(c.Request().Context(), id, userID, upd); err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event updated"})
}

// Delete handles DELETE /v1/events/:id (organizer only, own events).
// Events with confirmed bookings cannot be deleted.
func (h *EventHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), id, userID); err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has confirmed bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
}

// ListMine handles GET /v1/events/mine (organizer only).  It returns
// the organizer's own events in every lifecycle state.
func (h *EventHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	events, err := h.Events.ListByOrganizer(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

// ListBookings handles GET /v1/events/:id/bookings.  Organizers see
// the confirmed bookings for their own events; admins see any
// event's.  Ownership is checked here once, against the event row;
// the ledger query itself carries no authorization.
func (h *EventHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ev.OrganizerID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	bookings, err := h.Bookings.ListByEvent(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, bookings)
}

// ----- response shaping -----

type eventResp struct {
	ID             uint64 `json:"id"`
	OrganizerID    uint64 `json:"organizer_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
	Location       string `json:"location"`
	ImageURL       string `json:"image_url,omitempty"`
	EventDate      string `json:"event_date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Price          string `json:"price"`
	TotalCapacity  uint32 `json:"total_capacity"`
	AvailableSeats uint32 `json:"available_seats"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func toEventResponse(ev repository.EventRow) eventResp {
	return eventResp{
		ID:             ev.ID,
		OrganizerID:    ev.OrganizerID,
		Title:          ev.Title,
		Description:    ev.Description,
		Category:       ev.Category,
		Location:       ev.Location,
		ImageURL:       ev.ImageURL,
		EventDate:      ev.EventDate,
		StartTime:      ev.StartTime,
		EndTime:        ev.EndTime,
		Price:          ev.Price.StringFixed(2),
		TotalCapacity:  ev.TotalCapacity,
		AvailableSeats: ev.AvailableSeats,
		Status:         ev.Status,
		CreatedAt:      ev.CreatedAt,
	}
}

func toEventResponses(rows []repository.EventRow) []eventResp {
	out := make([]eventResp, 0, len(rows))
	for _, ev := range rows {
		out = append(out, toEventResponse(ev))
	}
	return out
}

// validTimeOfDay accepts HH:MM wall-clock strings.
func validTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
