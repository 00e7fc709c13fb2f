// Package repository defines error values that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between failure scenarios: for
// example ErrInsufficientSeats signals that a reserve lost the race
// for the last seats, while ErrForbidden indicates the caller does
// not own the resource it is trying to mutate.
package repository

import "errors"

// ErrEventNotFound is returned when an event ID does not resolve to a
// row. Handlers translate this into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrEventNotBookable is returned when a booking targets an event
// that exists but is not in the APPROVED state. Handlers translate
// this into HTTP 409.
var ErrEventNotBookable = errors.New("event is not open for booking")

// ErrBookingNotFound is returned when a booking does not exist or
// belongs to a different user. The two cases are deliberately not
// distinguished so that booking IDs of other users cannot be probed.
var ErrBookingNotFound = errors.New("booking not found")

// ErrTicketNotFound is the ticket counterpart of ErrBookingNotFound.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrInsufficientSeats is returned by ReserveSeatsTx when the
// conditional decrement matched no row because available_seats was
// smaller than the requested quantity. Handlers translate this into
// HTTP 409.
var ErrInsufficientSeats = errors.New("not enough seats available")

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by someone else. Handlers should translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as cancelling an already cancelled
// booking or deleting an event that still has confirmed bookings.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")
