package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewBookingReference returns a human-facing booking code of the form
// "BK-XXXXXXXXXX" where the tail is 10 uppercase hex characters from
// crypto/rand.  Five random bytes give 2^40 possible codes, which
// keeps the UNIQUE index on booking_reference collision free in
// practice; the database constraint remains the final arbiter.
func NewBookingReference() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "BK-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
