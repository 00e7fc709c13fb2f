package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingReferenceFormat(t *testing.T) {
	re := regexp.MustCompile(`^BK-[0-9A-F]{10}$`)
	for i := 0; i < 100; i++ {
		ref, err := NewBookingReference()
		require.NoError(t, err)
		assert.Regexp(t, re, ref)
	}
}

func TestNewBookingReferenceUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		ref, err := NewBookingReference()
		require.NoError(t, err)
		assert.False(t, seen[ref], "duplicate reference %s after %d draws", ref, i)
		seen[ref] = true
	}
}
