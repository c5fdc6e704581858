package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps_HalfOpen(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2026, 3, 10, h, 0, 0, 0, time.UTC)
	}

	assert.True(t, Overlaps(at(10), at(12), at(11), at(13)))
	assert.True(t, Overlaps(at(10), at(12), at(9), at(11)))
	assert.True(t, Overlaps(at(10), at(12), at(10), at(12)))
	assert.True(t, Overlaps(at(10), at(12), at(11), at(11).Add(time.Minute)))

	// Touching endpoints do not overlap
	assert.False(t, Overlaps(at(10), at(12), at(12), at(14)))
	assert.False(t, Overlaps(at(10), at(12), at(8), at(10)))
	assert.False(t, Overlaps(at(10), at(12), at(13), at(14)))
}

func TestHoldIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	hold := ReservationHold{Status: HoldStatusHeld, ExpiresAt: now}

	// Expiry boundary is inclusive, no grace period
	assert.True(t, hold.IsExpired(now))
	assert.True(t, hold.IsExpired(now.Add(time.Second)))
	assert.False(t, hold.IsExpired(now.Add(-time.Second)))

	// Terminal statuses never report expired
	for _, status := range []string{HoldStatusReleased, HoldStatusConsumed, HoldStatusExpired} {
		h := ReservationHold{Status: status, ExpiresAt: now.Add(-time.Hour)}
		assert.False(t, h.IsExpired(now), status)
	}
}

func TestReservationBlocks(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2026, 3, 10, h, 0, 0, 0, time.UTC)
	}
	r := Reservation{StartsAt: at(10), EndsAt: at(12)}

	for _, status := range []string{ReservationStatusPaymentPending, ReservationStatusConfirmed} {
		r.Status = status
		assert.True(t, r.Blocks(at(11), at(13)), status)
	}
	for _, status := range []string{ReservationStatusPaymentFailed, ReservationStatusCanceled} {
		r.Status = status
		assert.False(t, r.Blocks(at(11), at(13)), status)
	}
}
