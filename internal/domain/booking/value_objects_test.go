//go:build unit

package booking_test

import (
	"testing"

	"courtbook/internal/domain/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, date, start string, hours int) booking.Slot {
	t.Helper()
	s, err := booking.NewSlot(date, start, hours)
	require.NoError(t, err)
	return s
}

func TestSlotOverlaps(t *testing.T) {
	base := mustSlot(t, "2024-01-10", "18:00:00", 1)

	cases := []struct {
		name  string
		other booking.Slot
		want  bool
	}{
		{name: "identical slot", other: mustSlot(t, "2024-01-10", "18:00:00", 1), want: true},
		{name: "contained slot", other: mustSlot(t, "2024-01-10", "17:00:00", 3), want: true},
		{name: "starts inside", other: mustSlot(t, "2024-01-10", "18:30:00", 1), want: true},
		{name: "ends inside", other: mustSlot(t, "2024-01-10", "17:30:00", 1), want: true},
		{name: "back-to-back after", other: mustSlot(t, "2024-01-10", "19:00:00", 1), want: false},
		{name: "back-to-back before", other: mustSlot(t, "2024-01-10", "17:00:00", 1), want: false},
		{name: "clear gap", other: mustSlot(t, "2024-01-10", "20:00:00", 1), want: false},
		{name: "different day", other: mustSlot(t, "2024-01-11", "18:00:00", 1), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestSlotEndComputation(t *testing.T) {
	s := mustSlot(t, "2024-01-10", "09:30:00", 3)
	assert.Equal(t, "12:30:00", s.End())
	assert.Equal(t, 3, s.DurationHours())
}

func TestSlotFromDisplay(t *testing.T) {
	s, err := booking.NewSlotFromDisplay("2024-01-10", "6:00 PM", 1)
	require.NoError(t, err)
	assert.Equal(t, "18:00:00", s.Start())
	assert.Equal(t, "19:00:00", s.End())

	_, err = booking.NewSlotFromDisplay("2024-01-10", "25:00", 1)
	require.Error(t, err)
}
