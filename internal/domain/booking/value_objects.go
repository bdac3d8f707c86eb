package booking

import (
	"errors"
	"time"

	"courtbook/internal/pkg/hourclock"
)

var (
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrInvalidDuration = errors.New("duration must be between 1 and 3 hours")
)

const (
	MinDurationHours = 1
	MaxDurationHours = 3
)

// Slot is a half-open [start, end) interval on a single calendar day,
// expressed in wire time ("HH:MM:SS"). The fixed-width format makes string
// comparison equivalent to chronological comparison.
type Slot struct {
	date  string
	start string
	end   string
}

// NewSlot builds a slot from a date, a wire start time and a whole-hour
// duration.
func NewSlot(date, startWire string, durationHours int) (Slot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Slot{}, ErrInvalidDate
	}
	if durationHours < MinDurationHours || durationHours > MaxDurationHours {
		return Slot{}, ErrInvalidDuration
	}

	end, err := hourclock.AddHours(startWire, durationHours)
	if err != nil {
		return Slot{}, err
	}

	return Slot{date: date, start: startWire, end: end}, nil
}

// NewSlotFromDisplay builds a slot from a display start time such as
// "6:00 PM".
func NewSlotFromDisplay(date, startDisplay string, durationHours int) (Slot, error) {
	startWire, err := hourclock.ToWire(startDisplay)
	if err != nil {
		return Slot{}, err
	}
	return NewSlot(date, startWire, durationHours)
}

func ReconstructSlot(date, start, end string) Slot {
	return Slot{date: date, start: start, end: end}
}

func (s Slot) Date() string  { return s.date }
func (s Slot) Start() string { return s.start }
func (s Slot) End() string   { return s.end }

// Overlaps reports whether two half-open intervals on the same date
// intersect. Back-to-back slots do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	if s.date != other.date {
		return false
	}
	return s.start < other.end && s.end > other.start
}

func (s Slot) DurationHours() int {
	startHour, _, _ := hourclock.ParseWire(s.start)
	endHour, _, _ := hourclock.ParseWire(s.end)
	return endHour - startHour
}

type Money struct {
	cents int64
}

var ErrNegativePrice = errors.New("price cannot be negative")

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativePrice
	}
	return Money{cents: cents}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}
