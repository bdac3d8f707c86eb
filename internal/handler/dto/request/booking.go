package request

import (
	"strings"

	"courtbook/internal/domain/booking"
	"courtbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrCourtRequired      = errs.New("court_id or court_name is required")
	ErrDateRequired       = errs.New("date is required")
	ErrStartRequired      = errs.New("start_time is required")
	ErrDurationOutOfRange = errs.New("duration_hours must be between 1 and 3")
	ErrNegativePrice      = errs.New("price_cents cannot be negative")
)

type CreateBookingRequest struct {
	VenueID       uuid.UUID  `json:"venue_id" binding:"required"`
	CourtID       *uuid.UUID `json:"court_id,omitempty"`
	CourtName     *string    `json:"court_name,omitempty"`
	Date          string     `json:"date" binding:"required"`
	StartTime     string     `json:"start_time" binding:"required"`
	DurationHours int        `json:"duration_hours" binding:"required"`
	Kind          string     `json:"kind" binding:"required"`
	SkillLevel    *string    `json:"skill_level,omitempty"`
	SpotsNeeded   *int32     `json:"spots_needed,omitempty"`
	PriceCents    int64      `json:"price_cents"`
	// Confirmed selects the non-approval path: the booking is persisted
	// confirmed and never enters the pending queue.
	Confirmed bool `json:"confirmed"`
}

// ValidateBasics covers everything checkable without touching storage. Court
// existence, time parsing and kind-specific rules are validated downstream.
func (r CreateBookingRequest) ValidateBasics() error {
	if r.CourtID == nil && r.GetCourtName() == nil {
		return ErrCourtRequired
	}
	if strings.TrimSpace(r.Date) == "" {
		return ErrDateRequired
	}
	if strings.TrimSpace(r.StartTime) == "" {
		return ErrStartRequired
	}
	if r.DurationHours < booking.MinDurationHours || r.DurationHours > booking.MaxDurationHours {
		return ErrDurationOutOfRange
	}
	if r.PriceCents < 0 {
		return ErrNegativePrice
	}
	return nil
}

// GetCourtName returns the trimmed court name, or nil when absent or blank.
func (r CreateBookingRequest) GetCourtName() *string {
	if r.CourtName == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*r.CourtName)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// AvailabilityRequest is bound from query parameters for the conflict probe.
type AvailabilityRequest struct {
	VenueID       uuid.UUID `form:"venue_id" binding:"required"`
	CourtID       uuid.UUID `form:"court_id" binding:"required"`
	Date          string    `form:"date" binding:"required"`
	StartTime     string    `form:"start_time" binding:"required"`
	DurationHours int       `form:"duration_hours" binding:"required"`
}
