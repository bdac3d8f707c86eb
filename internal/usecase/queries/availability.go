package queries

import (
	"context"

	"courtbook/internal/domain/booking"

	"github.com/google/uuid"
)

// AvailabilityQueries answers the conflict question: does a requested
// interval intersect any confirmed reservation on the same venue, court and
// date?
// Pending reservations never block here; overlapping pendings are resolved
// later by the auto-accept evaluator.
type AvailabilityQueries interface {
	// HasConflict takes the start time in display format ("6:00 PM"), as
	// submitted by clients.
	HasConflict(ctx context.Context, venueID, courtID uuid.UUID, date, startDisplay string, durationHours int) (bool, error)
	// HasConflictSlot is the wire-format variant used internally.
	HasConflictSlot(ctx context.Context, venueID, courtID uuid.UUID, slot booking.Slot) (bool, error)
}

type availabilityQueriesImpl struct {
	store BookingReadStore
}

func NewAvailabilityQueries(store BookingReadStore) AvailabilityQueries {
	return &availabilityQueriesImpl{store: store}
}

func (q *availabilityQueriesImpl) HasConflict(
	ctx context.Context,
	venueID, courtID uuid.UUID,
	date, startDisplay string,
	durationHours int,
) (bool, error) {
	slot, err := booking.NewSlotFromDisplay(date, startDisplay, durationHours)
	if err != nil {
		return false, err
	}
	return q.HasConflictSlot(ctx, venueID, courtID, slot)
}

func (q *availabilityQueriesImpl) HasConflictSlot(ctx context.Context, venueID, courtID uuid.UUID, slot booking.Slot) (bool, error) {
	n, err := q.store.CountConfirmedOverlaps(ctx, venueID, courtID, slot.Date(), slot.Start(), slot.End())
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
