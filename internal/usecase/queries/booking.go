package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Read models (DTOs for the read side)

type BookingView struct {
	ID            uuid.UUID `json:"id"`
	VenueID       uuid.UUID `json:"venue_id"`
	CourtID       uuid.UUID `json:"court_id"`
	CourtName     string    `json:"court_name"`
	CreatorID     uuid.UUID `json:"creator_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Kind          string    `json:"kind"`
	SkillLevel    *string   `json:"skill_level,omitempty"`
	SpotsNeeded   *int32    `json:"spots_needed,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BookingListItem struct {
	ID        uuid.UUID `json:"id"`
	CourtID   uuid.UUID `json:"court_id"`
	CourtName string    `json:"court_name"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingOverlap is the minimal projection the auto-accept evaluator ranks:
// creation order decides the winner, id breaks timestamp ties.
type PendingOverlap struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

type BookingReadStore interface {
	FindViewByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*BookingListItem, error)
	CountConfirmedOverlaps(ctx context.Context, venueID, courtID uuid.UUID, date, start, end string) (int, error)
	ListPendingOverlaps(ctx context.Context, venueID, courtID uuid.UUID, date, start, end string) ([]PendingOverlap, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	return q.store.FindViewByID(ctx, id)
}

func (q *bookingQueriesImpl) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*BookingListItem, error) {
	return q.store.ListByCreator(ctx, creatorID)
}
