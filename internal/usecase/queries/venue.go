package queries

import (
	"context"

	"courtbook/internal/domain/venue"

	"github.com/google/uuid"
)

type CourtView struct {
	ID        uuid.UUID `json:"id"`
	VenueID   uuid.UUID `json:"venue_id"`
	Name      string    `json:"name"`
	SportType string    `json:"sport_type"`
}

// CourtLister is satisfied by the court repository.
type CourtLister interface {
	ListByVenue(ctx context.Context, venueID uuid.UUID) ([]*venue.Court, error)
}

type VenueQueries interface {
	ListCourts(ctx context.Context, venueID uuid.UUID) ([]CourtView, error)
}

type venueQueriesImpl struct {
	courts CourtLister
}

func NewVenueQueries(courts CourtLister) VenueQueries {
	return &venueQueriesImpl{courts: courts}
}

func (q *venueQueriesImpl) ListCourts(ctx context.Context, venueID uuid.UUID) ([]CourtView, error) {
	courts, err := q.courts.ListByVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}

	views := make([]CourtView, 0, len(courts))
	for _, c := range courts {
		views = append(views, CourtView{
			ID:        c.ID(),
			VenueID:   c.VenueID(),
			Name:      c.Name(),
			SportType: c.SportType(),
		})
	}
	return views, nil
}
