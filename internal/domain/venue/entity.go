// Package venue holds read-only reference data for the booking workflow: a
// venue owns courts, each with a sport type. Nothing here is mutated by
// bookings.
package venue

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidCourt = errors.New("court requires a venue and a name")

type Court struct {
	id        uuid.UUID
	venueID   uuid.UUID
	name      string
	sportType string
}

func NewCourt(id, venueID uuid.UUID, name, sportType string) (*Court, error) {
	if venueID == uuid.Nil || name == "" {
		return nil, ErrInvalidCourt
	}
	return &Court{id: id, venueID: venueID, name: name, sportType: sportType}, nil
}

func (c *Court) ID() uuid.UUID      { return c.id }
func (c *Court) VenueID() uuid.UUID { return c.venueID }
func (c *Court) Name() string       { return c.name }
func (c *Court) SportType() string  { return c.sportType }
