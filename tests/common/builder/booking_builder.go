package builder

import (
	"courtbook/internal/domain/booking"

	"github.com/google/uuid"
)

// BookingBuilder assembles valid NewReservationParams that individual tests
// mutate into the shape they need.
type BookingBuilder struct {
	params        booking.NewReservationParams
	date          string
	startDisplay  string
	durationHours int
}

func NewBookingBuilder() *BookingBuilder {
	spots := int32(3)
	return &BookingBuilder{
		params: booking.NewReservationParams{
			VenueID:     uuid.New(),
			CourtID:     uuid.New(),
			CreatorID:   uuid.New(),
			Kind:        booking.KindOpen,
			SpotsNeeded: &spots,
			PriceCents:  120000,
		},
		date:          "2024-01-10",
		startDisplay:  "6:00 PM",
		durationHours: 1,
	}
}

func (b *BookingBuilder) WithVenueID(id uuid.UUID) *BookingBuilder {
	b.params.VenueID = id
	return b
}

func (b *BookingBuilder) WithCourtID(id uuid.UUID) *BookingBuilder {
	b.params.CourtID = id
	return b
}

func (b *BookingBuilder) WithCreatorID(id uuid.UUID) *BookingBuilder {
	b.params.CreatorID = id
	return b
}

func (b *BookingBuilder) WithKind(kind booking.Kind) *BookingBuilder {
	b.params.Kind = kind
	if kind == booking.KindPrivate {
		b.params.SkillLevel = nil
		b.params.SpotsNeeded = nil
	}
	return b
}

func (b *BookingBuilder) WithSkillLevel(level string) *BookingBuilder {
	b.params.SkillLevel = &level
	return b
}

func (b *BookingBuilder) WithSpotsNeeded(spots int32) *BookingBuilder {
	b.params.SpotsNeeded = &spots
	return b
}

func (b *BookingBuilder) WithPriceCents(cents int64) *BookingBuilder {
	b.params.PriceCents = cents
	return b
}

func (b *BookingBuilder) WithDate(date string) *BookingBuilder {
	b.date = date
	return b
}

func (b *BookingBuilder) WithStartDisplay(display string) *BookingBuilder {
	b.startDisplay = display
	return b
}

func (b *BookingBuilder) WithDuration(hours int) *BookingBuilder {
	b.durationHours = hours
	return b
}

func (b *BookingBuilder) WithConfirmed() *BookingBuilder {
	b.params.Confirmed = true
	return b
}

func (b *BookingBuilder) BuildDomain() (*booking.Reservation, error) {
	slot, err := booking.NewSlotFromDisplay(b.date, b.startDisplay, b.durationHours)
	if err != nil {
		return nil, err
	}
	b.params.Slot = slot
	return booking.NewReservation(b.params)
}
