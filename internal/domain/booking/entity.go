package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingField     = errors.New("required field missing")
	ErrInvalidKind      = errors.New("invalid booking kind")
	ErrOpenFieldsOnly   = errors.New("skill level and spots apply to open games only")
	ErrSpotsRequired    = errors.New("open games must request at least one spot")
	ErrNotPending       = errors.New("reservation is not pending")
	ErrInvalidStatusVal = errors.New("invalid reservation status")
)

// Reservation is one request to occupy a court for a time slot, with a
// pending -> confirmed|cancelled approval lifecycle.
type Reservation struct {
	id            uuid.UUID
	venueID       uuid.UUID
	courtID       uuid.UUID
	creatorID     uuid.UUID
	slot          Slot
	kind          Kind
	skillLevel    *string
	spotsNeeded   *int32
	price         Money
	status        Status
	paymentStatus PaymentStatus
	createdAt     time.Time
	updatedAt     time.Time
}

type NewReservationParams struct {
	VenueID     uuid.UUID
	CourtID     uuid.UUID
	CreatorID   uuid.UUID
	Slot        Slot
	Kind        Kind
	SkillLevel  *string
	SpotsNeeded *int32
	PriceCents  int64
	// Confirmed marks the booking for the non-approval path: it is persisted
	// confirmed and never enters the auto-accept queue.
	Confirmed bool
}

// NewReservation validates the request and builds a reservation. The status
// starts pending unless the caller uses the instant-confirmation path.
func NewReservation(p NewReservationParams) (*Reservation, error) {
	if p.VenueID == uuid.Nil || p.CourtID == uuid.Nil || p.CreatorID == uuid.Nil {
		return nil, ErrMissingField
	}
	if !p.Kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if p.Kind == KindPrivate && (p.SkillLevel != nil || p.SpotsNeeded != nil) {
		return nil, ErrOpenFieldsOnly
	}
	if p.Kind == KindOpen && (p.SpotsNeeded == nil || *p.SpotsNeeded < 1) {
		return nil, ErrSpotsRequired
	}

	price, err := NewMoney(p.PriceCents)
	if err != nil {
		return nil, err
	}

	status := StatusPending
	if p.Confirmed {
		status = StatusConfirmed
	}

	return &Reservation{
		id:            uuid.New(),
		venueID:       p.VenueID,
		courtID:       p.CourtID,
		creatorID:     p.CreatorID,
		slot:          p.Slot,
		kind:          p.Kind,
		skillLevel:    p.SkillLevel,
		spotsNeeded:   p.SpotsNeeded,
		price:         price,
		status:        status,
		paymentStatus: PaymentPending,
	}, nil
}

func ReconstructReservation(
	id, venueID, courtID, creatorID uuid.UUID,
	slot Slot,
	kind Kind,
	skillLevel *string,
	spotsNeeded *int32,
	price Money,
	status Status,
	paymentStatus PaymentStatus,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:            id,
		venueID:       venueID,
		courtID:       courtID,
		creatorID:     creatorID,
		slot:          slot,
		kind:          kind,
		skillLevel:    skillLevel,
		spotsNeeded:   spotsNeeded,
		price:         price,
		status:        status,
		paymentStatus: paymentStatus,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (r *Reservation) IsPending() bool {
	return r.status == StatusPending
}

func (r *Reservation) IsOpenGame() bool {
	return r.kind == KindOpen
}

// Confirm transitions a pending reservation to confirmed.
func (r *Reservation) Confirm() error {
	if !r.status.CanTransition(StatusConfirmed) {
		return ErrNotPending
	}
	r.status = StatusConfirmed
	return nil
}

// Cancel transitions a pending reservation to cancelled.
func (r *Reservation) Cancel() error {
	if !r.status.CanTransition(StatusCancelled) {
		return ErrNotPending
	}
	r.status = StatusCancelled
	return nil
}

func (r *Reservation) ID() uuid.UUID                { return r.id }
func (r *Reservation) VenueID() uuid.UUID           { return r.venueID }
func (r *Reservation) CourtID() uuid.UUID           { return r.courtID }
func (r *Reservation) CreatorID() uuid.UUID         { return r.creatorID }
func (r *Reservation) Slot() Slot                   { return r.slot }
func (r *Reservation) Kind() Kind                   { return r.kind }
func (r *Reservation) SkillLevel() *string          { return r.skillLevel }
func (r *Reservation) SpotsNeeded() *int32          { return r.spotsNeeded }
func (r *Reservation) Price() Money                 { return r.price }
func (r *Reservation) Status() Status               { return r.status }
func (r *Reservation) PaymentStatus() PaymentStatus { return r.paymentStatus }
func (r *Reservation) CreatedAt() time.Time         { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time         { return r.updatedAt }
