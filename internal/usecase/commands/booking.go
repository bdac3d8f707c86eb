package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courtbook/internal/domain/booking"
	"courtbook/internal/domain/venue"
	reqdto "courtbook/internal/handler/dto/request"
	"courtbook/internal/infra"
	"courtbook/internal/infra/db"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/config"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrValidation              = errs.New("validation error")
	ErrCourtNotFound           = errs.New("court not found")
	ErrSlotConflict            = errs.New("slot conflict with a confirmed reservation")
	ErrDuplicateInProgress     = errs.New("identical booking request already in progress")
	ErrBookingNotFound         = errs.New("booking not found")
	ErrNotPending              = errs.New("booking is not pending")
	ErrNotOwner                = errs.New("not the booking creator")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type ReservationRepository interface {
	Create(ctx context.Context, tx db.DBTX, res *booking.Reservation) (time.Time, error)
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error)
	ConfirmIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID) (bool, error)
	CancelIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID) (bool, error)
	CancelOverlappingPending(ctx context.Context, tx db.DBTX, courtID uuid.UUID, date, start, end string, winnerID uuid.UUID) ([]uuid.UUID, error)
}

type CourtRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*venue.Court, error)
	FindByName(ctx context.Context, venueID uuid.UUID, name string) (*venue.Court, error)
}

type AutoAcceptScheduler interface {
	Enqueue(ctx context.Context, tx db.DBTX, reservationID uuid.UUID, dueAt time.Time) error
	MarkDone(ctx context.Context, tx db.DBTX, reservationID uuid.UUID) error
}

// EventPublisher mirrors booking lifecycle changes onto the message bus.
// A no-op implementation is wired when no broker is configured.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// TxBeginner opens transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, req reqdto.CreateBookingRequest, creatorID uuid.UUID) (*queries.BookingView, error)
	ConfirmBooking(ctx context.Context, id, actorID uuid.UUID) error
	CancelBooking(ctx context.Context, id, actorID uuid.UUID) error
}

type bookingCommandsImpl struct {
	reservationRepo ReservationRepository
	courtRepo       CourtRepository
	scheduler       AutoAcceptScheduler
	availability    queries.AvailabilityQueries
	bookingQueries  queries.BookingQueries
	guard           *InflightGuard
	upcoming        *UpcomingGames
	events          EventPublisher
	db              TxBeginner
	clock           clock.Clock
	cfg             config.BookingConfig
}

func NewBookingCommands(
	reservationRepo ReservationRepository,
	courtRepo CourtRepository,
	scheduler AutoAcceptScheduler,
	availability queries.AvailabilityQueries,
	bookingQueries queries.BookingQueries,
	guard *InflightGuard,
	upcoming *UpcomingGames,
	events EventPublisher,
	db TxBeginner,
	clk clock.Clock,
	cfg config.BookingConfig,
) BookingCommands {
	return &bookingCommandsImpl{
		reservationRepo: reservationRepo,
		courtRepo:       courtRepo,
		scheduler:       scheduler,
		availability:    availability,
		bookingQueries:  bookingQueries,
		guard:           guard,
		upcoming:        upcoming,
		events:          events,
		db:              db,
		clock:           clk,
		cfg:             cfg,
	}
}

func (u *bookingCommandsImpl) CreateBooking(
	ctx context.Context,
	req reqdto.CreateBookingRequest,
	creatorID uuid.UUID,
) (*queries.BookingView, error) {
	if err := req.ValidateBasics(); err != nil {
		return nil, errs.Mark(err, ErrValidation)
	}

	dedupKey := dedupKeyFor(creatorID, req)
	if !u.guard.Acquire(dedupKey) {
		return nil, ErrDuplicateInProgress
	}
	defer u.guard.Release(dedupKey)

	court, err := u.resolveCourt(ctx, req)
	if err != nil {
		return nil, err
	}

	slot, err := booking.NewSlotFromDisplay(req.Date, req.StartTime, req.DurationHours)
	if err != nil {
		return nil, errs.Mark(err, ErrValidation)
	}

	if err := u.checkConflict(ctx, req.VenueID, court.ID(), slot); err != nil {
		return nil, err
	}

	entity, err := booking.NewReservation(booking.NewReservationParams{
		VenueID:     req.VenueID,
		CourtID:     court.ID(),
		CreatorID:   creatorID,
		Slot:        slot,
		Kind:        booking.Kind(req.Kind),
		SkillLevel:  req.SkillLevel,
		SpotsNeeded: req.SpotsNeeded,
		PriceCents:  req.PriceCents,
		Confirmed:   req.Confirmed,
	})
	if err != nil {
		return nil, errs.Mark(err, ErrValidation)
	}

	if err := u.persistReservation(ctx, entity); err != nil {
		return nil, err
	}

	if entity.Status() == booking.StatusConfirmed {
		u.upcoming.Add(entity, court)
	}

	u.publish(ctx, "booking.created", entity.ID())

	view, err := u.bookingQueries.GetByID(ctx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (u *bookingCommandsImpl) resolveCourt(ctx context.Context, req reqdto.CreateBookingRequest) (*venue.Court, error) {
	var (
		court *venue.Court
		err   error
	)
	switch {
	case req.CourtID != nil:
		court, err = u.courtRepo.FindByID(ctx, *req.CourtID)
	case req.GetCourtName() != nil:
		court, err = u.courtRepo.FindByName(ctx, req.VenueID, *req.GetCourtName())
	default:
		return nil, errs.Mark(errs.New("court id or name required"), ErrValidation)
	}
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if court.VenueID() != req.VenueID {
		return nil, ErrCourtNotFound
	}
	return court, nil
}

// checkConflict fails closed by default: an unreadable schedule aborts the
// booking. The legacy fail-open behavior is available behind configuration.
func (u *bookingCommandsImpl) checkConflict(ctx context.Context, venueID, courtID uuid.UUID, slot booking.Slot) error {
	conflict, err := u.availability.HasConflictSlot(ctx, venueID, courtID, slot)
	if err != nil {
		if u.cfg.ConflictFailOpen {
			slog.Warn("conflict check failed, proceeding per fail-open policy", "court_id", courtID, "error", err)
			return nil
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if conflict {
		return ErrSlotConflict
	}
	return nil
}

func (u *bookingCommandsImpl) persistReservation(ctx context.Context, entity *booking.Reservation) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	createdAt, err := u.reservationRepo.Create(ctx, tx, entity)
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return ErrDuplicateInProgress
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if entity.IsPending() {
		dueAt := createdAt.Add(u.cfg.AutoAcceptDelay)
		if err := u.scheduler.Enqueue(ctx, tx, entity.ID(), dueAt); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

// ConfirmBooking is the creator's manual accept. Confirming also cancels
// every overlapping pending reservation and retires the scheduled
// evaluation.
func (u *bookingCommandsImpl) ConfirmBooking(ctx context.Context, id, actorID uuid.UUID) error {
	entity, err := u.loadOwned(ctx, id, actorID)
	if err != nil {
		return err
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	confirmed, err := u.reservationRepo.ConfirmIfPending(ctx, tx, id)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !confirmed {
		return ErrNotPending
	}

	slot := entity.Slot()
	cancelled, err := u.reservationRepo.CancelOverlappingPending(ctx, tx, entity.CourtID(), slot.Date(), slot.Start(), slot.End(), id)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := u.scheduler.MarkDone(ctx, tx, id); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	u.publish(ctx, "booking.confirmed", id)
	for _, loserID := range cancelled {
		u.publish(ctx, "booking.cancelled", loserID)
	}
	return nil
}

// CancelBooking is the creator's manual reject.
func (u *bookingCommandsImpl) CancelBooking(ctx context.Context, id, actorID uuid.UUID) error {
	if _, err := u.loadOwned(ctx, id, actorID); err != nil {
		return err
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	cancelled, err := u.reservationRepo.CancelIfPending(ctx, tx, id)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !cancelled {
		return ErrNotPending
	}

	if err := u.scheduler.MarkDone(ctx, tx, id); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	u.publish(ctx, "booking.cancelled", id)
	return nil
}

func (u *bookingCommandsImpl) loadOwned(ctx context.Context, id, actorID uuid.UUID) (*booking.Reservation, error) {
	entity, err := u.reservationRepo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if entity.CreatorID() != actorID {
		return nil, ErrNotOwner
	}
	return entity, nil
}

func (u *bookingCommandsImpl) publish(ctx context.Context, topic string, reservationID uuid.UUID) {
	payload := map[string]any{"reservation_id": reservationID}
	if err := u.events.Publish(ctx, topic, payload); err != nil {
		slog.Warn("failed to publish booking event", "topic", topic, "reservation_id", reservationID, "error", err)
	}
}

func dedupKeyFor(creatorID uuid.UUID, req reqdto.CreateBookingRequest) string {
	courtKey := ""
	if req.CourtID != nil {
		courtKey = req.CourtID.String()
	} else if name := req.GetCourtName(); name != nil {
		courtKey = *name
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", creatorID, req.VenueID, courtKey, req.Date, req.StartTime)
}
