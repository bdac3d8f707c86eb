package commands

import (
	"context"
	"errors"
	"log/slog"

	"courtbook/internal/domain/booking"
	"courtbook/internal/infra"
	"courtbook/internal/infra/db"
	"courtbook/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotOpenGame      = errs.New("booking is not an open game")
	ErrGameNotConfirmed = errs.New("open game is not confirmed yet")
	ErrGameFull         = errs.New("open game has no spots left")
	ErrAlreadyJoined    = errs.New("user already joined this game")
	ErrNotJoined        = errs.New("user has not joined this game")
)

type ParticipantRepository interface {
	Add(ctx context.Context, tx db.DBTX, reservationID, userID uuid.UUID) error
	Remove(ctx context.Context, tx db.DBTX, reservationID, userID uuid.UUID) (bool, error)
	TakeSpot(ctx context.Context, tx db.DBTX, reservationID uuid.UUID) (bool, error)
	ReleaseSpot(ctx context.Context, tx db.DBTX, reservationID uuid.UUID) error
	Count(ctx context.Context, reservationID uuid.UUID) (int, error)
}

type ParticipantCommands interface {
	JoinGame(ctx context.Context, reservationID, userID uuid.UUID) error
	LeaveGame(ctx context.Context, reservationID, userID uuid.UUID) error
	PlayerCount(ctx context.Context, reservationID uuid.UUID) (int, error)
}

type participantCommandsImpl struct {
	reservationRepo ReservationRepository
	participantRepo ParticipantRepository
	events          EventPublisher
	db              TxBeginner
}

func NewParticipantCommands(
	reservationRepo ReservationRepository,
	participantRepo ParticipantRepository,
	events EventPublisher,
	db TxBeginner,
) ParticipantCommands {
	return &participantCommandsImpl{
		reservationRepo: reservationRepo,
		participantRepo: participantRepo,
		events:          events,
		db:              db,
	}
}

// JoinGame takes a spot in an open game. The decrement is conditional on
// spots remaining, so two concurrent joins for the last spot resolve to one
// winner and one ErrGameFull.
func (u *participantCommandsImpl) JoinGame(ctx context.Context, reservationID, userID uuid.UUID) error {
	entity, err := u.loadOpenGame(ctx, reservationID)
	if err != nil {
		return err
	}
	if entity.CreatorID() == userID {
		return ErrAlreadyJoined
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

	taken, err := u.participantRepo.TakeSpot(ctx, tx, reservationID)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !taken {
		return ErrGameFull
	}

	if err := u.participantRepo.Add(ctx, tx, reservationID, userID); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return ErrAlreadyJoined
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	u.publishParticipant(ctx, "booking.participant_joined", reservationID, userID)
	return nil
}

// LeaveGame releases the user's spot.
func (u *participantCommandsImpl) LeaveGame(ctx context.Context, reservationID, userID uuid.UUID) error {
	if _, err := u.loadOpenGame(ctx, reservationID); err != nil {
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

	removed, err := u.participantRepo.Remove(ctx, tx, reservationID, userID)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !removed {
		return ErrNotJoined
	}

	if err := u.participantRepo.ReleaseSpot(ctx, tx, reservationID); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	u.publishParticipant(ctx, "booking.participant_left", reservationID, userID)
	return nil
}

// PlayerCount is the joined participants plus the creator.
func (u *participantCommandsImpl) PlayerCount(ctx context.Context, reservationID uuid.UUID) (int, error) {
	n, err := u.participantRepo.Count(ctx, reservationID)
	if err != nil {
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return n + 1, nil
}

func (u *participantCommandsImpl) loadOpenGame(ctx context.Context, reservationID uuid.UUID) (*booking.Reservation, error) {
	entity, err := u.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !entity.IsOpenGame() {
		return nil, ErrNotOpenGame
	}
	// Spots only open up once the slot is settled; pending games may still
	// lose the auto-accept race.
	if entity.Status() != booking.StatusConfirmed {
		return nil, ErrGameNotConfirmed
	}
	return entity, nil
}

func (u *participantCommandsImpl) publishParticipant(ctx context.Context, topic string, reservationID, userID uuid.UUID) {
	payload := map[string]any{"reservation_id": reservationID, "user_id": userID}
	if err := u.events.Publish(ctx, topic, payload); err != nil {
		slog.Warn("failed to publish participant event", "topic", topic, "reservation_id", reservationID, "error", err)
	}
}
