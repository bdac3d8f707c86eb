package repository

import (
	"context"
	"errors"

	"courtbook/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

func (r *ParticipantRepository) Add(ctx context.Context, tx Queryer, reservationID, userID uuid.UUID) error {
	const q = `
		INSERT INTO booking_participants (reservation_id, user_id)
		VALUES ($1, $2)`

	if _, err := tx.Exec(ctx, q, reservationID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return infra.WrapRepoErr("user already joined", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to add participant", err)
	}
	return nil
}

func (r *ParticipantRepository) Remove(ctx context.Context, tx Queryer, reservationID, userID uuid.UUID) (bool, error) {
	const q = `
		DELETE FROM booking_participants
		WHERE reservation_id = $1 AND user_id = $2`

	tag, err := tx.Exec(ctx, q, reservationID, userID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to remove participant", err)
	}
	return tag.RowsAffected() > 0, nil
}

// TakeSpot decrements spots_needed only while spots remain, so concurrent
// joins cannot race the counter below zero.
func (r *ParticipantRepository) TakeSpot(ctx context.Context, tx Queryer, reservationID uuid.UUID) (bool, error) {
	const q = `
		UPDATE reservations
		SET spots_needed = spots_needed - 1, updated_at = now()
		WHERE id = $1 AND spots_needed > 0`

	tag, err := tx.Exec(ctx, q, reservationID)
	if err != nil {
		return false, infra.WrapRepoErr("failed to take spot", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ParticipantRepository) ReleaseSpot(ctx context.Context, tx Queryer, reservationID uuid.UUID) error {
	const q = `
		UPDATE reservations
		SET spots_needed = spots_needed + 1, updated_at = now()
		WHERE id = $1 AND spots_needed IS NOT NULL`

	if _, err := tx.Exec(ctx, q, reservationID); err != nil {
		return infra.WrapRepoErr("failed to release spot", err)
	}
	return nil
}

// Count returns the number of joined participants, excluding the creator.
func (r *ParticipantRepository) Count(ctx context.Context, reservationID uuid.UUID) (int, error) {
	const q = `
		SELECT count(*)
		FROM booking_participants
		WHERE reservation_id = $1`

	var n int
	if err := r.pool.QueryRow(ctx, q, reservationID).Scan(&n); err != nil {
		return 0, infra.WrapRepoErr("failed to count participants", err)
	}
	return n, nil
}
