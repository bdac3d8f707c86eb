package repository

import (
	"context"
	"time"

	"courtbook/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AutoAcceptJob is one scheduled evaluation of a pending reservation. Jobs
// live in the database so a process restart cannot drop them.
type AutoAcceptJob struct {
	ReservationID uuid.UUID
	DueAt         time.Time
	Attempts      int32
}

type AutoAcceptJobRepository struct {
	pool *pgxpool.Pool
}

func NewAutoAcceptJobRepository(pool *pgxpool.Pool) *AutoAcceptJobRepository {
	return &AutoAcceptJobRepository{pool: pool}
}

func (r *AutoAcceptJobRepository) Enqueue(ctx context.Context, tx Queryer, reservationID uuid.UUID, dueAt time.Time) error {
	const q = `
		INSERT INTO autoaccept_jobs (reservation_id, due_at)
		VALUES ($1, $2)
		ON CONFLICT (reservation_id) DO NOTHING`

	if _, err := tx.Exec(ctx, q, reservationID, dueAt); err != nil {
		return infra.WrapRepoErr("failed to enqueue auto-accept job", err)
	}
	return nil
}

// Due returns scheduled jobs whose due_at has passed, oldest first.
func (r *AutoAcceptJobRepository) Due(ctx context.Context, now time.Time, limit int) ([]AutoAcceptJob, error) {
	const q = `
		SELECT reservation_id, due_at, attempts
		FROM autoaccept_jobs
		WHERE status = 'scheduled' AND due_at <= $1
		ORDER BY due_at
		LIMIT $2`

	rows, err := r.pool.Query(ctx, q, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list due auto-accept jobs", err)
	}
	defer rows.Close()

	var jobs []AutoAcceptJob
	for rows.Next() {
		var j AutoAcceptJob
		if err := rows.Scan(&j.ReservationID, &j.DueAt, &j.Attempts); err != nil {
			return nil, infra.WrapRepoErr("failed to scan auto-accept job", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

func (r *AutoAcceptJobRepository) MarkDone(ctx context.Context, tx Queryer, reservationID uuid.UUID) error {
	const q = `
		UPDATE autoaccept_jobs
		SET status = 'done', attempts = attempts + 1, updated_at = now()
		WHERE reservation_id = $1`

	if _, err := tx.Exec(ctx, q, reservationID); err != nil {
		return infra.WrapRepoErr("failed to mark auto-accept job done", err)
	}
	return nil
}

// MarkFailed records the failure for later inspection; the evaluator does not
// retry on its own.
func (r *AutoAcceptJobRepository) MarkFailed(ctx context.Context, reservationID uuid.UUID, cause string) error {
	const q = `
		UPDATE autoaccept_jobs
		SET status = 'failed', attempts = attempts + 1, last_error = $2, updated_at = now()
		WHERE reservation_id = $1`

	if _, err := r.pool.Exec(ctx, q, reservationID, cause); err != nil {
		return infra.WrapRepoErr("failed to mark auto-accept job failed", err)
	}
	return nil
}
