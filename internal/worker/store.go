package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"courtbook/internal/domain/booking"
	"courtbook/internal/infra/repository"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore backs the evaluator with Postgres, composing the repositories the
// command side already uses.
type PGStore struct {
	pool            *pgxpool.Pool
	reservationRepo *repository.ReservationRepository
	jobRepo         *repository.AutoAcceptJobRepository
	readStore       queries.BookingReadStore
}

func NewPGStore(
	pool *pgxpool.Pool,
	reservationRepo *repository.ReservationRepository,
	jobRepo *repository.AutoAcceptJobRepository,
	readStore queries.BookingReadStore,
) *PGStore {
	return &PGStore{
		pool:            pool,
		reservationRepo: reservationRepo,
		jobRepo:         jobRepo,
		readStore:       readStore,
	}
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) DueJobs(ctx context.Context, now time.Time, limit int) ([]repository.AutoAcceptJob, error) {
	return s.jobRepo.Due(ctx, now, limit)
}

func (s *PGStore) FindReservation(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	return s.reservationRepo.FindByID(ctx, id)
}

func (s *PGStore) PendingOverlaps(ctx context.Context, venueID, courtID uuid.UUID, date, start, end string) ([]queries.PendingOverlap, error) {
	return s.readStore.ListPendingOverlaps(ctx, venueID, courtID, date, start, end)
}

// ConfirmAndSweep runs the resolution transaction: confirm the winner while
// it is still pending, cancel every other pending overlap of its interval and
// retire the jobs of everything it touched.
func (s *PGStore) ConfirmAndSweep(ctx context.Context, winnerID, courtID uuid.UUID, date, start, end string) ([]uuid.UUID, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, errs.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	confirmed, err := s.reservationRepo.ConfirmIfPending(ctx, tx, winnerID)
	if err != nil {
		return nil, false, err
	}
	if !confirmed {
		return nil, false, nil
	}

	cancelled, err := s.reservationRepo.CancelOverlappingPending(ctx, tx, courtID, date, start, end, winnerID)
	if err != nil {
		return nil, false, err
	}

	if err := s.jobRepo.MarkDone(ctx, tx, winnerID); err != nil {
		return nil, false, err
	}
	for _, loserID := range cancelled {
		if err := s.jobRepo.MarkDone(ctx, tx, loserID); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, errs.Wrap(err, "failed to commit transaction")
	}
	return cancelled, true, nil
}

func (s *PGStore) CompleteJob(ctx context.Context, reservationID uuid.UUID) error {
	return s.jobRepo.MarkDone(ctx, s.pool, reservationID)
}

func (s *PGStore) FailJob(ctx context.Context, reservationID uuid.UUID, cause string) error {
	return s.jobRepo.MarkFailed(ctx, reservationID, cause)
}
