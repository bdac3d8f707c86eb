// Package worker runs the auto-accept evaluator: a polling loop that resolves
// pending reservations whose acceptance window has elapsed. Scheduling is
// durable; jobs live in the database and survive restarts.
package worker

import (
	"context"
	"log/slog"
	"time"

	"courtbook/internal/domain/booking"
	"courtbook/internal/infra"
	"courtbook/internal/infra/repository"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
)

const dueBatchLimit = 100

// Store is the persistence surface the evaluator needs. The production
// implementation is PGStore; tests substitute a fake.
type Store interface {
	DueJobs(ctx context.Context, now time.Time, limit int) ([]repository.AutoAcceptJob, error)
	FindReservation(ctx context.Context, id uuid.UUID) (*booking.Reservation, error)
	PendingOverlaps(ctx context.Context, venueID, courtID uuid.UUID, date, start, end string) ([]queries.PendingOverlap, error)
	// ConfirmAndSweep atomically confirms the winner, cancels every pending
	// reservation overlapping the winner's interval and retires the
	// corresponding jobs. Returns the cancelled ids and whether the winner
	// was still pending.
	ConfirmAndSweep(ctx context.Context, winnerID, courtID uuid.UUID, date, start, end string) ([]uuid.UUID, bool, error)
	CompleteJob(ctx context.Context, reservationID uuid.UUID) error
	FailJob(ctx context.Context, reservationID uuid.UUID, cause string) error
}

type Evaluator struct {
	store  Store
	events commands.EventPublisher
	clock  clock.Clock
}

func NewEvaluator(store Store, events commands.EventPublisher, clk clock.Clock) *Evaluator {
	return &Evaluator{store: store, events: events, clock: clk}
}

// RunDue evaluates every job whose due time has passed. Failures are recorded
// on the job and do not stop the batch.
func (e *Evaluator) RunDue(ctx context.Context) error {
	jobs, err := e.store.DueJobs(ctx, e.clock.Now(), dueBatchLimit)
	if err != nil {
		return errs.Wrap(err, "failed to load due jobs")
	}

	for _, job := range jobs {
		if err := e.evaluate(ctx, job.ReservationID); err != nil {
			slog.Error("auto-accept evaluation failed",
				"reservation_id", job.ReservationID, "attempts", job.Attempts, "error", err)
			if failErr := e.store.FailJob(ctx, job.ReservationID, err.Error()); failErr != nil {
				slog.Error("failed to record job failure",
					"reservation_id", job.ReservationID, "error", failErr)
			}
		}
	}
	return nil
}

// evaluate resolves one due reservation. The earliest pending reservation in
// the contested interval wins (created_at, then id); every other pending
// overlap of the winner's interval is cancelled.
func (e *Evaluator) evaluate(ctx context.Context, reservationID uuid.UUID) error {
	res, err := e.store.FindReservation(ctx, reservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// The reservation is gone; retire the orphaned job.
			return e.store.CompleteJob(ctx, reservationID)
		}
		return errs.Wrap(err, "failed to load reservation")
	}

	if !res.IsPending() {
		// Resolved manually or by an earlier sweep.
		return e.store.CompleteJob(ctx, reservationID)
	}

	slot := res.Slot()
	overlaps, err := e.store.PendingOverlaps(ctx, res.VenueID(), res.CourtID(), slot.Date(), slot.Start(), slot.End())
	if err != nil {
		return errs.Wrap(err, "failed to load pending overlaps")
	}
	if len(overlaps) == 0 {
		// The reservation itself should be in the list; an empty result means
		// it was resolved between the two reads.
		return e.store.CompleteJob(ctx, reservationID)
	}

	winner := res
	if overlaps[0].ID != res.ID() {
		winner, err = e.store.FindReservation(ctx, overlaps[0].ID)
		if err != nil {
			return errs.Wrap(err, "failed to load winning reservation")
		}
	}

	winnerSlot := winner.Slot()
	cancelled, confirmed, err := e.store.ConfirmAndSweep(
		ctx, winner.ID(), winner.CourtID(),
		winnerSlot.Date(), winnerSlot.Start(), winnerSlot.End(),
	)
	if err != nil {
		return errs.Wrap(err, "failed to confirm winner")
	}
	if !confirmed {
		// Lost a race with a concurrent resolution; the next tick sees the
		// final state and completes the job.
		return nil
	}

	slog.Info("auto-accept resolved contested slot",
		"winner_id", winner.ID(), "cancelled", len(cancelled),
		"court_id", winner.CourtID(), "date", winnerSlot.Date(), "start", winnerSlot.Start())

	e.publish(ctx, "booking.confirmed", winner.ID())
	for _, loserID := range cancelled {
		e.publish(ctx, "booking.cancelled", loserID)
	}

	// The winner's own job is retired inside the sweep when it exists; this
	// covers the case where the evaluated job belongs to a loser.
	if winner.ID() != reservationID {
		return e.store.CompleteJob(ctx, reservationID)
	}
	return nil
}

func (e *Evaluator) publish(ctx context.Context, topic string, reservationID uuid.UUID) {
	payload := map[string]any{"reservation_id": reservationID}
	if err := e.events.Publish(ctx, topic, payload); err != nil {
		slog.Warn("failed to publish booking event", "topic", topic, "reservation_id", reservationID, "error", err)
	}
}

// Worker drives the evaluator on a fixed interval until its context is
// cancelled.
type Worker struct {
	evaluator *Evaluator
	interval  time.Duration
}

func NewWorker(evaluator *Evaluator, interval time.Duration) *Worker {
	return &Worker{evaluator: evaluator, interval: interval}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("auto-accept worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("auto-accept worker stopped")
			return
		case <-ticker.C:
			if err := w.evaluator.RunDue(ctx); err != nil {
				slog.Error("auto-accept tick failed", "error", err)
			}
		}
	}
}
