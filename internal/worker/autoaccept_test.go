//go:build unit

package worker_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"courtbook/internal/domain/booking"
	"courtbook/internal/infra"
	"courtbook/internal/infra/events"
	"courtbook/internal/infra/repository"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/queries"
	"courtbook/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	venueID      uuid.UUID
	jobs         []repository.AutoAcceptJob
	reservations map[uuid.UUID]*booking.Reservation
	completed    []uuid.UUID
	failed       map[uuid.UUID]string
	overlapsErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		venueID:      uuid.New(),
		reservations: make(map[uuid.UUID]*booking.Reservation),
		failed:       make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) addPending(created time.Time, courtID uuid.UUID, date, start, end string) *booking.Reservation {
	res := booking.ReconstructReservation(
		uuid.New(), f.venueID, courtID, uuid.New(),
		booking.ReconstructSlot(date, start, end),
		booking.KindPrivate, nil, nil,
		mustMoney(0), booking.StatusPending, booking.PaymentPending,
		created, created,
	)
	f.reservations[res.ID()] = res
	return res
}

func mustMoney(cents int64) booking.Money {
	m, err := booking.NewMoney(cents)
	if err != nil {
		panic(err)
	}
	return m
}

func (f *fakeStore) DueJobs(_ context.Context, now time.Time, _ int) ([]repository.AutoAcceptJob, error) {
	var due []repository.AutoAcceptJob
	for _, j := range f.jobs {
		if !j.DueAt.After(now) {
			due = append(due, j)
		}
	}
	return due, nil
}

func (f *fakeStore) FindReservation(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", errs.New("no rows"), infra.KindNotFound)
	}
	return res, nil
}

func (f *fakeStore) PendingOverlaps(_ context.Context, venueID, courtID uuid.UUID, date, start, end string) ([]queries.PendingOverlap, error) {
	if f.overlapsErr != nil {
		return nil, f.overlapsErr
	}
	window := booking.ReconstructSlot(date, start, end)

	var out []queries.PendingOverlap
	for _, res := range f.reservations {
		if res.VenueID() != venueID || res.CourtID() != courtID || !res.IsPending() || !res.Slot().Overlaps(window) {
			continue
		}
		out = append(out, queries.PendingOverlap{ID: res.ID(), CreatedAt: res.CreatedAt()})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakeStore) ConfirmAndSweep(_ context.Context, winnerID, courtID uuid.UUID, date, start, end string) ([]uuid.UUID, bool, error) {
	winner, ok := f.reservations[winnerID]
	if !ok || !winner.IsPending() {
		return nil, false, nil
	}
	if err := winner.Confirm(); err != nil {
		return nil, false, nil
	}
	f.completed = append(f.completed, winnerID)

	window := booking.ReconstructSlot(date, start, end)
	var cancelled []uuid.UUID
	for _, res := range f.reservations {
		if res.ID() == winnerID || res.CourtID() != courtID || !res.IsPending() || !res.Slot().Overlaps(window) {
			continue
		}
		_ = res.Cancel()
		cancelled = append(cancelled, res.ID())
		f.completed = append(f.completed, res.ID())
	}
	return cancelled, true, nil
}

func (f *fakeStore) CompleteJob(_ context.Context, reservationID uuid.UUID) error {
	f.completed = append(f.completed, reservationID)
	return nil
}

func (f *fakeStore) FailJob(_ context.Context, reservationID uuid.UUID, cause string) error {
	f.failed[reservationID] = cause
	return nil
}

func TestEvaluatorConfirmsEarliestAndCancelsRest(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base.Add(time.Hour))
	store := newFakeStore()
	courtID := uuid.New()

	first := store.addPending(base, courtID, "2024-03-02", "18:00:00", "20:00:00")
	second := store.addPending(base.Add(5*time.Second), courtID, "2024-03-02", "19:00:00", "21:00:00")

	store.jobs = []repository.AutoAcceptJob{{ReservationID: first.ID(), DueAt: base.Add(30 * time.Minute)}}

	ev := worker.NewEvaluator(store, events.NoopPublisher{}, clk)
	require.NoError(t, ev.RunDue(context.Background()))

	assert.Equal(t, booking.StatusConfirmed, first.Status())
	assert.Equal(t, booking.StatusCancelled, second.Status())
	assert.Empty(t, store.failed)
}

func TestEvaluatorResolvesLoserJobToEarlierWinner(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base.Add(time.Hour))
	store := newFakeStore()
	courtID := uuid.New()

	first := store.addPending(base, courtID, "2024-03-02", "18:00:00", "20:00:00")
	second := store.addPending(base.Add(5*time.Second), courtID, "2024-03-02", "18:00:00", "20:00:00")

	// The due job belongs to the later reservation; the earlier one still
	// wins.
	store.jobs = []repository.AutoAcceptJob{{ReservationID: second.ID(), DueAt: base.Add(30 * time.Minute)}}

	ev := worker.NewEvaluator(store, events.NoopPublisher{}, clk)
	require.NoError(t, ev.RunDue(context.Background()))

	assert.Equal(t, booking.StatusConfirmed, first.Status())
	assert.Equal(t, booking.StatusCancelled, second.Status())
	assert.Contains(t, store.completed, second.ID())
}

func TestEvaluatorSkipsFutureJobs(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base)
	store := newFakeStore()
	courtID := uuid.New()

	res := store.addPending(base, courtID, "2024-03-02", "18:00:00", "20:00:00")
	store.jobs = []repository.AutoAcceptJob{{ReservationID: res.ID(), DueAt: base.Add(30 * time.Minute)}}

	ev := worker.NewEvaluator(store, events.NoopPublisher{}, clk)
	require.NoError(t, ev.RunDue(context.Background()))
	assert.Equal(t, booking.StatusPending, res.Status(), "not due yet")

	clk.Advance(31 * time.Minute)
	require.NoError(t, ev.RunDue(context.Background()))
	assert.Equal(t, booking.StatusConfirmed, res.Status())
}

func TestEvaluatorRetiresResolvedJob(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base.Add(time.Hour))
	store := newFakeStore()
	courtID := uuid.New()

	res := store.addPending(base, courtID, "2024-03-02", "18:00:00", "20:00:00")
	require.NoError(t, res.Cancel())

	store.jobs = []repository.AutoAcceptJob{{ReservationID: res.ID(), DueAt: base.Add(30 * time.Minute)}}

	ev := worker.NewEvaluator(store, events.NoopPublisher{}, clk)
	require.NoError(t, ev.RunDue(context.Background()))

	assert.Equal(t, booking.StatusCancelled, res.Status(), "left untouched")
	assert.Contains(t, store.completed, res.ID())
}

func TestEvaluatorRecordsFailure(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(base.Add(time.Hour))
	store := newFakeStore()
	courtID := uuid.New()

	res := store.addPending(base, courtID, "2024-03-02", "18:00:00", "20:00:00")
	store.jobs = []repository.AutoAcceptJob{{ReservationID: res.ID(), DueAt: base.Add(30 * time.Minute)}}
	store.overlapsErr = errs.New("connection refused")

	ev := worker.NewEvaluator(store, events.NoopPublisher{}, clk)
	require.NoError(t, ev.RunDue(context.Background()))

	assert.Equal(t, booking.StatusPending, res.Status(), "reservation left untouched on failure")
	assert.Contains(t, store.failed[res.ID()], "connection refused")
}
