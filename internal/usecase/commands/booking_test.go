//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"courtbook/internal/domain/booking"
	"courtbook/internal/domain/venue"
	reqdto "courtbook/internal/handler/dto/request"
	"courtbook/internal/infra"
	"courtbook/internal/infra/db"
	"courtbook/internal/infra/events"
	"courtbook/internal/pkg/clock"
	"courtbook/internal/pkg/config"
	"courtbook/internal/pkg/errs"
	"courtbook/internal/usecase/commands"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes -----------------------------------------------------------------

type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return pgx.ErrTxClosed }

type fakeDB struct{}

func (fakeDB) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

type fakeReservationRepo struct {
	createdAt time.Time
	createErr error
	created   []*booking.Reservation
	byID      map[uuid.UUID]*booking.Reservation

	confirmed []uuid.UUID
	cancelled []uuid.UUID
	swept     []uuid.UUID
}

func newFakeReservationRepo(createdAt time.Time) *fakeReservationRepo {
	return &fakeReservationRepo{createdAt: createdAt, byID: make(map[uuid.UUID]*booking.Reservation)}
}

func (f *fakeReservationRepo) Create(_ context.Context, _ db.DBTX, res *booking.Reservation) (time.Time, error) {
	if f.createErr != nil {
		return time.Time{}, f.createErr
	}
	f.created = append(f.created, res)
	f.byID[res.ID()] = res
	return f.createdAt, nil
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", errs.New("no rows"), infra.KindNotFound)
	}
	return res, nil
}

func (f *fakeReservationRepo) ConfirmIfPending(_ context.Context, _ db.DBTX, id uuid.UUID) (bool, error) {
	res, ok := f.byID[id]
	if !ok || !res.IsPending() {
		return false, nil
	}
	f.confirmed = append(f.confirmed, id)
	return res.Confirm() == nil, nil
}

func (f *fakeReservationRepo) CancelIfPending(_ context.Context, _ db.DBTX, id uuid.UUID) (bool, error) {
	res, ok := f.byID[id]
	if !ok || !res.IsPending() {
		return false, nil
	}
	f.cancelled = append(f.cancelled, id)
	return res.Cancel() == nil, nil
}

func (f *fakeReservationRepo) CancelOverlappingPending(_ context.Context, _ db.DBTX, courtID uuid.UUID, date, start, end string, winnerID uuid.UUID) ([]uuid.UUID, error) {
	window := booking.ReconstructSlot(date, start, end)
	var out []uuid.UUID
	for id, res := range f.byID {
		if id == winnerID || res.CourtID() != courtID || !res.IsPending() || !res.Slot().Overlaps(window) {
			continue
		}
		_ = res.Cancel()
		out = append(out, id)
		f.swept = append(f.swept, id)
	}
	return out, nil
}

type fakeCourtRepo struct {
	courts map[uuid.UUID]*venue.Court
}

func (f *fakeCourtRepo) FindByID(_ context.Context, id uuid.UUID) (*venue.Court, error) {
	if c, ok := f.courts[id]; ok {
		return c, nil
	}
	return nil, infra.WrapRepoErr("court not found", errs.New("no rows"), infra.KindNotFound)
}

func (f *fakeCourtRepo) FindByName(_ context.Context, venueID uuid.UUID, name string) (*venue.Court, error) {
	for _, c := range f.courts {
		if c.VenueID() == venueID && c.Name() == name {
			return c, nil
		}
	}
	return nil, infra.WrapRepoErr("court not found", errs.New("no rows"), infra.KindNotFound)
}

type fakeScheduler struct {
	enqueued map[uuid.UUID]time.Time
	done     []uuid.UUID
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{enqueued: make(map[uuid.UUID]time.Time)}
}

func (f *fakeScheduler) Enqueue(_ context.Context, _ db.DBTX, id uuid.UUID, dueAt time.Time) error {
	f.enqueued[id] = dueAt
	return nil
}

func (f *fakeScheduler) MarkDone(_ context.Context, _ db.DBTX, id uuid.UUID) error {
	f.done = append(f.done, id)
	return nil
}

type fakeAvailability struct {
	conflict bool
	err      error

	checkedVenueID uuid.UUID
	checkedCourtID uuid.UUID
}

func (f *fakeAvailability) HasConflict(_ context.Context, venueID, courtID uuid.UUID, _, _ string, _ int) (bool, error) {
	f.checkedVenueID = venueID
	f.checkedCourtID = courtID
	return f.conflict, f.err
}

func (f *fakeAvailability) HasConflictSlot(_ context.Context, venueID, courtID uuid.UUID, _ booking.Slot) (bool, error) {
	f.checkedVenueID = venueID
	f.checkedCourtID = courtID
	return f.conflict, f.err
}

type fakeBookingQueries struct{}

func (fakeBookingQueries) GetByID(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	return &queries.BookingView{ID: id}, nil
}

func (fakeBookingQueries) ListByCreator(context.Context, uuid.UUID) ([]*queries.BookingListItem, error) {
	return nil, nil
}

// --- harness ---------------------------------------------------------------

type bookingFixture struct {
	commands     commands.BookingCommands
	reservations *fakeReservationRepo
	scheduler    *fakeScheduler
	availability *fakeAvailability
	upcoming     *commands.UpcomingGames
	court        *venue.Court
	venueID      uuid.UUID
	creatorID    uuid.UUID
	now          time.Time
	cfg          config.BookingConfig
}

func newBookingFixture(t *testing.T, mutate func(*bookingFixture)) *bookingFixture {
	t.Helper()

	venueID := uuid.New()
	court, err := venue.NewCourt(uuid.New(), venueID, "Court 1", "padel")
	require.NoError(t, err)

	f := &bookingFixture{
		reservations: newFakeReservationRepo(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)),
		scheduler:    newFakeScheduler(),
		availability: &fakeAvailability{},
		upcoming:     commands.NewUpcomingGames(),
		court:        court,
		venueID:      venueID,
		creatorID:    uuid.New(),
		now:          time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		cfg: config.BookingConfig{
			AutoAcceptDelay: 30 * time.Minute,
			AutoAcceptPoll:  time.Second,
		},
	}
	if mutate != nil {
		mutate(f)
	}

	courtRepo := &fakeCourtRepo{courts: map[uuid.UUID]*venue.Court{court.ID(): court}}
	f.commands = commands.NewBookingCommands(
		f.reservations,
		courtRepo,
		f.scheduler,
		f.availability,
		fakeBookingQueries{},
		commands.NewInflightGuard(),
		f.upcoming,
		events.NoopPublisher{},
		fakeDB{},
		clock.NewMockClock(f.now),
		f.cfg,
	)
	return f
}

func (f *bookingFixture) validRequest() reqdto.CreateBookingRequest {
	courtID := f.court.ID()
	return reqdto.CreateBookingRequest{
		VenueID:       f.venueID,
		CourtID:       &courtID,
		Date:          "2024-03-02",
		StartTime:     "6:00 PM",
		DurationHours: 2,
		Kind:          "private",
		PriceCents:    150000,
	}
}

// --- tests -----------------------------------------------------------------

func TestCreateBooking(t *testing.T) {
	t.Run("creates pending reservation and schedules evaluation", func(t *testing.T) {
		f := newBookingFixture(t, nil)

		view, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
		require.NoError(t, err)
		require.NotNil(t, view)

		require.Len(t, f.reservations.created, 1)
		created := f.reservations.created[0]
		assert.Equal(t, booking.StatusPending, created.Status())
		assert.Equal(t, booking.PaymentPending, created.PaymentStatus())
		assert.Equal(t, "18:00:00", created.Slot().Start())
		assert.Equal(t, "20:00:00", created.Slot().End())

		dueAt, ok := f.scheduler.enqueued[created.ID()]
		require.True(t, ok, "pending booking must be queued for evaluation")
		assert.Equal(t, f.reservations.createdAt.Add(30*time.Minute), dueAt)
	})

	t.Run("resolves court by name within the venue", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		req := f.validRequest()
		req.CourtID = nil
		name := "Court 1"
		req.CourtName = &name

		_, err := f.commands.CreateBooking(context.Background(), req, f.creatorID)
		require.NoError(t, err)
	})

	t.Run("instant-confirmed booking skips the queue and mirrors upcoming games", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		req := f.validRequest()
		req.Confirmed = true

		_, err := f.commands.CreateBooking(context.Background(), req, f.creatorID)
		require.NoError(t, err)

		require.Len(t, f.reservations.created, 1)
		created := f.reservations.created[0]
		assert.Equal(t, booking.StatusConfirmed, created.Status())
		assert.Empty(t, f.scheduler.enqueued)

		games := f.upcoming.ListByUser(f.creatorID)
		require.Len(t, games, 1)
		assert.Equal(t, "6:00 PM", games[0].StartTime)
		assert.Equal(t, "Court 1", games[0].CourtName)
	})

	t.Run("rejects invalid duration", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		req := f.validRequest()
		req.DurationHours = 4

		_, err := f.commands.CreateBooking(context.Background(), req, f.creatorID)
		assert.ErrorIs(t, err, commands.ErrValidation)
	})

	t.Run("rejects unknown court", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		req := f.validRequest()
		other := uuid.New()
		req.CourtID = &other

		_, err := f.commands.CreateBooking(context.Background(), req, f.creatorID)
		assert.ErrorIs(t, err, commands.ErrCourtNotFound)
	})

	t.Run("rejects court belonging to another venue", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		req := f.validRequest()
		req.VenueID = uuid.New()

		_, err := f.commands.CreateBooking(context.Background(), req, f.creatorID)
		assert.ErrorIs(t, err, commands.ErrCourtNotFound)
	})

	t.Run("conflict check is scoped to the request venue and resolved court", func(t *testing.T) {
		f := newBookingFixture(t, nil)

		_, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
		require.NoError(t, err)

		assert.Equal(t, f.venueID, f.availability.checkedVenueID)
		assert.Equal(t, f.court.ID(), f.availability.checkedCourtID)
	})

	t.Run("rejects conflicting slot", func(t *testing.T) {
		f := newBookingFixture(t, func(f *bookingFixture) { f.availability.conflict = true })

		_, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
		assert.ErrorIs(t, err, commands.ErrSlotConflict)
		assert.Empty(t, f.reservations.created)
	})

	t.Run("fails closed when the conflict check errors", func(t *testing.T) {
		f := newBookingFixture(t, func(f *bookingFixture) { f.availability.err = errs.New("connection refused") })

		_, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
		assert.ErrorIs(t, err, commands.ErrDatabaseOperationFailed)
		assert.Empty(t, f.reservations.created)
	})

	t.Run("fail-open config lets the booking through on conflict check errors", func(t *testing.T) {
		f := newBookingFixture(t, func(f *bookingFixture) {
			f.availability.err = errs.New("connection refused")
			f.cfg.ConflictFailOpen = true
		})

		_, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
		require.NoError(t, err)
		assert.Len(t, f.reservations.created, 1)
	})

	t.Run("maps duplicate key to duplicate-in-progress", func(t *testing.T) {
		f := newBookingFixture(t, func(f *bookingFixture) {
			f.reservations.createErr = infra.WrapRepoErr("duplicate pending reservation", errs.New("23505"), infra.KindDuplicateKey)
		})

		_, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
		assert.ErrorIs(t, err, commands.ErrDuplicateInProgress)
	})

	t.Run("guard is released after completion", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		req := f.validRequest()

		_, err := f.commands.CreateBooking(context.Background(), req, f.creatorID)
		require.NoError(t, err)

		// Identical resubmission is allowed once the first finishes; the
		// database index is the durable guard.
		_, err = f.commands.CreateBooking(context.Background(), req, f.creatorID)
		require.NoError(t, err)
	})
}

func TestConfirmBooking(t *testing.T) {
	seed := func(t *testing.T, f *bookingFixture) *booking.Reservation {
		t.Helper()
		_, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
		require.NoError(t, err)
		return f.reservations.created[0]
	}

	t.Run("confirms and sweeps overlapping pendings", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		res := seed(t, f)

		rivalReq := f.validRequest()
		rival, err := f.commands.CreateBooking(context.Background(), rivalReq, uuid.New())
		require.NoError(t, err)

		require.NoError(t, f.commands.ConfirmBooking(context.Background(), res.ID(), f.creatorID))

		assert.Equal(t, booking.StatusConfirmed, res.Status())
		assert.Contains(t, f.reservations.swept, rival.ID)
		assert.Contains(t, f.scheduler.done, res.ID())
	})

	t.Run("rejects non-owner", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		res := seed(t, f)

		err := f.commands.ConfirmBooking(context.Background(), res.ID(), uuid.New())
		assert.ErrorIs(t, err, commands.ErrNotOwner)
	})

	t.Run("rejects already-resolved booking", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		res := seed(t, f)
		require.NoError(t, res.Cancel())

		err := f.commands.ConfirmBooking(context.Background(), res.ID(), f.creatorID)
		assert.ErrorIs(t, err, commands.ErrNotPending)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newBookingFixture(t, nil)
		err := f.commands.ConfirmBooking(context.Background(), uuid.New(), f.creatorID)
		assert.ErrorIs(t, err, commands.ErrBookingNotFound)
	})
}

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture(t, nil)
	_, err := f.commands.CreateBooking(context.Background(), f.validRequest(), f.creatorID)
	require.NoError(t, err)
	res := f.reservations.created[0]

	require.NoError(t, f.commands.CancelBooking(context.Background(), res.ID(), f.creatorID))
	assert.Equal(t, booking.StatusCancelled, res.Status())
	assert.Contains(t, f.scheduler.done, res.ID())

	err = f.commands.CancelBooking(context.Background(), res.ID(), f.creatorID)
	assert.True(t, errors.Is(err, commands.ErrNotPending))
}
