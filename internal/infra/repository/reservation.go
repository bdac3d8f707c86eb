package repository

import (
	"context"
	"errors"
	"time"

	"courtbook/internal/domain/booking"
	"courtbook/internal/infra"
	"courtbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// Create persists a reservation and returns its server-side creation
// timestamp. A partial unique index on (creator, court, date, start) while
// pending turns racing duplicate submissions into KindDuplicateKey.
func (r *ReservationRepository) Create(ctx context.Context, tx Queryer, res *booking.Reservation) (time.Time, error) {
	date, err := pgconv.DateFromString(res.Slot().Date())
	if err != nil {
		return time.Time{}, infra.WrapRepoErr("invalid reservation date", err)
	}

	const q = `
		INSERT INTO reservations (
			id, venue_id, court_id, creator_id, date, start_time, end_time,
			kind, skill_level, spots_needed, price_cents, status, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`

	var createdAt time.Time
	err = tx.QueryRow(ctx, q,
		res.ID(), res.VenueID(), res.CourtID(), res.CreatorID(),
		date, res.Slot().Start(), res.Slot().End(),
		res.Kind().String(), pgconv.TextPtr(res.SkillLevel()), pgconv.Int4Ptr(res.SpotsNeeded()),
		res.Price().Cents(), res.Status().String(), res.PaymentStatus().String(),
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return time.Time{}, infra.WrapRepoErr("duplicate pending reservation", err, infra.KindDuplicateKey)
		}
		return time.Time{}, infra.WrapRepoErr("failed to insert reservation", err)
	}

	return createdAt, nil
}

// ConfirmIfPending transitions id to confirmed and reports whether the row
// was still pending. The conditional update is the only guard against another
// actor resolving the reservation first.
func (r *ReservationRepository) ConfirmIfPending(ctx context.Context, tx Queryer, id uuid.UUID) (bool, error) {
	return r.transitionIfPending(ctx, tx, id, booking.StatusConfirmed)
}

// CancelIfPending transitions id to cancelled and reports whether the row was
// still pending.
func (r *ReservationRepository) CancelIfPending(ctx context.Context, tx Queryer, id uuid.UUID) (bool, error) {
	return r.transitionIfPending(ctx, tx, id, booking.StatusCancelled)
}

func (r *ReservationRepository) transitionIfPending(ctx context.Context, tx Queryer, id uuid.UUID, to booking.Status) (bool, error) {
	const q = `
		UPDATE reservations
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`

	tag, err := tx.Exec(ctx, q, id, to.String())
	if err != nil {
		return false, infra.WrapRepoErr("failed to update reservation status", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CancelOverlappingPending cancels every pending reservation on the same
// court and date whose [start,end) interval overlaps the given one, except
// the winner. Returns the ids it cancelled. Sweeping by interval rather than
// by a pre-read batch also catches rows created after the batch was read.
func (r *ReservationRepository) CancelOverlappingPending(
	ctx context.Context,
	tx Queryer,
	courtID uuid.UUID,
	dateStr, start, end string,
	winnerID uuid.UUID,
) ([]uuid.UUID, error) {
	date, err := pgconv.DateFromString(dateStr)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid reservation date", err)
	}

	const q = `
		UPDATE reservations
		SET status = 'cancelled', updated_at = now()
		WHERE court_id = $1
		  AND date = $2
		  AND status = 'pending'
		  AND id <> $5
		  AND start_time < $4
		  AND end_time > $3
		RETURNING id`

	rows, err := tx.Query(ctx, q, courtID, date, start, end, winnerID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to cancel overlapping pending reservations", err)
	}
	defer rows.Close()

	var cancelled []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan cancelled reservation id", err)
		}
		cancelled = append(cancelled, id)
	}

	return cancelled, rows.Err()
}

// FindByID reconstructs the domain entity.
func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Reservation, error) {
	const q = `
		SELECT id, venue_id, court_id, creator_id, date, start_time, end_time,
		       kind, skill_level, spots_needed, price_cents, status,
		       payment_status, created_at, updated_at
		FROM reservations
		WHERE id = $1`

	var (
		resID, venueID, courtID, creatorID uuid.UUID
		date                               pgtype.Date
		startTime, endTime, kind           string
		skillLevel                         pgtype.Text
		spotsNeeded                        pgtype.Int4
		priceCents                         int64
		status, paymentStatus              string
		createdAt, updatedAt               time.Time
	)

	err := r.pool.QueryRow(ctx, q, id).Scan(
		&resID, &venueID, &courtID, &creatorID, &date, &startTime, &endTime,
		&kind, &skillLevel, &spotsNeeded, &priceCents, &status,
		&paymentStatus, &createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}

	price, err := booking.NewMoney(priceCents)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid stored price", err)
	}

	return booking.ReconstructReservation(
		resID, venueID, courtID, creatorID,
		booking.ReconstructSlot(pgconv.StringFromDate(date), trimWire(startTime), trimWire(endTime)),
		booking.Kind(kind),
		pgconv.StringPtrFromText(skillLevel),
		pgconv.Int32PtrFromInt4(spotsNeeded),
		price,
		booking.Status(status),
		booking.PaymentStatus(paymentStatus),
		createdAt, updatedAt,
	), nil
}

// char(8) columns come back space-padded when shorter values sneak in.
func trimWire(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
