// Package readstore is the query side of persistence: view projections and
// the interval queries the booking workflow ranks and counts.
package readstore

import (
	"context"
	"time"

	"courtbook/internal/infra"
	"courtbook/internal/pkg/pgconv"
	"courtbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingReadStore struct {
	pool *pgxpool.Pool
}

func NewBookingReadStore(pool *pgxpool.Pool) *BookingReadStore {
	return &BookingReadStore{pool: pool}
}

func (r *BookingReadStore) FindViewByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	const q = `
		SELECT r.id, r.venue_id, r.court_id, c.name, r.creator_id,
		       r.date, r.start_time, r.end_time,
		       r.kind, r.skill_level, r.spots_needed, r.price_cents,
		       r.status, r.payment_status, r.created_at, r.updated_at
		FROM reservations r
		JOIN courts c ON c.id = r.court_id
		WHERE r.id = $1`

	var (
		view        queries.BookingView
		date        pgtype.Date
		skillLevel  pgtype.Text
		spotsNeeded pgtype.Int4
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&view.ID, &view.VenueID, &view.CourtID, &view.CourtName, &view.CreatorID,
		&date, &view.StartTime, &view.EndTime,
		&view.Kind, &skillLevel, &spotsNeeded, &view.PriceCents,
		&view.Status, &view.PaymentStatus, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation view", err)
	}

	view.Date = pgconv.StringFromDate(date)
	view.SkillLevel = pgconv.StringPtrFromText(skillLevel)
	view.SpotsNeeded = pgconv.Int32PtrFromInt4(spotsNeeded)
	return &view, nil
}

func (r *BookingReadStore) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*queries.BookingListItem, error) {
	const q = `
		SELECT r.id, r.court_id, c.name, r.date, r.start_time, r.end_time,
		       r.kind, r.status, r.created_at
		FROM reservations r
		JOIN courts c ON c.id = r.court_id
		WHERE r.creator_id = $1
		ORDER BY r.date DESC, r.start_time DESC`

	rows, err := r.pool.Query(ctx, q, creatorID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	var items []*queries.BookingListItem
	for rows.Next() {
		var (
			item queries.BookingListItem
			date pgtype.Date
		)
		if err := rows.Scan(
			&item.ID, &item.CourtID, &item.CourtName, &date, &item.StartTime,
			&item.EndTime, &item.Kind, &item.Status, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation list item", err)
		}
		item.Date = pgconv.StringFromDate(date)
		items = append(items, &item)
	}

	return items, rows.Err()
}

// CountConfirmedOverlaps counts confirmed reservations on (venue, court, date)
// whose half-open interval intersects [start, end). Back-to-back slots do not
// count.
func (r *BookingReadStore) CountConfirmedOverlaps(ctx context.Context, venueID, courtID uuid.UUID, date, start, end string) (int, error) {
	pgDate, err := pgconv.DateFromString(date)
	if err != nil {
		return 0, infra.WrapRepoErr("invalid date", err)
	}

	const q = `
		SELECT count(*)
		FROM reservations
		WHERE venue_id = $1
		  AND court_id = $2
		  AND date = $3
		  AND status = 'confirmed'
		  AND start_time < $5
		  AND end_time > $4`

	var n int
	if err := r.pool.QueryRow(ctx, q, venueID, courtID, pgDate, start, end).Scan(&n); err != nil {
		return 0, infra.WrapRepoErr("failed to count confirmed overlaps", err)
	}
	return n, nil
}

// ListPendingOverlaps returns every pending reservation on (venue, court,
// date) overlapping [start, end), ordered by creation time with id as
// tie-break so the first-come-first-served ranking is deterministic.
func (r *BookingReadStore) ListPendingOverlaps(ctx context.Context, venueID, courtID uuid.UUID, date, start, end string) ([]queries.PendingOverlap, error) {
	pgDate, err := pgconv.DateFromString(date)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid date", err)
	}

	const q = `
		SELECT id, created_at
		FROM reservations
		WHERE venue_id = $1
		  AND court_id = $2
		  AND date = $3
		  AND status = 'pending'
		  AND start_time < $5
		  AND end_time > $4
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, q, venueID, courtID, pgDate, start, end)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list pending overlaps", err)
	}
	defer rows.Close()

	var overlaps []queries.PendingOverlap
	for rows.Next() {
		var (
			o  queries.PendingOverlap
			ts time.Time
		)
		if err := rows.Scan(&o.ID, &ts); err != nil {
			return nil, infra.WrapRepoErr("failed to scan pending overlap", err)
		}
		o.CreatedAt = ts
		overlaps = append(overlaps, o)
	}

	return overlaps, rows.Err()
}
