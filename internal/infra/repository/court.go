package repository

import (
	"context"

	"courtbook/internal/domain/venue"
	"courtbook/internal/infra"
	"courtbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CourtRepository struct {
	pool *pgxpool.Pool
}

func NewCourtRepository(pool *pgxpool.Pool) *CourtRepository {
	return &CourtRepository{pool: pool}
}

func (r *CourtRepository) FindByID(ctx context.Context, id uuid.UUID) (*venue.Court, error) {
	const q = `
		SELECT id, venue_id, name, sport_type
		FROM courts
		WHERE id = $1`

	return r.scanCourt(r.pool.QueryRow(ctx, q, id))
}

// FindByName resolves a court by its display name within a venue; clients
// sometimes submit the name instead of the id.
func (r *CourtRepository) FindByName(ctx context.Context, venueID uuid.UUID, name string) (*venue.Court, error) {
	const q = `
		SELECT id, venue_id, name, sport_type
		FROM courts
		WHERE venue_id = $1 AND name = $2`

	return r.scanCourt(r.pool.QueryRow(ctx, q, venueID, name))
}

func (r *CourtRepository) ListByVenue(ctx context.Context, venueID uuid.UUID) ([]*venue.Court, error) {
	const q = `
		SELECT id, venue_id, name, sport_type
		FROM courts
		WHERE venue_id = $1
		ORDER BY name`

	rows, err := r.pool.Query(ctx, q, venueID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list courts", err)
	}
	defer rows.Close()

	var courts []*venue.Court
	for rows.Next() {
		court, err := r.scanCourt(rows)
		if err != nil {
			return nil, err
		}
		courts = append(courts, court)
	}

	return courts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CourtRepository) scanCourt(row rowScanner) (*venue.Court, error) {
	var (
		id, venueID     uuid.UUID
		name, sportType string
	)
	if err := row.Scan(&id, &venueID, &name, &sportType); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("court not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan court", err)
	}

	court, err := venue.NewCourt(id, venueID, name, sportType)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid stored court", err)
	}
	return court, nil
}
