package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository implements Store against PostgreSQL. It only reads the columns
// the decider needs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an authz repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetEvent returns the event's identity columns, or nil when not found.
func (r *Repository) GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	const q = `SELECT id, organiser_id, draft FROM events WHERE id = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, eventID).Scan(&e.ID, &e.OrganiserID, &e.Draft)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetMembership returns the (organiser, event) membership, or nil when none.
func (r *Repository) GetMembership(ctx context.Context, organiserID, eventID uuid.UUID) (*models.Membership, error) {
	const q = `SELECT id, organiser_id, event_id, read_only, description, created_at, updated_at
		FROM organiser_to_events WHERE organiser_id = $1 AND event_id = $2`
	var m models.Membership
	err := r.pool.QueryRow(ctx, q, organiserID, eventID).
		Scan(&m.ID, &m.OrganiserID, &m.EventID, &m.ReadOnly, &m.Description, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
