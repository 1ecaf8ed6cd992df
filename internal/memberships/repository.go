package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository handles organiser-to-event membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a memberships repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const membershipColumns = `id, organiser_id, event_id, read_only, description, created_at, updated_at`

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.ID, &m.OrganiserID, &m.EventID, &m.ReadOnly, &m.Description,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a membership. The (organiser_id, event_id) unique
// constraint rejects duplicate assignments.
func (r *Repository) Create(ctx context.Context, m *models.Membership) error {
	const q = `INSERT INTO organiser_to_events (organiser_id, event_id, read_only, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, m.OrganiserID, m.EventID, m.ReadOnly, m.Description).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// GetByID returns a membership, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM organiser_to_events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// Get returns the membership linking an organiser to an event, or nil when none.
func (r *Repository) Get(ctx context.Context, organiserID, eventID uuid.UUID) (*models.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM organiser_to_events WHERE organiser_id = $1 AND event_id = $2`,
		organiserID, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// MemberRow is a membership joined with its organiser for listing.
type MemberRow struct {
	Membership models.Membership      `json:"membership"`
	Organiser  models.OrganiserPublic `json:"organiser"`
}

// ListByEvent returns all memberships on an event with their organisers.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]MemberRow, error) {
	const q = `SELECT m.id, m.organiser_id, m.event_id, m.read_only, m.description, m.created_at, m.updated_at,
			o.id, o.email, o.name, o.created_at
		FROM organiser_to_events m
		JOIN organisers o ON o.id = m.organiser_id
		WHERE m.event_id = $1
		ORDER BY m.created_at`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []MemberRow
	for rows.Next() {
		var row MemberRow
		m := &row.Membership
		o := &row.Organiser
		if err := rows.Scan(&m.ID, &m.OrganiserID, &m.EventID, &m.ReadOnly, &m.Description,
			&m.CreatedAt, &m.UpdatedAt, &o.ID, &o.Email, &o.Name, &o.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

// ListOrganisers returns the organiser accounts on an event filtered by
// read_only, used to assemble cast list sections.
func (r *Repository) ListOrganisers(ctx context.Context, eventID uuid.UUID, readOnly bool) ([]models.Organiser, error) {
	const q = `SELECT o.id, o.email, o.name, o.created_at, o.updated_at
		FROM organiser_to_events m
		JOIN organisers o ON o.id = m.organiser_id
		WHERE m.event_id = $1 AND m.read_only = $2
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, eventID, readOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Organiser
	for rows.Next() {
		var o models.Organiser
		if err := rows.Scan(&o.ID, &o.Email, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Update persists read_only and description changes.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, readOnly bool, description string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE organiser_to_events SET read_only = $1, description = $2, updated_at = NOW() WHERE id = $3`,
		readOnly, description, id)
	return err
}

// Delete removes a membership.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM organiser_to_events WHERE id = $1`, id)
	return err
}
