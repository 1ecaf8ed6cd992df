package signups

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository handles event signup persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a signups repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const signupColumns = `id, event_id, uuid, name, email, team_id, role_id, created_at, updated_at`

func scanSignup(row pgx.Row) (*models.EventSignup, error) {
	var s models.EventSignup
	err := row.Scan(&s.ID, &s.EventID, &s.UUID, &s.Name, &s.Email, &s.TeamID, &s.RoleID,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a signup, generating its public UUID. The (event_id, email)
// unique constraint rejects a second signup for the same address.
func (r *Repository) Create(ctx context.Context, s *models.EventSignup) error {
	s.UUID = uuid.New()
	const q = `INSERT INTO event_signups (event_id, uuid, name, email, team_id, role_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.EventID, s.UUID, s.Name, s.Email, s.TeamID, s.RoleID).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a signup, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventSignup, error) {
	s, err := scanSignup(r.pool.QueryRow(ctx, `SELECT `+signupColumns+` FROM event_signups WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// GetByUUID looks a signup up by its public identifier, or nil when not found.
func (r *Repository) GetByUUID(ctx context.Context, publicID uuid.UUID) (*models.EventSignup, error) {
	s, err := scanSignup(r.pool.QueryRow(ctx, `SELECT `+signupColumns+` FROM event_signups WHERE uuid = $1`, publicID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListByEvent returns all signups for an event, named players first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventSignup, error) {
	const q = `SELECT ` + signupColumns + ` FROM event_signups
		WHERE event_id = $1 ORDER BY name NULLS LAST, email`
	return r.list(ctx, q, eventID)
}

// ListByIDs returns the signups with the given IDs in the stored order of the
// slice. IDs no longer present are skipped.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.EventSignup, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+signupColumns+` FROM event_signups WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[uuid.UUID]models.EventSignup, len(ids))
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		byID[s.ID] = *s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]models.EventSignup, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Repository) list(ctx context.Context, q string, arg any) ([]models.EventSignup, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.EventSignup
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Update persists the mutable signup fields.
func (r *Repository) Update(ctx context.Context, s *models.EventSignup) error {
	const q = `UPDATE event_signups SET name = $1, email = $2, team_id = $3, role_id = $4,
		updated_at = NOW() WHERE id = $5`
	_, err := r.pool.Exec(ctx, q, s.Name, s.Email, s.TeamID, s.RoleID, s.ID)
	return err
}

// Delete removes a signup.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_signups WHERE id = $1`, id)
	return err
}

