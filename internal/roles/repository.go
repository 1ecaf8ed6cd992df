package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository handles role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a roles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, team_id, event_id, name,
	COALESCE(brief_key, ''), COALESCE(brief_filename, ''), COALESCE(brief_content_type, ''),
	created_at, updated_at`

func scanRole(row pgx.Row) (*models.Role, error) {
	var ro models.Role
	err := row.Scan(&ro.ID, &ro.TeamID, &ro.EventID, &ro.Name,
		&ro.Brief.Key, &ro.Brief.Filename, &ro.Brief.ContentType,
		&ro.CreatedAt, &ro.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ro, nil
}

// Create inserts a role. The (team_id, name) unique constraint rejects
// duplicate names within a team.
func (r *Repository) Create(ctx context.Context, ro *models.Role) error {
	const q = `INSERT INTO roles (team_id, event_id, name) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, ro.TeamID, ro.EventID, ro.Name).Scan(&ro.ID, &ro.CreatedAt, &ro.UpdatedAt)
}

// GetByID returns a role, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	ro, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ro, err
}

// GetByName returns the role with that name in the team, or nil when none.
func (r *Repository) GetByName(ctx context.Context, teamID uuid.UUID, name string) (*models.Role, error) {
	ro, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE team_id = $1 AND name = $2`, teamID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ro, err
}

// ListByTeam returns all roles for a team sorted by name.
func (r *Repository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE team_id = $1 ORDER BY name`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ro)
	}
	return list, rows.Err()
}

// ListByEvent returns every role in the event sorted by name.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE event_id = $1 ORDER BY name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ro)
	}
	return list, rows.Err()
}

// UpdateName renames a role.
func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx, `UPDATE roles SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
	return err
}

// SetBrief replaces the role brief attachment reference.
func (r *Repository) SetBrief(ctx context.Context, id uuid.UUID, att models.Attachment) error {
	const q = `UPDATE roles SET brief_key = NULLIF($1, ''), brief_filename = NULLIF($2, ''),
		brief_content_type = NULLIF($3, ''), updated_at = NOW() WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, att.Key, att.Filename, att.ContentType, id)
	return err
}

// Delete removes a role; signups referencing it fall back to NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	return err
}

// ListUnfulfilled returns roles in the event with no signup assigned,
// paired with their team names, ordered by team then role name.
func (r *Repository) ListUnfulfilled(ctx context.Context, eventID uuid.UUID) ([]models.RoleSlot, error) {
	const q = `SELECT t.name, ro.name
		FROM roles ro
		JOIN teams t ON t.id = ro.team_id
		WHERE t.event_id = $1
		  AND NOT EXISTS (SELECT 1 FROM event_signups s WHERE s.role_id = ro.id)
		ORDER BY t.name, ro.name`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []models.RoleSlot
	for rows.Next() {
		var s models.RoleSlot
		if err := rows.Scan(&s.TeamName, &s.RoleName); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
