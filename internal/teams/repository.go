package teams

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository handles team persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a teams repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const teamColumns = `id, event_id, name,
	COALESCE(image_key, ''), COALESCE(image_filename, ''), COALESCE(image_content_type, ''),
	COALESCE(brief_key, ''), COALESCE(brief_filename, ''), COALESCE(brief_content_type, ''),
	created_at, updated_at`

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	err := row.Scan(&t.ID, &t.EventID, &t.Name,
		&t.Image.Key, &t.Image.Filename, &t.Image.ContentType,
		&t.Brief.Key, &t.Brief.Filename, &t.Brief.ContentType,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a team. The (event_id, name) unique constraint rejects
// duplicate names within an event.
func (r *Repository) Create(ctx context.Context, t *models.Team) error {
	const q = `INSERT INTO teams (event_id, name) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.EventID, t.Name).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a team, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, err := scanTeam(r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// GetByName returns the team with that name in the event, or nil when none.
func (r *Repository) GetByName(ctx context.Context, eventID uuid.UUID, name string) (*models.Team, error) {
	t, err := scanTeam(r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE event_id = $1 AND name = $2`, eventID, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ListByEvent returns all teams for an event sorted by name.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+teamColumns+` FROM teams WHERE event_id = $1 ORDER BY name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

// UpdateName renames a team.
func (r *Repository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx, `UPDATE teams SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
	return err
}

// SetImage replaces the team image attachment reference.
func (r *Repository) SetImage(ctx context.Context, id uuid.UUID, att models.Attachment) error {
	const q = `UPDATE teams SET image_key = NULLIF($1, ''), image_filename = NULLIF($2, ''),
		image_content_type = NULLIF($3, ''), updated_at = NOW() WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, att.Key, att.Filename, att.ContentType, id)
	return err
}

// SetBrief replaces the team brief attachment reference.
func (r *Repository) SetBrief(ctx context.Context, id uuid.UUID, att models.Attachment) error {
	const q = `UPDATE teams SET brief_key = NULLIF($1, ''), brief_filename = NULLIF($2, ''),
		brief_content_type = NULLIF($3, ''), updated_at = NOW() WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, att.Key, att.Filename, att.ContentType, id)
	return err
}

// Delete removes a team; its roles go with it via ON DELETE CASCADE and
// signups referencing it fall back to NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	return err
}
