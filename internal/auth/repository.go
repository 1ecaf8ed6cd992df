package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository handles organiser account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns an organiser by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organiser, error) {
	const q = `SELECT id, email, password_hash, name, created_at, updated_at FROM organisers WHERE id = $1`
	var o models.Organiser
	err := r.pool.QueryRow(ctx, q, id).Scan(&o.ID, &o.Email, &o.Password, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByEmail returns an organiser by email, or nil when not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Organiser, error) {
	const q = `SELECT id, email, password_hash, name, created_at, updated_at FROM organisers WHERE email = $1`
	var o models.Organiser
	err := r.pool.QueryRow(ctx, q, email).Scan(&o.ID, &o.Email, &o.Password, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a new organiser account.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string) (*models.Organiser, error) {
	const q = `INSERT INTO organisers (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, name, created_at, updated_at`
	var o models.Organiser
	err := r.pool.QueryRow(ctx, q, email, passwordHash, name).
		Scan(&o.ID, &o.Email, &o.Password, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Delete removes an organiser. Events the organiser owns are removed by the
// ON DELETE CASCADE on events.organiser_id, memberships likewise.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM organisers WHERE id = $1`, id)
	return err
}
