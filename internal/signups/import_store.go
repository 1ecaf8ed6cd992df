package signups

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// PgTxRunner runs import passes inside a single pgx transaction.
type PgTxRunner struct {
	pool *pgxpool.Pool
}

// NewPgTxRunner creates a transaction runner over the pool.
func NewPgTxRunner(pool *pgxpool.Pool) *PgTxRunner {
	return &PgTxRunner{pool: pool}
}

// RunInTx begins a transaction, hands a transactional store to fn, and
// commits only when fn succeeds.
func (r *PgTxRunner) RunInTx(ctx context.Context, fn func(ImportStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgImportStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}
	return nil
}

type pgImportStore struct {
	tx pgx.Tx
}

func (s *pgImportStore) FindTeam(ctx context.Context, eventID uuid.UUID, name string) (*models.Team, error) {
	var t models.Team
	err := s.tx.QueryRow(ctx,
		`SELECT id, event_id, name FROM teams WHERE event_id = $1 AND name = $2`, eventID, name).
		Scan(&t.ID, &t.EventID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *pgImportStore) CreateTeam(ctx context.Context, t *models.Team) error {
	return s.tx.QueryRow(ctx,
		`INSERT INTO teams (event_id, name) VALUES ($1, $2) RETURNING id`, t.EventID, t.Name).
		Scan(&t.ID)
}

func (s *pgImportStore) FindRole(ctx context.Context, eventID, teamID uuid.UUID, name string) (*models.Role, error) {
	var ro models.Role
	err := s.tx.QueryRow(ctx,
		`SELECT id, team_id, event_id, name FROM roles WHERE event_id = $1 AND team_id = $2 AND name = $3`,
		eventID, teamID, name).
		Scan(&ro.ID, &ro.TeamID, &ro.EventID, &ro.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ro, nil
}

func (s *pgImportStore) CreateRole(ctx context.Context, ro *models.Role) error {
	return s.tx.QueryRow(ctx,
		`INSERT INTO roles (team_id, event_id, name) VALUES ($1, $2, $3) RETURNING id`,
		ro.TeamID, ro.EventID, ro.Name).
		Scan(&ro.ID)
}

func (s *pgImportStore) CreateSignup(ctx context.Context, su *models.EventSignup) error {
	err := s.tx.QueryRow(ctx,
		`INSERT INTO event_signups (event_id, uuid, name, email, team_id, role_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		su.EventID, su.UUID, su.Name, su.Email, su.TeamID, su.RoleID).
		Scan(&su.ID)
	if err != nil {
		return fmt.Errorf("save signup for %s: %w", su.Email, err)
	}
	return nil
}
