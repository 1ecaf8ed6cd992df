package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, name, description, date, location,
	COALESCE(google_maps_link, ''), COALESCE(additional_info, ''), draft, organiser_id,
	COALESCE(rulebook_key, ''), COALESCE(rulebook_filename, ''), COALESCE(rulebook_content_type, ''),
	created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location,
		&e.GoogleMapsLink, &e.AdditionalInfo, &e.Draft, &e.OrganiserID,
		&e.Rulebook.Key, &e.Rulebook.Filename, &e.Rulebook.ContentType,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts an event and the owner's non-read-only membership in one
// transaction, so an event never exists without its owner membership.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO events (name, description, date, location, google_maps_link, additional_info, draft, organiser_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, q, e.Name, e.Description, e.Date, e.Location, e.GoogleMapsLink, e.AdditionalInfo, e.Draft, e.OrganiserID).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return err
	}

	const mq = `INSERT INTO organiser_to_events (organiser_id, event_id, read_only) VALUES ($1, $2, FALSE)`
	if _, err := tx.Exec(ctx, mq, e.OrganiserID, e.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns an event by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// ListForOrganiser returns every event the organiser owns or is a member of.
func (r *Repository) ListForOrganiser(ctx context.Context, organiserID uuid.UUID) ([]models.Event, error) {
	const q = `SELECT DISTINCT ` + eventColumns + ` FROM events e
		WHERE e.organiser_id = $1
		   OR EXISTS (SELECT 1 FROM organiser_to_events m WHERE m.event_id = e.id AND m.organiser_id = $1)
		ORDER BY date`
	rows, err := r.pool.Query(ctx, q, organiserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// updateEventSQL writes every field Handler.Update binds, draft included,
// so the stored row always matches the response body.
const updateEventSQL = `UPDATE events SET name = $1, description = $2, date = $3, location = $4,
	google_maps_link = NULLIF($5, ''), additional_info = NULLIF($6, ''), draft = $7, updated_at = NOW()
	WHERE id = $8`

// Update updates event fields.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	_, err := r.pool.Exec(ctx, updateEventSQL, e.Name, e.Description, e.Date, e.Location, e.GoogleMapsLink, e.AdditionalInfo, e.Draft, e.ID)
	return err
}

// SetDraft flips the draft flag; publishing is SetDraft(false).
func (r *Repository) SetDraft(ctx context.Context, id uuid.UUID, draft bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE events SET draft = $1, updated_at = NOW() WHERE id = $2`, draft, id)
	return err
}

// Delete removes an event. Teams, roles, signups, memberships and logs go
// with it via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}

// SetRulebook replaces the rulebook attachment reference.
func (r *Repository) SetRulebook(ctx context.Context, id uuid.UUID, att models.Attachment) error {
	const q = `UPDATE events SET rulebook_key = NULLIF($1, ''), rulebook_filename = NULLIF($2, ''),
		rulebook_content_type = NULLIF($3, ''), updated_at = NOW() WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, att.Key, att.Filename, att.ContentType, id)
	return err
}

// AddDocument inserts an additional-document attachment row.
func (r *Repository) AddDocument(ctx context.Context, d *models.EventDocument) error {
	const q = `INSERT INTO event_documents (event_id, key, filename, content_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, d.EventID, d.Attachment.Key, d.Attachment.Filename, d.Attachment.ContentType).
		Scan(&d.ID, &d.CreatedAt)
}

// ListDocuments returns the event's additional documents in upload order.
func (r *Repository) ListDocuments(ctx context.Context, eventID uuid.UUID) ([]models.EventDocument, error) {
	const q = `SELECT id, event_id, key, filename, content_type, created_at
		FROM event_documents WHERE event_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EventDocument
	for rows.Next() {
		var d models.EventDocument
		if err := rows.Scan(&d.ID, &d.EventID, &d.Attachment.Key, &d.Attachment.Filename, &d.Attachment.ContentType, &d.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// GetDocument returns one additional document, or nil when not found.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*models.EventDocument, error) {
	const q = `SELECT id, event_id, key, filename, content_type, created_at
		FROM event_documents WHERE id = $1`
	var d models.EventDocument
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&d.ID, &d.EventID, &d.Attachment.Key, &d.Attachment.Filename, &d.Attachment.ContentType, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ReplaceDocument swaps an additional document's attachment (used after
// conversion to PDF).
func (r *Repository) ReplaceDocument(ctx context.Context, id uuid.UUID, att models.Attachment) error {
	const q = `UPDATE event_documents SET key = $1, filename = $2, content_type = $3 WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, att.Key, att.Filename, att.ContentType, id)
	return err
}

// DeleteDocument removes an additional document row.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_documents WHERE id = $1`, id)
	return err
}
