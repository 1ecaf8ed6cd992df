package emaillogs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pennine-megagames/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordSent logs a successful brief email.
func (r *Repository) RecordSent(ctx context.Context, eventID uuid.UUID, signupID *uuid.UUID, recipient, subject string) error {
	const q = `INSERT INTO email_logs (event_id, signup_id, recipient_email, subject, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, q, eventID, signupID, recipient, subject, models.EmailLogStatusSent, time.Now())
	return err
}

// RecordFailed logs a failed brief email with its delivery error.
func (r *Repository) RecordFailed(ctx context.Context, eventID uuid.UUID, signupID *uuid.UUID, recipient, subject, errMsg string) error {
	const q = `INSERT INTO email_logs (event_id, signup_id, recipient_email, subject, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, q, eventID, signupID, recipient, subject, models.EmailLogStatusFailed, errMsg)
	return err
}

// ListByEvent returns email logs for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, event_id, signup_id, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE event_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.EventID, &el.SignupID, &el.RecipientEmail, &el.Subject,
			&el.Status, &el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
