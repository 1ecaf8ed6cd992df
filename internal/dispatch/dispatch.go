// Package dispatch decides how signup brief emails get delivered: small
// events send inline during the request, larger ones hand one job to the
// async worker.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/mailer"
	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/pkg/queue"
)

var (
	// ErrEventDraft blocks all dispatch until the event is published.
	ErrEventDraft = errors.New("event needs to be published to send emails")
	// ErrNoSignups is returned when the event has nobody to email.
	ErrNoSignups = errors.New("there are no signups to email")
	// ErrMissingRole is returned when a targeted signup has no role assigned.
	ErrMissingRole = errors.New("a signup is missing a role")
)

// Enqueuer hands a brief-email job to the async queue.
type Enqueuer interface {
	EnqueueBriefEmails(ctx context.Context, payload queue.BriefEmailsPayload) error
}

// LogRecorder persists the outcome of each delivery attempt.
type LogRecorder interface {
	RecordSent(ctx context.Context, eventID uuid.UUID, signupID *uuid.UUID, recipient, subject string) error
	RecordFailed(ctx context.Context, eventID uuid.UUID, signupID *uuid.UUID, recipient, subject, errMsg string) error
}

// Dispatcher routes brief emails between the sync and async paths.
type Dispatcher struct {
	sender        mailer.Sender
	enqueuer      Enqueuer
	logs          LogRecorder
	syncThreshold int
	publicURL     string
	logger        *zap.Logger
}

// NewDispatcher creates a dispatcher. Events with up to syncThreshold
// signups are emailed inline; anything larger is queued.
func NewDispatcher(sender mailer.Sender, enqueuer Enqueuer, logs LogRecorder, syncThreshold int, publicURL string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if syncThreshold <= 0 {
		syncThreshold = 10
	}
	return &Dispatcher{
		sender:        sender,
		enqueuer:      enqueuer,
		logs:          logs,
		syncThreshold: syncThreshold,
		publicURL:     publicURL,
		logger:        logger,
	}
}

// EmailAll sends the brief email to every signup on the event. It returns
// async=true when the batch was queued rather than sent inline.
//
// A failed inline send aborts the remaining loop and surfaces the error;
// partial delivery is reported rather than silently swallowed, and the email
// log records how far the loop got.
func (d *Dispatcher) EmailAll(ctx context.Context, event *models.Event, organiser *models.Organiser, signups []models.EventSignup, note string) (async bool, err error) {
	if event.Draft {
		return false, ErrEventDraft
	}
	for i := range signups {
		if signups[i].RoleID == nil {
			return false, fmt.Errorf("%w: %s", ErrMissingRole, signups[i].Email)
		}
	}
	if len(signups) == 0 {
		return false, ErrNoSignups
	}

	if len(signups) <= d.syncThreshold {
		for i := range signups {
			if err := d.Deliver(ctx, event, organiser, &signups[i], note); err != nil {
				return false, err
			}
		}
		d.logger.Info("brief emails sent inline",
			zap.String("event_id", event.ID.String()),
			zap.Int("count", len(signups)))
		return false, nil
	}

	ids := make([]uuid.UUID, len(signups))
	for i := range signups {
		ids[i] = signups[i].ID
	}
	payload := queue.BriefEmailsPayload{
		EventID:     event.ID,
		OrganiserID: organiser.ID,
		SignupIDs:   ids,
		Note:        note,
	}
	if err := d.enqueuer.EnqueueBriefEmails(ctx, payload); err != nil {
		return false, fmt.Errorf("enqueue brief emails: %w", err)
	}
	d.logger.Info("brief emails queued",
		zap.String("event_id", event.ID.String()),
		zap.Int("count", len(signups)))
	return true, nil
}

// EmailOne sends the brief email to a single signup, applying the same
// draft and missing-role checks as the bulk path.
func (d *Dispatcher) EmailOne(ctx context.Context, event *models.Event, organiser *models.Organiser, signup *models.EventSignup, note string) error {
	if event.Draft {
		return ErrEventDraft
	}
	if signup.RoleID == nil {
		return fmt.Errorf("%w: %s", ErrMissingRole, signup.Email)
	}
	return d.Deliver(ctx, event, organiser, signup, note)
}

// Deliver renders and sends one brief email, recording the outcome. The
// worker reuses it for async batches.
func (d *Dispatcher) Deliver(ctx context.Context, event *models.Event, organiser *models.Organiser, signup *models.EventSignup, note string) error {
	subject := mailer.BriefSubject(event)
	body, err := mailer.BriefBody(signup, event, organiser, note, d.publicURL)
	if err != nil {
		return err
	}
	if err := d.sender.Send(signup.Email, subject, body); err != nil {
		if d.logs != nil {
			if logErr := d.logs.RecordFailed(ctx, event.ID, &signup.ID, signup.Email, subject, err.Error()); logErr != nil {
				d.logger.Error("record failed email", zap.Error(logErr))
			}
		}
		return fmt.Errorf("send brief email to %s: %w", signup.Email, err)
	}
	if d.logs != nil {
		if logErr := d.logs.RecordSent(ctx, event.ID, &signup.ID, signup.Email, subject); logErr != nil {
			d.logger.Error("record sent email", zap.Error(logErr))
		}
	}
	return nil
}
