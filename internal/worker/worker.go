// Package worker processes async brief-email jobs dequeued from Redis.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/pkg/queue"
)

// EventGetter loads an event by ID.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// OrganiserGetter loads an organiser by ID.
type OrganiserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organiser, error)
}

// SignupLister loads signups by ID preserving the requested order.
type SignupLister interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.EventSignup, error)
}

// Deliverer sends one rendered brief email and records the outcome.
type Deliverer interface {
	Deliver(ctx context.Context, event *models.Event, organiser *models.Organiser, signup *models.EventSignup, note string) error
}

// BriefEmailProcessor executes brief-email jobs: reload the referenced
// records, then send in batches with a pause between them to stay inside
// outbound rate limits. Send order follows the job's signup order.
type BriefEmailProcessor struct {
	events     EventGetter
	organisers OrganiserGetter
	signups    SignupLister
	deliverer  Deliverer
	queue      *queue.Queue
	batchSize  int
	pause      time.Duration
	sleep      func(time.Duration)
	logger     *zap.Logger
}

// NewBriefEmailProcessor creates a brief-email job processor.
func NewBriefEmailProcessor(events EventGetter, organisers OrganiserGetter, signups SignupLister, deliverer Deliverer, q *queue.Queue, batchSize int, pause time.Duration, logger *zap.Logger) *BriefEmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &BriefEmailProcessor{
		events:     events,
		organisers: organisers,
		signups:    signups,
		deliverer:  deliverer,
		queue:      q,
		batchSize:  batchSize,
		pause:      pause,
		sleep:      time.Sleep,
		logger:     logger,
	}
}

// Process executes one brief-email job. A send failure for one recipient is
// recorded and the batch continues; only a failure to reload the referenced
// records makes the job itself fail and retry.
func (p *BriefEmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeBriefEmails {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.BriefEmailsPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	event, err := p.events.GetByID(ctx, payload.EventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		p.logger.Warn("event gone, dropping job", zap.String("event_id", payload.EventID.String()))
		return nil
	}
	organiser, err := p.organisers.GetByID(ctx, payload.OrganiserID)
	if err != nil {
		return fmt.Errorf("load organiser %s: %w", payload.OrganiserID, err)
	}
	if organiser == nil {
		p.logger.Warn("organiser gone, dropping job", zap.String("organiser_id", payload.OrganiserID.String()))
		return nil
	}
	signups, err := p.signups.ListByIDs(ctx, payload.SignupIDs)
	if err != nil {
		return fmt.Errorf("load signups: %w", err)
	}

	sent, failed := 0, 0
	for start := 0; start < len(signups); start += p.batchSize {
		end := start + p.batchSize
		if end > len(signups) {
			end = len(signups)
		}
		for i := start; i < end; i++ {
			if err := p.deliverer.Deliver(ctx, event, organiser, &signups[i], payload.Note); err != nil {
				failed++
				p.logger.Error("brief email failed",
					zap.String("event_id", event.ID.String()),
					zap.String("recipient", signups[i].Email),
					zap.Error(err))
				continue
			}
			sent++
		}
		if end < len(signups) {
			p.sleep(p.pause)
		}
	}

	p.logger.Info("brief email job done",
		zap.String("job_id", job.ID),
		zap.String("event_id", event.ID.String()),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *BriefEmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(queue.RetryBackoff)
		}
	}
}
