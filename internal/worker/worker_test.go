package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/pkg/queue"
)

type fakeEvents struct{ event *models.Event }

func (f *fakeEvents) GetByID(context.Context, uuid.UUID) (*models.Event, error) {
	return f.event, nil
}

type fakeOrganisers struct{ organiser *models.Organiser }

func (f *fakeOrganisers) GetByID(context.Context, uuid.UUID) (*models.Organiser, error) {
	return f.organiser, nil
}

type fakeSignups struct{ signups []models.EventSignup }

func (f *fakeSignups) ListByIDs(context.Context, []uuid.UUID) ([]models.EventSignup, error) {
	return f.signups, nil
}

type fakeDeliverer struct {
	delivered []string
	failOn    string
}

func (f *fakeDeliverer) Deliver(_ context.Context, _ *models.Event, _ *models.Organiser, s *models.EventSignup, _ string) error {
	if s.Email == f.failOn {
		return errors.New("mailbox unavailable")
	}
	f.delivered = append(f.delivered, s.Email)
	return nil
}

func makeJob(t *testing.T, payload queue.BriefEmailsPayload) *queue.Job {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeBriefEmails, Payload: body}
}

func makeSignups(n int) []models.EventSignup {
	roleID := uuid.New()
	out := make([]models.EventSignup, n)
	for i := range out {
		out[i] = models.EventSignup{
			ID:     uuid.New(),
			UUID:   uuid.New(),
			Email:  fmt.Sprintf("player%02d@example.com", i),
			RoleID: &roleID,
		}
	}
	return out
}

func newProcessor(signups []models.EventSignup, deliverer *fakeDeliverer, pauses *int) *BriefEmailProcessor {
	event := &models.Event{ID: uuid.New(), Name: "Watch the Skies"}
	organiser := &models.Organiser{ID: uuid.New(), Name: "Olive", Email: "olive@example.com"}
	p := NewBriefEmailProcessor(
		&fakeEvents{event: event},
		&fakeOrganisers{organiser: organiser},
		&fakeSignups{signups: signups},
		deliverer,
		nil, 10, 3*time.Second, nil,
	)
	p.sleep = func(time.Duration) {
		if pauses != nil {
			*pauses++
		}
	}
	return p
}

func TestProcess_BatchesOfTenWithPause(t *testing.T) {
	signups := makeSignups(25)
	deliverer := &fakeDeliverer{}
	pauses := 0
	p := newProcessor(signups, deliverer, &pauses)

	ids := make([]uuid.UUID, len(signups))
	for i, s := range signups {
		ids[i] = s.ID
	}
	job := makeJob(t, queue.BriefEmailsPayload{
		EventID:     uuid.New(),
		OrganiserID: uuid.New(),
		SignupIDs:   ids,
	})

	require.NoError(t, p.Process(context.Background(), job))

	// All 25 sent in original order, pausing after the first two full batches.
	require.Len(t, deliverer.delivered, 25)
	for i, email := range deliverer.delivered {
		assert.Equal(t, signups[i].Email, email)
	}
	assert.Equal(t, 2, pauses)
}

func TestProcess_NoPauseAfterFinalBatch(t *testing.T) {
	signups := makeSignups(10)
	pauses := 0
	p := newProcessor(signups, &fakeDeliverer{}, &pauses)

	job := makeJob(t, queue.BriefEmailsPayload{EventID: uuid.New(), OrganiserID: uuid.New()})
	require.NoError(t, p.Process(context.Background(), job))
	assert.Zero(t, pauses)
}

func TestProcess_ContinuesPastDeliveryFailure(t *testing.T) {
	signups := makeSignups(12)
	deliverer := &fakeDeliverer{failOn: signups[3].Email}
	p := newProcessor(signups, deliverer, nil)

	job := makeJob(t, queue.BriefEmailsPayload{EventID: uuid.New(), OrganiserID: uuid.New()})

	// One bad mailbox does not fail the job; everyone else still gets theirs.
	require.NoError(t, p.Process(context.Background(), job))
	assert.Len(t, deliverer.delivered, 11)
	assert.NotContains(t, deliverer.delivered, signups[3].Email)
}

func TestProcess_RejectsUnknownJobType(t *testing.T) {
	p := newProcessor(nil, &fakeDeliverer{}, nil)
	err := p.Process(context.Background(), &queue.Job{Type: "resize_images"})
	assert.Error(t, err)
}

func TestProcess_DropsJobForDeletedEvent(t *testing.T) {
	p := newProcessor(nil, &fakeDeliverer{}, nil)
	p.events = &fakeEvents{event: nil}

	job := makeJob(t, queue.BriefEmailsPayload{EventID: uuid.New(), OrganiserID: uuid.New()})
	assert.NoError(t, p.Process(context.Background(), job))
}

func TestProcess_DropsJobForDeletedOrganiser(t *testing.T) {
	deliverer := &fakeDeliverer{}
	p := newProcessor(makeSignups(3), deliverer, nil)
	p.organisers = &fakeOrganisers{organiser: nil}

	job := makeJob(t, queue.BriefEmailsPayload{EventID: uuid.New(), OrganiserID: uuid.New()})
	assert.NoError(t, p.Process(context.Background(), job))
	assert.Empty(t, deliverer.delivered)
}
