package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/pkg/queue"
)

type fakeSender struct {
	sent     []string
	failOn   string
	failWith error
}

func (f *fakeSender) Send(to, _, _ string) error {
	if to == f.failOn {
		return f.failWith
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeEnqueuer struct {
	payloads []queue.BriefEmailsPayload
}

func (f *fakeEnqueuer) EnqueueBriefEmails(_ context.Context, p queue.BriefEmailsPayload) error {
	f.payloads = append(f.payloads, p)
	return nil
}

type fakeLogs struct {
	sent   []string
	failed []string
}

func (f *fakeLogs) RecordSent(_ context.Context, _ uuid.UUID, _ *uuid.UUID, recipient, _ string) error {
	f.sent = append(f.sent, recipient)
	return nil
}

func (f *fakeLogs) RecordFailed(_ context.Context, _ uuid.UUID, _ *uuid.UUID, recipient, _, _ string) error {
	f.failed = append(f.failed, recipient)
	return nil
}

func fixtures(n int) (*models.Event, *models.Organiser, []models.EventSignup) {
	event := &models.Event{ID: uuid.New(), Name: "Watch the Skies", Location: "Leeds"}
	organiser := &models.Organiser{ID: uuid.New(), Name: "Olive", Email: "olive@example.com"}
	roleID := uuid.New()
	signups := make([]models.EventSignup, n)
	for i := range signups {
		signups[i] = models.EventSignup{
			ID:      uuid.New(),
			EventID: event.ID,
			UUID:    uuid.New(),
			Email:   fmt.Sprintf("player%02d@example.com", i),
			RoleID:  &roleID,
		}
	}
	return event, organiser, signups
}

func newTestDispatcher(sender *fakeSender, enqueuer *fakeEnqueuer, logs *fakeLogs) *Dispatcher {
	return NewDispatcher(sender, enqueuer, logs, 10, "http://localhost:8080", nil)
}

func TestEmailAll_DraftEventSendsNothing(t *testing.T) {
	event, organiser, signups := fixtures(3)
	event.Draft = true
	sender := &fakeSender{}
	d := newTestDispatcher(sender, &fakeEnqueuer{}, &fakeLogs{})

	_, err := d.EmailAll(context.Background(), event, organiser, signups, "")
	assert.ErrorIs(t, err, ErrEventDraft)
	assert.Empty(t, sender.sent)
}

func TestEmailAll_MissingRole(t *testing.T) {
	event, organiser, signups := fixtures(3)
	signups[1].RoleID = nil
	sender := &fakeSender{}
	d := newTestDispatcher(sender, &fakeEnqueuer{}, &fakeLogs{})

	_, err := d.EmailAll(context.Background(), event, organiser, signups, "")
	assert.ErrorIs(t, err, ErrMissingRole)
	assert.Empty(t, sender.sent)
}

func TestEmailAll_NoSignups(t *testing.T) {
	event, organiser, _ := fixtures(0)
	d := newTestDispatcher(&fakeSender{}, &fakeEnqueuer{}, &fakeLogs{})

	_, err := d.EmailAll(context.Background(), event, organiser, nil, "")
	assert.ErrorIs(t, err, ErrNoSignups)
}

func TestEmailAll_SmallEventSendsInline(t *testing.T) {
	event, organiser, signups := fixtures(10)
	sender := &fakeSender{}
	enqueuer := &fakeEnqueuer{}
	logs := &fakeLogs{}
	d := newTestDispatcher(sender, enqueuer, logs)

	async, err := d.EmailAll(context.Background(), event, organiser, signups, "note")
	require.NoError(t, err)

	assert.False(t, async)
	assert.Len(t, sender.sent, 10)
	assert.Len(t, logs.sent, 10)
	assert.Empty(t, enqueuer.payloads)
}

func TestEmailAll_LargeEventQueuesOneJob(t *testing.T) {
	event, organiser, signups := fixtures(11)
	sender := &fakeSender{}
	enqueuer := &fakeEnqueuer{}
	d := newTestDispatcher(sender, enqueuer, &fakeLogs{})

	async, err := d.EmailAll(context.Background(), event, organiser, signups, "note")
	require.NoError(t, err)

	assert.True(t, async)
	assert.Empty(t, sender.sent)
	require.Len(t, enqueuer.payloads, 1)

	payload := enqueuer.payloads[0]
	assert.Equal(t, event.ID, payload.EventID)
	assert.Equal(t, organiser.ID, payload.OrganiserID)
	assert.Equal(t, "note", payload.Note)
	require.Len(t, payload.SignupIDs, 11)
	for i, s := range signups {
		assert.Equal(t, s.ID, payload.SignupIDs[i])
	}
}

func TestEmailAll_InlineFailureAbortsLoop(t *testing.T) {
	event, organiser, signups := fixtures(5)
	sender := &fakeSender{
		failOn:   signups[2].Email,
		failWith: errors.New("mailbox unavailable"),
	}
	logs := &fakeLogs{}
	d := newTestDispatcher(sender, &fakeEnqueuer{}, logs)

	_, err := d.EmailAll(context.Background(), event, organiser, signups, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), signups[2].Email)

	// The two sends before the failure went out; the rest never did.
	assert.Equal(t, []string{signups[0].Email, signups[1].Email}, sender.sent)
	assert.Equal(t, []string{signups[2].Email}, logs.failed)
	assert.Len(t, logs.sent, 2)
}

func TestEmailOne(t *testing.T) {
	event, organiser, signups := fixtures(1)
	sender := &fakeSender{}
	logs := &fakeLogs{}
	d := newTestDispatcher(sender, &fakeEnqueuer{}, logs)

	require.NoError(t, d.EmailOne(context.Background(), event, organiser, &signups[0], ""))
	assert.Equal(t, []string{signups[0].Email}, sender.sent)

	event.Draft = true
	assert.ErrorIs(t, d.EmailOne(context.Background(), event, organiser, &signups[0], ""), ErrEventDraft)

	event.Draft = false
	signups[0].RoleID = nil
	assert.ErrorIs(t, d.EmailOne(context.Background(), event, organiser, &signups[0], ""), ErrMissingRole)
}
