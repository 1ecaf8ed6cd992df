package memberships

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/internal/models"
)

type memStore struct {
	byID map[uuid.UUID]*models.Membership
}

func (s *memStore) Create(_ context.Context, m *models.Membership) error {
	m.ID = uuid.New()
	s.byID[m.ID] = m
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Membership, error) {
	return s.byID[id], nil
}

func (s *memStore) Get(_ context.Context, organiserID, eventID uuid.UUID) (*models.Membership, error) {
	for _, m := range s.byID {
		if m.OrganiserID == organiserID && m.EventID == eventID {
			return m, nil
		}
	}
	return nil, nil
}

func (s *memStore) Update(_ context.Context, id uuid.UUID, readOnly bool, description string) error {
	m := s.byID[id]
	m.ReadOnly = readOnly
	m.Description = description
	return nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.byID, id)
	return nil
}

func (s *memStore) ListByEvent(_ context.Context, eventID uuid.UUID) ([]MemberRow, error) {
	var rows []MemberRow
	for _, m := range s.byID {
		if m.EventID == eventID {
			rows = append(rows, MemberRow{Membership: *m})
		}
	}
	return rows, nil
}

type memOrganisers struct {
	byEmail map[string]*models.Organiser
	created []string
}

func (s *memOrganisers) GetByEmail(_ context.Context, email string) (*models.Organiser, error) {
	return s.byEmail[email], nil
}

func (s *memOrganisers) Create(_ context.Context, email, passwordHash, name string) (*models.Organiser, error) {
	o := &models.Organiser{ID: uuid.New(), Email: email, Password: passwordHash, Name: name}
	s.byEmail[email] = o
	s.created = append(s.created, email)
	return o, nil
}

type authzStore struct {
	events      map[uuid.UUID]*models.Event
	memberships map[uuid.UUID]map[uuid.UUID]*models.Membership
}

func (f *authzStore) GetEvent(_ context.Context, eventID uuid.UUID) (*models.Event, error) {
	return f.events[eventID], nil
}

func (f *authzStore) GetMembership(_ context.Context, organiserID, eventID uuid.UUID) (*models.Membership, error) {
	return f.memberships[eventID][organiserID], nil
}

type fakeSender struct {
	to       []string
	subjects []string
}

func (f *fakeSender) Send(to, subject, _ string) error {
	f.to = append(f.to, to)
	f.subjects = append(f.subjects, subject)
	return nil
}

type fixture struct {
	handler    *Handler
	store      *memStore
	organisers *memOrganisers
	sender     *fakeSender
	eventID    uuid.UUID
	ownerID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eventID := uuid.New()
	ownerID := uuid.New()
	az := &authzStore{
		events: map[uuid.UUID]*models.Event{
			eventID: {ID: eventID, Name: "Watch the Skies", OrganiserID: ownerID},
		},
		memberships: map[uuid.UUID]map[uuid.UUID]*models.Membership{
			eventID: {ownerID: {OrganiserID: ownerID, EventID: eventID}},
		},
	}
	store := &memStore{byID: map[uuid.UUID]*models.Membership{}}
	organisers := &memOrganisers{byEmail: map[string]*models.Organiser{}}
	sender := &fakeSender{}
	h := NewHandler(store, organisers, authz.NewDecider(az), sender, "https://megagames.example", nil)
	return &fixture{handler: h, store: store, organisers: organisers, sender: sender, eventID: eventID, ownerID: ownerID}
}

func (f *fixture) postCreate(t *testing.T, body CreateRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	c.Params = gin.Params{{Key: "id", Value: f.eventID.String()}}
	c.Set(middleware.ContextOrganiserID, f.ownerID)
	f.handler.Create(c)
	return w
}

func TestCreate_UnknownEmailProvisionsAccount(t *testing.T) {
	f := newFixture(t)

	w := f.postCreate(t, CreateRequest{Email: "new@example.com", ReadOnly: true, Description: "GM support"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{"new@example.com"}, f.organisers.created)
	assert.NotEmpty(t, f.organisers.byEmail["new@example.com"].Password)

	require.Len(t, f.sender.to, 1)
	assert.Equal(t, "new@example.com", f.sender.to[0])
	assert.True(t, strings.Contains(f.sender.subjects[0], "account"))

	m, err := f.store.Get(context.Background(), f.organisers.byEmail["new@example.com"].ID, f.eventID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.ReadOnly)
	assert.Equal(t, "GM support", m.Description)
}

func TestCreate_ExistingEmailSkipsAccountCreation(t *testing.T) {
	f := newFixture(t)
	existing := &models.Organiser{ID: uuid.New(), Email: "known@example.com", Name: "Sam"}
	f.organisers.byEmail[existing.Email] = existing

	w := f.postCreate(t, CreateRequest{Email: "known@example.com"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Empty(t, f.organisers.created)
	assert.Empty(t, f.sender.to)

	m, err := f.store.Get(context.Background(), existing.ID, f.eventID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.False(t, m.ReadOnly)
}

func TestCreate_DuplicateMembershipConflicts(t *testing.T) {
	f := newFixture(t)
	existing := &models.Organiser{ID: uuid.New(), Email: "known@example.com", Name: "Sam"}
	f.organisers.byEmail[existing.Email] = existing
	require.NoError(t, f.store.Create(context.Background(), &models.Membership{
		OrganiserID: existing.ID,
		EventID:     f.eventID,
	}))

	w := f.postCreate(t, CreateRequest{Email: "known@example.com"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, f.organisers.created)
}
