package signups

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennine-megagames/backend/internal/models"
)

// memStore is an in-memory ImportStore with the same lookup semantics as the
// database-backed one. failEmail forces a save failure for one address so
// rollback behaviour can be exercised.
type memStore struct {
	teams     []models.Team
	roles     []models.Role
	signups   []models.EventSignup
	failEmail string
}

func (m *memStore) clone() *memStore {
	return &memStore{
		teams:     append([]models.Team(nil), m.teams...),
		roles:     append([]models.Role(nil), m.roles...),
		signups:   append([]models.EventSignup(nil), m.signups...),
		failEmail: m.failEmail,
	}
}

func (m *memStore) FindTeam(_ context.Context, eventID uuid.UUID, name string) (*models.Team, error) {
	for i := range m.teams {
		if m.teams[i].EventID == eventID && m.teams[i].Name == name {
			t := m.teams[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateTeam(_ context.Context, t *models.Team) error {
	t.ID = uuid.New()
	m.teams = append(m.teams, *t)
	return nil
}

func (m *memStore) FindRole(_ context.Context, eventID, teamID uuid.UUID, name string) (*models.Role, error) {
	for i := range m.roles {
		if m.roles[i].EventID == eventID && m.roles[i].TeamID == teamID && m.roles[i].Name == name {
			ro := m.roles[i]
			return &ro, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateRole(_ context.Context, ro *models.Role) error {
	ro.ID = uuid.New()
	m.roles = append(m.roles, *ro)
	return nil
}

func (m *memStore) CreateSignup(_ context.Context, s *models.EventSignup) error {
	if s.Email == m.failEmail {
		return errors.New("email has already been taken")
	}
	s.ID = uuid.New()
	m.signups = append(m.signups, *s)
	return nil
}

// memTxRunner commits by swapping the working copy in, and rolls back by
// discarding it.
type memTxRunner struct {
	store *memStore
}

func (r *memTxRunner) RunInTx(_ context.Context, fn func(ImportStore) error) error {
	working := r.store.clone()
	if err := fn(working); err != nil {
		return err
	}
	*r.store = *working
	return nil
}

func newImportFixture(store *memStore) *Importer {
	return NewImporter(&memTxRunner{store: store})
}

func TestImport_CreatesTeamsRolesAndSignups(t *testing.T) {
	eventID := uuid.New()
	store := &memStore{}
	im := newImportFixture(store)

	csvData := []byte("name,email,team,role\n" +
		"Ada,ada@example.com,Red October,Captain\n" +
		"Ben,ben@example.com,Red October,Navigator\n")

	result, err := im.Import(context.Background(), eventID, csvData, true, true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsProcessed)
	assert.Equal(t, 1, result.TeamsCreated)
	assert.Equal(t, 2, result.RolesCreated)
	assert.Empty(t, result.Missing)

	require.Len(t, store.teams, 1)
	require.Len(t, store.roles, 2)
	require.Len(t, store.signups, 2)
	for _, s := range store.signups {
		require.NotNil(t, s.TeamID)
		require.NotNil(t, s.RoleID)
		assert.Equal(t, store.teams[0].ID, *s.TeamID)
		assert.NotEqual(t, uuid.Nil, s.UUID)
	}
}

func TestImport_NoFile(t *testing.T) {
	im := newImportFixture(&memStore{})

	_, err := im.Import(context.Background(), uuid.New(), nil, false, false)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = im.Import(context.Background(), uuid.New(), []byte("  \n"), false, false)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestImport_RolesWithoutTeams(t *testing.T) {
	store := &memStore{}
	im := newImportFixture(store)

	_, err := im.Import(context.Background(), uuid.New(),
		[]byte("name,email,team,role\nAda,ada@example.com,Red,Captain\n"), false, true)
	assert.ErrorIs(t, err, ErrRolesWithoutTeams)
	assert.Empty(t, store.signups)
}

func TestImport_ForbiddenHeader(t *testing.T) {
	store := &memStore{}
	im := newImportFixture(store)

	_, err := im.Import(context.Background(), uuid.New(),
		[]byte("name,email,team,role,HELLO\nAda,ada@example.com,Red,Captain,x\n"), true, true)

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Msg, "forbidden header(s)")
	assert.Contains(t, formatErr.Msg, "'HELLO'")
	assert.Empty(t, store.signups)
	assert.Empty(t, store.teams)
}

func TestImport_MissingHeaders(t *testing.T) {
	im := newImportFixture(&memStore{})

	_, err := im.Import(context.Background(), uuid.New(),
		[]byte("name,email\nAda,ada@example.com\n"), true, true)

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Msg, "does not contain the following header(s)")
	assert.Contains(t, formatErr.Msg, "'team'")
	assert.Contains(t, formatErr.Msg, "'role'")
}

func TestImport_BlankTrailingHeaderIgnored(t *testing.T) {
	store := &memStore{}
	im := newImportFixture(store)

	_, err := im.Import(context.Background(), uuid.New(),
		[]byte("name,email,team,role,\nAda,ada@example.com,Red,Captain,\n"), true, true)
	require.NoError(t, err)
	assert.Len(t, store.signups, 1)
}

func TestImport_MalformedRowReportsLineNumber(t *testing.T) {
	eventID := uuid.New()
	store := &memStore{}
	im := newImportFixture(store)

	// The short row is the third data row, so line 4 counting the header.
	csvData := []byte("name,email,team,role\n" +
		"Ada,ada@example.com,Red,Captain\n" +
		"Ben,ben@example.com,Red,Navigator\n" +
		"Cleo,cleo@example.com,Red,\n")

	_, err := im.Import(context.Background(), eventID, csvData, true, true)

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Msg, "malformed row on line 4")

	// Earlier rows synthesized teams and roles; the rollback discards those too.
	assert.Empty(t, store.teams)
	assert.Empty(t, store.roles)
	assert.Empty(t, store.signups)
}

func TestImport_InvalidEmail(t *testing.T) {
	im := newImportFixture(&memStore{})

	_, err := im.Import(context.Background(), uuid.New(),
		[]byte("name,email,team,role\nAda,not-an-email,Red,Captain\n"), true, true)

	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Msg, "malformed row on line 2")
	assert.Contains(t, formatErr.Msg, "'not-an-email' is invalid")
}

func TestImport_MissingReport(t *testing.T) {
	eventID := uuid.New()
	teamID := uuid.New()
	store := &memStore{
		teams: []models.Team{{ID: teamID, EventID: eventID, Name: "Red"}},
	}
	im := newImportFixture(store)

	csvData := []byte("name,email,team,role\n" +
		"Ada,ada@example.com,Red,Captain\n" +
		"Ben,ben@example.com,Blue,Admiral\n")

	result, err := im.Import(context.Background(), eventID, csvData, false, false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TeamsCreated)
	assert.Equal(t, 0, result.RolesCreated)
	assert.Equal(t, map[string][]string{
		"Red":  {"Captain"},
		"Blue": {"Admiral"},
	}, result.Missing)

	// Signups still land, just without the unresolved team or role.
	require.Len(t, store.signups, 2)
	require.NotNil(t, store.signups[0].TeamID)
	assert.Equal(t, teamID, *store.signups[0].TeamID)
	assert.Nil(t, store.signups[0].RoleID)
	assert.Nil(t, store.signups[1].TeamID)
	assert.Nil(t, store.signups[1].RoleID)
}

func TestImport_SaveFailureRollsBackWholeBatch(t *testing.T) {
	eventID := uuid.New()
	store := &memStore{failEmail: "ben@example.com"}
	im := newImportFixture(store)

	csvData := []byte("name,email,team,role\n" +
		"Ada,ada@example.com,Red,Captain\n" +
		"Ben,ben@example.com,Red,Navigator\n")

	_, err := im.Import(context.Background(), eventID, csvData, true, true)
	require.Error(t, err)

	assert.Empty(t, store.signups)
	assert.Empty(t, store.teams)
	assert.Empty(t, store.roles)
}

func TestImport_TemplateRoundTrip(t *testing.T) {
	eventID := uuid.New()
	redID, blueID := uuid.New(), uuid.New()
	store := &memStore{
		teams: []models.Team{
			{ID: redID, EventID: eventID, Name: "Red"},
			{ID: blueID, EventID: eventID, Name: "Blue"},
		},
		roles: []models.Role{
			{ID: uuid.New(), TeamID: redID, EventID: eventID, Name: "Captain"},
			{ID: uuid.New(), TeamID: blueID, EventID: eventID, Name: "Admiral"},
		},
	}
	im := newImportFixture(store)

	data, err := Template([]models.RoleSlot{
		{TeamName: "Blue", RoleName: "Admiral"},
		{TeamName: "Red", RoleName: "Captain"},
	})
	require.NoError(t, err)

	result, err := im.Import(context.Background(), eventID, data, false, false)
	require.NoError(t, err)

	assert.Empty(t, store.signups)
	assert.Equal(t, 0, result.TeamsCreated)
	assert.Equal(t, 0, result.RolesCreated)
	assert.Equal(t, map[string][]string{
		"Blue": {"Admiral"},
		"Red":  {"Captain"},
	}, result.Missing)
}
