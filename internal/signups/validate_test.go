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

type fakeTeamGetter struct {
	team *models.Team
	err  error
}

func (f *fakeTeamGetter) GetByID(context.Context, uuid.UUID) (*models.Team, error) {
	return f.team, f.err
}

type fakeRoleGetter struct {
	role *models.Role
	err  error
}

func (f *fakeRoleGetter) GetByID(context.Context, uuid.UUID) (*models.Role, error) {
	return f.role, f.err
}

func TestValidateSignup_Valid(t *testing.T) {
	eventID := uuid.New()
	teamID := uuid.New()
	roleID := uuid.New()
	teams := &fakeTeamGetter{team: &models.Team{ID: teamID, EventID: eventID}}
	roles := &fakeRoleGetter{role: &models.Role{ID: roleID, EventID: eventID, TeamID: teamID}}

	msgs, err := validateSignup(context.Background(), teams, roles, &models.EventSignup{
		EventID: eventID,
		Email:   "player@example.com",
		TeamID:  &teamID,
		RoleID:  &roleID,
	})
	require.NoError(t, err)
	assert.Nil(t, msgs)
}

func TestValidateSignup_WrongEventAndRoleMismatch(t *testing.T) {
	eventID := uuid.New()
	teamID := uuid.New()
	roleID := uuid.New()
	teams := &fakeTeamGetter{team: &models.Team{ID: teamID, EventID: uuid.New()}}
	roles := &fakeRoleGetter{role: &models.Role{ID: roleID, EventID: eventID, TeamID: uuid.New()}}

	msgs, err := validateSignup(context.Background(), teams, roles, &models.EventSignup{
		EventID: eventID,
		Email:   "player@example.com",
		TeamID:  &teamID,
		RoleID:  &roleID,
	})
	require.NoError(t, err)
	assert.Contains(t, msgs, "team does not belong to this event")
	assert.Contains(t, msgs, "invalid combination of team and role")
}

func TestValidateSignup_RoleWithoutTeam(t *testing.T) {
	roleID := uuid.New()
	msgs, err := validateSignup(context.Background(), &fakeTeamGetter{}, &fakeRoleGetter{}, &models.EventSignup{
		EventID: uuid.New(),
		Email:   "player@example.com",
		RoleID:  &roleID,
	})
	require.NoError(t, err)
	assert.Contains(t, msgs, "a role requires a team")
}

// A lookup failure is no verdict at all. It must surface as an error rather
// than read as a valid combination.
func TestValidateSignup_LookupFailureIsAnError(t *testing.T) {
	eventID := uuid.New()
	teamID := uuid.New()
	boom := errors.New("connection reset")
	teams := &fakeTeamGetter{err: boom}

	msgs, err := validateSignup(context.Background(), teams, &fakeRoleGetter{}, &models.EventSignup{
		EventID: eventID,
		Email:   "player@example.com",
		TeamID:  &teamID,
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, msgs)

	roleID := uuid.New()
	roles := &fakeRoleGetter{err: boom}
	msgs, err = validateSignup(context.Background(), &fakeTeamGetter{team: &models.Team{ID: teamID, EventID: eventID}}, roles, &models.EventSignup{
		EventID: eventID,
		Email:   "player@example.com",
		TeamID:  &teamID,
		RoleID:  &roleID,
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, msgs)
}
