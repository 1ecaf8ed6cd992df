package castlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennine-megagames/backend/internal/convert"
	"github.com/pennine-megagames/backend/internal/models"
)

func strPtr(s string) *string { return &s }

func fixtureInput() Input {
	eventID := uuid.New()
	redID, blueID := uuid.New(), uuid.New()
	captainID, admiralID := uuid.New(), uuid.New()

	return Input{
		Event: &models.Event{
			ID:   eventID,
			Name: "Watch the Skies",
			Date: time.Date(2026, 10, 3, 10, 0, 0, 0, time.UTC),
		},
		Teams: []models.Team{
			{ID: redID, EventID: eventID, Name: "Red"},
			{ID: blueID, EventID: eventID, Name: "Blue"},
		},
		Roles: []models.Role{
			{ID: captainID, TeamID: redID, EventID: eventID, Name: "Captain"},
			{ID: admiralID, TeamID: blueID, EventID: eventID, Name: "Admiral"},
		},
		Signups: []models.EventSignup{
			{EventID: eventID, Name: strPtr("Zoe"), Email: "zoe@example.com", TeamID: &redID},
			{EventID: eventID, Name: strPtr("Ada"), Email: "ada@example.com", TeamID: &redID, RoleID: &captainID},
			{EventID: eventID, Email: "anon@example.com", TeamID: &redID},
			{EventID: eventID, Name: strPtr("Ben"), Email: "ben@example.com", TeamID: &blueID, RoleID: &admiralID},
			{EventID: eventID, Name: strPtr("Flo"), Email: "flo@example.com"},
		},
		Owner:      models.Organiser{Name: "Olive", Email: "olive@example.com"},
		Organisers: []models.Organiser{{Name: "Gus", Email: "gus@example.com"}},
		Control:    []models.Organiser{{Name: "Cleo", Email: "cleo@example.com"}},
	}
}

func TestBuild_GroupsAndSorts(t *testing.T) {
	doc := Build(fixtureInput())

	require.Len(t, doc.Groups, 2)
	assert.Equal(t, "Blue", doc.Groups[0].TeamName)
	assert.Equal(t, "Red", doc.Groups[1].TeamName)

	red := doc.Groups[1]
	require.Len(t, red.Players, 3)
	assert.Equal(t, "Ada", red.Players[0].Name)
	assert.Equal(t, "Captain", red.Players[0].RoleName)
	assert.Equal(t, "Zoe", red.Players[1].Name)
	// Unnamed players come last.
	assert.Equal(t, "No name", red.Players[2].Name)

	require.Len(t, doc.Unassigned, 1)
	assert.Equal(t, "Flo", doc.Unassigned[0].Name)

	assert.Equal(t, "Olive", doc.Owner.Name)
	assert.Equal(t, []Person{{Name: "Gus", Email: "gus@example.com"}}, doc.Organisers)
	assert.Equal(t, []Person{{Name: "Cleo", Email: "cleo@example.com"}}, doc.Control)
	assert.Equal(t, "3 October 2026", doc.EventDate)
}

func TestBuild_Deterministic(t *testing.T) {
	in := fixtureInput()
	first := Build(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Build(in))
	}
}

func TestBuild_TeamWithNoPlayers(t *testing.T) {
	in := fixtureInput()
	in.Signups = nil
	doc := Build(in)

	require.Len(t, doc.Groups, 2)
	assert.Empty(t, doc.Groups[0].Players)
	assert.Empty(t, doc.Unassigned)
}

func TestRenderHTML_OrganiserViewIncludesEmails(t *testing.T) {
	doc := Build(fixtureInput())

	html, err := RenderHTML(doc, ViewOrganiser)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "Watch the Skies Cast List")
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, "olive@example.com")
	assert.Contains(t, out, "Control team")
}

func TestRenderHTML_PlayerViewOmitsEmails(t *testing.T) {
	doc := Build(fixtureInput())

	html, err := RenderHTML(doc, ViewPlayer)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Captain")
	assert.NotContains(t, out, "ada@example.com")
	assert.NotContains(t, out, "olive@example.com")
}

type fakeConverter struct {
	lastFormat string
}

func (f *fakeConverter) ConvertToPDF(_ context.Context, data []byte, sourceFormat string) ([]byte, error) {
	f.lastFormat = sourceFormat
	return append([]byte("%PDF-"), data[:8]...), nil
}

func TestRenderPDF_UsesHTMLSource(t *testing.T) {
	conv := &fakeConverter{}
	r := NewRenderer(conv)

	pdf, err := r.RenderPDF(context.Background(), Build(fixtureInput()), ViewPlayer)
	require.NoError(t, err)

	assert.Equal(t, convert.FormatHTML, conv.lastFormat)
	assert.True(t, len(pdf) > 0)
}
