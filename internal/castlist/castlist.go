// Package castlist builds the who-plays-what document for an event: every
// team with its players and roles, plus the organiser and control team
// sections. The document renders to HTML and from there to PDF.
package castlist

import (
	"sort"

	"github.com/google/uuid"

	"github.com/pennine-megagames/backend/internal/models"
)

// Person is an organiser appearing on the cast list.
type Person struct {
	Name  string
	Email string
}

// Player is one signup's line on the cast list.
type Player struct {
	Name     string
	Email    string
	RoleName string
}

// TeamGroup is a team with its players in display order.
type TeamGroup struct {
	TeamName string
	Players  []Player
}

// Document is a fully resolved cast list ready for rendering.
type Document struct {
	EventName  string
	EventDate  string
	Groups     []TeamGroup
	Unassigned []Player
	Owner      Person
	Organisers []Person
	Control    []Person
}

// Input carries everything the builder needs, already loaded. Organisers
// must exclude the owner, who gets their own section.
type Input struct {
	Event      *models.Event
	Teams      []models.Team
	Roles      []models.Role
	Signups    []models.EventSignup
	Owner      models.Organiser
	Organisers []models.Organiser
	Control    []models.Organiser
}

// Build groups signups by team and produces a deterministic document: teams
// sorted by name, players within each team sorted by name with unnamed
// players last.
func Build(in Input) *Document {
	roleNames := make(map[uuid.UUID]string, len(in.Roles))
	for _, ro := range in.Roles {
		roleNames[ro.ID] = ro.Name
	}

	byTeam := make(map[uuid.UUID][]Player)
	var unassigned []Player
	for _, s := range in.Signups {
		p := Player{Name: s.DisplayName(), Email: s.Email}
		if s.RoleID != nil {
			p.RoleName = roleNames[*s.RoleID]
		}
		if s.TeamID == nil {
			unassigned = append(unassigned, p)
		} else {
			byTeam[*s.TeamID] = append(byTeam[*s.TeamID], p)
		}
	}

	doc := &Document{
		EventName:  in.Event.FormattedName(),
		EventDate:  in.Event.Date.Format("2 January 2006"),
		Unassigned: sortPlayers(unassigned),
		Owner:      Person{Name: in.Owner.Name, Email: in.Owner.Email},
		Organisers: toPeople(in.Organisers),
		Control:    toPeople(in.Control),
	}

	teams := append([]models.Team(nil), in.Teams...)
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	for _, t := range teams {
		doc.Groups = append(doc.Groups, TeamGroup{
			TeamName: t.Name,
			Players:  sortPlayers(byTeam[t.ID]),
		})
	}
	return doc
}

// Redact returns a copy of the document with every email cleared, for the
// unauthenticated player surfaces.
func (d *Document) Redact() *Document {
	out := *d
	out.Owner.Email = ""
	out.Organisers = redactPeople(d.Organisers)
	out.Control = redactPeople(d.Control)
	out.Unassigned = redactPlayers(d.Unassigned)
	out.Groups = make([]TeamGroup, len(d.Groups))
	for i, g := range d.Groups {
		out.Groups[i] = TeamGroup{TeamName: g.TeamName, Players: redactPlayers(g.Players)}
	}
	return &out
}

func redactPeople(in []Person) []Person {
	out := make([]Person, len(in))
	for i, p := range in {
		p.Email = ""
		out[i] = p
	}
	return out
}

func redactPlayers(in []Player) []Player {
	out := make([]Player, len(in))
	for i, p := range in {
		p.Email = ""
		out[i] = p
	}
	return out
}

// sortPlayers orders named players alphabetically and pushes placeholder
// names to the end, tie-breaking on email for stable output.
func sortPlayers(players []Player) []Player {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		aNamed, bNamed := a.Name != "No name", b.Name != "No name"
		if aNamed != bNamed {
			return aNamed
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Email < b.Email
	})
	return players
}

func toPeople(organisers []models.Organiser) []Person {
	people := make([]Person, 0, len(organisers))
	for _, o := range organisers {
		people = append(people, Person{Name: o.Name, Email: o.Email})
	}
	sort.Slice(people, func(i, j int) bool { return people[i].Name < people[j].Name })
	return people
}
