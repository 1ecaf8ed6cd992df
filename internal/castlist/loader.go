package castlist

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pennine-megagames/backend/internal/models"
)

// TeamLister lists an event's teams.
type TeamLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Team, error)
}

// RoleLister lists an event's roles.
type RoleLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Role, error)
}

// SignupLister lists an event's signups.
type SignupLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventSignup, error)
}

// OrganiserGetter loads one organiser account.
type OrganiserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organiser, error)
}

// MemberLister lists organiser accounts on an event by read_only flag.
type MemberLister interface {
	ListOrganisers(ctx context.Context, eventID uuid.UUID, readOnly bool) ([]models.Organiser, error)
}

// Loader assembles the cast list input for an event from the stores.
type Loader struct {
	Teams      TeamLister
	Roles      RoleLister
	Signups    SignupLister
	Organisers OrganiserGetter
	Members    MemberLister
}

// Load gathers every record the cast list shows and builds the document.
func (l *Loader) Load(ctx context.Context, event *models.Event) (*Document, error) {
	teams, err := l.Teams.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	roles, err := l.Roles.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	signups, err := l.Signups.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	owner, err := l.Organisers.GetByID(ctx, event.OrganiserID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, errors.New("event owner missing")
	}
	full, err := l.Members.ListOrganisers(ctx, event.ID, false)
	if err != nil {
		return nil, err
	}
	control, err := l.Members.ListOrganisers(ctx, event.ID, true)
	if err != nil {
		return nil, err
	}
	// The owner heads their own section.
	organisers := make([]models.Organiser, 0, len(full))
	for _, o := range full {
		if o.ID != owner.ID {
			organisers = append(organisers, o)
		}
	}
	return Build(Input{
		Event:      event,
		Teams:      teams,
		Roles:      roles,
		Signups:    signups,
		Owner:      *owner,
		Organisers: organisers,
		Control:    control,
	}), nil
}
