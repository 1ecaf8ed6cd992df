// Package authz decides, per (organiser, action, resource) triple, whether an
// operation on an event-scoped resource is permitted. Access is an allow-list
// keyed on the actor's standing towards the event: owner, full organiser,
// control team (read-only membership), or none.
package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/pennine-megagames/backend/internal/models"
)

// Action is an operation an organiser can attempt on a resource.
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"
	// ActionImport is the bulk CSV player upload.
	ActionImport Action = "import"
	// ActionEmail covers bulk and single brief-email dispatch.
	ActionEmail Action = "email"
)

// Resource tags the kind of record an action targets.
type Resource string

const (
	ResourceEvent      Resource = "event"
	ResourceTeam       Resource = "team"
	ResourceRole       Resource = "role"
	ResourceSignup     Resource = "signup"
	ResourceMembership Resource = "membership"
)

// Standing is the actor's relationship to an event.
type Standing int

const (
	StandingNone Standing = iota
	StandingControl
	StandingOrganiser
	StandingOwner
)

func (s Standing) String() string {
	switch s {
	case StandingOwner:
		return "owner"
	case StandingOrganiser:
		return "organiser"
	case StandingControl:
		return "control"
	default:
		return "none"
	}
}

// Reason records why a decision came out the way it did. HTTP responses never
// expose it; tests and logs use it to distinguish a read-only denial from a
// missing membership or a failed event lookup.
type Reason int

const (
	ReasonAllowed Reason = iota
	ReasonImplicitOwner
	ReasonReadOnlyMember
	ReasonNoMembership
	ReasonEventNotFound
	ReasonActionNotAllowed
)

var readOnly = map[Action]bool{ActionRead: true}

var writeAndRead = map[Action]bool{
	ActionRead:    true,
	ActionCreate:  true,
	ActionUpdate:  true,
	ActionDestroy: true,
	ActionImport:  true,
	ActionEmail:   true,
}

// decisionTable maps standing x resource to the set of permitted actions.
// Owner and full organiser share one row: ownership of the event's
// organiser_id column grants manage rights whether or not a membership row
// exists. Control team can read everything on the event, including the
// membership list, and change nothing.
var decisionTable = map[Standing]map[Resource]map[Action]bool{
	StandingOwner: {
		ResourceEvent:      writeAndRead,
		ResourceTeam:       writeAndRead,
		ResourceRole:       writeAndRead,
		ResourceSignup:     writeAndRead,
		ResourceMembership: writeAndRead,
	},
	StandingOrganiser: {
		ResourceEvent:      writeAndRead,
		ResourceTeam:       writeAndRead,
		ResourceRole:       writeAndRead,
		ResourceSignup:     writeAndRead,
		ResourceMembership: writeAndRead,
	},
	StandingControl: {
		ResourceEvent:      readOnly,
		ResourceTeam:       readOnly,
		ResourceRole:       readOnly,
		ResourceSignup:     readOnly,
		ResourceMembership: readOnly,
	},
	StandingNone: {},
}

// standingAllows consults the decision table alone, with no store access.
func standingAllows(s Standing, action Action, resource Resource) bool {
	return decisionTable[s][resource][action]
}

// Store is the lookup surface the decider needs. Implemented by Repository
// against PostgreSQL; tests provide an in-memory fake.
type Store interface {
	// GetEvent returns the event or nil when it does not exist.
	GetEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	// GetMembership returns the (organiser, event) membership or nil when none.
	GetMembership(ctx context.Context, organiserID, eventID uuid.UUID) (*models.Membership, error)
}

// Decider evaluates access decisions.
type Decider struct {
	store Store
}

// NewDecider creates a Decider backed by the given store.
func NewDecider(store Store) *Decider {
	return &Decider{store: store}
}

// Decide evaluates whether the organiser may perform action on the given
// resource kind scoped to eventID, returning the decision and the reason.
// A failed event lookup denies with ReasonEventNotFound; callers surface it
// identically to a permission denial.
func (d *Decider) Decide(ctx context.Context, organiserID uuid.UUID, action Action, resource Resource, eventID uuid.UUID) (bool, Reason) {
	standing, found := d.standing(ctx, organiserID, eventID)
	if !found {
		return false, ReasonEventNotFound
	}
	if standingAllows(standing, action, resource) {
		if standing == StandingOwner {
			return true, ReasonImplicitOwner
		}
		return true, ReasonAllowed
	}
	switch standing {
	case StandingControl:
		return false, ReasonReadOnlyMember
	case StandingNone:
		return false, ReasonNoMembership
	default:
		return false, ReasonActionNotAllowed
	}
}

// Can is Decide without the reason.
func (d *Decider) Can(ctx context.Context, organiserID uuid.UUID, action Action, resource Resource, eventID uuid.UUID) bool {
	ok, _ := d.Decide(ctx, organiserID, action, resource, eventID)
	return ok
}

// CanCreateEvent reports whether the actor may create a brand new event.
// Any authenticated organiser can.
func (d *Decider) CanCreateEvent(organiserID uuid.UUID) bool {
	return organiserID != uuid.Nil
}

// standing resolves the actor's standing towards the event. The second
// return is false when the event itself could not be found.
func (d *Decider) standing(ctx context.Context, organiserID, eventID uuid.UUID) (Standing, bool) {
	event, err := d.store.GetEvent(ctx, eventID)
	if err != nil || event == nil {
		return StandingNone, false
	}
	if event.OrganiserID == organiserID {
		return StandingOwner, true
	}
	membership, err := d.store.GetMembership(ctx, organiserID, eventID)
	if err != nil || membership == nil {
		return StandingNone, true
	}
	if membership.ReadOnly {
		return StandingControl, true
	}
	return StandingOrganiser, true
}

// Event fetches the event through the decider's store, for handlers that
// need the record itself after a decision.
func (d *Decider) Event(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return d.store.GetEvent(ctx, eventID)
}

// Standing exposes the resolved standing for handlers that vary behaviour by
// it (e.g. the cast list marks control team members separately).
func (d *Decider) Standing(ctx context.Context, organiserID, eventID uuid.UUID) Standing {
	s, _ := d.standing(ctx, organiserID, eventID)
	return s
}

// CanRemoveMembership applies the membership-removal rules on top of manage
// rights: the event owner's membership can never be removed, and no member
// may remove their own membership.
func CanRemoveMembership(actorID uuid.UUID, target *models.Membership, event *models.Event) bool {
	if target.OrganiserID == event.OrganiserID {
		return false
	}
	if target.OrganiserID == actorID {
		return false
	}
	return true
}

// CanEditMembership applies the membership-edit rules: the owner membership
// is immutable and members cannot edit their own row.
func CanEditMembership(actorID uuid.UUID, target *models.Membership, event *models.Event) bool {
	return CanRemoveMembership(actorID, target, event)
}
