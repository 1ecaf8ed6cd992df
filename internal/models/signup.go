package models

import (
	"time"

	"github.com/google/uuid"
)

// EventSignup is a player's registration for an event. UUID is the public
// identifier used in unauthenticated player links; it is generated randomly
// and is the only credential needed to view that player's materials.
type EventSignup struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	UUID      uuid.UUID  `json:"uuid"`
	Name      *string    `json:"name"`
	Email     string     `json:"email"`
	TeamID    *uuid.UUID `json:"team_id,omitempty"`
	RoleID    *uuid.UUID `json:"role_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DisplayName returns the player name or a placeholder when none was given.
func (s *EventSignup) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	return "No name"
}

// NormalizeName maps a blank name to nil so that a cleared form field does
// not persist an empty string.
func (s *EventSignup) NormalizeName() {
	if s.Name != nil && *s.Name == "" {
		s.Name = nil
	}
}
