package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named position within a team, fillable by at most one signup.
// Names are unique per team, not globally. EventID is denormalised from the
// team for query convenience and must always agree with it.
type Role struct {
	ID        uuid.UUID  `json:"id"`
	TeamID    uuid.UUID  `json:"team_id"`
	EventID   uuid.UUID  `json:"event_id"`
	Name      string     `json:"name"`
	Brief     Attachment `json:"brief"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RoleSlot names an unfulfilled role together with its team, used when
// exporting a signup template.
type RoleSlot struct {
	TeamName string
	RoleName string
}

