package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is a named grouping of roles within an event. Names are unique per
// event. Deleting a team cascades to its roles.
type Team struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	Name      string     `json:"name"`
	Image     Attachment `json:"image"`
	Brief     Attachment `json:"brief"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

