package models

import (
	"time"

	"github.com/google/uuid"
)

// Membership links an organiser to an event. ReadOnly members form the
// "control team": they can view everything on the event but change nothing.
// The event owner's non-read-only membership is created with the event and
// can never be removed.
type Membership struct {
	ID          uuid.UUID `json:"id"`
	OrganiserID uuid.UUID `json:"organiser_id"`
	EventID     uuid.UUID `json:"event_id"`
	ReadOnly    bool      `json:"read_only"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
