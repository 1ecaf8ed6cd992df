package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a single scheduled game with signups, teams, roles and documents.
// A draft event blocks all email dispatch until published.
type Event struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Date           time.Time  `json:"date"`
	Location       string     `json:"location"`
	GoogleMapsLink string     `json:"google_maps_link,omitempty"`
	AdditionalInfo string     `json:"additional_info,omitempty"`
	Draft          bool       `json:"draft"`
	OrganiserID    uuid.UUID  `json:"organiser_id"`
	Rulebook       Attachment `json:"rulebook"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FormattedName returns the event name, falling back to the ID for unnamed rows.
func (e *Event) FormattedName() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("Event %s", e.ID)
}

// EventDocument is one of an event's additional document attachments.
type EventDocument struct {
	ID         uuid.UUID  `json:"id"`
	EventID    uuid.UUID  `json:"event_id"`
	Attachment Attachment `json:"attachment"`
	CreatedAt  time.Time  `json:"created_at"`
}
