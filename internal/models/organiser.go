package models

import (
	"time"

	"github.com/google/uuid"
)

// Organiser is an authenticated account that manages events.
type Organiser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganiserPublic is Organiser without sensitive fields for API responses.
type OrganiserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts Organiser to OrganiserPublic.
func (o *Organiser) ToPublic() OrganiserPublic {
	return OrganiserPublic{
		ID:        o.ID,
		Email:     o.Email,
		Name:      o.Name,
		CreatedAt: o.CreatedAt,
	}
}
