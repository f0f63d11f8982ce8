package domain

import (
	"time"
)

// Contact is a remote chat participant, keyed by phone. The phone identifier
// is immutable once created; the assigned admin follows the most recent
// resolution.
type Contact struct {
	ID              int64     `json:"id"`
	Phone           string    `json:"phone"`
	Name            string    `json:"name,omitempty"`
	Email           string    `json:"email,omitempty"`
	AssignedAdminID int64     `json:"assigned_admin_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsReturning reports whether the contact already has a captured name,
// entitling them to skip the profile-capture steps.
func (c *Contact) IsReturning() bool {
	return c != nil && c.Name != ""
}
