// Package domain contains core domain types for the intake bot.
package domain

import (
	"time"
)

// AdminTier ranks operator accounts for fallback routing.
type AdminTier string

const (
	TierSuperAdmin  AdminTier = "super_admin"
	TierClientAdmin AdminTier = "client_admin"
)

// AdminStatus marks whether an operator account is eligible for routing.
type AdminStatus string

const (
	AdminActive   AdminStatus = "active"
	AdminInactive AdminStatus = "inactive"
)

// AdminAccount is an operator capable of owning conversations. Accounts are
// provisioned out-of-band; the bot only reads them.
type AdminAccount struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Phone         string      `json:"phone"`
	Tier          AdminTier   `json:"admin_tier"`
	Status        AdminStatus `json:"status"`
	ParentAdminID *int64      `json:"parent_admin_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsActive reports whether the account is eligible for resolution and fallback.
func (a *AdminAccount) IsActive() bool {
	return a != nil && a.Status == AdminActive
}
