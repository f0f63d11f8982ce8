// Package registry maps phone identifiers to persistent contact records.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/store"
)

// ProfileField names a contact attribute captured during the intake flow.
type ProfileField string

const (
	FieldName  ProfileField = "name"
	FieldEmail ProfileField = "email"
)

// ErrEmptyValue is returned when a profile update carries no text.
var ErrEmptyValue = errors.New("profile value must not be empty")

// Registry provides get-or-create access to contacts.
type Registry struct {
	repo store.Repository
}

// NewRegistry creates a contact registry backed by the given repository.
func NewRegistry(repo store.Repository) *Registry {
	return &Registry{repo: repo}
}

// GetOrCreate looks up the contact for a phone, creating one on first
// contact. When the resolved admin differs from the stored assignment the
// most recent resolution wins (last-writer-wins, no conflict detection).
func (r *Registry) GetOrCreate(ctx context.Context, phone string, adminID int64) (*domain.Contact, error) {
	contact, err := r.repo.GetContactByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("lookup contact: %w", err)
	}
	if contact != nil {
		if adminID != 0 && contact.AssignedAdminID != adminID {
			if err := r.repo.UpdateContactAdmin(ctx, contact.ID, adminID); err != nil {
				return nil, fmt.Errorf("reassign contact admin: %w", err)
			}
			slog.Info("Contact reassigned", "contact_id", contact.ID, "admin_id", adminID)
			contact.AssignedAdminID = adminID
		}
		return contact, nil
	}

	contact = &domain.Contact{Phone: phone, AssignedAdminID: adminID}
	if err := r.repo.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	slog.Info("Contact created", "contact_id", contact.ID, "phone", phone, "admin_id", adminID)
	return contact, nil
}

// UpdateProfileField persists a captured name or email. Values are accepted
// as free text; only emptiness is rejected.
func (r *Registry) UpdateProfileField(ctx context.Context, contactID int64, field ProfileField, value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrEmptyValue
	}
	switch field {
	case FieldName:
		return r.repo.UpdateContactName(ctx, contactID, value)
	case FieldEmail:
		return r.repo.UpdateContactEmail(ctx, contactID, value)
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
}
