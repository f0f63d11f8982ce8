// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/intakelabs/waintake/internal/domain"
)

// Repository defines the persistence surface for admin accounts, contacts
// and the append-only message log.
type Repository interface {
	// GetActiveAdminByPhone returns the active admin whose phone matches
	// exactly, or nil when there is no match.
	GetActiveAdminByPhone(ctx context.Context, phone string) (*domain.AdminAccount, error)

	// ListActiveAdmins returns every active admin account.
	ListActiveAdmins(ctx context.Context) ([]domain.AdminAccount, error)

	// CreateAdminAccount inserts a new admin account and fills its ID.
	// Provisioning is out-of-band for the bot; this exists for seeding.
	CreateAdminAccount(ctx context.Context, admin *domain.AdminAccount) error

	// GetContactByPhone returns the contact with the given phone, or nil.
	GetContactByPhone(ctx context.Context, phone string) (*domain.Contact, error)

	// CreateContact inserts a new contact and fills its ID.
	CreateContact(ctx context.Context, contact *domain.Contact) error

	// UpdateContactAdmin reassigns a contact to another admin.
	UpdateContactAdmin(ctx context.Context, contactID, adminID int64) error

	// UpdateContactName persists a captured display name.
	UpdateContactName(ctx context.Context, contactID int64, name string) error

	// UpdateContactEmail persists a captured email address.
	UpdateContactEmail(ctx context.Context, contactID int64, email string) error

	// ListContacts returns all contacts, most recently created first.
	ListContacts(ctx context.Context) ([]domain.Contact, error)

	// InsertMessage appends one message record and fills its ID.
	// Records are never mutated or deleted afterwards.
	InsertMessage(ctx context.Context, rec *domain.MessageRecord) error

	// ListMessagesByContact returns a contact's messages in creation order.
	ListMessagesByContact(ctx context.Context, contactID int64) ([]domain.MessageRecord, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
