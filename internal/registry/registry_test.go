package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return NewRegistry(repo), repo
}

func seedAdmin(t *testing.T, repo store.Repository, phone string) *domain.AdminAccount {
	t.Helper()
	admin := &domain.AdminAccount{Name: "Ops", Phone: phone, Tier: domain.TierClientAdmin, Status: domain.AdminActive}
	if err := repo.CreateAdminAccount(context.Background(), admin); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}
	return admin
}

func TestRegistry_GetOrCreateIsIdempotent(t *testing.T) {
	reg, repo := newTestRegistry(t)
	ctx := context.Background()
	admin := seedAdmin(t, repo, "15550001111")

	first, err := reg.GetOrCreate(ctx, "919812345678", admin.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := reg.GetOrCreate(ctx, "919812345678", admin.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("Expected the same contact on repeat call, got %d then %d", first.ID, second.ID)
	}

	contacts, err := repo.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts failed: %v", err)
	}
	if len(contacts) != 1 {
		t.Errorf("Expected 1 contact, got %d", len(contacts))
	}
}

func TestRegistry_ReassignsAdminOnNewResolution(t *testing.T) {
	reg, repo := newTestRegistry(t)
	ctx := context.Background()
	oldAdmin := seedAdmin(t, repo, "15550001111")
	newAdmin := seedAdmin(t, repo, "15550002222")

	contact, err := reg.GetOrCreate(ctx, "919812345678", oldAdmin.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if contact.AssignedAdminID != oldAdmin.ID {
		t.Fatalf("Expected assignment to admin %d, got %d", oldAdmin.ID, contact.AssignedAdminID)
	}

	contact, err = reg.GetOrCreate(ctx, "919812345678", newAdmin.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if contact.AssignedAdminID != newAdmin.ID {
		t.Errorf("Expected reassignment to admin %d, got %d", newAdmin.ID, contact.AssignedAdminID)
	}

	stored, err := repo.GetContactByPhone(ctx, "919812345678")
	if err != nil {
		t.Fatalf("GetContactByPhone failed: %v", err)
	}
	if stored.AssignedAdminID != newAdmin.ID {
		t.Errorf("Expected persisted assignment %d, got %d", newAdmin.ID, stored.AssignedAdminID)
	}
}

func TestRegistry_UpdateProfileField(t *testing.T) {
	reg, repo := newTestRegistry(t)
	ctx := context.Background()
	admin := seedAdmin(t, repo, "15550001111")

	contact, err := reg.GetOrCreate(ctx, "919812345678", admin.ID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if err := reg.UpdateProfileField(ctx, contact.ID, FieldName, "Alice"); err != nil {
		t.Fatalf("UpdateProfileField failed: %v", err)
	}
	if err := reg.UpdateProfileField(ctx, contact.ID, FieldEmail, "alice@x.com"); err != nil {
		t.Fatalf("UpdateProfileField failed: %v", err)
	}

	stored, err := repo.GetContactByPhone(ctx, "919812345678")
	if err != nil {
		t.Fatalf("GetContactByPhone failed: %v", err)
	}
	if stored.Name != "Alice" || stored.Email != "alice@x.com" {
		t.Errorf("Expected captured profile, got name=%q email=%q", stored.Name, stored.Email)
	}

	if err := reg.UpdateProfileField(ctx, contact.ID, FieldName, "   "); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("Expected ErrEmptyValue for blank value, got %v", err)
	}
	if err := reg.UpdateProfileField(ctx, contact.ID, ProfileField("shoe_size"), "44"); err == nil {
		t.Error("Expected error for unknown profile field")
	}
}
