package msglog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/store"
)

func newTestLogger(t *testing.T) (*Logger, store.Repository, *domain.Contact) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	admin := &domain.AdminAccount{Name: "Ops", Phone: "15550001111", Tier: domain.TierClientAdmin, Status: domain.AdminActive}
	if err := repo.CreateAdminAccount(ctx, admin); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}
	contact := &domain.Contact{Phone: "919812345678", AssignedAdminID: admin.ID}
	if err := repo.CreateContact(ctx, contact); err != nil {
		t.Fatalf("Failed to seed contact: %v", err)
	}
	return NewLogger(repo), repo, contact
}

func TestLogger_RecordsTypedMetadata(t *testing.T) {
	log, repo, contact := newTestLogger(t)
	ctx := context.Background()

	meta := domain.IncomingMeta{
		MetaEnvelope: domain.MetaEnvelope{
			Direction: domain.DirectionIncoming,
			From:      contact.Phone,
			FlowStep:  "MENU",
		},
		AdminPhone:    "15550001111",
		ReturningUser: true,
	}
	rec, err := log.Record(ctx, Turn{
		ContactID: contact.ID,
		AdminID:   contact.AssignedAdminID,
		Text:      "2",
		Direction: domain.DirectionIncoming,
		Status:    domain.StatusDelivered,
		Metadata:  meta,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("Expected record ID to be filled")
	}

	records, err := repo.ListMessagesByContact(ctx, contact.ID)
	if err != nil {
		t.Fatalf("ListMessagesByContact failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	var got domain.IncomingMeta
	if err := json.Unmarshal(records[0].Metadata, &got); err != nil {
		t.Fatalf("Failed to decode metadata: %v", err)
	}
	if got.FlowStep != "MENU" || !got.ReturningUser || got.AdminPhone != "15550001111" {
		t.Errorf("Unexpected metadata round trip: %+v", got)
	}
}

func TestLogger_NilMetadata(t *testing.T) {
	log, repo, contact := newTestLogger(t)
	ctx := context.Background()

	if _, err := log.Record(ctx, Turn{
		ContactID: contact.ID,
		AdminID:   contact.AssignedAdminID,
		Text:      "hello",
		Direction: domain.DirectionOutgoing,
		Status:    domain.StatusSent,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	records, err := repo.ListMessagesByContact(ctx, contact.ID)
	if err != nil {
		t.Fatalf("ListMessagesByContact failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if len(records[0].Metadata) != 0 {
		t.Errorf("Expected no metadata, got %s", records[0].Metadata)
	}
}
