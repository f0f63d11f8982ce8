package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/lifecycle"
	"github.com/intakelabs/waintake/internal/store"
	"github.com/intakelabs/waintake/internal/transport"
)

type stubClient struct {
	connectErr error
}

func (s *stubClient) SetHandler(h transport.Handler)    {}
func (s *stubClient) Connect(ctx context.Context) error { return s.connectErr }
func (s *stubClient) Disconnect()                       {}
func (s *stubClient) SelfPhone() string                 { return "15550001111" }
func (s *stubClient) Send(ctx context.Context, to, text string) (string, error) {
	return "msg-1", nil
}

type stubDispatcher struct{}

func (s *stubDispatcher) HandleMessage(ctx context.Context, msg transport.Message) error { return nil }
func (s *stubDispatcher) SetReady(ready bool)                                            {}

func newTestServer(t *testing.T) (*httptest.Server, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "intake.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	mgr := lifecycle.NewManager(&stubClient{}, &stubDispatcher{})
	h := NewHandler(repo, mgr, "*", true)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func TestHandler_SessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/whatsapp/state")
	if err != nil {
		t.Fatalf("GET state failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var state lifecycle.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if state.Status != lifecycle.StatusIdle || state.Ready {
		t.Errorf("Expected idle and not ready, got %+v", state)
	}

	resp, err = http.Post(srv.URL+"/api/whatsapp/start", "application/json", nil)
	if err != nil {
		t.Fatalf("POST start failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if state.Status != lifecycle.StatusStarting {
		t.Errorf("Expected starting, got %s", state.Status)
	}

	resp, err = http.Post(srv.URL+"/api/whatsapp/stop", "application/json", nil)
	if err != nil {
		t.Fatalf("POST stop failed: %v", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if state.Status != lifecycle.StatusDisconnected {
		t.Errorf("Expected disconnected, got %s", state.Status)
	}
}

func TestHandler_ListContacts(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()

	admin := &domain.AdminAccount{Name: "Ops", Phone: "15550001111", Tier: domain.TierClientAdmin, Status: domain.AdminActive}
	if err := repo.CreateAdminAccount(ctx, admin); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}
	contact := &domain.Contact{Phone: "919812345678", AssignedAdminID: admin.ID}
	if err := repo.CreateContact(ctx, contact); err != nil {
		t.Fatalf("Failed to seed contact: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/contacts")
	if err != nil {
		t.Fatalf("GET contacts failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var contacts []domain.Contact
	if err := json.NewDecoder(resp.Body).Decode(&contacts); err != nil {
		t.Fatalf("Failed to decode contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Phone != "919812345678" {
		t.Errorf("Unexpected contacts payload: %+v", contacts)
	}
}

func TestHandler_ListContactMessagesRejectsBadID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/contacts/abc/messages")
	if err != nil {
		t.Fatalf("GET messages failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}
