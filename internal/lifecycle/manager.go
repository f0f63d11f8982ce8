// Package lifecycle owns start/stop/status of the messaging session and
// fans status and pairing events out to observers.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/intakelabs/waintake/internal/transport"
)

// Status is the connection lifecycle state.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusStarting     Status = "starting"
	StatusQR           Status = "qr"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusAuthFailure  Status = "auth_failure"
	StatusError        Status = "error"
)

// State is a point-in-time snapshot of the lifecycle.
type State struct {
	Status  Status `json:"status"`
	Ready   bool   `json:"ready"`
	QRImage string `json:"qrImage,omitempty"`
}

// Dispatcher consumes inbound messages once the session is up. Satisfied by
// the flow engine.
type Dispatcher interface {
	HandleMessage(ctx context.Context, msg transport.Message) error
	SetReady(ready bool)
}

// Manager drives the transport session and tracks its lifecycle state.
// It is the transport's event handler: connection events mutate the state
// and are rebroadcast through the hub.
type Manager struct {
	client transport.Client
	engine Dispatcher
	hub    *Hub

	mu      sync.Mutex
	status  Status
	started bool
	ready   bool
	qrImage string
}

// NewManager wires a manager to the transport client. The manager registers
// itself as the client's event handler.
func NewManager(client transport.Client, engine Dispatcher) *Manager {
	m := &Manager{
		client: client,
		engine: engine,
		hub:    NewHub(),
		status: StatusIdle,
	}
	client.SetHandler(m)
	return m
}

// Hub exposes the event stream for observers.
func (m *Manager) Hub() *Hub {
	return m.hub
}

// Start brings the session up. Idempotent: when already started it returns
// the current state without restarting. A connect failure moves the
// lifecycle to error and propagates to the caller.
func (m *Manager) Start(ctx context.Context) (State, error) {
	m.mu.Lock()
	if m.started {
		state := m.snapshotLocked()
		m.mu.Unlock()
		return state, nil
	}
	m.started = true
	m.setStatusLocked(StatusStarting)
	m.mu.Unlock()

	slog.Info("Starting messaging session")
	if err := m.client.Connect(ctx); err != nil {
		m.mu.Lock()
		m.started = false
		m.setStatusLocked(StatusError)
		state := m.snapshotLocked()
		m.mu.Unlock()
		return state, fmt.Errorf("start session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(), nil
}

// Stop tears the session down and clears any cached pairing artifact.
// Idempotent: a no-op when not started.
func (m *Manager) Stop() State {
	m.mu.Lock()
	if !m.started {
		state := m.snapshotLocked()
		m.mu.Unlock()
		return state
	}
	m.started = false
	m.ready = false
	m.qrImage = ""
	m.mu.Unlock()

	slog.Info("Stopping messaging session")
	m.engine.SetReady(false)
	m.client.Disconnect()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStatusLocked(StatusDisconnected)
	return m.snapshotLocked()
}

// State returns the current lifecycle snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// HandleQR converts a pairing code to an image and broadcasts it.
func (m *Manager) HandleQR(code string) {
	img, err := transport.QRDataURL(code)
	if err != nil {
		slog.Error("Failed to render QR code", "error", err)
		return
	}
	m.mu.Lock()
	m.qrImage = img
	m.setStatusLocked(StatusQR)
	m.mu.Unlock()
	m.hub.Broadcast(Event{Kind: EventQR, Value: img})
	slog.Info("QR code ready for pairing")
}

// HandleConnected marks the session ready and opens message intake.
func (m *Manager) HandleConnected() {
	m.mu.Lock()
	m.ready = true
	m.qrImage = ""
	m.setStatusLocked(StatusConnected)
	m.mu.Unlock()
	m.engine.SetReady(true)
	slog.Info("Messaging session connected")
}

// HandleDisconnected closes message intake until the transport reconnects.
func (m *Manager) HandleDisconnected() {
	m.mu.Lock()
	m.ready = false
	m.setStatusLocked(StatusDisconnected)
	m.mu.Unlock()
	m.engine.SetReady(false)
	slog.Warn("Messaging session disconnected")
}

// HandleAuthFailure records a failed or expired pairing. Not retried; an
// operator restarts explicitly.
func (m *Manager) HandleAuthFailure() {
	m.mu.Lock()
	m.ready = false
	m.qrImage = ""
	m.setStatusLocked(StatusAuthFailure)
	m.mu.Unlock()
	m.engine.SetReady(false)
	slog.Error("Messaging session authentication failed")
}

// HandleMessage dispatches an inbound message onto its own goroutine so the
// transport's event loop is never blocked. Per-turn failures are logged and
// the turn is abandoned; nothing here can crash the process.
func (m *Manager) HandleMessage(msg transport.Message) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Panic while handling message", "panic", r, "from", msg.From)
			}
		}()
		if err := m.engine.HandleMessage(context.Background(), msg); err != nil {
			slog.Error("Turn abandoned", "from", msg.From, "error", err)
		}
	}()
}

// setStatusLocked updates the status and broadcasts the change. Callers
// hold m.mu.
func (m *Manager) setStatusLocked(s Status) {
	if m.status == s {
		return
	}
	m.status = s
	m.hub.Broadcast(Event{Kind: EventStatus, Value: string(s)})
}

func (m *Manager) snapshotLocked() State {
	return State{Status: m.status, Ready: m.ready, QRImage: m.qrImage}
}
