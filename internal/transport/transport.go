// Package transport abstracts the messaging provider behind a small client
// surface so the intake flow never touches provider types directly.
package transport

import (
	"context"
	"time"

	"github.com/intakelabs/waintake/internal/domain"
)

// Message is a provider-neutral inbound message.
type Message struct {
	ID        string
	From      string
	To        string
	Text      string
	Timestamp time.Time
	Kind      string
	FromSelf  bool
	HasMedia  bool

	// Download fetches the attached media payload. Nil when HasMedia is false.
	Download func(ctx context.Context) (*domain.Media, error)
}

// Handler receives transport events. Implementations must not block: message
// handling is expected to be dispatched onto the handler's own goroutines.
type Handler interface {
	HandleMessage(msg Message)
	HandleQR(code string)
	HandleConnected()
	HandleDisconnected()
	HandleAuthFailure()
}

// Client is a connected messaging session.
type Client interface {
	// SetHandler registers the event sink. Must be called before Connect.
	SetHandler(h Handler)

	// Connect brings the session up. Events are delivered to the handler
	// from this point on, starting with a QR code when no stored session
	// credentials exist.
	Connect(ctx context.Context) error

	// Disconnect tears the session down. Safe to call when not connected.
	Disconnect()

	// SelfPhone returns the session's own phone identifier, or empty when
	// the session has not authenticated yet.
	SelfPhone() string

	// Send delivers a text message and returns the provider message id.
	Send(ctx context.Context, to, text string) (string, error)
}
