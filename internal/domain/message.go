package domain

import (
	"encoding/json"
	"time"
)

// Direction tags which way a message travelled.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// DeliveryStatus is the basic delivery tag recorded with each turn.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// Media is an inline attachment payload downloaded from the transport.
type Media struct {
	MimeType string `json:"mime_type"`
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"-"`
}

// MessageRecord is one immutable log line for a chat turn. Records are
// append-only and form the sole durable trace of a conversation.
type MessageRecord struct {
	ID        int64           `json:"id"`
	ContactID int64           `json:"contact_id"`
	AdminID   int64           `json:"admin_id"`
	Text      string          `json:"message_text"`
	Direction Direction       `json:"direction"`
	Status    DeliveryStatus  `json:"status"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Media     *Media          `json:"media,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
