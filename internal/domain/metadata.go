package domain

// MetaEnvelope carries the transport fields recorded with every turn.
type MetaEnvelope struct {
	Direction Direction `json:"direction"`
	MessageID string    `json:"id,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Timestamp int64     `json:"timestamp,omitempty"`
	Type      string    `json:"type,omitempty"`
	HasMedia  bool      `json:"has_media"`
	Body      string    `json:"body,omitempty"`
	FlowStep  string    `json:"flow_step,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// IncomingMeta is the metadata shape recorded for inbound turns.
type IncomingMeta struct {
	MetaEnvelope
	AdminPhone    string `json:"admin_phone,omitempty"`
	ReturningUser bool   `json:"is_returning_user"`
}

// OutgoingMeta is the metadata shape recorded for outbound turns.
type OutgoingMeta struct {
	MetaEnvelope
}
