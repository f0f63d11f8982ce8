// Package msglog appends conversation turns to the persistent message log.
package msglog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/store"
)

// Turn describes one message to append. Metadata is any JSON-marshalable
// value; the typed envelopes in the domain package are the usual payloads.
type Turn struct {
	ContactID int64
	AdminID   int64
	Text      string
	Direction domain.Direction
	Status    domain.DeliveryStatus
	Metadata  any
	Media     *domain.Media
}

// Logger writes message records. Records are append-only: nothing in this
// package updates or deletes rows.
type Logger struct {
	repo store.Repository
}

// NewLogger creates a message logger backed by the given repository.
func NewLogger(repo store.Repository) *Logger {
	return &Logger{repo: repo}
}

// Record appends a turn to the log and returns the stored record.
func (l *Logger) Record(ctx context.Context, turn Turn) (*domain.MessageRecord, error) {
	var meta json.RawMessage
	if turn.Metadata != nil {
		b, err := json.Marshal(turn.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal message metadata: %w", err)
		}
		meta = b
	}

	rec := &domain.MessageRecord{
		ContactID: turn.ContactID,
		AdminID:   turn.AdminID,
		Text:      turn.Text,
		Direction: turn.Direction,
		Status:    turn.Status,
		Metadata:  meta,
		Media:     turn.Media,
		CreatedAt: time.Now(),
	}
	if err := l.repo.InsertMessage(ctx, rec); err != nil {
		return nil, fmt.Errorf("insert message record: %w", err)
	}
	return rec, nil
}
