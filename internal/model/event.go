package model

import (
	"fmt"
	"time"
)

// LogEvent is a single coded notification emitted by the job executor.
type LogEvent struct {
	OperationID string
	Code        string
	Message     string
	// CreatedAt is only used to order raw log lines for display.
	CreatedAt time.Time
	// SequenceID is assigned by the source and used for de-duplication.
	SequenceID int64
}

// Validate reports if the event is malformed.
func (e LogEvent) Validate() error {
	if e.OperationID == "" {
		return fmt.Errorf("operation id is required: %w", ErrNotValid)
	}
	if e.Code == "" {
		return fmt.Errorf("code is required: %w", ErrNotValid)
	}
	if e.SequenceID <= 0 {
		return fmt.Errorf("sequence id must be positive, got %d: %w", e.SequenceID, ErrNotValid)
	}
	return nil
}

// RawLogLine is a received log line kept for audit display, whether its code changed the
// timeline or not. Raw logs list every sequence id once.
type RawLogLine struct {
	SequenceID int64
	Code       string
	Message    string
	CreatedAt  time.Time
}

// RawLogLineFromEvent returns the raw log line of an event.
func RawLogLineFromEvent(e LogEvent) RawLogLine {
	return RawLogLine{
		SequenceID: e.SequenceID,
		Code:       e.Code,
		Message:    e.Message,
		CreatedAt:  e.CreatedAt,
	}
}

// Before reports if the line is displayed before o: by creation time, then by sequence id.
func (l RawLogLine) Before(o RawLogLine) bool {
	if !l.CreatedAt.Equal(o.CreatedAt) {
		return l.CreatedAt.Before(o.CreatedAt)
	}
	return l.SequenceID < o.SequenceID
}
