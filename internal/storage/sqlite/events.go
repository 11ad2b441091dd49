package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slok/opwatch/internal/model"
)

// AppendEvent stores an operation log event.
// The sequence id is assigned by the database unless the event already has one.
func (r *Repository) AppendEvent(ctx context.Context, e model.LogEvent) (*model.LogEvent, error) {
	if e.OperationID == "" || e.Code == "" {
		return nil, fmt.Errorf("operation id and code are required: %w", model.ErrNotValid)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var seq any
	if e.SequenceID > 0 {
		seq = e.SequenceID
	}

	query := `
		INSERT INTO log_events (sequence_id, operation_id, code, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, seq, e.OperationID, e.Code, e.Message, e.CreatedAt.UnixMilli())
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
			return nil, fmt.Errorf("operation %s: %w", e.OperationID, model.ErrNotFound)
		case strings.Contains(err.Error(), "UNIQUE constraint failed: log_events."):
			return nil, fmt.Errorf("event %d: %w", e.SequenceID, model.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("could not insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get event sequence id: %w", err)
	}
	e.SequenceID = id
	e.CreatedAt = timeFromUnixMilli(e.CreatedAt.UnixMilli())

	r.logger.Debugf("Appended event %d (%s) to operation %s", e.SequenceID, e.Code, e.OperationID)
	return &e, nil
}

// ListEvents returns the events of an operation after a sequence id.
func (r *Repository) ListEvents(ctx context.Context, operationID string, afterSeq int64) ([]model.LogEvent, error) {
	query := `
		SELECT sequence_id, operation_id, code, message, created_at
		FROM log_events
		WHERE operation_id = ? AND sequence_id > ?
		ORDER BY sequence_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, operationID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("could not query events: %w", err)
	}
	defer rows.Close()

	events := []model.LogEvent{}
	for rows.Next() {
		var e model.LogEvent
		var createdAt int64
		if err := rows.Scan(&e.SequenceID, &e.OperationID, &e.Code, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan event: %w", err)
		}
		e.CreatedAt = timeFromUnixMilli(createdAt)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}
