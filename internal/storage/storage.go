package storage

import (
	"context"

	"github.com/slok/opwatch/internal/model"
)

// OperationRepository is the interface for operation persistence.
type OperationRepository interface {
	CreateOperation(ctx context.Context, op model.Operation) error
	GetOperation(ctx context.Context, id string) (*model.Operation, error)
	ListOperations(ctx context.Context) ([]model.Operation, error)
}

// EventRepository is the interface for operation log events persistence.
type EventRepository interface {
	// AppendEvent stores an event. A zero SequenceID or CreatedAt is assigned by the repository.
	AppendEvent(ctx context.Context, e model.LogEvent) (*model.LogEvent, error)
	// ListEvents returns the events of an operation with a sequence id greater than afterSeq,
	// sorted by sequence id.
	ListEvents(ctx context.Context, operationID string, afterSeq int64) ([]model.LogEvent, error)
}

//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name Repository
//go:generate mockery --case underscore --output storagemock --outpkg storagemock --name DefinitionRepository

// Repository is the interface for the complete persistence.
type Repository interface {
	OperationRepository
	EventRepository
}

// DefinitionRepository is the interface for timeline definitions retrieval.
type DefinitionRepository interface {
	GetDefinition(ctx context.Context, name string) (*model.TimelineDefinition, error)
	ListDefinitions(ctx context.Context) ([]model.TimelineDefinition, error)
}
