package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	operations map[string]model.Operation
	events     map[string][]model.LogEvent
	seqs       map[int64]struct{}
	lastSeq    int64
	mu         sync.RWMutex
	logger     log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		operations: make(map[string]model.Operation),
		events:     make(map[string][]model.LogEvent),
		seqs:       make(map[int64]struct{}),
		logger:     cfg.Logger,
	}, nil
}

// CreateOperation creates a new operation in the repository.
func (r *Repository) CreateOperation(ctx context.Context, op model.Operation) error {
	if op.ID == "" || op.Type == "" {
		return fmt.Errorf("operation id and type are required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.operations[op.ID]; ok {
		return fmt.Errorf("operation %s: %w", op.ID, model.ErrAlreadyExists)
	}
	r.operations[op.ID] = op
	r.logger.Debugf("Created operation in repository: %s", op.ID)

	return nil
}

// GetOperation retrieves an operation by ID.
func (r *Repository) GetOperation(ctx context.Context, id string) (*model.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.operations[id]
	if !ok {
		return nil, fmt.Errorf("operation %s: %w", id, model.ErrNotFound)
	}

	return &op, nil
}

// ListOperations returns all the operations, newest first.
func (r *Repository) ListOperations(ctx context.Context) ([]model.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]model.Operation, 0, len(r.operations))
	for _, op := range r.operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if !ops[i].CreatedAt.Equal(ops[j].CreatedAt) {
			return ops[i].CreatedAt.After(ops[j].CreatedAt)
		}
		return ops[i].ID > ops[j].ID
	})

	return ops, nil
}

// AppendEvent stores an operation log event.
func (r *Repository) AppendEvent(ctx context.Context, e model.LogEvent) (*model.LogEvent, error) {
	if e.OperationID == "" || e.Code == "" {
		return nil, fmt.Errorf("operation id and code are required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.operations[e.OperationID]; !ok {
		return nil, fmt.Errorf("operation %s: %w", e.OperationID, model.ErrNotFound)
	}

	if e.SequenceID <= 0 {
		e.SequenceID = r.lastSeq + 1
	}
	if _, ok := r.seqs[e.SequenceID]; ok {
		return nil, fmt.Errorf("event %d: %w", e.SequenceID, model.ErrAlreadyExists)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	r.seqs[e.SequenceID] = struct{}{}
	if e.SequenceID > r.lastSeq {
		r.lastSeq = e.SequenceID
	}
	r.events[e.OperationID] = append(r.events[e.OperationID], e)
	r.logger.Debugf("Appended event %d (%s) to operation %s", e.SequenceID, e.Code, e.OperationID)

	return &e, nil
}

// ListEvents returns the events of an operation after a sequence id.
func (r *Repository) ListEvents(ctx context.Context, operationID string, afterSeq int64) ([]model.LogEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := []model.LogEvent{}
	for _, e := range r.events[operationID] {
		if e.SequenceID > afterSeq {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].SequenceID < events[j].SequenceID })

	return events, nil
}
