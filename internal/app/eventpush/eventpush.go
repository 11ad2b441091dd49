package eventpush

import (
	"context"
	"fmt"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage"
)

// ServiceConfig is the configuration for the event push service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.EventPush"})
	return nil
}

// Service appends log events to operations, the same way a job executor would.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new event push service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the event push request parameters.
type Request struct {
	OperationID string
	Code        string
	Message     string
}

// Run stores a new event of an existing operation. The sequence id and the creation
// time are assigned by the store.
func (s *Service) Run(ctx context.Context, req Request) (*model.LogEvent, error) {
	if req.OperationID == "" {
		return nil, fmt.Errorf("operation id is required: %w", model.ErrNotValid)
	}
	if req.Code == "" {
		return nil, fmt.Errorf("code is required: %w", model.ErrNotValid)
	}

	if _, err := s.repo.GetOperation(ctx, req.OperationID); err != nil {
		return nil, fmt.Errorf("could not get operation %s: %w", req.OperationID, err)
	}

	e, err := s.repo.AppendEvent(ctx, model.LogEvent{
		OperationID: req.OperationID,
		Code:        req.Code,
		Message:     req.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("could not append event: %w", err)
	}

	s.logger.WithValues(log.Kv{"operation": e.OperationID, "seq": e.SequenceID}).Infof("Pushed event %s", e.Code)

	return e, nil
}
