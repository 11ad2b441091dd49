package operationcreate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage"
)

// ServiceConfig is the configuration for the operation create service.
type ServiceConfig struct {
	Repository  storage.OperationRepository
	Definitions storage.DefinitionRepository
	Logger      log.Logger
	// TimeNow is used to set the operation creation time.
	TimeNow func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Definitions == nil {
		return fmt.Errorf("definitions repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.OperationCreate"})
	return nil
}

// Service registers new operations to be tracked.
type Service struct {
	repo    storage.OperationRepository
	defs    storage.DefinitionRepository
	logger  log.Logger
	timeNow func() time.Time
}

// NewService creates a new operation create service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:    cfg.Repository,
		defs:    cfg.Definitions,
		logger:  cfg.Logger,
		timeNow: cfg.TimeNow,
	}, nil
}

// Request represents the operation create request parameters.
type Request struct {
	// Type is the timeline definition name of the operation.
	Type string
}

// Run creates a new operation of a known type.
func (s *Service) Run(ctx context.Context, req Request) (*model.Operation, error) {
	if req.Type == "" {
		return nil, fmt.Errorf("operation type is required: %w", model.ErrNotValid)
	}

	// The type must resolve to a definition, otherwise nothing could reconcile its events.
	_, err := s.defs.GetDefinition(ctx, req.Type)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("unknown operation type %q: %w", req.Type, err)
		}
		return nil, fmt.Errorf("could not get timeline definition: %w", err)
	}

	op := model.Operation{
		ID:        ulid.Make().String(),
		Type:      req.Type,
		CreatedAt: s.timeNow().UTC(),
	}
	if err := s.repo.CreateOperation(ctx, op); err != nil {
		return nil, fmt.Errorf("could not save operation: %w", err)
	}

	s.logger.Infof("Created operation: %s (%s)", op.ID, op.Type)

	return &op, nil
}
