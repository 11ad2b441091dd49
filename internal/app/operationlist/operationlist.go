package operationlist

import (
	"context"
	"fmt"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage"
)

// ServiceConfig is the configuration for the operation list service.
type ServiceConfig struct {
	Repository storage.OperationRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists operations with optional filtering.
type Service struct {
	repo   storage.OperationRepository
	logger log.Logger
}

// NewService creates a new operation list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// TypeFilter is an optional filter to only show operations of this type.
	TypeFilter string
}

// Run lists all operations, newest first, optionally filtered by type.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Operation, error) {
	s.logger.Debugf("listing operations with type filter: %q", req.TypeFilter)

	ops, err := s.repo.ListOperations(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list operations: %w", err)
	}

	if req.TypeFilter != "" {
		filtered := make([]model.Operation, 0, len(ops))
		for _, op := range ops {
			if op.Type == req.TypeFilter {
				filtered = append(filtered, op)
			}
		}
		ops = filtered
	}

	s.logger.Debugf("found %d operations", len(ops))
	return ops, nil
}
