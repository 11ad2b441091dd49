package definitionlist

import (
	"context"
	"fmt"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage"
)

// ServiceConfig is the configuration for the definition list service.
type ServiceConfig struct {
	Definitions storage.DefinitionRepository
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Definitions == nil {
		return fmt.Errorf("definitions repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists the known timeline definitions.
type Service struct {
	defs   storage.DefinitionRepository
	logger log.Logger
}

// NewService creates a new definition list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		defs:   cfg.Definitions,
		logger: cfg.Logger,
	}, nil
}

// Request represents the definition list request parameters.
type Request struct{}

// Run lists all the timeline definitions.
func (s *Service) Run(ctx context.Context, req Request) ([]model.TimelineDefinition, error) {
	defs, err := s.defs.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list timeline definitions: %w", err)
	}

	s.logger.Debugf("found %d timeline definitions", len(defs))
	return defs, nil
}
