package status

import (
	"context"
	"fmt"
	"sort"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/reconcile"
	"github.com/slok/opwatch/internal/storage"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Repository  storage.Repository
	Definitions storage.DefinitionRepository
	Logger      log.Logger
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service computes the timeline of an operation from its stored events.
type Service struct {
	repo   storage.Repository
	defs   storage.DefinitionRepository
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		defs:   cfg.Definitions,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	OperationID string
}

// Response is the status of an operation.
type Response struct {
	Operation  model.Operation
	Definition model.TimelineDefinition
	Timeline   model.OperationTimeline
	// RawLog has one line per stored sequence id, including codes unknown to the definition.
	RawLog []model.RawLogLine
}

// Run returns the current status of an operation.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.OperationID == "" {
		return nil, fmt.Errorf("operation id is required: %w", model.ErrNotValid)
	}
	logger := s.logger.WithValues(log.Kv{"operation": req.OperationID})

	op, err := s.repo.GetOperation(ctx, req.OperationID)
	if err != nil {
		return nil, fmt.Errorf("could not get operation %s: %w", req.OperationID, err)
	}

	def, err := s.defs.GetDefinition(ctx, op.Type)
	if err != nil {
		return nil, fmt.Errorf("could not get %q timeline definition: %w", op.Type, err)
	}

	r, err := reconcile.New(*def)
	if err != nil {
		return nil, err
	}

	events, err := s.repo.ListEvents(ctx, op.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("could not list operation events: %w", err)
	}

	st := r.Init(op.ID)
	rawLog := make([]model.RawLogLine, 0, len(events))
	for _, e := range events {
		var res reconcile.Result
		st, res = r.Apply(st, e)
		switch res {
		case reconcile.ResultMalformed, reconcile.ResultForeign:
			logger.Warningf("Dropping event %d: %s", e.SequenceID, res)
		case reconcile.ResultDuplicate:
		default:
			rawLog = append(rawLog, model.RawLogLineFromEvent(e))
		}
	}
	sort.SliceStable(rawLog, func(i, j int) bool { return rawLog[i].Before(rawLog[j]) })

	logger.Debugf("Replayed %d events, operation %s", len(events), st.Timeline().Status)

	return &Response{
		Operation:  *op,
		Definition: *def,
		Timeline:   st.Timeline(),
		RawLog:     rawLog,
	}, nil
}
