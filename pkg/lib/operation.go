package lib

import (
	"context"
	"fmt"

	"github.com/slok/opwatch/internal/app/definitionlist"
	"github.com/slok/opwatch/internal/app/eventpush"
	"github.com/slok/opwatch/internal/app/operationcreate"
	"github.com/slok/opwatch/internal/app/operationlist"
	"github.com/slok/opwatch/internal/app/status"
)

// CreateOperation registers a new operation of a known type.
//
// Returns [ErrNotFound] if there is no timeline definition for the type.
func (c *Client) CreateOperation(ctx context.Context, opType string) (*Operation, error) {
	svc, err := operationcreate.NewService(operationcreate.ServiceConfig{
		Repository:  c.repo,
		Definitions: c.defs,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	op, err := svc.Run(ctx, operationcreate.Request{Type: opType})
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalOperation(*op)
	return &result, nil
}

// ListOperations lists the operations, newest first.
// Pass nil opts to list all of them.
func (c *Client) ListOperations(ctx context.Context, opts *ListOperationsOpts) ([]Operation, error) {
	svc, err := operationlist.NewService(operationlist.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := operationlist.Request{}
	if opts != nil {
		req.TypeFilter = opts.Type
	}

	ops, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalOperationList(ops), nil
}

// PushEvent stores a coded log event of an operation, the sequence id and creation
// time are assigned by the store. Pass nil opts for defaults.
//
// Returns [ErrNotFound] if the operation does not exist, or [ErrNotValid] if the
// code is empty.
func (c *Client) PushEvent(ctx context.Context, operationID, code string, opts *PushEventOpts) (*Event, error) {
	svc, err := eventpush.NewService(eventpush.ServiceConfig{
		Repository: c.repo,
		Logger:     c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := eventpush.Request{OperationID: operationID, Code: code}
	if opts != nil {
		req.Message = opts.Message
	}

	e, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	result := fromInternalEvent(*e)
	return &result, nil
}

// GetStatus returns the current timeline and raw log of an operation.
//
// Returns [ErrNotFound] if the operation does not exist.
func (c *Client) GetStatus(ctx context.Context, operationID string) (*Status, error) {
	svc, err := status.NewService(status.ServiceConfig{
		Repository:  c.repo,
		Definitions: c.defs,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, status.Request{OperationID: operationID})
	if err != nil {
		return nil, mapError(err)
	}

	return &Status{
		Operation: fromInternalOperation(resp.Operation),
		Timeline:  fromInternalTimeline(resp.Timeline),
		RawLog:    fromInternalRawLog(resp.RawLog),
	}, nil
}

// ListDefinitions lists the timeline definitions sorted by name.
func (c *Client) ListDefinitions(ctx context.Context) ([]Definition, error) {
	svc, err := definitionlist.NewService(definitionlist.ServiceConfig{
		Definitions: c.defs,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	defs, err := svc.Run(ctx, definitionlist.Request{})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalDefinitionList(defs), nil
}
