package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opwatch/internal/app/operationcreate"
	"github.com/slok/opwatch/internal/app/operationlist"
)

// NewOperationCommand returns the parent command of the operation subcommands.
func NewOperationCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("operation", "Manage tracked operations.")
}

// OperationCreateCommand registers a new operation.
type OperationCreateCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	opType string
	format string
}

// NewOperationCreateCommand returns the operation create command.
func NewOperationCreateCommand(rootCmd *RootCommand, operationCmd *kingpin.CmdClause) *OperationCreateCommand {
	c := &OperationCreateCommand{rootCmd: rootCmd}

	c.Cmd = operationCmd.Command("create", "Create a new operation to track.")
	c.Cmd.Flag("type", "Operation type, the timeline definition name.").Default("video").StringVar(&c.opType)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c OperationCreateCommand) Name() string { return c.Cmd.FullCommand() }

func (c OperationCreateCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	defs, err := c.rootCmd.newDefinitions(ctx)
	if err != nil {
		return err
	}

	svc, err := operationcreate.NewService(operationcreate.ServiceConfig{
		Repository:  repo,
		Definitions: defs,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	op, err := svc.Run(ctx, operationcreate.Request{Type: c.opType})
	if err != nil {
		return fmt.Errorf("could not create operation: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintOperation(*op); err != nil {
		return fmt.Errorf("could not print operation: %w", err)
	}

	return nil
}

// OperationListCommand lists the tracked operations.
type OperationListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	typeFilter string
	format     string
}

// NewOperationListCommand returns the operation list command.
func NewOperationListCommand(rootCmd *RootCommand, operationCmd *kingpin.CmdClause) *OperationListCommand {
	c := &OperationListCommand{rootCmd: rootCmd}

	c.Cmd = operationCmd.Command("list", "List tracked operations, newest first.")
	c.Cmd.Flag("type", "Filter by operation type.").StringVar(&c.typeFilter)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c OperationListCommand) Name() string { return c.Cmd.FullCommand() }

func (c OperationListCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := operationlist.NewService(operationlist.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	ops, err := svc.Run(ctx, operationlist.Request{TypeFilter: c.typeFilter})
	if err != nil {
		return fmt.Errorf("could not list operations: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintOperationList(ops); err != nil {
		return fmt.Errorf("could not print operations: %w", err)
	}

	return nil
}
