package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opwatch/internal/app/status"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	operationID string
	format      string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Get the current timeline of an operation.")
	c.Cmd.Arg("operation-id", "Operation ID.").Required().StringVar(&c.operationID)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
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

	svc, err := status.NewService(status.ServiceConfig{
		Repository:  repo,
		Definitions: defs,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, status.Request{OperationID: c.operationID})
	if err != nil {
		return fmt.Errorf("could not get operation status: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintStatus(resp.Operation, resp.Timeline, resp.RawLog); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
