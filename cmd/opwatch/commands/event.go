package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opwatch/internal/app/eventpush"
)

// NewEventCommand returns the parent command of the event subcommands.
func NewEventCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("event", "Manage operation log events.")
}

// EventPushCommand appends a log event to an operation, like the job executor would.
type EventPushCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	operationID string
	code        string
	message     string
	format      string
}

// NewEventPushCommand returns the event push command.
func NewEventPushCommand(rootCmd *RootCommand, eventCmd *kingpin.CmdClause) *EventPushCommand {
	c := &EventPushCommand{rootCmd: rootCmd}

	c.Cmd = eventCmd.Command("push", "Push a coded log event to an operation.")
	c.Cmd.Arg("operation-id", "Operation ID.").Required().StringVar(&c.operationID)
	c.Cmd.Arg("code", "Event code.").Required().StringVar(&c.code)
	c.Cmd.Flag("message", "Optional free text message.").Short('m').StringVar(&c.message)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c EventPushCommand) Name() string { return c.Cmd.FullCommand() }

func (c EventPushCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.newRepository(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := eventpush.NewService(eventpush.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	e, err := svc.Run(ctx, eventpush.Request{
		OperationID: c.operationID,
		Code:        c.code,
		Message:     c.message,
	})
	if err != nil {
		return fmt.Errorf("could not push event: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintEvent(*e); err != nil {
		return fmt.Errorf("could not print event: %w", err)
	}

	return nil
}
