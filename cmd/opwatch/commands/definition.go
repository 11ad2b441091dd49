package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opwatch/internal/app/definitionlist"
)

// NewDefinitionCommand returns the parent command of the definition subcommands.
func NewDefinitionCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("definition", "Inspect timeline definitions.")
}

// DefinitionListCommand lists the known timeline definitions.
type DefinitionListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewDefinitionListCommand returns the definition list command.
func NewDefinitionListCommand(rootCmd *RootCommand, definitionCmd *kingpin.CmdClause) *DefinitionListCommand {
	c := &DefinitionListCommand{rootCmd: rootCmd}

	c.Cmd = definitionCmd.Command("list", "List the timeline definitions.")
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c DefinitionListCommand) Name() string { return c.Cmd.FullCommand() }

func (c DefinitionListCommand) Run(ctx context.Context) error {
	defs, err := c.rootCmd.newDefinitions(ctx)
	if err != nil {
		return err
	}

	svc, err := definitionlist.NewService(definitionlist.ServiceConfig{
		Definitions: defs,
		Logger:      c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	list, err := svc.Run(ctx, definitionlist.Request{})
	if err != nil {
		return fmt.Errorf("could not list definitions: %w", err)
	}

	if err := c.rootCmd.newPrinter(c.format).PrintDefinitionList(list); err != nil {
		return fmt.Errorf("could not print definitions: %w", err)
	}

	return nil
}
