package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/opwatch/internal/app/eventpush"
	"github.com/slok/opwatch/internal/app/operationcreate"
	"github.com/slok/opwatch/internal/feed"
	"github.com/slok/opwatch/internal/feed/memory"
	"github.com/slok/opwatch/internal/model"
	storagememory "github.com/slok/opwatch/internal/storage/memory"
)

const demoProgressCode = "demo_progress"

// DemoCommand simulates an operation producer over an in-memory transport and watches it.
// Nothing is persisted, the demo operation lives in an in-memory store.
type DemoCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	opType      string
	failStage   int
	globalError string
	interval    time.Duration
	duplicates  bool
	disconnect  bool
	format      string
}

// NewDemoCommand returns the demo command.
func NewDemoCommand(rootCmd *RootCommand, app *kingpin.Application) *DemoCommand {
	c := &DemoCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("demo", "Simulate an operation with an in-memory event transport and watch it.")
	c.Cmd.Flag("type", "Operation type, the timeline definition name.").Default("video").StringVar(&c.opType)
	c.Cmd.Flag("fail-stage", "Stage number (starting at 1) that fails, 0 for none.").Default("0").IntVar(&c.failStage)
	c.Cmd.Flag("global-error", "Global error code emitted after the first stage.").StringVar(&c.globalError)
	c.Cmd.Flag("interval", "Interval between emitted events.").Default("500ms").DurationVar(&c.interval)
	c.Cmd.Flag("duplicates", "Deliver every event twice.").BoolVar(&c.duplicates)
	c.Cmd.Flag("disconnect", "Drop the transport connection after the first event.").BoolVar(&c.disconnect)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c DemoCommand) Name() string { return c.Cmd.FullCommand() }

func (c DemoCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	defs, err := c.rootCmd.newDefinitions(ctx)
	if err != nil {
		return err
	}
	def, err := defs.GetDefinition(ctx, c.opType)
	if err != nil {
		return fmt.Errorf("could not get %q timeline definition: %w", c.opType, err)
	}

	repo, err := storagememory.NewRepository(storagememory.RepositoryConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create memory repository: %w", err)
	}

	createSvc, err := operationcreate.NewService(operationcreate.ServiceConfig{
		Repository:  repo,
		Definitions: defs,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}
	pushSvc, err := eventpush.NewService(eventpush.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	op, err := createSvc.Run(ctx, operationcreate.Request{Type: def.Name})
	if err != nil {
		return err
	}
	opID := op.ID

	events, err := demoEvents(*def, opID, c.failStage, c.globalError)
	if err != nil {
		return err
	}

	broker, err := memory.NewBroker(memory.BrokerConfig{Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create memory transport: %w", err)
	}

	f, err := feed.NewAdapter(feed.AdapterConfig{Source: broker, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create event feed: %w", err)
	}

	// Producer.
	produceCtx, cancel := context.WithCancel(ctx)
	producer := actor{
		execute: func() error {
			for i, e := range events {
				select {
				case <-produceCtx.Done():
					return nil
				case <-time.After(c.interval):
				}

				stored, err := pushSvc.Run(produceCtx, eventpush.Request{OperationID: e.OperationID, Code: e.Code, Message: e.Message})
				if err != nil {
					return fmt.Errorf("could not store demo event: %w", err)
				}

				broker.Publish(*stored)
				if c.duplicates {
					broker.Publish(*stored)
				}
				if c.disconnect && i == 0 {
					logger.Infof("Dropping the transport connection")
					broker.Disconnect(opID)
				}
			}

			<-produceCtx.Done()
			return nil
		},
		interrupt: func(_ error) {
			cancel()
		},
	}

	return watchOperation(ctx, watchConfig{
		feed:        f,
		operationID: opID,
		definition:  *def,
		printer:     c.rootCmd.newPrinter(c.format),
		logger:      logger,
		actors:      []actor{producer},
	})
}

// demoEvents returns the events a job executor would emit for an operation: a progress
// line and the outcome of every stage until one fails.
func demoEvents(def model.TimelineDefinition, operationID string, failStage int, globalError string) ([]model.LogEvent, error) {
	if failStage < 0 || failStage > len(def.Stages) {
		return nil, fmt.Errorf("fail stage must be between 0 and %d: %w", len(def.Stages), model.ErrNotValid)
	}
	if globalError != "" {
		found := false
		for _, g := range def.GlobalErrors {
			if g.ErrorCode == globalError {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%q is not a global error code of %q: %w", globalError, def.Name, model.ErrNotValid)
		}
	}

	events := []model.LogEvent{}
	add := func(code, msg string) {
		events = append(events, model.LogEvent{OperationID: operationID, Code: code, Message: msg})
	}

	for i, s := range def.Stages {
		add(demoProgressCode, fmt.Sprintf("%s in progress", def.StageName(i)))
		if failStage == i+1 {
			add(s.ErrorCode, "")
			break
		}
		add(s.SuccessCode, "")

		if globalError != "" {
			add(globalError, "")
			break
		}
	}

	return events, nil
}
