package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/opwatch/internal/feed"
	"github.com/slok/opwatch/internal/feed/poll"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/printer"
	"github.com/slok/opwatch/internal/session"
)

const updatesBufferSize = 1024

type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	operationID  string
	pollInterval time.Duration
	format       string
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Follow the timeline of an operation until it completes or fails.")
	c.Cmd.Arg("operation-id", "Operation ID.").Required().StringVar(&c.operationID)
	c.Cmd.Flag("poll-interval", "Interval between event store polls.").Default("500ms").DurationVar(&c.pollInterval)
	formatFlag(c.Cmd, &c.format)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c WatchCommand) Run(ctx context.Context) error {
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

	op, err := repo.GetOperation(ctx, c.operationID)
	if err != nil {
		return fmt.Errorf("could not get operation %s: %w", c.operationID, err)
	}

	def, err := defs.GetDefinition(ctx, op.Type)
	if err != nil {
		return fmt.Errorf("could not get %q timeline definition: %w", op.Type, err)
	}

	src, err := poll.NewSource(poll.SourceConfig{
		Lister:   repo,
		Interval: c.pollInterval,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create event source: %w", err)
	}

	f, err := feed.NewAdapter(feed.AdapterConfig{
		Source: src,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create event feed: %w", err)
	}

	return watchOperation(ctx, watchConfig{
		feed:        f,
		operationID: op.ID,
		definition:  *def,
		printer:     c.rootCmd.newPrinter(c.format),
		logger:      logger,
	})
}

type watchConfig struct {
	feed        feed.Feed
	operationID string
	definition  model.TimelineDefinition
	printer     printer.Printer
	logger      log.Logger
	// actors are run together with the watch, like event producers.
	actors []actor
}

type actor struct {
	execute   func() error
	interrupt func(error)
}

// watchOperation prints the live timeline of an operation until it has finished,
// the feed ends or ctx is done.
func watchOperation(ctx context.Context, cfg watchConfig) error {
	sess, err := session.New(session.Config{Feed: cfg.feed, Logger: cfg.logger})
	if err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}
	defer sess.Close()

	updates := make(chan session.Update, updatesBufferSize)
	unobserve := sess.Observe(func(u session.Update) {
		select {
		case updates <- u:
		default:
			cfg.logger.Warningf("Dropping %s timeline update, printer is too slow", u.Kind)
		}
	})
	defer unobserve()

	if err := sess.Watch(ctx, cfg.operationID, cfg.definition); err != nil {
		return err
	}

	var g run.Group

	// Session.
	{
		done := sess.Done()
		stop := make(chan struct{})
		g.Add(
			func() error {
				select {
				case <-done:
					return sess.Err()
				case <-stop:
					return nil
				}
			},
			func(_ error) {
				close(stop)
			},
		)
	}

	// Printer.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				for {
					select {
					case <-ctx.Done():
						return printPending(cfg.printer, updates)
					case u := <-updates:
						if err := cfg.printer.PrintUpdate(u); err != nil {
							return fmt.Errorf("could not print update: %w", err)
						}
						if u.Timeline.Status.IsFinished() {
							cfg.logger.Infof("Operation %s", u.Timeline.Status)
							return nil
						}
					}
				}
			},
			func(_ error) {
				cancel()
			},
		)
	}

	for _, a := range cfg.actors {
		g.Add(a.execute, a.interrupt)
	}

	return g.Run()
}

// printPending prints the already received updates without waiting for new ones.
func printPending(p printer.Printer, updates <-chan session.Update) error {
	for {
		select {
		case u := <-updates:
			if err := p.PrintUpdate(u); err != nil {
				return fmt.Errorf("could not print update: %w", err)
			}
		default:
			return nil
		}
	}
}
