package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/opwatch/internal/feed"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
)

const defaultInterval = 500 * time.Millisecond

// EventLister lists the stored events of an operation after a sequence id.
type EventLister interface {
	ListEvents(ctx context.Context, operationID string, afterSeq int64) ([]model.LogEvent, error)
}

// SourceConfig is the configuration for the polling source.
type SourceConfig struct {
	Lister   EventLister
	Interval time.Duration
	Logger   log.Logger
}

func (c *SourceConfig) defaults() error {
	if c.Lister == nil {
		return fmt.Errorf("lister is required")
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "feed.Poll"})
	return nil
}

// Source tails an event store by polling it.
// Every stream starts from the beginning, a failed poll closes the stream.
type Source struct {
	lister   EventLister
	interval time.Duration
	logger   log.Logger
}

// NewSource returns a new polling source.
func NewSource(cfg SourceConfig) (*Source, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Source{
		lister:   cfg.Lister,
		interval: cfg.Interval,
		logger:   cfg.Logger,
	}, nil
}

var _ feed.Source = &Source{}

// Stream satisfies feed.Source.
func (s *Source) Stream(ctx context.Context, operationID string) (<-chan model.LogEvent, error) {
	first, err := s.lister.ListEvents(ctx, operationID, 0)
	if err != nil {
		return nil, fmt.Errorf("could not list events: %w", err)
	}

	logger := s.logger.WithValues(log.Kv{"operation": operationID})
	out := make(chan model.LogEvent)
	go func() {
		defer close(out)

		var cursor int64
		send := func(events []model.LogEvent) bool {
			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return false
				}
				if e.SequenceID > cursor {
					cursor = e.SequenceID
				}
			}
			return true
		}

		if !send(first) {
			return
		}

		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}

			events, err := s.lister.ListEvents(ctx, operationID, cursor)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warningf("Could not poll events: %s", err)
				}
				return
			}
			if !send(events) {
				return
			}
		}
	}()

	return out, nil
}
