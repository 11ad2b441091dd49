// Package feed adapts event transports into operation log event subscriptions.
//
// A subscription delivers the events of a single operation at-least-once and in no particular
// order. When the transport disconnects the subscription signals an interruption and
// resubscribes with a bounded exponential backoff. Reconciliation is not a concern of this package.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
)

const (
	defaultBufferSize       = 128
	defaultMaxRetries       = 10
	defaultInitialInterval  = 200 * time.Millisecond
	defaultMaxInterval      = 5 * time.Second
	defaultMaxElapsedTime   = 1 * time.Minute
	interruptionsBufferSize = 16
)

// Source is a transport of operation log events.
type Source interface {
	// Stream starts streaming the events of an operation. Errors starting the stream are returned
	// synchronously. The returned channel is closed when the transport disconnects or ctx ends.
	Stream(ctx context.Context, operationID string) (<-chan model.LogEvent, error)
}

//go:generate mockery --case underscore --output feedmock --outpkg feedmock --name Source

// Feed subscribes to operation log events.
type Feed interface {
	Subscribe(ctx context.Context, operationID string) (*Subscription, error)
}

// AdapterConfig is the configuration for the feed adapter.
type AdapterConfig struct {
	Source Source
	// NewBackOff returns the reconnection policy used for each disconnection.
	NewBackOff func() backoff.BackOff
	BufferSize int
	Logger     log.Logger
}

func (c *AdapterConfig) defaults() error {
	if c.Source == nil {
		return fmt.Errorf("source is required")
	}
	if c.NewBackOff == nil {
		c.NewBackOff = DefaultBackOff
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "feed.Adapter"})
	return nil
}

// DefaultBackOff is the default bounded reconnection policy.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(defaultInitialInterval),
		backoff.WithMaxInterval(defaultMaxInterval),
		backoff.WithMaxElapsedTime(defaultMaxElapsedTime),
	)
	return backoff.WithMaxRetries(b, defaultMaxRetries)
}

// Adapter wraps a Source with subscription lifecycle and reconnection.
type Adapter struct {
	source     Source
	newBackOff func() backoff.BackOff
	bufferSize int
	logger     log.Logger
}

// NewAdapter returns a new feed adapter.
func NewAdapter(cfg AdapterConfig) (*Adapter, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Adapter{
		source:     cfg.Source,
		newBackOff: cfg.NewBackOff,
		bufferSize: cfg.BufferSize,
		logger:     cfg.Logger,
	}, nil
}

var _ Feed = &Adapter{}

// Subscribe starts delivering the events of an operation.
// The subscription ends when ctx is done, Close is called or reconnection gives up.
func (a *Adapter) Subscribe(ctx context.Context, operationID string) (*Subscription, error) {
	if operationID == "" {
		return nil, fmt.Errorf("operation id is required: %w", model.ErrNotValid)
	}

	ctx, cancel := context.WithCancel(ctx)
	in, err := a.source.Stream(ctx, operationID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("could not subscribe to operation %s: %w", operationID, err)
	}

	s := &Subscription{
		operationID:   operationID,
		events:        make(chan model.LogEvent, a.bufferSize),
		interruptions: make(chan error, interruptionsBufferSize),
		done:          make(chan struct{}),
		cancel:        cancel,
	}

	logger := a.logger.WithValues(log.Kv{"operation": operationID})
	go a.run(ctx, s, in, logger)

	logger.Debugf("Subscribed to operation events")
	return s, nil
}

func (a *Adapter) run(ctx context.Context, s *Subscription, in <-chan model.LogEvent, logger log.Logger) {
	defer close(s.done)
	defer close(s.interruptions)
	defer func() {
		// On teardown the buffered events are dropped, not delivered.
		if ctx.Err() != nil {
			drain(s.events)
		}
		close(s.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-in:
			if ok {
				// Teardown already started, drop in-flight events.
				if ctx.Err() != nil {
					return
				}
				select {
				case s.events <- e:
				case <-ctx.Done():
					return
				}
				continue
			}

			if ctx.Err() != nil {
				return
			}

			s.interrupt(fmt.Errorf("transport stream closed: %w", model.ErrFeedInterrupted), logger)
			next, err := a.resubscribe(ctx, s.operationID, logger)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				err = fmt.Errorf("could not reconnect: %w: %w", model.ErrFeedInterrupted, err)
				s.setErr(err)
				s.interrupt(err, logger)
				logger.Errorf("Giving up on operation events subscription: %s", err)
				return
			}
			in = next
			logger.Infof("Reconnected to operation events")
		}
	}
}

func drain(ch chan model.LogEvent) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func (a *Adapter) resubscribe(ctx context.Context, operationID string, logger log.Logger) (<-chan model.LogEvent, error) {
	b := backoff.WithContext(a.newBackOff(), ctx)
	return backoff.RetryNotifyWithData(func() (<-chan model.LogEvent, error) {
		return a.source.Stream(ctx, operationID)
	}, b, func(err error, d time.Duration) {
		logger.Warningf("Could not reconnect, retrying in %s: %s", d, err)
	})
}

// Subscription is a live, non restartable stream of an operation log events.
type Subscription struct {
	operationID   string
	events        chan model.LogEvent
	interruptions chan error
	done          chan struct{}
	cancel        context.CancelFunc
	closeOnce     sync.Once

	mu  sync.Mutex
	err error
}

// OperationID returns the subscribed operation.
func (s *Subscription) OperationID() string { return s.operationID }

// Events returns the delivered events. The channel is closed when the subscription ends.
func (s *Subscription) Events() <-chan model.LogEvent { return s.events }

// Interruptions returns the transport interruption signals, they wrap model.ErrFeedInterrupted.
// The channel is closed when the subscription ends.
func (s *Subscription) Interruptions() <-chan error { return s.interruptions }

// Done is closed when the subscription has ended and released the transport.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns the reason the subscription ended by itself, nil if it was closed or still running.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the delivery and releases the transport. It is safe to call multiple times.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.cancel)
	<-s.done
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Subscription) interrupt(err error, logger log.Logger) {
	logger.Warningf("Operation events feed interrupted: %s", err)
	select {
	case s.interruptions <- err:
	default:
	}
}

// IsInterrupted returns true if the error is a feed interruption.
func IsInterrupted(err error) bool {
	return errors.Is(err, model.ErrFeedInterrupted)
}
