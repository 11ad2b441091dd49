package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/opwatch/internal/feed"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
)

const defaultInboxSize = 1024

// BrokerConfig is the configuration for the memory broker.
type BrokerConfig struct {
	InboxSize int
	Logger    log.Logger
}

func (c *BrokerConfig) defaults() error {
	if c.InboxSize <= 0 {
		c.InboxSize = defaultInboxSize
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "feed.Memory"})
	return nil
}

// Broker is an in-process event transport. It keeps the history of every operation and
// replays it to each new stream, so a reconnection redelivers already seen events.
type Broker struct {
	inboxSize int
	logger    log.Logger

	mu          sync.Mutex
	history     map[string][]model.LogEvent
	streams     map[string]map[uint64]*stream
	nextID      uint64
	unavailable error
}

type stream struct {
	inbox chan model.LogEvent
	kill  chan struct{}
}

// NewBroker returns a new memory broker.
func NewBroker(cfg BrokerConfig) (*Broker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Broker{
		inboxSize: cfg.InboxSize,
		logger:    cfg.Logger,
		history:   map[string][]model.LogEvent{},
		streams:   map[string]map[uint64]*stream{},
	}, nil
}

var _ feed.Source = &Broker{}

// Stream satisfies feed.Source.
func (b *Broker) Stream(ctx context.Context, operationID string) (<-chan model.LogEvent, error) {
	b.mu.Lock()
	if b.unavailable != nil {
		err := b.unavailable
		b.mu.Unlock()
		return nil, err
	}

	s := &stream{
		inbox: make(chan model.LogEvent, b.inboxSize),
		kill:  make(chan struct{}),
	}
	for _, e := range b.history[operationID] {
		select {
		case s.inbox <- e:
		default:
			b.logger.Warningf("Inbox full, dropping replayed event %d", e.SequenceID)
		}
	}

	id := b.nextID
	b.nextID++
	if b.streams[operationID] == nil {
		b.streams[operationID] = map[uint64]*stream{}
	}
	b.streams[operationID][id] = s
	b.mu.Unlock()

	out := make(chan model.LogEvent)
	go func() {
		defer close(out)
		defer b.remove(operationID, id)

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.kill:
				return
			case e := <-s.inbox:
				select {
				case out <- e:
				case <-ctx.Done():
					return
				case <-s.kill:
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *Broker) remove(operationID string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.streams[operationID], id)
	if len(b.streams[operationID]) == 0 {
		delete(b.streams, operationID)
	}
}

// Publish stores the event and pushes it to the streams of its operation.
// Events without sequence id get the next one of the operation.
func (b *Broker) Publish(e model.LogEvent) model.LogEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e.SequenceID == 0 {
		e.SequenceID = int64(len(b.history[e.OperationID]) + 1)
	}
	b.history[e.OperationID] = append(b.history[e.OperationID], e)

	for _, s := range b.streams[e.OperationID] {
		select {
		case s.inbox <- e:
		default:
			b.logger.Warningf("Inbox full, dropping event %d", e.SequenceID)
		}
	}

	return e
}

// Disconnect closes every open stream of an operation, like a transport drop.
func (b *Broker) Disconnect(operationID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, s := range b.streams[operationID] {
		close(s.kill)
		delete(b.streams[operationID], id)
	}
	delete(b.streams, operationID)
}

// SetUnavailable makes new streams fail with err, nil makes the broker available again.
func (b *Broker) SetUnavailable(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unavailable = err
}

// Streams returns the number of open streams of an operation.
func (b *Broker) Streams(operationID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.streams[operationID])
}

// History returns the published events of an operation sorted by sequence id.
func (b *Broker) History(operationID string) []model.LogEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := append([]model.LogEvent(nil), b.history[operationID]...)
	sort.Slice(h, func(i, j int) bool { return h[i].SequenceID < h[j].SequenceID })
	return h
}
