// Package session tracks the single operation currently being observed.
//
// A Session owns one feed subscription and one reconciliation state at a time. Events are
// applied one by one from a single goroutine, and switching the observed operation tears the
// previous subscription down before the new one starts, so events of an operation are never
// applied to another operation timeline.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/opwatch/internal/feed"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/reconcile"
)

// ErrClosed is returned when using a closed session.
var ErrClosed = errors.New("session closed")

// UpdateKind is the reason of an update notification.
type UpdateKind string

const (
	// UpdateKindReset is notified when the observed operation changes or is cleared.
	UpdateKindReset UpdateKind = "reset"
	// UpdateKindEvent is notified when an event has been folded.
	UpdateKindEvent UpdateKind = "event"
	// UpdateKindInterrupted is notified when the event feed was interrupted.
	UpdateKindInterrupted UpdateKind = "interrupted"
	// UpdateKindEnded is notified when the event feed ended by itself.
	UpdateKindEnded UpdateKind = "ended"
)

// Update is a projection change notification.
type Update struct {
	Kind     UpdateKind
	Timeline model.OperationTimeline
	// Event and Result are set on event updates.
	Event  *model.LogEvent
	Result reconcile.Result
	// Err is set on interrupted and ended updates.
	Err error
}

// Observer receives the session updates. Observers are called sequentially,
// they must not block nor call Watch, Clear or Close.
type Observer func(Update)

// Config is the configuration for the session.
type Config struct {
	Feed   feed.Feed
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Feed == nil {
		return fmt.Errorf("feed is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "session.Session"})
	return nil
}

// Session is the explicit context of the currently observed operation.
type Session struct {
	feed   feed.Feed
	logger log.Logger

	// watchMu serializes the lifecycle changes (watch, clear, close).
	watchMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	reconciler *reconcile.Reconciler
	state      reconcile.State
	rawLog     []model.RawLogLine
	sub        *feed.Subscription
	loopDone   chan struct{}
	err        error
	closed     bool

	notifyMu  sync.Mutex
	observers map[uint64]Observer
	nextObsID uint64
}

// New returns a new session that doesn't observe any operation.
func New(cfg Config) (*Session, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	done := make(chan struct{})
	close(done)

	return &Session{
		feed:      cfg.Feed,
		logger:    cfg.Logger,
		loopDone:  done,
		observers: map[uint64]Observer{},
	}, nil
}

// Watch starts observing an operation using its timeline definition. Any previously observed
// operation is torn down and its timeline discarded before subscribing. An empty operation id
// clears the session without subscribing. Subscription failures are returned and leave the
// session cleared.
func (s *Session) Watch(ctx context.Context, operationID string, def model.TimelineDefinition) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.isClosed() {
		return ErrClosed
	}

	gen := s.detach()
	if operationID == "" {
		s.notify(gen, Update{Kind: UpdateKindReset})
		return nil
	}

	r, err := reconcile.New(def)
	if err != nil {
		s.notify(gen, Update{Kind: UpdateKindReset})
		return err
	}

	sub, err := s.feed.Subscribe(ctx, operationID)
	if err != nil {
		s.notify(gen, Update{Kind: UpdateKindReset})
		return fmt.Errorf("could not watch operation %s: %w", operationID, err)
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.reconciler = r
	s.state = r.Init(operationID)
	s.sub = sub
	s.loopDone = done
	tl := s.state.Timeline()
	s.mu.Unlock()

	go s.loop(gen, sub, done)

	s.logger.WithValues(log.Kv{"operation": operationID, "definition": def.Name}).Infof("Watching operation")
	s.notify(gen, Update{Kind: UpdateKindReset, Timeline: tl})
	return nil
}

// Clear stops observing the current operation, the projection goes back to the empty state.
func (s *Session) Clear(ctx context.Context) error {
	return s.Watch(ctx, "", model.TimelineDefinition{})
}

// Close tears down the session. It is safe to call multiple times.
func (s *Session) Close() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.isClosed() {
		return
	}
	s.detach()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// detach invalidates the current generation, stops the current subscription and resets
// the projection. It returns the new generation.
func (s *Session) detach() uint64 {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	sub, done := s.sub, s.loopDone
	s.sub = nil
	s.reconciler = nil
	s.state = reconcile.State{}
	s.rawLog = nil
	s.err = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
		<-done
		s.logger.WithValues(log.Kv{"operation": sub.OperationID()}).Debugf("Stopped watching operation")
	}

	return gen
}

func (s *Session) loop(gen uint64, sub *feed.Subscription, done chan struct{}) {
	defer close(done)

	interruptions := sub.Interruptions()
	for {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				// The last interruptions are signaled before the feed end.
				if interruptions != nil {
					for err := range interruptions {
						s.interrupted(gen, err)
					}
				}
				s.end(gen, sub.Err())
				return
			}
			s.apply(gen, e)
		case err, ok := <-interruptions:
			if !ok {
				interruptions = nil
				continue
			}
			s.interrupted(gen, err)
		}
	}
}

func (s *Session) apply(gen uint64, e model.LogEvent) {
	s.mu.Lock()
	if gen != s.generation || s.reconciler == nil {
		s.mu.Unlock()
		return
	}

	next, res := s.reconciler.Apply(s.state, e)
	s.state = next
	switch res {
	case reconcile.ResultMalformed, reconcile.ResultForeign, reconcile.ResultDuplicate:
	default:
		s.rawLog = insertRawLogLine(s.rawLog, model.RawLogLineFromEvent(e))
	}
	tl := s.state.Timeline()
	s.mu.Unlock()

	logger := s.logger.WithValues(log.Kv{"operation": tl.OperationID, "seq": e.SequenceID, "code": e.Code})
	switch res {
	case reconcile.ResultMalformed:
		logger.Warningf("Dropping malformed event: %s", e.Validate())
		return
	case reconcile.ResultForeign:
		logger.Warningf("Dropping event of operation %q", e.OperationID)
		return
	case reconcile.ResultDuplicate:
		logger.Debugf("Ignoring duplicated event")
		return
	case reconcile.ResultUnknown:
		logger.Debugf("Unknown event code")
	case reconcile.ResultApplied:
		logger.Debugf("Event applied, operation %s", tl.Status)
	}

	ev := e
	s.notify(gen, Update{Kind: UpdateKindEvent, Timeline: tl, Event: &ev, Result: res})
}

func (s *Session) interrupted(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	tl := s.state.Timeline()
	s.mu.Unlock()

	s.notify(gen, Update{Kind: UpdateKindInterrupted, Timeline: tl, Err: err})
}

func (s *Session) end(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.err = err
	tl := s.state.Timeline()
	s.mu.Unlock()

	if err != nil {
		s.logger.WithValues(log.Kv{"operation": tl.OperationID}).Errorf("Operation events feed ended: %s", err)
	}
	s.notify(gen, Update{Kind: UpdateKindEnded, Timeline: tl, Err: err})
}

// notify calls the observers if the update generation is still the current one.
func (s *Session) notify(gen uint64, u Update) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	current := s.generation
	s.mu.Unlock()
	if gen != current {
		return
	}

	ids := make([]uint64, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		s.observers[id](u)
	}
}

// Observe registers an observer of the projection updates, the returned function unregisters it.
func (s *Session) Observe(o Observer) (unobserve func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = o

	var once sync.Once
	return func() {
		once.Do(func() {
			s.notifyMu.Lock()
			defer s.notifyMu.Unlock()
			delete(s.observers, id)
		})
	}
}

// Timeline returns the current timeline projection, empty when no operation is observed.
func (s *Session) Timeline() model.OperationTimeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Timeline()
}

// RawLog returns the received log lines of the current operation, sorted by creation time and
// sequence id. Codes unknown to the definition and events that didn't change any stage are kept,
// but it is a deduplicated view: a redelivered sequence id (at-least-once delivery, reconnection
// replays) shows once. Malformed events and events of other operations are never listed.
func (s *Session) RawLog() []model.RawLogLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RawLogLine(nil), s.rawLog...)
}

// OperationID returns the observed operation, empty if none.
func (s *Session) OperationID() string {
	return s.Timeline().OperationID
}

// Done returns a channel closed when the current subscription has ended.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopDone
}

// Err returns why the current subscription ended by itself, if it did.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func insertRawLogLine(lines []model.RawLogLine, l model.RawLogLine) []model.RawLogLine {
	i := sort.Search(len(lines), func(i int) bool { return l.Before(lines[i]) })

	lines = append(lines, model.RawLogLine{})
	copy(lines[i+1:], lines[i:])
	lines[i] = l
	return lines
}
