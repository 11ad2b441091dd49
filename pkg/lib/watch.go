package lib

import (
	"context"
	"fmt"

	"github.com/slok/opwatch/internal/feed"
	"github.com/slok/opwatch/internal/feed/poll"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/session"
)

// Watch follows an operation timeline. fn, when not nil, is called with the initial
// timeline and on every change, from a single goroutine; it must return quickly.
//
// Watch blocks until the operation has finished, ctx is cancelled or the event feed
// could not reconnect, and returns the last known timeline in every case.
//
// Returns [ErrNotFound] if the operation does not exist, ctx error on cancellation,
// and [ErrFeedInterrupted] when the feed gave up.
func (c *Client) Watch(ctx context.Context, operationID string, fn func(Timeline)) (*Timeline, error) {
	op, err := c.repo.GetOperation(ctx, operationID)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not get operation %s: %w", operationID, err))
	}

	def, err := c.defs.GetDefinition(ctx, op.Type)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not get %q timeline definition: %w", op.Type, err))
	}

	src, err := poll.NewSource(poll.SourceConfig{
		Lister:   c.repo,
		Interval: c.pollInterval,
		Logger:   c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create event source: %w", err)
	}

	f, err := feed.NewAdapter(feed.AdapterConfig{Source: src, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create event feed: %w", err)
	}

	sess, err := session.New(session.Config{Feed: f, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	defer sess.Close()

	finished := make(chan model.OperationTimeline, 1)
	sess.Observe(func(u session.Update) {
		switch {
		case u.Kind == session.UpdateKindReset && !u.Timeline.IsEmpty():
		case u.Kind == session.UpdateKindEvent && u.Result.Changed():
		default:
			return
		}

		if fn != nil {
			fn(fromInternalTimeline(u.Timeline))
		}
		if u.Timeline.Status.IsFinished() {
			select {
			case finished <- u.Timeline:
			default:
			}
		}
	})

	if err := sess.Watch(ctx, op.ID, *def); err != nil {
		return nil, mapError(err)
	}
	done := sess.Done()

	select {
	case tl := <-finished:
		result := fromInternalTimeline(tl)
		return &result, nil
	case <-done:
		result := fromInternalTimeline(sess.Timeline())
		if err := sess.Err(); err != nil {
			return &result, mapError(err)
		}
		return &result, ctx.Err()
	case <-ctx.Done():
		result := fromInternalTimeline(sess.Timeline())
		return &result, ctx.Err()
	}
}
