package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opwatch/internal/feed/memory"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
)

func recv(t *testing.T, ch <-chan model.LogEvent) (model.LogEvent, bool) {
	t.Helper()
	select {
	case e, ok := <-ch:
		return e, ok
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return model.LogEvent{}, false
}

func TestBroker(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	b, err := memory.NewBroker(memory.BrokerConfig{Logger: log.Noop})
	require.NoError(err)

	e := b.Publish(model.LogEvent{OperationID: "op-1", Code: "upload_success"})
	assert.Equal(int64(1), e.SequenceID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := b.Stream(ctx, "op-1")
	require.NoError(err)
	assert.Equal(1, b.Streams("op-1"))

	// Replayed history.
	got, ok := recv(t, ch)
	require.True(ok)
	assert.Equal("upload_success", got.Code)

	// Live events of other operations are not delivered.
	b.Publish(model.LogEvent{OperationID: "op-2", Code: "upload_success"})
	b.Publish(model.LogEvent{OperationID: "op-1", Code: "render_success"})
	got, ok = recv(t, ch)
	require.True(ok)
	assert.Equal("render_success", got.Code)
	assert.Equal(int64(2), got.SequenceID)

	assert.Len(b.History("op-1"), 2)

	b.Disconnect("op-1")
	_, ok = recv(t, ch)
	assert.False(ok)
	assert.Equal(0, b.Streams("op-1"))
}

func TestBrokerUnavailable(t *testing.T) {
	b, err := memory.NewBroker(memory.BrokerConfig{})
	require.NoError(t, err)

	b.SetUnavailable(errors.New("down"))
	_, err = b.Stream(context.Background(), "op-1")
	assert.Error(t, err)

	b.SetUnavailable(nil)
	ctx, cancel := context.WithCancel(context.Background())
	_, err = b.Stream(ctx, "op-1")
	assert.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool { return b.Streams("op-1") == 0 }, 2*time.Second, 5*time.Millisecond)
}
