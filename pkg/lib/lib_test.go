package lib_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opwatch/pkg/lib"
)

const audioDefinition = `
name = "audio"

[[stages]]
name = "encode"
success_code = "encode_ok"
error_code = "encode_ko"
pending_message = "Encoding"
success_message = "Encoded"
`

// newTestClient creates a client with a temp SQLite DB for test isolation.
func newTestClient(t *testing.T) *lib.Client {
	t.Helper()

	dir := t.TempDir()
	client, err := lib.New(context.Background(), lib.Config{
		DBPath:        filepath.Join(dir, "test.db"),
		DataDir:       dir,
		PollInterval:  5 * time.Millisecond,
		DefinitionsFS: fstest.MapFS{"audio.toml": {Data: []byte(audioDefinition)}},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestCreateOperation(t *testing.T) {
	tests := map[string]struct {
		opType string
		expIs  error
	}{
		"Creating an operation of a built-in type should work.": {
			opType: "video",
		},
		"Creating an operation of a loaded type should work.": {
			opType: "audio",
		},
		"Creating an operation of an unknown type should fail.": {
			opType: "image",
			expIs:  lib.ErrNotFound,
		},
		"Creating an operation without type should fail.": {
			opType: "",
			expIs:  lib.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			client := newTestClient(t)

			op, err := client.CreateOperation(context.Background(), test.opType)

			if test.expIs != nil {
				assert.ErrorIs(err, test.expIs)
				return
			}
			require.NoError(err)
			assert.Equal(test.opType, op.Type)
			assert.NotEmpty(op.ID)

			ops, err := client.ListOperations(context.Background(), &lib.ListOperationsOpts{Type: test.opType})
			require.NoError(err)
			require.Len(ops, 1)
			assert.Equal(op.ID, ops[0].ID)
			assert.Equal(op.Type, ops[0].Type)
		})
	}
}

func TestPushEventAndStatus(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	client := newTestClient(t)

	op, err := client.CreateOperation(ctx, "video")
	require.NoError(err)

	e1, err := client.PushEvent(ctx, op.ID, "cv_input_received", nil)
	require.NoError(err)
	e2, err := client.PushEvent(ctx, op.ID, "cv_render_progress", &lib.PushEventOpts{Message: "50%"})
	require.NoError(err)
	assert.Greater(e2.SequenceID, e1.SequenceID)

	_, err = client.PushEvent(ctx, op.ID, "cv_unexpected_error", nil)
	require.NoError(err)

	st, err := client.GetStatus(ctx, op.ID)
	require.NoError(err)

	assert.Equal(op.ID, st.Operation.ID)
	assert.Equal(lib.OverallStatusFailed, st.Timeline.Status)
	require.NotNil(st.Timeline.GlobalError)
	assert.Equal("cv_unexpected_error", st.Timeline.GlobalError.Code)
	assert.Equal(lib.StageStatusSuccess, st.Timeline.Stages[0].Status)
	assert.Equal(lib.StageStatusError, st.Timeline.Stages[1].Status)
	assert.Equal(lib.StageStatusError, st.Timeline.Stages[2].Status)
	assert.Len(st.RawLog, 3)
	assert.Equal("50%", st.RawLog[1].Message)
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.PushEvent(ctx, "missing", "cv_input_received", nil)
	assert.ErrorIs(t, err, lib.ErrNotFound)

	_, err = client.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, lib.ErrNotFound)

	_, err = client.Watch(ctx, "missing", nil)
	assert.ErrorIs(t, err, lib.ErrNotFound)
}

func TestWatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()
	client := newTestClient(t)

	op, err := client.CreateOperation(ctx, "audio")
	require.NoError(err)

	var (
		mu        sync.Mutex
		timelines []lib.Timeline
	)
	watchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = client.PushEvent(ctx, op.ID, "encode_ok", nil)
	}()

	tl, err := client.Watch(watchCtx, op.ID, func(tl lib.Timeline) {
		mu.Lock()
		defer mu.Unlock()
		timelines = append(timelines, tl)
	})
	require.NoError(err)

	assert.Equal(lib.OverallStatusCompleted, tl.Status)
	assert.Equal("Encoded", tl.Headline)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(timelines)
	assert.Equal(lib.OverallStatusOngoing, timelines[0].Status)
	assert.Equal(lib.OverallStatusCompleted, timelines[len(timelines)-1].Status)
}

func TestWatchCancelled(t *testing.T) {
	require := require.New(t)
	client := newTestClient(t)

	op, err := client.CreateOperation(context.Background(), "audio")
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	tl, err := client.Watch(ctx, op.ID, nil)
	require.ErrorIs(err, context.DeadlineExceeded)
	require.NotNil(tl)
	require.Equal(lib.OverallStatusOngoing, tl.Status)
}

func TestListDefinitions(t *testing.T) {
	client := newTestClient(t)

	defs, err := client.ListDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "audio", defs[0].Name)
	assert.Equal(t, "video", defs[1].Name)
	assert.Equal(t, "encode", defs[0].Stages[0].Name)
}
