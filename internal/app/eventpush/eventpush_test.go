package eventpush_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/opwatch/internal/app/eventpush"
	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	_, err := eventpush.NewService(eventpush.ServiceConfig{})
	assert.Error(t, err)

	svc, err := eventpush.NewService(eventpush.ServiceConfig{Repository: &storagemock.MockRepository{}})
	assert.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestService_Run(t *testing.T) {
	createdAt := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	op := &model.Operation{ID: "op-1", Type: "video", CreatedAt: createdAt}

	tests := map[string]struct {
		mock     func(m *storagemock.MockRepository)
		req      eventpush.Request
		expEvent *model.LogEvent
		expErr   error
	}{
		"pushing an event should append it to the operation": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetOperation", mock.Anything, "op-1").Once().Return(op, nil)
				m.On("AppendEvent", mock.Anything, model.LogEvent{OperationID: "op-1", Code: "cv_render_success", Message: "done"}).Once().
					Return(&model.LogEvent{OperationID: "op-1", Code: "cv_render_success", Message: "done", SequenceID: 3, CreatedAt: createdAt}, nil)
			},
			req:      eventpush.Request{OperationID: "op-1", Code: "cv_render_success", Message: "done"},
			expEvent: &model.LogEvent{OperationID: "op-1", Code: "cv_render_success", Message: "done", SequenceID: 3, CreatedAt: createdAt},
		},
		"a missing operation id should fail": {
			mock:   func(m *storagemock.MockRepository) {},
			req:    eventpush.Request{Code: "cv_render_success"},
			expErr: model.ErrNotValid,
		},
		"a missing code should fail": {
			mock:   func(m *storagemock.MockRepository) {},
			req:    eventpush.Request{OperationID: "op-1"},
			expErr: model.ErrNotValid,
		},
		"an unknown operation should fail": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetOperation", mock.Anything, "op-2").Once().Return(nil, fmt.Errorf("op-2: %w", model.ErrNotFound))
			},
			req:    eventpush.Request{OperationID: "op-2", Code: "cv_render_success"},
			expErr: model.ErrNotFound,
		},
		"a store error should fail": {
			mock: func(m *storagemock.MockRepository) {
				m.On("GetOperation", mock.Anything, "op-1").Once().Return(op, nil)
				m.On("AppendEvent", mock.Anything, mock.Anything).Once().Return(nil, model.ErrAlreadyExists)
			},
			req:    eventpush.Request{OperationID: "op-1", Code: "cv_render_success"},
			expErr: model.ErrAlreadyExists,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := storagemock.NewMockRepository(t)
			test.mock(m)

			svc, err := eventpush.NewService(eventpush.ServiceConfig{Repository: m, Logger: log.Noop})
			require.NoError(err)

			e, err := svc.Run(context.Background(), test.req)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				require.NoError(err)
				assert.Equal(test.expEvent, e)
			}
		})
	}
}
