package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/opwatch/internal/log"
	"github.com/slok/opwatch/internal/model"
	"github.com/slok/opwatch/internal/storage/sqlite"
)

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func operationFixture(id string, createdAt time.Time) model.Operation {
	return model.Operation{ID: id, Type: "video", CreatedAt: createdAt}
}

func TestNewRepositoryRequiresPath(t *testing.T) {
	_, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{})
	assert.Error(t, err)
}

func TestRepositoryOperations(t *testing.T) {
	t0 := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error
		expErr  error
	}{
		"Creating and getting an operation should work.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.CreateOperation(ctx, operationFixture("op-1", t0)))

				got, err := repo.GetOperation(ctx, "op-1")
				require.NoError(t, err)
				assert.Equal(t, operationFixture("op-1", t0), *got)
				return nil
			},
		},

		"Creating an operation twice should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.CreateOperation(ctx, operationFixture("op-1", t0)))
				return repo.CreateOperation(ctx, operationFixture("op-1", t0))
			},
			expErr: model.ErrAlreadyExists,
		},

		"Creating an operation without type should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				return repo.CreateOperation(ctx, model.Operation{ID: "op-1"})
			},
			expErr: model.ErrNotValid,
		},

		"Getting a missing operation should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				_, err := repo.GetOperation(ctx, "missing")
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Listing operations should return the newest first.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.CreateOperation(ctx, operationFixture("op-1", t0)))
				require.NoError(t, repo.CreateOperation(ctx, operationFixture("op-2", t0.Add(time.Minute))))

				ops, err := repo.ListOperations(ctx)
				require.NoError(t, err)
				require.Len(t, ops, 2)
				assert.Equal(t, "op-2", ops[0].ID)
				assert.Equal(t, "op-1", ops[1].ID)
				return nil
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)

			err := test.actions(context.Background(), t, repo)

			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepositoryEvents(t *testing.T) {
	t0 := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error
		expErr  error
	}{
		"Appending events should assign increasing sequence ids.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				e1, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1", Code: "upload_success", Message: "ok", CreatedAt: t0})
				require.NoError(t, err)
				e2, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1", Code: "render_success"})
				require.NoError(t, err)

				assert.Greater(t, e2.SequenceID, e1.SequenceID)
				assert.Equal(t, t0, e1.CreatedAt)
				assert.False(t, e2.CreatedAt.IsZero())
				return nil
			},
		},

		"Listing events should filter by operation and cursor.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				require.NoError(t, repo.CreateOperation(ctx, operationFixture("op-2", t0)))
				e1, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1", Code: "upload_success", CreatedAt: t0})
				require.NoError(t, err)
				_, err = repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-2", Code: "upload_success", CreatedAt: t0})
				require.NoError(t, err)
				e3, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1", Code: "render_fail", Message: "oom", CreatedAt: t0})
				require.NoError(t, err)

				all, err := repo.ListEvents(ctx, "op-1", 0)
				require.NoError(t, err)
				assert.Equal(t, []model.LogEvent{*e1, *e3}, all)

				after, err := repo.ListEvents(ctx, "op-1", e1.SequenceID)
				require.NoError(t, err)
				assert.Equal(t, []model.LogEvent{*e3}, after)
				return nil
			},
		},

		"Appending an event with an explicit sequence id should keep it.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				e, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1", Code: "upload_success", SequenceID: 40})
				require.NoError(t, err)
				assert.Equal(t, int64(40), e.SequenceID)
				return nil
			},
		},

		"Appending a repeated sequence id should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				_, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1", Code: "upload_success", SequenceID: 7})
				require.NoError(t, err)
				_, err = repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1", Code: "upload_success", SequenceID: 7})
				return err
			},
			expErr: model.ErrAlreadyExists,
		},

		"Appending an event of a missing operation should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				_, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "missing", Code: "upload_success"})
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Appending an event without code should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *sqlite.Repository) error {
				_, err := repo.AppendEvent(ctx, model.LogEvent{OperationID: "op-1"})
				return err
			},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			ctx := context.Background()
			require.NoError(t, repo.CreateOperation(ctx, operationFixture("op-1", t0)))

			err := test.actions(ctx, t, repo)

			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
