package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propertyalerts/internal/types"
)

func TestJobLockRepository_Acquire(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want bool
	}{
		{"new lease", "INSERT 0 1", true},
		{"held by another worker", "INSERT 0 0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(mockDBTX)
			repo := NewJobLockRepository(db)
			ctx := context.Background()

			db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
				lockedAt, ok1 := args[2].(time.Time)
				expiresAt, ok2 := args[3].(time.Time)
				return ok1 && ok2 && expiresAt.Sub(lockedAt) == 10*time.Minute
			})).Return(pgconn.NewCommandTag(tt.tag), nil)

			got, err := repo.Acquire(ctx, "requeue_stale_alert_jobs", "worker-1", 10*time.Minute)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			db.AssertExpectations(t)
		})
	}
}

func TestJobLockRepository_Acquire_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewJobLockRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	ok, err := repo.Acquire(ctx, "k", "w", time.Minute)
	assert.False(t, ok)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestJobLockRepository_Release(t *testing.T) {
	db := new(mockDBTX)
	repo := NewJobLockRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), []any{"k", "w"}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	require.NoError(t, repo.Release(ctx, "k", "w"))
	db.AssertExpectations(t)
}

func TestJobHistoryRepository_StartFinish(t *testing.T) {
	db := new(mockDBTX)
	repo := NewJobHistoryRepository(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"process_alert_jobs"}).
		Return(rowOf(int64(42)))
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		msg, _ := args[3].(*string)
		return args[0] == int64(42) && args[1] == "failed" && args[2] == 2 && msg != nil && *msg == "listing store down"
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	id, err := repo.Start(ctx, "process_alert_jobs")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.NoError(t, repo.Finish(ctx, id, "failed", 2, errors.New("listing store down")))
	db.AssertExpectations(t)
}

func TestJobHistoryRepository_Finish_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewJobHistoryRepository(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.Finish(ctx, 7, "success", 0, nil)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundJobRun, appErr.Code)
}
