package orchestrator

import (
	"encoding/json"
	"testing"
	"time"

	"investor-research/internal/common/database"
	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateAndSnapshot(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger(t), nil, 0)

	run := &models.Run{ID: "run-1", Status: models.RunPending, SubmittedAt: time.Now().UTC()}
	require.NoError(t, r.Create(run))

	snap, ok := r.Snapshot("run-1")
	require.True(t, ok)
	assert.Equal(t, models.RunPending, snap.Status)

	_, ok = r.Snapshot("run-2")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicateID(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger(t), nil, 0)

	require.NoError(t, r.Create(&models.Run{ID: "run-1"}))
	require.Error(t, r.Create(&models.Run{ID: "run-1"}))
}

func TestRegistry_TransitionRejectsTerminal(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger(t), nil, 0)
	require.NoError(t, r.Create(&models.Run{ID: "run-1", Status: models.RunPending}))

	require.NoError(t, r.Transition("run-1", func(run *models.Run) {
		run.Status = models.RunFailed
	}))

	err := r.Transition("run-1", func(run *models.Run) {
		run.Status = models.RunSucceeded
	})
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeRunTerminal, stdErr.Code)

	// The losing transition left no trace.
	snap, _ := r.Snapshot("run-1")
	assert.Equal(t, models.RunFailed, snap.Status)
}

func TestRegistry_TransitionUnknownID(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger(t), nil, 0)

	err := r.Transition("nope", func(run *models.Run) {})
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeRunNotFound, stdErr.Code)
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger(t), nil, 0)
	require.NoError(t, r.Create(&models.Run{ID: "run-1", Status: models.RunPending}))

	snap, _ := r.Snapshot("run-1")
	snap.Status = models.RunSucceeded

	fresh, _ := r.Snapshot("run-1")
	assert.Equal(t, models.RunPending, fresh.Status)
}

func TestRegistry_MirrorsToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	mirror := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	r := NewRegistry(logger.NewTestLogger(t), mirror, time.Hour)
	require.NoError(t, r.Create(&models.Run{ID: "run-1", Status: models.RunPending}))

	require.NoError(t, r.Transition("run-1", func(run *models.Run) {
		run.Status = models.RunParsing
	}))

	stored, err := mr.Get("run:run-1")
	require.NoError(t, err)

	var mirrored models.Run
	require.NoError(t, json.Unmarshal([]byte(stored), &mirrored))
	assert.Equal(t, models.RunParsing, mirrored.Status)

	ttl := mr.TTL("run:run-1")
	assert.Equal(t, time.Hour, ttl)
}
