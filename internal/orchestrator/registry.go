package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"investor-research/internal/common/database"
	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"
)

// Registry is the shared run store. Discipline: single writer per key (only
// the task owning a run transitions it, plus external cancellation racing
// it), many readers. Transitions serialize under the lock, so whichever
// terminal transition commits first wins and later ones are rejected.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*models.Run

	mirror *database.RedisClient
	ttl    time.Duration
	log    logger.Logger
}

// NewRegistry builds the in-process registry. mirror may be nil; when set,
// run snapshots are copied into Redis with the given TTL on a best-effort
// basis so other processes can inspect them.
func NewRegistry(log logger.Logger, mirror *database.RedisClient, ttl time.Duration) *Registry {
	return &Registry{
		runs:   make(map[string]*models.Run),
		mirror: mirror,
		ttl:    ttl,
		log:    log,
	}
}

// Create inserts a new run. The id must be fresh.
func (r *Registry) Create(run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return errors.NewValidationFailedError("run id already exists: " + run.ID)
	}

	stored := *run
	r.runs[run.ID] = &stored
	r.mirrorLocked(&stored)
	return nil
}

// Snapshot returns a copy of the run's current state.
func (r *Registry) Snapshot(id string) (models.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return models.Run{}, false
	}
	return *run, true
}

// Transition applies mutate to the run under the lock. It fails with
// RUN_NOT_FOUND for unknown ids and RUN_TERMINAL when the run has already
// committed a terminal status, which is what makes cancellation races safe.
func (r *Registry) Transition(id string, mutate func(run *models.Run)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return errors.NewRunNotFoundError(id)
	}
	if run.Status.Terminal() {
		return errors.NewRunTerminalError(id)
	}

	mutate(run)
	r.mirrorLocked(run)
	return nil
}

// mirrorLocked pushes a snapshot to Redis. Failures only log; the in-process
// map remains the source of truth.
func (r *Registry) mirrorLocked(run *models.Run) {
	if r.mirror == nil {
		return
	}

	data, err := json.Marshal(run)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.mirror.Set(ctx, "run:"+run.ID, string(data), r.ttl); err != nil {
		r.log.Warn("Run snapshot mirror failed", map[string]interface{}{
			"run_id": run.ID,
			"error":  err.Error(),
		})
	}
}
