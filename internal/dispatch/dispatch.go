// Package dispatch fans a completed run result out to its output channels.
// Dispatcher failures are contained: each one degrades the run with a
// partial-failure note instead of failing it.
package dispatch

import (
	"context"

	"investor-research/internal/common/logger"
	"investor-research/internal/common/metrics"
	"investor-research/internal/models"
)

// Dispatcher delivers one run result to a single output channel. It may
// enrich the result with the artifact it produced (file path, draft, id).
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, runID string, result *models.RunResult) error
}

// All runs every dispatcher in order and collects failures without stopping.
// The returned notes are appended to the run's partial failures.
func All(ctx context.Context, log logger.Logger, dispatchers []Dispatcher, runID string, result *models.RunResult) []models.PartialFailure {
	var failures []models.PartialFailure

	for _, d := range dispatchers {
		if err := d.Dispatch(ctx, runID, result); err != nil {
			metrics.DispatchFailures.WithLabelValues(d.Name()).Inc()
			log.Warn("Dispatcher failed", map[string]interface{}{
				"run_id":     runID,
				"dispatcher": d.Name(),
				"error":      err.Error(),
			})
			failures = append(failures, models.PartialFailure{
				Component: d.Name(),
				Reason:    err.Error(),
			})
		}
	}

	return failures
}
