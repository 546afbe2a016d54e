// Package orchestrator drives one investor-research run end to end: parse,
// concurrent two-source retrieval, merge, dispatch. Each submitted run
// executes as its own goroutine; callers only ever poll snapshots.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"investor-research/internal/adapters"
	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/common/metrics"
	"investor-research/internal/common/observability"
	"investor-research/internal/dispatch"
	"investor-research/internal/merge"
	"investor-research/internal/models"

	"github.com/google/uuid"
)

type queryParser interface {
	Parse(ctx context.Context, query string) (*models.StructuredQuery, error)
}

type terminalNotifier interface {
	NotifyTerminal(ctx context.Context, run *models.Run) error
}

// Params wires the orchestrator's collaborators. Notifier and Observability
// are optional.
type Params struct {
	MaxQueryLength int
	MaxResults     int

	Parser           queryParser
	Primary          adapters.SourceAdapter
	Secondary        adapters.SourceAdapter
	PrimaryTimeout   time.Duration
	SecondaryTimeout time.Duration

	Dispatchers []dispatch.Dispatcher
	Notifier    terminalNotifier

	Registry      *Registry
	Logger        logger.Logger
	Observability *observability.Observability
}

type Orchestrator struct {
	p Params
}

func New(p Params) *Orchestrator {
	return &Orchestrator{p: p}
}

// Submit validates the request, registers a PENDING run, and starts its task.
// It never blocks on downstream work.
func (o *Orchestrator) Submit(req models.OrchestrateRequest) (*models.SubmitResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.NewValidationFailedError("query must not be empty")
	}
	if o.p.MaxQueryLength > 0 && len(query) > o.p.MaxQueryLength {
		return nil, errors.NewValidationFailedError("query exceeds maximum length")
	}

	run := &models.Run{
		ID:          uuid.NewString(),
		Status:      models.RunPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := o.p.Registry.Create(run); err != nil {
		return nil, err
	}

	metrics.RunsSubmitted.Inc()
	metrics.RunsActive.Inc()

	o.p.Logger.Info("Run submitted", map[string]interface{}{
		"run_id":       run.ID,
		"query_length": len(query),
	})

	go o.execute(run.ID, query, req.Options)

	return &models.SubmitResponse{RunID: run.ID, Status: models.RunPending}, nil
}

// GetRun returns the current snapshot of a run.
func (o *Orchestrator) GetRun(id string) (*models.Run, error) {
	run, ok := o.p.Registry.Snapshot(id)
	if !ok {
		return nil, errors.NewRunNotFoundError(id)
	}
	return &run, nil
}

// Cancel transitions a non-terminal run to FAILED/Cancelled. It races the
// run's own task; the registry rejects whichever transition loses.
func (o *Orchestrator) Cancel(id string) error {
	err := o.p.Registry.Transition(id, func(run *models.Run) {
		now := time.Now().UTC()
		run.Status = models.RunFailed
		run.Error = &models.ErrorDetail{
			Kind:    models.ErrKindCancelled,
			Message: "run cancelled by caller",
		}
		run.CompletedAt = &now
	})
	if err != nil {
		return err
	}

	o.recordTerminal(id)
	return nil
}

type fetchResult struct {
	source  models.Source
	records []models.RawRecord
	err     error
	timeout bool
}

func (o *Orchestrator) execute(runID, query string, opts *models.OrchestrateOptions) {
	ctx := context.Background()

	// 1. Parse.
	if !o.transition(runID, models.RunParsing, nil) {
		return
	}

	parsed, err := o.p.Parser.Parse(ctx, query)
	if err != nil {
		o.fail(runID, models.ErrKindParse, err)
		return
	}

	// 2. Fan out to both sources.
	if !o.transition(runID, models.RunRetrieving, func(run *models.Run) {
		run.Query = parsed
	}) {
		return
	}

	maxResults := o.maxResults(opts)
	results := o.retrieve(ctx, *parsed, maxResults)

	var primaryRecords, secondaryRecords []models.RawRecord
	var partials []models.PartialFailure
	failed := 0

	for _, res := range results {
		if res.err != nil {
			failed++
			reason := res.err.Error()
			if res.timeout {
				reason = "timeout"
			}
			metrics.AdapterFailures.WithLabelValues(string(res.source), reason).Inc()
			partials = append(partials, models.PartialFailure{
				Component: string(res.source),
				Reason:    reason,
			})
			continue
		}
		if res.source == models.SourcePrimary {
			primaryRecords = res.records
		} else {
			secondaryRecords = res.records
		}
	}

	if failed == len(results) {
		o.fail(runID, models.ErrKindRetrieval, errors.NewRetrievalFailedError())
		return
	}

	// 3. Merge and filter.
	if !o.transition(runID, models.RunMerging, nil) {
		return
	}

	merged := merge.Merge(primaryRecords, secondaryRecords)
	merged = merge.FilterByTicket(merged, parsed.Ticket)
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}

	// 4. Dispatch outputs.
	if !o.transition(runID, models.RunDispatching, nil) {
		return
	}

	result := &models.RunResult{
		Query:           parsed,
		Investors:       merged,
		PartialFailures: partials,
	}

	dispatchers := o.selectDispatchers(opts)
	result.PartialFailures = append(result.PartialFailures,
		dispatch.All(ctx, o.p.Logger, dispatchers, runID, result)...)

	// 5. Commit success.
	if !o.transition(runID, models.RunSucceeded, func(run *models.Run) {
		now := time.Now().UTC()
		run.Result = result
		run.CompletedAt = &now
	}) {
		return
	}

	o.recordTerminal(runID)
}

// retrieve runs both adapters concurrently, each under its own timeout.
func (o *Orchestrator) retrieve(ctx context.Context, query models.StructuredQuery, maxResults int) []fetchResult {
	type branch struct {
		adapter adapters.SourceAdapter
		timeout time.Duration
	}
	branches := []branch{
		{o.p.Primary, o.p.PrimaryTimeout},
		{o.p.Secondary, o.p.SecondaryTimeout},
	}

	ch := make(chan fetchResult, len(branches))
	for _, b := range branches {
		go func(b branch) {
			branchCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			records, err := b.adapter.Search(branchCtx, query, maxResults)
			ch <- fetchResult{
				source:  b.adapter.Source(),
				records: records,
				err:     err,
				timeout: branchCtx.Err() == context.DeadlineExceeded,
			}
		}(b)
	}

	results := make([]fetchResult, 0, len(branches))
	for range branches {
		results = append(results, <-ch)
	}
	return results
}

// selectDispatchers applies the submission options. Dry runs produce no
// side effects at all.
func (o *Orchestrator) selectDispatchers(opts *models.OrchestrateOptions) []dispatch.Dispatcher {
	if opts != nil && opts.DryRun {
		return nil
	}

	out := make([]dispatch.Dispatcher, 0, len(o.p.Dispatchers))
	for _, d := range o.p.Dispatchers {
		if opts != nil {
			if d.Name() == "email_draft" && !opts.IncludeEmailDraft {
				continue
			}
			if d.Name() == "project_store" && !opts.CreateProject {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

func (o *Orchestrator) maxResults(opts *models.OrchestrateOptions) int {
	if opts != nil && opts.MaxResults > 0 && opts.MaxResults <= o.p.MaxResults {
		return opts.MaxResults
	}
	return o.p.MaxResults
}

// transition advances the run's status. A false return means the run is gone
// or already terminal (lost a cancellation race) and the task must stop.
func (o *Orchestrator) transition(runID string, status models.RunStatus, extra func(run *models.Run)) bool {
	err := o.p.Registry.Transition(runID, func(run *models.Run) {
		run.Status = status
		if extra != nil {
			extra(run)
		}
	})
	if err != nil {
		o.p.Logger.Info("Run transition rejected", map[string]interface{}{
			"run_id": runID,
			"target": string(status),
			"error":  err.Error(),
		})
		return false
	}
	return true
}

func (o *Orchestrator) fail(runID string, kind models.ErrorKind, cause error) {
	committed := o.transition(runID, models.RunFailed, func(run *models.Run) {
		now := time.Now().UTC()
		run.Error = &models.ErrorDetail{
			Kind:    kind,
			Message: cause.Error(),
		}
		run.CompletedAt = &now
	})
	if committed {
		o.recordTerminal(runID)
	}
}

// recordTerminal updates metrics and fires the terminal notification for a
// run that just committed SUCCEEDED or FAILED.
func (o *Orchestrator) recordTerminal(runID string) {
	run, ok := o.p.Registry.Snapshot(runID)
	if !ok {
		return
	}

	metrics.RunsActive.Dec()
	metrics.RunsCompleted.WithLabelValues(string(run.Status)).Inc()

	duration := time.Since(run.SubmittedAt)
	if run.CompletedAt != nil {
		duration = run.CompletedAt.Sub(run.SubmittedAt)
	}
	metrics.RunDuration.Observe(duration.Seconds())

	if o.p.Observability != nil {
		ctx := context.Background()
		o.p.Observability.RecordRunProcessed(ctx, string(run.Status))
		o.p.Observability.RecordRunDuration(ctx, duration, string(run.Status))
	}

	if o.p.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.p.Notifier.NotifyTerminal(ctx, &run); err != nil {
			o.p.Logger.Warn("Terminal notification failed", map[string]interface{}{
				"run_id": runID,
				"error":  err.Error(),
			})
		}
	}

	o.p.Logger.Info("Run finished", map[string]interface{}{
		"run_id":      runID,
		"status":      string(run.Status),
		"duration_ms": duration.Milliseconds(),
	})
}
