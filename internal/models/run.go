// internal/models/run.go
package models

import "time"

// RunStatus is the lifecycle state of one orchestration run.
type RunStatus string

const (
	RunPending     RunStatus = "PENDING"
	RunParsing     RunStatus = "PARSING"
	RunRetrieving  RunStatus = "RETRIEVING"
	RunMerging     RunStatus = "MERGING"
	RunDispatching RunStatus = "DISPATCHING"
	RunSucceeded   RunStatus = "SUCCEEDED"
	RunFailed      RunStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	return s == RunSucceeded || s == RunFailed
}

// ErrorKind classifies terminal run failures.
type ErrorKind string

const (
	ErrKindValidation ErrorKind = "ValidationError"
	ErrKindParse      ErrorKind = "ParseError"
	ErrKindRetrieval  ErrorKind = "RetrievalError"
	ErrKindNotFound   ErrorKind = "NotFound"
	ErrKindCancelled  ErrorKind = "Cancelled"
)

// ErrorDetail is the user-visible failure attached to a terminal run.
type ErrorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// PartialFailure records a contained, non-fatal degradation: one adapter or
// one dispatcher failed while the run as a whole still completed.
type PartialFailure struct {
	Component string `json:"component"`
	Reason    string `json:"reason"`
}

// EmailDraft is the drafted outreach communication for a completed run.
type EmailDraft struct {
	Subject  string `json:"subject"`
	BodyText string `json:"bodyText"`
	BodyHTML string `json:"bodyHtml,omitempty"`
}

// AvailabilitySlot is one calendar slot offered in the drafted email.
type AvailabilitySlot struct {
	StartISO string `json:"startIso"`
	EndISO   string `json:"endIso"`
	Timezone string `json:"timezone,omitempty"`
}

// RunResult holds the output artifacts of a successful run.
type RunResult struct {
	Query           *StructuredQuery   `json:"parsedQuery,omitempty"`
	Investors       []CanonicalRecord  `json:"investors"`
	PartialFailures []PartialFailure   `json:"partialFailures"`
	CSVPath         string             `json:"csvPath,omitempty"`
	EmailDraft      *EmailDraft        `json:"emailDraft,omitempty"`
	Availability    []AvailabilitySlot `json:"availability,omitempty"`
	ProjectID       string             `json:"projectId,omitempty"`
}

// Run is the pollable state of one orchestration request. Owned exclusively
// by the orchestrator task handling it; callers only ever see snapshots.
// Invariant: once terminal, exactly one of Result / Error is populated and
// the run never changes again.
type Run struct {
	ID          string           `json:"runId"`
	Status      RunStatus        `json:"status"`
	Query       *StructuredQuery `json:"query,omitempty"`
	Result      *RunResult       `json:"result,omitempty"`
	Error       *ErrorDetail     `json:"error,omitempty"`
	SubmittedAt time.Time        `json:"submittedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// OrchestrateOptions tune a single submission.
type OrchestrateOptions struct {
	MaxResults        int  `json:"maxResults,omitempty"`
	IncludeEmailDraft bool `json:"includeEmailDraft"`
	IncludeCalendar   bool `json:"includeCalendar"`
	CreateProject     bool `json:"createProject"`
	DryRun            bool `json:"dryRun"`
}

// OrchestrateRequest is the submission body for a new run.
type OrchestrateRequest struct {
	Query   string              `json:"query"`
	Options *OrchestrateOptions `json:"options,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	RunID  string    `json:"runId"`
	Status RunStatus `json:"status"`
}
