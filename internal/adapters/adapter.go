// Package adapters defines the contract every upstream investor source
// implements. The orchestrator fans out across all registered adapters and
// treats their failures independently.
package adapters

import (
	"context"

	"investor-research/internal/models"
)

// SourceAdapter retrieves raw investor records for a structured query.
// Implementations must honor ctx cancellation and never return records
// claiming a Source other than their own.
type SourceAdapter interface {
	Source() models.Source
	Search(ctx context.Context, query models.StructuredQuery, maxResults int) ([]models.RawRecord, error)
}
