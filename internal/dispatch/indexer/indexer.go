// Package indexer pushes merged investor records into Elasticsearch so past
// runs stay searchable.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"investor-research/internal/common/errors"
	"investor-research/internal/models"
)

type documentIndexer interface {
	Index(ctx context.Context, index, id string, body []byte) error
}

type Indexer struct {
	es    documentIndexer
	index string
}

func New(es documentIndexer, index string) *Indexer {
	return &Indexer{es: es, index: index}
}

func (i *Indexer) Name() string {
	return "search_index"
}

type investorDocument struct {
	RunID     string                 `json:"runId"`
	IndexedAt time.Time              `json:"indexedAt"`
	Investor  models.CanonicalRecord `json:"investor"`
}

func (i *Indexer) Dispatch(ctx context.Context, runID string, result *models.RunResult) error {
	for n, inv := range result.Investors {
		doc := investorDocument{
			RunID:     runID,
			IndexedAt: time.Now().UTC(),
			Investor:  inv,
		}

		body, err := json.Marshal(doc)
		if err != nil {
			return errors.NewDispatchFailedError(errors.ErrCodeIndexFailed, i.Name(), err)
		}

		id := fmt.Sprintf("%s:%d", runID, n)
		if err := i.es.Index(ctx, i.index, id, body); err != nil {
			return errors.NewDispatchFailedError(errors.ErrCodeIndexFailed, i.Name(), err)
		}
	}

	return nil
}
