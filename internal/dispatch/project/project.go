// Package project persists a completed run as a project with its investor
// shortlist in Postgres.
package project

import (
	"context"
	"fmt"
	"time"

	"investor-research/internal/common/database"
	"investor-research/internal/common/errors"
	"investor-research/internal/models"

	"github.com/google/uuid"
)

const (
	insertProject = `INSERT INTO projects (id, name, run_id, created_at) VALUES ($1, $2, $3, $4)`

	insertInvestor = `INSERT INTO project_investors
		(project_id, name, website, profile_url, ticket_min, ticket_max, warm, provenance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

type Store struct {
	db *database.PostgresClient
}

func New(db *database.PostgresClient) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string {
	return "project_store"
}

func (s *Store) Dispatch(ctx context.Context, runID string, result *models.RunResult) error {
	projectID := uuid.NewString()

	name := ""
	if result.Query != nil {
		name = result.Query.TargetProject
	}
	if name == "" {
		name = "run-" + runID
	}

	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodePersistFailed, s.Name(), err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertProject, projectID, name, runID, time.Now().UTC()); err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodePersistFailed, s.Name(), fmt.Errorf("insert project: %w", err))
	}

	for _, inv := range result.Investors {
		var ticketMin, ticketMax interface{}
		if inv.Ticket != nil {
			if inv.Ticket.Min != nil {
				ticketMin = *inv.Ticket.Min
			}
			if inv.Ticket.Max != nil {
				ticketMax = *inv.Ticket.Max
			}
		}

		provenance := make([]byte, 0, 32)
		for i, src := range inv.Provenance {
			if i > 0 {
				provenance = append(provenance, ',')
			}
			provenance = append(provenance, string(src)...)
		}

		if _, err := tx.ExecContext(ctx, insertInvestor,
			projectID, inv.Name, inv.Website, inv.ProfileURL,
			ticketMin, ticketMax, inv.Warm, string(provenance),
		); err != nil {
			return errors.NewDispatchFailedError(errors.ErrCodePersistFailed, s.Name(), fmt.Errorf("insert investor: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDispatchFailedError(errors.ErrCodePersistFailed, s.Name(), err)
	}

	result.ProjectID = projectID
	return nil
}
