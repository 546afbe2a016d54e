package project

import (
	"context"
	"fmt"
	"testing"

	"investor-research/internal/common/database"
	"investor-research/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(&database.PostgresClient{DB: db}), mock
}

func TestDispatch_PersistsProjectAndInvestors(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects").
		WithArgs(sqlmock.AnyArg(), "GreenGrid", "run-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO project_investors").
		WithArgs(sqlmock.AnyArg(), "Acme Ventures", "acme.vc", "", 50000.0, 250000.0, true, "PRIMARY,SECONDARY").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	min, max := 50000.0, 250000.0
	result := &models.RunResult{
		Query: &models.StructuredQuery{TargetProject: "GreenGrid"},
		Investors: []models.CanonicalRecord{
			{
				Name:       "Acme Ventures",
				Website:    "acme.vc",
				Ticket:     &models.TicketRange{Min: &min, Max: &max},
				Warm:       true,
				Provenance: []models.Source{models.SourcePrimary, models.SourceSecondary},
			},
		},
	}

	require.NoError(t, store.Dispatch(context.Background(), "run-1", result))
	assert.NotEmpty(t, result.ProjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatch_FallsBackToRunName(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects").
		WithArgs(sqlmock.AnyArg(), "run-run-9", "run-9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Dispatch(context.Background(), "run-9", &models.RunResult{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatch_RollsBackOnInsertError(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO projects").
		WillReturnError(fmt.Errorf("constraint violation"))
	mock.ExpectRollback()

	result := &models.RunResult{}
	err := store.Dispatch(context.Background(), "run-2", result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_store")
	assert.Empty(t, result.ProjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
