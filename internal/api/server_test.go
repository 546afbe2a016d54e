package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"investor-research/internal/common/config"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"
	"investor-research/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct{}

func (stubParser) Parse(ctx context.Context, query string) (*models.StructuredQuery, error) {
	return &models.StructuredQuery{Industry: "fintech"}, nil
}

type stubAdapter struct {
	source  models.Source
	records []models.RawRecord
}

func (a stubAdapter) Source() models.Source { return a.source }

func (a stubAdapter) Search(ctx context.Context, query models.StructuredQuery, maxResults int) ([]models.RawRecord, error) {
	return a.records, nil
}

type stubSearcher struct {
	companiesErr error
}

func (s stubSearcher) SearchCompanies(ctx context.Context, q models.CompanySearchQuery) ([]models.Company, error) {
	if s.companiesErr != nil {
		return nil, s.companiesErr
	}
	return []models.Company{{Name: "Brightline Labs", Source: models.SourceSecondary}}, nil
}

func (s stubSearcher) SearchPeople(ctx context.Context, q models.PersonSearchQuery) ([]models.Person, error) {
	return []models.Person{{Name: "Jordan Reyes", Source: models.SourceSecondary}}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	orch := orchestrator.New(orchestrator.Params{
		MaxQueryLength: 2000,
		MaxResults:     50,
		Parser:         stubParser{},
		Primary: stubAdapter{source: models.SourcePrimary, records: []models.RawRecord{
			{Source: models.SourcePrimary, Name: "Acme", Website: "acme.com", Warm: true},
		}},
		Secondary:        stubAdapter{source: models.SourceSecondary},
		PrimaryTimeout:   time.Second,
		SecondaryTimeout: time.Second,
		Registry:         orchestrator.NewRegistry(logger.NewTestLogger(t), nil, 0),
		Logger:           logger.NewTestLogger(t),
	})

	s := NewServer(config.ServerConfig{Address: ":0"}, orch, stubSearcher{}, logger.NewTestLogger(t))
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestSubmitAndPoll(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/orchestrate", models.OrchestrateRequest{Query: "fintech investors"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted models.SubmitResponse
	decode(t, resp, &submitted)
	assert.NotEmpty(t, submitted.RunID)
	assert.Equal(t, models.RunPending, submitted.Status)

	var run models.Run
	require.Eventually(t, func() bool {
		pollResp, err := http.Get(server.URL + "/runs/" + submitted.RunID)
		require.NoError(t, err)
		decode(t, pollResp, &run)
		return run.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.RunSucceeded, run.Status)
	require.NotNil(t, run.Result)
	assert.Len(t, run.Result.Investors, 1)
}

func TestSubmit_EmptyQueryRejected(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/orchestrate", models.OrchestrateRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
}

func TestSubmit_MalformedBody(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/orchestrate", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun_Unknown(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/runs/unknown-id")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelRun_TerminalConflict(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/orchestrate", models.OrchestrateRequest{Query: "fintech investors"})
	var submitted models.SubmitResponse
	decode(t, resp, &submitted)

	require.Eventually(t, func() bool {
		pollResp, err := http.Get(server.URL + "/runs/" + submitted.RunID)
		require.NoError(t, err)
		var run models.Run
		decode(t, pollResp, &run)
		return run.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/runs/"+submitted.RunID, nil)
	require.NoError(t, err)
	cancelResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer cancelResp.Body.Close()

	assert.Equal(t, http.StatusConflict, cancelResp.StatusCode)
}

func TestSearchCompanies(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/search/companies", models.CompanySearchQuery{Industry: "fintech"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Companies []models.Company `json:"companies"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Companies, 1)
	assert.Equal(t, "Brightline Labs", body.Companies[0].Name)
}

func TestSearchPeople(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/search/people", models.PersonSearchQuery{JobTitle: "Partner"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		People []models.Person `json:"people"`
	}
	decode(t, resp, &body)
	require.Len(t, body.People, 1)
	assert.Equal(t, "Jordan Reyes", body.People[0].Name)
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
