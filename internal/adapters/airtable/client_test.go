package airtable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"investor-research/internal/common/config"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_MockMode(t *testing.T) {
	c := New(config.AirtableConfig{EnableMock: true, Timeout: 1000}, logger.NewTestLogger(t))

	records, err := c.Search(context.Background(), models.StructuredQuery{Industry: "fintech"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.Equal(t, models.SourcePrimary, rec.Source)
	}
	assert.True(t, records[0].Warm)
}

func TestSearch_MapsFieldsAndPaginates(t *testing.T) {
	page := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))

		page++
		if page == 1 {
			w.Write([]byte(`{
				"records": [
					{"id": "rec1", "fields": {"Name": "Acme Ventures", "Website": "https://acme.vc", "Ticket Min": 50000, "Ticket Max": 250000, "Tags": ["fintech"], "Warm Intro": true}}
				],
				"offset": "next"
			}`))
			return
		}
		assert.Equal(t, "next", r.URL.Query().Get("offset"))
		w.Write([]byte(`{
			"records": [
				{"id": "rec2", "fields": {"Name": "Beta Partners", "Website": "https://beta.example.com"}}
			]
		}`))
	}))
	defer server.Close()

	c := New(config.AirtableConfig{
		APIKey:         "key-123",
		BaseID:         "appTest",
		TableInvestors: "Investors",
		Timeout:        5000,
	}, logger.NewTestLogger(t)).WithBaseURL(server.URL)

	records, err := c.Search(context.Background(), models.StructuredQuery{Industry: "fintech"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "rec1", records[0].ExternalID)
	assert.Equal(t, "Acme Ventures", records[0].Name)
	assert.True(t, records[0].Warm)
	require.NotNil(t, records[0].Ticket)
	assert.Equal(t, float64(50000), *records[0].Ticket.Min)

	assert.Equal(t, "Beta Partners", records[1].Name)
	assert.False(t, records[1].Warm)
	assert.Nil(t, records[1].Ticket)
}

func TestSearch_SourceProjectFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/appTest/Projects":
			w.Write([]byte(`{"records": [{"id": "recProj1", "fields": {"Name": "OldFund"}}]}`))
		default:
			w.Write([]byte(`{
				"records": [
					{"id": "rec1", "fields": {"Name": "Linked Capital", "Projects": ["recProj1"]}},
					{"id": "rec2", "fields": {"Name": "Unlinked Capital"}}
				]
			}`))
		}
	}))
	defer server.Close()

	c := New(config.AirtableConfig{
		APIKey:         "key-123",
		BaseID:         "appTest",
		TableInvestors: "Investors",
		TableProjects:  "Projects",
		Timeout:        5000,
	}, logger.NewTestLogger(t)).WithBaseURL(server.URL)

	records, err := c.Search(context.Background(), models.StructuredQuery{SourceProject: "OldFund"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Linked Capital", records[0].Name)
}

func TestSearch_UpstreamErrorWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(config.AirtableConfig{
		BaseID:         "appTest",
		TableInvestors: "Investors",
		Timeout:        5000,
	}, logger.NewTestLogger(t)).WithBaseURL(server.URL)

	_, err := c.Search(context.Background(), models.StructuredQuery{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRIMARY")
}

func TestBuildFormula(t *testing.T) {
	assert.Equal(t, "", buildFormula(models.StructuredQuery{}))

	single := buildFormula(models.StructuredQuery{Industry: "Fintech"})
	assert.Contains(t, single, `"fintech"`)
	assert.NotContains(t, single, "AND(")

	both := buildFormula(models.StructuredQuery{Industry: "fintech", Location: "Berlin"})
	assert.Contains(t, both, "AND(")
	assert.Contains(t, both, `"berlin"`)
}
