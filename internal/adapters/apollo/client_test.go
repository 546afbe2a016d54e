package apollo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"investor-research/internal/common/config"
	"investor-research/internal/common/database"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *database.RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
}

func TestSearch_MapsOrganizations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mixed_companies/search", r.URL.Path)
		assert.Equal(t, "key-abc", r.Header.Get("X-Api-Key"))

		w.Write([]byte(`{
			"organizations": [
				{"id": "org1", "name": "Acme Ventures", "website_url": "https://acme.vc", "linkedin_url": "https://li.example.com/acme", "keywords": ["fintech"]}
			]
		}`))
	}))
	defer server.Close()

	c := New(config.ApolloConfig{
		APIKey:  "key-abc",
		BaseURL: server.URL,
		Timeout: 5000,
	}, logger.NewTestLogger(t), nil)

	records, err := c.Search(context.Background(), models.StructuredQuery{Industry: "fintech"}, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, models.SourceSecondary, records[0].Source)
	assert.Equal(t, "Acme Ventures", records[0].Name)
	assert.Equal(t, "https://acme.vc", records[0].Website)
	assert.False(t, records[0].Warm)
	assert.Nil(t, records[0].Ticket)
}

func TestSearch_CachesResults(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"organizations": [{"id": "org1", "name": "Acme Ventures"}]}`))
	}))
	defer server.Close()

	c := New(config.ApolloConfig{
		BaseURL:  server.URL,
		Timeout:  5000,
		CacheTTL: 300,
	}, logger.NewTestLogger(t), testCache(t))

	query := models.StructuredQuery{Industry: "fintech"}

	first, err := c.Search(context.Background(), query, 10)
	require.NoError(t, err)
	second, err := c.Search(context.Background(), query, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	// A different query must bypass the cached entry.
	_, err = c.Search(context.Background(), models.StructuredQuery{Industry: "biotech"}, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearch_MockMode(t *testing.T) {
	c := New(config.ApolloConfig{EnableMock: true, Timeout: 1000}, logger.NewTestLogger(t), nil)

	records, err := c.Search(context.Background(), models.StructuredQuery{Industry: "climate"}, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, models.SourceSecondary, rec.Source)
		assert.False(t, rec.Warm)
	}
}

func TestSearch_UpstreamErrorWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	c := New(config.ApolloConfig{BaseURL: server.URL, Timeout: 5000}, logger.NewTestLogger(t), nil)

	_, err := c.Search(context.Background(), models.StructuredQuery{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECONDARY")
}

func TestSearchCompanies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"organizations": [
				{"id": "org1", "name": "Brightline Labs", "industry": "healthtech", "city": "Berlin"}
			]
		}`))
	}))
	defer server.Close()

	c := New(config.ApolloConfig{BaseURL: server.URL, Timeout: 5000}, logger.NewTestLogger(t), nil)

	companies, err := c.SearchCompanies(context.Background(), models.CompanySearchQuery{Industry: "healthtech"})
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Brightline Labs", companies[0].Name)
	assert.Equal(t, "Berlin", companies[0].Location)
}

func TestSearchPeople(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mixed_people/search", r.URL.Path)
		w.Write([]byte(`{
			"people": [
				{"id": "p1", "name": "Sam Okafor", "title": "Partner", "email": "sam@example.com", "organization": {"name": "Acme Ventures"}}
			]
		}`))
	}))
	defer server.Close()

	c := New(config.ApolloConfig{BaseURL: server.URL, Timeout: 5000}, logger.NewTestLogger(t), nil)

	people, err := c.SearchPeople(context.Background(), models.PersonSearchQuery{JobTitle: "Partner"})
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Sam Okafor", people[0].Name)
	assert.Equal(t, "Acme Ventures", people[0].CompanyName)
}
