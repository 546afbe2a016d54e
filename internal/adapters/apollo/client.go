// Package apollo implements the SECONDARY investor source against the Apollo
// enrichment API, plus the direct company and people pass-through searches.
// Investor searches are cached in Redis keyed by the request payload.
package apollo

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"investor-research/internal/common/config"
	"investor-research/internal/common/database"
	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"
)

type Client struct {
	cfg        config.ApolloConfig
	log        logger.Logger
	httpClient *http.Client
	cache      *database.RedisClient
}

// New builds the Apollo client. cache may be nil, in which case every search
// goes to the API.
func New(cfg config.ApolloConfig, log logger.Logger, cache *database.RedisClient) *Client {
	return &Client{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: config.GetDuration(cfg.Timeout)},
		cache:      cache,
	}
}

func (c *Client) Source() models.Source {
	return models.SourceSecondary
}

type orgSearchRequest struct {
	KeywordTags []string `json:"q_organization_keyword_tags,omitempty"`
	Locations   []string `json:"organization_locations,omitempty"`
	PerPage     int      `json:"per_page"`
	Page        int      `json:"page"`
}

type organization struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	WebsiteURL  string   `json:"website_url"`
	LinkedinURL string   `json:"linkedin_url"`
	Industry    string   `json:"industry"`
	City        string   `json:"city"`
	Keywords    []string `json:"keywords"`
}

type orgSearchResponse struct {
	Organizations []organization `json:"organizations"`
}

// Search returns enrichment-provider organizations as raw investor records.
// SECONDARY records never carry warm flags or ticket ranges.
func (c *Client) Search(ctx context.Context, query models.StructuredQuery, maxResults int) ([]models.RawRecord, error) {
	if c.cfg.EnableMock {
		return mockRecords(query, maxResults), nil
	}

	reqBody := orgSearchRequest{
		KeywordTags: keywordTags(query),
		PerPage:     maxResults,
		Page:        1,
	}
	if query.Location != "" {
		reqBody.Locations = []string{query.Location}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.NewAdapterFailedError(string(models.SourceSecondary), err)
	}

	if cached, ok := c.cacheGet(ctx, payload); ok {
		return cached, nil
	}

	var resp orgSearchResponse
	if err := c.post(ctx, "/mixed_companies/search", payload, &resp); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewAdapterTimeoutError(string(models.SourceSecondary))
		}
		return nil, errors.NewAdapterFailedError(string(models.SourceSecondary), err)
	}

	records := make([]models.RawRecord, 0, len(resp.Organizations))
	for _, org := range resp.Organizations {
		records = append(records, models.RawRecord{
			Source:     models.SourceSecondary,
			ExternalID: org.ID,
			Name:       org.Name,
			Website:    org.WebsiteURL,
			ProfileURL: org.LinkedinURL,
			Tags:       org.Keywords,
		})
		if len(records) >= maxResults {
			break
		}
	}

	c.cacheSet(ctx, payload, records)
	return records, nil
}

// SearchCompanies is the synchronous company pass-through.
func (c *Client) SearchCompanies(ctx context.Context, q models.CompanySearchQuery) ([]models.Company, error) {
	if c.cfg.EnableMock {
		return mockCompanies(q), nil
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 25
	}

	reqBody := orgSearchRequest{PerPage: maxResults, Page: 1}
	if q.Keywords != "" {
		reqBody.KeywordTags = append(reqBody.KeywordTags, q.Keywords)
	}
	if q.Industry != "" {
		reqBody.KeywordTags = append(reqBody.KeywordTags, q.Industry)
	}
	if q.Location != "" {
		reqBody.Locations = []string{q.Location}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	var resp orgSearchResponse
	if err := c.post(ctx, "/mixed_companies/search", payload, &resp); err != nil {
		return nil, err
	}

	companies := make([]models.Company, 0, len(resp.Organizations))
	for _, org := range resp.Organizations {
		companies = append(companies, models.Company{
			ID:         org.ID,
			Name:       org.Name,
			Website:    org.WebsiteURL,
			ProfileURL: org.LinkedinURL,
			Industry:   org.Industry,
			Location:   org.City,
			Keywords:   org.Keywords,
			Source:     models.SourceSecondary,
		})
	}
	return companies, nil
}

type personSearchRequest struct {
	Titles       []string `json:"person_titles,omitempty"`
	CompanyNames []string `json:"q_organization_name,omitempty"`
	Locations    []string `json:"person_locations,omitempty"`
	PerPage      int      `json:"per_page"`
	Page         int      `json:"page"`
}

type personSearchResponse struct {
	People []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Title        string `json:"title"`
		Email        string `json:"email"`
		LinkedinURL  string `json:"linkedin_url"`
		City         string `json:"city"`
		Organization struct {
			Name string `json:"name"`
		} `json:"organization"`
	} `json:"people"`
}

// SearchPeople is the synchronous people pass-through.
func (c *Client) SearchPeople(ctx context.Context, q models.PersonSearchQuery) ([]models.Person, error) {
	if c.cfg.EnableMock {
		return mockPeople(q), nil
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 25
	}

	reqBody := personSearchRequest{PerPage: maxResults, Page: 1}
	if q.JobTitle != "" {
		reqBody.Titles = []string{q.JobTitle}
	}
	if q.CompanyName != "" {
		reqBody.CompanyNames = []string{q.CompanyName}
	}
	if q.Location != "" {
		reqBody.Locations = []string{q.Location}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	var resp personSearchResponse
	if err := c.post(ctx, "/mixed_people/search", payload, &resp); err != nil {
		return nil, err
	}

	people := make([]models.Person, 0, len(resp.People))
	for _, p := range resp.People {
		people = append(people, models.Person{
			ID:          p.ID,
			Name:        p.Name,
			Title:       p.Title,
			CompanyName: p.Organization.Name,
			Email:       p.Email,
			ProfileURL:  p.LinkedinURL,
			Location:    p.City,
			Source:      models.SourceSecondary,
		})
	}
	return people, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte, out interface{}) error {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("apollo returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) cacheKey(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "apollo:search:" + hex.EncodeToString(sum[:8])
}

func (c *Client) cacheGet(ctx context.Context, payload []byte) ([]models.RawRecord, bool) {
	if c.cache == nil {
		return nil, false
	}

	val, err := c.cache.Get(ctx, c.cacheKey(payload))
	if err != nil {
		return nil, false
	}

	var records []models.RawRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		return nil, false
	}

	c.log.Debug("Apollo cache hit", map[string]interface{}{"records": len(records)})
	return records, true
}

func (c *Client) cacheSet(ctx context.Context, payload []byte, records []models.RawRecord) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(records)
	if err != nil {
		return
	}

	ttl := time.Duration(c.cfg.CacheTTL) * time.Second
	if err := c.cache.Set(ctx, c.cacheKey(payload), string(data), ttl); err != nil {
		c.log.Warn("Apollo cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func keywordTags(query models.StructuredQuery) []string {
	var tags []string
	if query.Industry != "" {
		tags = append(tags, query.Industry)
	}
	if query.InvestorType != "" {
		tags = append(tags, query.InvestorType)
	}
	tags = append(tags, "venture capital")
	return tags
}

func mockRecords(query models.StructuredQuery, maxResults int) []models.RawRecord {
	records := []models.RawRecord{
		{
			Source:     models.SourceSecondary,
			ExternalID: "org-mock-1",
			Name:       "Northstar Capital",
			Website:    "https://www.northstar.example.com",
			ProfileURL: "https://linkedin.example.com/company/northstar",
			Tags:       []string{query.Industry, "venture capital"},
		},
		{
			Source:     models.SourceSecondary,
			ExternalID: "org-mock-2",
			Name:       "Meridian Partners",
			Website:    "https://meridian.example.org",
			ProfileURL: "https://linkedin.example.com/company/meridian",
			Tags:       []string{"venture capital"},
		},
		{
			Source:     models.SourceSecondary,
			ExternalID: "org-mock-3",
			Name:       "Eastgate Angels",
			Website:    "https://eastgate.example.net",
			Tags:       []string{"angel network"},
		},
	}

	if maxResults < len(records) {
		records = records[:maxResults]
	}
	return records
}

func mockCompanies(q models.CompanySearchQuery) []models.Company {
	return []models.Company{
		{
			ID:       "org-mock-10",
			Name:     "Brightline Labs",
			Website:  "https://brightline.example.com",
			Industry: q.Industry,
			Location: q.Location,
			Source:   models.SourceSecondary,
		},
	}
}

func mockPeople(q models.PersonSearchQuery) []models.Person {
	return []models.Person{
		{
			ID:          "person-mock-1",
			Name:        "Jordan Reyes",
			Title:       q.JobTitle,
			CompanyName: q.CompanyName,
			Email:       "jordan@example.com",
			Location:    q.Location,
			Source:      models.SourceSecondary,
		},
	}
}
