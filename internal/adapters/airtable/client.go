// Package airtable implements the PRIMARY investor source on top of the
// Airtable REST API. Records here come from the internal CRM base and are the
// only ones allowed to carry warm-introduction flags.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"investor-research/internal/common/config"
	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"
)

const defaultBaseURL = "https://api.airtable.com/v0"

type Client struct {
	cfg        config.AirtableConfig
	baseURL    string
	log        logger.Logger
	httpClient *http.Client
}

func New(cfg config.AirtableConfig, log logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		baseURL:    defaultBaseURL,
		log:        log,
		httpClient: &http.Client{Timeout: config.GetDuration(cfg.Timeout)},
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

func (c *Client) Source() models.Source {
	return models.SourcePrimary
}

type recordPage struct {
	Records []airtableRecord `json:"records"`
	Offset  string           `json:"offset,omitempty"`
}

type airtableRecord struct {
	ID     string         `json:"id"`
	Fields investorFields `json:"fields"`
}

type investorFields struct {
	Name       string   `json:"Name"`
	Website    string   `json:"Website"`
	ProfileURL string   `json:"Profile URL"`
	TicketMin  *float64 `json:"Ticket Min"`
	TicketMax  *float64 `json:"Ticket Max"`
	Tags       []string `json:"Tags"`
	Warm       bool     `json:"Warm Intro"`
	Projects   []string `json:"Projects"`
}

// Search returns investors from the CRM base matching the structured query.
// When the query names a source project, results are restricted to investors
// linked to that project record.
func (c *Client) Search(ctx context.Context, query models.StructuredQuery, maxResults int) ([]models.RawRecord, error) {
	if c.cfg.EnableMock {
		return mockRecords(query, maxResults), nil
	}

	var projectRecordID string
	if query.SourceProject != "" {
		id, err := c.findProject(ctx, query.SourceProject)
		if err != nil {
			return nil, errors.NewAdapterFailedError(string(models.SourcePrimary), err)
		}
		projectRecordID = id
	}

	records, err := c.listInvestors(ctx, query, maxResults)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewAdapterTimeoutError(string(models.SourcePrimary))
		}
		return nil, errors.NewAdapterFailedError(string(models.SourcePrimary), err)
	}

	out := make([]models.RawRecord, 0, len(records))
	for _, rec := range records {
		if projectRecordID != "" && !contains(rec.Fields.Projects, projectRecordID) {
			continue
		}
		out = append(out, toRawRecord(rec))
		if len(out) >= maxResults {
			break
		}
	}

	c.log.Debug("Airtable search completed", map[string]interface{}{
		"fetched":  len(records),
		"returned": len(out),
	})

	return out, nil
}

func (c *Client) listInvestors(ctx context.Context, query models.StructuredQuery, maxResults int) ([]airtableRecord, error) {
	var all []airtableRecord
	offset := ""

	for {
		page, err := c.fetchPage(ctx, c.cfg.TableInvestors, buildFormula(query), offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Records...)

		// Over-fetch slightly so the project filter still has material to
		// work with after it drops unlinked rows.
		if page.Offset == "" || len(all) >= maxResults*2 {
			return all, nil
		}
		offset = page.Offset
	}
}

func (c *Client) fetchPage(ctx context.Context, table, formula, offset string) (*recordPage, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.cfg.BaseID, url.PathEscape(table))

	params := url.Values{}
	if formula != "" {
		params.Set("filterByFormula", formula)
	}
	if offset != "" {
		params.Set("offset", offset)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("airtable returned status %d: %s", resp.StatusCode, string(body))
	}

	var page recordPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &page, nil
}

// findProject resolves a project name to its Airtable record ID.
func (c *Client) findProject(ctx context.Context, name string) (string, error) {
	formula := fmt.Sprintf("{Name} = %q", name)
	page, err := c.fetchPage(ctx, c.cfg.TableProjects, formula, "")
	if err != nil {
		return "", err
	}
	if len(page.Records) == 0 {
		return "", fmt.Errorf("project %q not found", name)
	}
	return page.Records[0].ID, nil
}

// buildFormula translates the structured query into an Airtable
// filterByFormula expression. Only tag-based narrowing happens server side;
// ticket overlap is applied after the merge.
func buildFormula(query models.StructuredQuery) string {
	var clauses []string
	if query.Industry != "" {
		clauses = append(clauses, fmt.Sprintf("FIND(%q, LOWER(ARRAYJOIN({Tags})))", strings.ToLower(query.Industry)))
	}
	if query.Location != "" {
		clauses = append(clauses, fmt.Sprintf("FIND(%q, LOWER(ARRAYJOIN({Tags})))", strings.ToLower(query.Location)))
	}

	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	default:
		return "AND(" + strings.Join(clauses, ", ") + ")"
	}
}

func toRawRecord(rec airtableRecord) models.RawRecord {
	var ticket *models.TicketRange
	if rec.Fields.TicketMin != nil || rec.Fields.TicketMax != nil {
		ticket = &models.TicketRange{Min: rec.Fields.TicketMin, Max: rec.Fields.TicketMax}
	}

	return models.RawRecord{
		Source:     models.SourcePrimary,
		ExternalID: rec.ID,
		Name:       rec.Fields.Name,
		Website:    rec.Fields.Website,
		ProfileURL: rec.Fields.ProfileURL,
		Ticket:     ticket,
		Tags:       rec.Fields.Tags,
		Warm:       rec.Fields.Warm,
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func mockRecords(query models.StructuredQuery, maxResults int) []models.RawRecord {
	min1, max1 := 50000.0, 250000.0
	min2, max2 := 100000.0, 500000.0

	records := []models.RawRecord{
		{
			Source:     models.SourcePrimary,
			ExternalID: "recMockWarm1",
			Name:       "Northstar Capital",
			Website:    "https://northstar.example.com",
			Ticket:     &models.TicketRange{Min: &min1, Max: &max1},
			Tags:       []string{query.Industry, "early-stage"},
			Warm:       true,
		},
		{
			Source:     models.SourcePrimary,
			ExternalID: "recMockCold1",
			Name:       "Harbor Ventures",
			Website:    "https://harbor.example.com",
			Ticket:     &models.TicketRange{Min: &min2, Max: &max2},
			Tags:       []string{query.Industry},
		},
	}

	if maxResults < len(records) {
		records = records[:maxResults]
	}
	return records
}
