// Package parser turns a natural-language investor request into a
// StructuredQuery via an OpenAI-compatible completion endpoint. The model
// output is schema-validated before anything downstream sees it.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"investor-research/internal/common/config"
	"investor-research/internal/common/errors"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

const systemPrompt = `You are a query parser for an investor research tool.
Extract the structured fields from the user's request and answer with a single
JSON object matching this schema (omit fields you cannot infer):
{"industry", "location", "ticketSize": {"min", "max"}, "sourceProject",
"newProject", "requirements": [], "companyStage", "investorType", "timeframe"}.
Ticket sizes are USD numbers. Answer with JSON only, no prose.`

type Client struct {
	cfg        config.ParserConfig
	log        logger.Logger
	httpClient *http.Client
	schema     *gojsonschema.Schema
}

func New(cfg config.ParserConfig, log logger.Logger) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(structuredQuerySchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile query schema: %w", err)
	}

	return &Client{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: config.GetDuration(cfg.Timeout)},
		schema:     schema,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Parse converts a free-text query into its structured form. Model output
// that is not valid JSON, or that violates the schema, fails the parse.
func (c *Client) Parse(ctx context.Context, query string) (*models.StructuredQuery, error) {
	if c.cfg.EnableMock {
		c.log.Debug("Parser running in mock mode", map[string]interface{}{
			"query_length": len(query),
		})
		return mockParse(query), nil
	}

	raw, err := c.complete(ctx, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &errors.StandardError{
				Code:      errors.ErrCodeParseAPITimeout,
				Message:   "Query parser call timed out",
				Details:   err.Error(),
				Retryable: true,
			}
		}
		return nil, errors.NewParseFailedError(err)
	}

	return c.decode(raw)
}

func (c *Client) complete(ctx context.Context, query string) (string, error) {
	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
		Temperature: 0,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("parser API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in parser response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// decode strips markdown fences the model sometimes wraps around its JSON,
// validates against the schema, and unmarshals.
func (c *Client) decode(raw string) (*models.StructuredQuery, error) {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, errors.NewParseFailedError(fmt.Errorf("parser output is not valid JSON: %w", err))
	}
	if !result.Valid() {
		var violations []string
		for _, desc := range result.Errors() {
			violations = append(violations, desc.String())
		}
		return nil, errors.NewSchemaViolationError(strings.Join(violations, "; "))
	}

	var query models.StructuredQuery
	if err := json.Unmarshal([]byte(content), &query); err != nil {
		return nil, errors.NewParseFailedError(err)
	}

	return &query, nil
}

// mockParse is a deterministic keyword extractor used in development and
// tests when no parser API is reachable.
func mockParse(query string) *models.StructuredQuery {
	lower := strings.ToLower(query)
	parsed := &models.StructuredQuery{}

	for _, industry := range []string{"fintech", "healthtech", "climate", "saas", "biotech", "edtech"} {
		if strings.Contains(lower, industry) {
			parsed.Industry = industry
			break
		}
	}

	for _, location := range []string{"berlin", "london", "new york", "san francisco", "singapore", "europe"} {
		if strings.Contains(lower, location) {
			parsed.Location = location
			break
		}
	}

	if strings.Contains(lower, "seed") {
		parsed.CompanyStage = "seed"
	} else if strings.Contains(lower, "series a") {
		parsed.CompanyStage = "series_a"
	}

	if strings.Contains(lower, "angel") {
		parsed.InvestorType = "angel"
	} else if strings.Contains(lower, "vc") || strings.Contains(lower, "venture") {
		parsed.InvestorType = "vc"
	}

	return parsed
}
