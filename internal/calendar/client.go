// Package calendar looks up upcoming availability slots to offer in drafted
// outreach emails.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"investor-research/internal/common/config"
	commonhttp "investor-research/internal/common/http"
	"investor-research/internal/common/logger"
	"investor-research/internal/models"
)

type Client struct {
	cfg        config.CalendarConfig
	log        logger.Logger
	httpClient *commonhttp.Client
}

func New(cfg config.CalendarConfig, log logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		log:        log,
		httpClient: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
	}
}

// GetAvailability returns the next free slots. In mock mode it fabricates
// morning slots on upcoming weekdays.
func (c *Client) GetAvailability(ctx context.Context) ([]models.AvailabilitySlot, error) {
	count := c.cfg.SlotCount
	if count <= 0 {
		count = 3
	}

	if c.cfg.EnableMock {
		return mockSlots(count, c.cfg.Timezone), nil
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + fmt.Sprintf("/availability?count=%d", count)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("calendar returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Slots []models.AvailabilitySlot `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Slots, nil
}

func mockSlots(count int, timezone string) []models.AvailabilitySlot {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	slots := make([]models.AvailabilitySlot, 0, count)
	day := time.Now().In(loc).AddDate(0, 0, 1)

	for len(slots) < count {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, loc)
			slots = append(slots, models.AvailabilitySlot{
				StartISO: start.Format(time.RFC3339),
				EndISO:   start.Add(30 * time.Minute).Format(time.RFC3339),
				Timezone: loc.String(),
			})
		}
		day = day.AddDate(0, 0, 1)
	}

	return slots
}
