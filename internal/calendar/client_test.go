package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"investor-research/internal/common/config"
	"investor-research/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailability_MockSkipsWeekends(t *testing.T) {
	c := New(config.CalendarConfig{
		EnableMock: true,
		SlotCount:  5,
		Timezone:   "UTC",
		Timeout:    1000,
	}, logger.NewTestLogger(t))

	slots, err := c.GetAvailability(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 5)

	for _, slot := range slots {
		start, err := time.Parse(time.RFC3339, slot.StartISO)
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, start.Weekday())
		assert.NotEqual(t, time.Sunday, start.Weekday())
		assert.Equal(t, "UTC", slot.Timezone)
	}
}

func TestGetAvailability_FetchesFromService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/availability", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		w.Write([]byte(`{"slots": [
			{"startIso": "2026-09-01T10:00:00Z", "endIso": "2026-09-01T10:30:00Z", "timezone": "UTC"},
			{"startIso": "2026-09-02T10:00:00Z", "endIso": "2026-09-02T10:30:00Z", "timezone": "UTC"}
		]}`))
	}))
	defer server.Close()

	c := New(config.CalendarConfig{
		BaseURL:   server.URL,
		SlotCount: 2,
		Timeout:   5000,
	}, logger.NewTestLogger(t))

	slots, err := c.GetAvailability(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2026-09-01T10:00:00Z", slots[0].StartISO)
}

func TestGetAvailability_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(config.CalendarConfig{BaseURL: server.URL, Timeout: 5000}, logger.NewTestLogger(t))

	_, err := c.GetAvailability(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
