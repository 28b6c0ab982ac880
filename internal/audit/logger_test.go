package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = original })
	return &buf
}

func TestLog(t *testing.T) {
	buf := captureLog(t)

	Log(context.Background(), Event{
		Type:         EventPassCompleted,
		PassID:       "pass-1",
		ConnectionID: 42,
		Details:      map[string]interface{}{"processed": 3, "totalKwh": 51.5},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pass_completed", entry["event_type"])
	assert.Equal(t, "pass-1", entry["pass_id"])
	assert.Equal(t, 42.0, entry["connection_id"])
	assert.Equal(t, 3.0, entry["processed"])
	assert.Equal(t, 51.5, entry["totalKwh"])
	assert.NotContains(t, entry, "user_id")
}

func TestLogFromRequest(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest("POST", "/api/cron/daily-fetch", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "cron/1.0")

	LogFromRequest(req, Event{Type: EventTriggerUnauthorized})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trigger_unauthorized", entry["event_type"])
	assert.Equal(t, "203.0.113.7", entry["ip"])
	assert.Equal(t, "cron/1.0", entry["user_agent"])
}
