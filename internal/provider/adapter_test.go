package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	behind := time.FixedZone("UTC-5", -5*60*60)
	ahead := time.FixedZone("UTC+9", 9*60*60)

	tests := []struct {
		name     string
		in       time.Time
		expected time.Time
	}{
		{"utc afternoon", fixedNow, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"local evening is next utc day", time.Date(2024, 4, 30, 21, 0, 0, 0, behind), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"local morning is previous utc day", time.Date(2024, 5, 1, 7, 0, 0, 0, ahead), time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := startOfDay(tc.in)
			assert.True(t, tc.expected.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
