package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rooftop/solar-rewards-go/internal/model"
)

var fixedNow = time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

func testAccount(p model.Provider) model.Account {
	return model.Account{
		ID:          7,
		UserID:      "user-1",
		Provider:    p,
		AccessToken: strPtr("access-token"),
		SystemID:    strPtr("12345"),
		IsActive:    true,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}
