package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/httputil"
	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/service"
)

// ConnectionService is satisfied by *service.ConnectionService.
type ConnectionService interface {
	SaveManual(ctx context.Context, params service.ManualConnectionParams) (*model.Account, error)
	ListConnections(ctx context.Context, userID string) ([]model.Account, error)
	History(ctx context.Context, userID string, limit int) (*service.UserHistory, error)
	ConnectionProduction(ctx context.Context, connectionID int64, limit int) ([]model.ProductionRecord, error)
}

type ConnectionHandler struct {
	connections ConnectionService
}

func NewConnectionHandler(connections ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

func (h *ConnectionHandler) Register(r chi.Router) {
	r.Post("/connections", h.SaveManual)
	r.Get("/users/{userID}/connections", h.ListConnections)
	r.Get("/connections/{connectionID}/production", h.ConnectionProduction)
	r.Get("/users/{userID}/rewards", h.History)
}

type manualConnectionRequest struct {
	UserID            string   `json:"userId"`
	Provider          string   `json:"provider"`
	APIKey            string   `json:"apiKey"`
	SystemID          string   `json:"systemId"`
	SystemSize        *float64 `json:"systemSize"`
	MonthlyGeneration *float64 `json:"monthlyGeneration"`
	Country           *string  `json:"country"`
}

// POST /v1/connections
func (h *ConnectionHandler) SaveManual(w http.ResponseWriter, r *http.Request) {
	var req manualConnectionRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.connections.SaveManual(r.Context(), service.ManualConnectionParams{
		UserID:            req.UserID,
		Provider:          req.Provider,
		APIKey:            req.APIKey,
		SystemID:          req.SystemID,
		SystemSize:        req.SystemSize,
		MonthlyGeneration: req.MonthlyGeneration,
		Country:           req.Country,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"connection": account,
	})
}

// GET /v1/users/{userID}/connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.connections.ListConnections(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"connections": accounts})
}

// GET /v1/users/{userID}/rewards?limit=
func (h *ConnectionHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.connections.History(r.Context(), chi.URLParam(r, "userID"), ParseLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// GET /v1/connections/{connectionID}/production?limit=
func (h *ConnectionHandler) ConnectionProduction(w http.ResponseWriter, r *http.Request) {
	connectionID, err := strconv.ParseInt(chi.URLParam(r, "connectionID"), 10, 64)
	if err != nil || connectionID <= 0 {
		httputil.WriteError(w, apperrors.InvalidInput("connectionID", "must be a positive integer"))
		return
	}

	records, err := h.connections.ConnectionProduction(r.Context(), connectionID, ParseLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"production": records})
}
