package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/rooftop/solar-rewards-go/internal/audit"
	"github.com/rooftop/solar-rewards-go/internal/config"
	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/httputil"
	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/service"
)

// NetworkProbe is satisfied by *service.Distributor.
type NetworkProbe interface {
	Status(ctx context.Context) model.NetworkStatus
}

// RateGovernor is satisfied by *service.RewardCalculator.
type RateGovernor interface {
	Rate() decimal.Decimal
	SetRate(rate decimal.Decimal) error
}

// Pinger is satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

type StatusHandler struct {
	network NetworkProbe
	passes  PassRunner
	rates   RateGovernor
}

func NewStatusHandler(network NetworkProbe, passes PassRunner, rates RateGovernor) *StatusHandler {
	return &StatusHandler{network: network, passes: passes, rates: rates}
}

func (h *StatusHandler) Register(r chi.Router) {
	r.Get("/distribution/status", h.DistributionStatus)
	r.Get("/passes/last", h.LastPass)
	r.Get("/reward-rate", h.GetRewardRate)
	r.Put("/reward-rate", h.SetRewardRate)
}

// GET /v1/distribution/status
func (h *StatusHandler) DistributionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.network.Status(r.Context()))
}

// GET /v1/passes/last
func (h *StatusHandler) LastPass(w http.ResponseWriter, r *http.Request) {
	summary, err := h.passes.LastSummary(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to read last pass summary")
		httputil.WriteError(w, err)
		return
	}
	if summary == nil {
		httputil.WriteError(w, apperrors.NotFound("Pass summary"))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type rewardRateResponse struct {
	Rate     decimal.Decimal `json:"rate"`
	Decimals int32           `json:"decimals"`
}

// GET /v1/reward-rate
func (h *StatusHandler) GetRewardRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rewardRateResponse{Rate: h.rates.Rate(), Decimals: service.RewardDecimals})
}

// PUT /v1/reward-rate
// Accepts {"rate": 0.2} or {"rate": "0.2"}.
func (h *StatusHandler) SetRewardRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate *decimal.Decimal `json:"rate"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Rate == nil {
		httputil.WriteError(w, apperrors.MissingRequired("rate"))
		return
	}

	previous := h.rates.Rate()
	if err := h.rates.SetRate(*req.Rate); err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventRewardRateChanged,
		Details: map[string]interface{}{
			"previous": previous.String(),
			"rate":     req.Rate.String(),
		},
	})

	writeJSON(w, http.StatusOK, rewardRateResponse{Rate: h.rates.Rate(), Decimals: service.RewardDecimals})
}

// Health reports database reachability.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("health check: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "unavailable",
				"timestamp": time.Now().UnixMilli(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	}
}
