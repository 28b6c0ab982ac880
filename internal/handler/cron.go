package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/httputil"
	"github.com/rooftop/solar-rewards-go/internal/model"
)

// PassRunner is satisfied by *service.PassRunner.
type PassRunner interface {
	Run(ctx context.Context) (*model.PassSummary, error)
	LastSummary(ctx context.Context) (*model.PassSummary, error)
}

type CronHandler struct {
	runner  PassRunner
	auth    func(http.Handler) http.Handler
	timeout time.Duration
}

func NewCronHandler(runner PassRunner, auth func(http.Handler) http.Handler, timeout time.Duration) *CronHandler {
	return &CronHandler{runner: runner, auth: auth, timeout: timeout}
}

// Routes registers the trigger. Method matching happens before auth, so a GET
// is answered with 405 whatever its credentials.
func (h *CronHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.MethodNotAllowed(MethodNotAllowed)
	r.NotFound(NotFound)

	r.With(h.auth).Post("/daily-fetch", h.DailyFetch)

	return r
}

type rewardTotals struct {
	Count      int             `json:"count"`
	TotalB3TR  decimal.Decimal `json:"totalB3TR"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
}

type dailyFetchResponse struct {
	Message   string                 `json:"message"`
	PassID    string                 `json:"passId,omitempty"`
	Processed int                    `json:"processed"`
	Failed    int                    `json:"failed"`
	TotalKwh  float64                `json:"totalKwh"`
	Rewards   rewardTotals           `json:"rewards"`
	Failures  []model.AccountFailure `json:"failures,omitempty"`
}

func newDailyFetchResponse(summary *model.PassSummary) dailyFetchResponse {
	message := "Daily fetch completed"
	if summary.AccountsTotal == 0 {
		message = "No connected users found"
	}
	return dailyFetchResponse{
		Message:   message,
		PassID:    summary.PassID,
		Processed: summary.AccountsProcessed,
		Failed:    summary.AccountsFailed,
		TotalKwh:  summary.TotalKwh,
		Rewards: rewardTotals{
			Count:      summary.RewardsQueued,
			TotalB3TR:  summary.TotalReward,
			Successful: summary.RewardsDistributed,
			Failed:     summary.RewardsFailed,
		},
		Failures: summary.Failures,
	}
}

// POST /api/cron/daily-fetch
// Runs one daily pass and reports its counts. Per-account failures are part
// of a 200 response; only infrastructure failures produce an error status.
func (h *CronHandler) DailyFetch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	summary, err := h.runner.Run(ctx)
	if err != nil {
		if summary != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			log.Warn().Str("passId", summary.PassID).Msg("daily fetch aborted")
			httputil.WriteErrorWithStatus(w, http.StatusServiceUnavailable,
				apperrors.New(apperrors.ErrCodeInternal, "Daily pass was aborted").
					WithDetails(newDailyFetchResponse(summary)))
			return
		}
		if !apperrors.HasCode(err, apperrors.ErrCodeConflict) {
			log.Error().Err(err).Msg("daily fetch failed")
		}
		httputil.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newDailyFetchResponse(summary))
}
