package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rooftop/solar-rewards-go/internal/audit"
	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/httputil"
	"github.com/rooftop/solar-rewards-go/internal/util"
)

// CronAuthMiddleware guards the scheduler trigger with a shared bearer secret.
type CronAuthMiddleware struct {
	tokenHash string
}

func NewCronAuthMiddleware(token string) *CronAuthMiddleware {
	return &CronAuthMiddleware{tokenHash: util.HashToken(token)}
}

func (m *CronAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		// Hashing both sides keeps the comparison length-independent.
		if token == "" || !util.ConstantTimeEqual(util.HashToken(token), m.tokenHash) {
			log.Warn().Str("path", r.URL.Path).Msg("cron auth: rejected trigger")
			audit.LogFromRequest(r, audit.Event{
				Type: audit.EventTriggerUnauthorized,
				Details: map[string]interface{}{
					"path":          r.URL.Path,
					"header_exists": r.Header.Get("Authorization") != "",
				},
			})
			httputil.WriteError(w, apperrors.Unauthorized("Unauthorized"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
