package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/rooftop/solar-rewards-go/internal/errors"
	"github.com/rooftop/solar-rewards-go/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}
	return nil
}

// MethodNotAllowed answers in the API's JSON error format.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorWithStatus(w, http.StatusMethodNotAllowed,
		apperrors.New(apperrors.ErrCodeValidation, "Method not allowed"))
}

// NotFound answers unknown routes in the API's JSON error format.
func NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, apperrors.NotFound("Route"))
}
