package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jalad-shrimali/callmatch/metrics"
	"github.com/jalad-shrimali/callmatch/tabular"
)

const msgMissingUploads = "Please upload both files!"

// errorResponse is the JSON error envelope of the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("JSON encode failed", "error", err)
	}
}

// failure is an error mapped onto an HTTP answer.
type failure struct {
	status  int
	code    string
	message string
}

// metricStatus is the merges_total label for the failure.
func (f failure) metricStatus() string {
	switch {
	case f.status == http.StatusUnprocessableEntity:
		return metrics.StatusInvalid
	case f.status >= 500:
		return metrics.StatusError
	default:
		return metrics.StatusBadRequest
	}
}

// classify maps merge errors to status codes. Unknown errors become a
// generic 500 so internals are never echoed to the client.
func classify(err error) failure {
	var (
		missingInput  *tabular.MissingInputError
		missingColumn *tabular.MissingColumnError
		malformed     *tabular.MalformedInputError
		tooLarge      *http.MaxBytesError
	)
	switch {
	case errors.As(err, &missingInput):
		return failure{http.StatusBadRequest, "missing_input", msgMissingUploads}
	case errors.As(err, &tooLarge):
		return failure{http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("upload exceeds %d MB", tooLarge.Limit>>20)}
	case errors.As(err, &missingColumn):
		return failure{http.StatusUnprocessableEntity, "missing_column", err.Error()}
	case errors.As(err, &malformed):
		return failure{http.StatusUnprocessableEntity, "malformed_input", err.Error()}
	default:
		return failure{http.StatusInternalServerError, "internal", "internal server error"}
	}
}

func (h *Handler) logFailure(r *http.Request, f failure, err error) {
	attrs := []any{"status_code", f.status, "code", f.code, "error", err}
	if f.status >= 500 {
		h.log.ErrorContext(r.Context(), "merge failed", attrs...)
		return
	}
	h.log.WarnContext(r.Context(), "merge rejected", attrs...)
}
