package authapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Brian1011/web-sec-api/cmd/internal/auth/core"
)

// writeServiceError maps a core error onto a status and error code.
// Unclassified errors are logged and hidden behind a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MessageOf(err)

	switch kind := core.KindOf(err); {
	case errors.Is(kind, core.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
	case errors.Is(kind, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", msg)
	case errors.Is(kind, core.ErrAuth):
		writeError(w, http.StatusUnauthorized, "unauthorized", msg)
	case errors.Is(kind, core.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", msg)
	case errors.Is(kind, core.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", msg)
	case errors.Is(kind, core.ErrUnavailable):
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusServiceUnavailable, "notification_unavailable", msg)
	case errors.Is(kind, core.ErrDelivery):
		writeError(w, http.StatusBadGateway, "notification_failed", msg)
	default:
		h.log.ErrorContext(r.Context(), "auth.request.fail",
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
