package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/atlasplast/brandadmin/pkg/errors"
	"github.com/atlasplast/brandadmin/pkg/logger"
)

// Response is the JSON envelope written by the dev backend and ops endpoints.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response. RequestID echoes the
// correlation ID so a failed call can be found in the logs.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope for err. AppErrors keep their own
// code, message and fields; wrapped sentinels map through apperrors.Classify;
// anything else is a 500 with a masked message and is logged. The
// request-scoped logger is used when RequestLogger is mounted, fallback otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	resp := &ErrorResponse{RequestID: logger.CorrelationIDFromContext(r.Context())}

	var status int
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
		resp.Code, resp.Message, resp.Fields = appErr.Code, appErr.Message, appErr.Fields
	} else {
		kind := apperrors.Classify(err)
		status = kind.Status
		resp.Code, resp.Message = kind.Code, kind.Message
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: resp})
}
