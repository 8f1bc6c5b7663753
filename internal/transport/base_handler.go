package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/pkg/logger"
)

// Response is the envelope every endpoint writes.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *BaseHandler) WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	h.WriteJSON(w, status, Response{
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	h.WriteJSON(w, status, Response{
		StatusCode: status,
		Message:    message,
	})
}

// HandleServiceError maps an error returned by a service onto the response envelope.
// Anything that is not an AppError is reported as a generic 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.From(r.Context())

	appErr, ok := internal.IsAppError(err)
	if !ok {
		lg.Error("unhandled service error", "path", r.URL.Path, "error", err)
		h.WriteJSON(w, http.StatusInternalServerError, Response{
			StatusCode: http.StatusInternalServerError,
			Message:    "internal server error",
		})
		return
	}

	resp := Response{
		StatusCode: appErr.StatusCode,
		Message:    appErr.Message,
	}
	if details, ok := appErr.Details.(internal.ValidationErrors); ok {
		resp.Errors = details.Errors
		resp.Message = appErr.GetDetailedMessage()
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		lg.Error("service error", "path", r.URL.Path, "code", appErr.Code, "error", appErr.Error())
	} else {
		lg.Warn("request rejected", "path", r.URL.Path, "status", appErr.StatusCode, "code", appErr.Code, "message", appErr.GetDetailedMessage())
	}

	h.WriteJSON(w, appErr.StatusCode, resp)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

// ParseID parses a positive int64 identifier. ok is false for empty, malformed or non-positive input.
func ParseID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
