package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"reading_roundup/internal/domain"
)

// HTTPError is an error with the status code and public message it should
// be answered with. The cause is logged, never sent.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.cause
}

func newHTTPError(code int, message string, cause error) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return &HTTPError{cause: cause, Code: code, Message: message}
}

func errBadRequest(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, cause)
}

func errNotFound(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, cause)
}

func errUnprocessable(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusUnprocessableEntity, message, cause)
}

// AppHandler is a handler that reports failure by returning an error
// instead of writing it.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler. A returned *HTTPError is answered with
// its code and message; domain.ErrNotFound with 404; anything else with 500.
func MakeHandler(logger *slog.Logger, handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}

		var (
			httpErr *HTTPError
			code    int
			message string
		)
		switch {
		case errors.As(err, &httpErr):
			code = httpErr.Code
			message = httpErr.Message
		case errors.Is(err, domain.ErrNotFound):
			code = http.StatusNotFound
			message = "entry not found"
		default:
			code = http.StatusInternalServerError
			message = http.StatusText(code)
		}

		level := slog.LevelWarn
		if code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request failed",
			"code", code,
			"path", r.URL.Path,
			"method", r.Method,
			"error", err,
		)

		respondJSON(w, code, map[string]string{"error": message})
	}
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
