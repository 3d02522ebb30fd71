// Package httpx holds the JSON request and response helpers shared by the
// HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/estevao-reis/juntos-por-mais/internal/platform/apperr"
)

const maxBodyBytes = 1 << 20

const (
	msgInvalidBody = "Requisição inválida."
	msgInternal    = "Ocorreu um erro inesperado. Tente novamente."
)

// Response is the body of every mutating endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a successful Response with msg.
func OK(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Response{Success: true, Message: msg})
}

// Error writes err as a failed Response. Errors without a kind are reported
// as internal and their text is not exposed. Internal and external failures
// are logged with the request context.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err, msgInternal)
	}
	if logger != nil && (e.Kind == apperr.KindInternal || e.Kind == apperr.KindExternal) {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "code", e.Code, "error", err)
	}
	WriteJSON(w, apperr.HTTPStatus(e.Kind), Response{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
		Kind:    string(e.Kind),
	})
}

// Decode reads a JSON body into v. Malformed bodies yield a Validation error.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("invalid_body", msgInvalidBody)
		}
		return apperr.Wrap(err, apperr.KindValidation, "invalid_body", msgInvalidBody)
	}
	return nil
}
