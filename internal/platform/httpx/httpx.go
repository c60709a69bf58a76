// Package httpx holds the JSON envelope shared by every HTTP handler.
//
// Success responses are {"success": true, <fields>...}; failures are
// {"success": false, "errors": ["reason"]}.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"devspaces/internal/platform/apperr"
)

// MaxBodyBytes caps every decoded request body.
const MaxBodyBytes = 1 << 20

// Fields are the top-level members of a success envelope.
type Fields map[string]any

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, fields Fields) {
	Write(w, http.StatusOK, fields)
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, fields Fields) {
	Write(w, http.StatusCreated, fields)
}

// Write writes a success envelope with the given status.
func Write(w http.ResponseWriter, status int, fields Fields) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	writeJSON(w, status, body)
}

// Fail writes a failure envelope carrying reasons.
func Fail(w http.ResponseWriter, status int, reasons ...string) {
	if reasons == nil {
		reasons = []string{}
	}
	writeJSON(w, status, map[string]any{"success": false, "errors": reasons})
}

// Error maps err to a status and writes the failure envelope. Storage failures and
// unclassified errors are logged and reported without detail.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Fail(w, status, "internal error")
		return
	}
	reason := apperr.Reason(err)
	if reason == "" {
		reason = http.StatusText(status)
	}
	Fail(w, status, reason)
}

// StatusFor returns the HTTP status for an apperr kind.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into v. An empty body leaves v untouched.
// Malformed or oversized bodies are reported as invalid input.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.InvalidInput("request body too large")
		}
		return apperr.InvalidInput("malformed JSON body")
	}
	return nil
}

// PathParam returns the decoded route parameter key. chi matches on RawPath when the
// client escaped a character Go would not, leaving the parameter percent-encoded.
func PathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// QueryInt returns the integer query parameter key, or def when absent or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
