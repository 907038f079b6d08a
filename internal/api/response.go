// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/repository"
	"github.com/streamforge/streamforge-server/internal/validation"
)

// maxBodyBytes caps request bodies. Alert specs with inline CSS stay far
// below this.
const maxBodyBytes = 1 << 20

// Error codes used in the error envelope.
const (
	codeValidation       = "VALIDATION_ERROR"
	codeNotFound         = "NOT_FOUND"
	codeForbidden        = "FORBIDDEN"
	codeInternal         = "INTERNAL_ERROR"
	codeBadJSON          = "INVALID_JSON"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// errorBody is the wire shape of every API failure.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON sends v with the given status. Marshal failures degrade to a
// bare 500 since there is nothing valid left to send.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends the error envelope. Internal failures are logged
// with the request ID; client errors only surface in the response.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if status >= http.StatusInternalServerError && err != nil {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("code", code).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}

	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// respondRepoError maps a repository sentinel to its status code. The
// sentinel's wrapped message is the client-visible text; unclassified
// errors become an opaque 500.
func respondRepoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrValidation):
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, err.Error(), nil)
	case errors.Is(err, repository.ErrForbidden):
		respondError(w, r, http.StatusForbidden, codeForbidden, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal error", err)
	}
}

// decodeJSON reads a size-capped request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return err
	}
	return nil
}

// validateRequest runs struct validation and reports the first failure
// as a 400. Returns false when the request was rejected.
func validateRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := validation.ValidateStruct(v); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
