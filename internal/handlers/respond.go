// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the Guide de Lyon API.
// Handlers are grouped by surface (public, admin) and receive their
// dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// maxBodySize caps request bodies on write endpoints. Comments and admin
// payloads are text; anything over 1 MiB is abuse or a mistake.
const maxBodySize = 1 << 20

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// respondError writes a JSON error body. 5xx causes are logged, not leaked.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err and answers with a generic 500.
func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// jsonBytes marshals v the same way respondJSON does, for callers that
// need the raw bytes (the response cache).
func jsonBytes(v any) ([]byte, error) {
	return json.Marshal(v)
}

// decodeBody parses the request body into v, enforcing the size cap and
// rejecting unknown fields so client typos fail loudly.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body too large")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
