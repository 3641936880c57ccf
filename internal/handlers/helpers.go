package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/BradenHooton/studyhub/internal/auth"
	"github.com/BradenHooton/studyhub/internal/models"
	pkghttp "github.com/BradenHooton/studyhub/pkg/http"
	"github.com/go-chi/chi/v5"
)

const maxRequestBodyBytes = 64 << 10

// decodeJSON decodes an optional JSON body into dest. An empty body leaves
// dest at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseIDParam reads a positive int64 id from the chi route parameter name.
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// parseIntParam parses value and stores it in dest if it lies in [min, max].
func parseIntParam(value string, dest *int, min, max int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	if n < min || n > max {
		return 0, errors.New("parameter out of range")
	}

	*dest = n
	return n, nil
}

// parsePagination reads limit and offset query parameters.
func parsePagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int, err error) {
	limit = defaultLimit

	if l := r.URL.Query().Get("limit"); l != "" {
		if _, err := parseIntParam(l, &limit, 1, maxLimit); err != nil {
			return 0, 0, fmt.Errorf("invalid limit parameter")
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if _, err := parseIntParam(o, &offset, 0, 1000000); err != nil {
			return 0, 0, fmt.Errorf("invalid offset parameter")
		}
	}

	return limit, offset, nil
}

// actingAdminID returns the authenticated account id or writes a 401.
func actingAdminID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	pkghttp.WriteJSON(w, status, body)
}

// writeServiceError maps service errors onto the JSON error envelope.
// Storage failures are reported without details.
func writeServiceError(w http.ResponseWriter, err error) {
	var opErr *models.OperationError

	switch {
	case errors.As(err, &opErr):
		pkghttp.WriteInvalidOperation(w, opErr.Message)
	case errors.Is(err, models.ErrInvalidOperation):
		pkghttp.WriteInvalidOperation(w, err.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, err.Error())
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrConcurrentUpdate):
		pkghttp.WriteConflict(w, "another moderation action changed this account at the same time; retry the request")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "resource already exists")
	default:
		pkghttp.WriteInternalError(w, "internal server error")
	}
}
