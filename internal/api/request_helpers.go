package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/api/shared"
	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
)

// getExamineeIDFromContext extracts the authenticated examinee's UUID from
// the request context, where the authentication middleware placed it.
func getExamineeIDFromContext(r *http.Request) (uuid.UUID, bool) {
	examineeID, ok := r.Context().Value(shared.ExamineeIDContextKey).(uuid.UUID)
	if !ok || examineeID == uuid.Nil {
		return uuid.Nil, false
	}
	return examineeID, true
}

// getPathUUID extracts and parses a UUID from the named URL path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}

	return id, nil
}

// handleExamineeIDAndPathUUID extracts both the examinee ID from context
// and a UUID from the path parameters, writing an error response if either
// extraction fails. The boolean reports whether both succeeded.
func handleExamineeIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	examineeID, ok := getExamineeIDFromContext(r)
	if !ok {
		log.Warn("examinee ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "Examinee ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return examineeID, pathID, true
}
