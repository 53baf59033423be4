package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lumenlms/adapt-api/internal/api/shared"
	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
	"github.com/lumenlms/adapt-api/internal/service/auth"
	"github.com/lumenlms/adapt-api/internal/service/review"
	"github.com/lumenlms/adapt-api/internal/service/selection"
	"github.com/lumenlms/adapt-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, assessment.ErrSessionNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrExamineeNotFound),
		errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrLearningRecordNotFound),
		errors.Is(err, assessment.ErrSessionNotFound),
		errors.Is(err, review.ErrItemNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, assessment.ErrSessionConflict),
		errors.Is(err, assessment.ErrStaleSubmission),
		errors.Is(err, assessment.ErrInvalidStateTransition):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, review.ErrInvalidCount),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	// An empty item pool makes the request unprocessable, not malformed
	case errors.Is(err, selection.ErrPoolExhausted):
		return http.StatusUnprocessableEntity

	// Grading backend did not respond in time
	case errors.Is(err, assessment.ErrGradingTimeout):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, assessment.ErrSessionNotOwned):
		return "You do not own this session"

	case errors.Is(err, store.ErrExamineeNotFound):
		return "Examinee not found"

	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, assessment.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, store.ErrLearningRecordNotFound):
		return "Learning record not found"

	case errors.Is(err, review.ErrItemNotFound):
		return "Item not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, assessment.ErrSessionConflict):
		return "An active session already exists for this pool"

	case errors.Is(err, assessment.ErrStaleSubmission):
		return "Submission does not match the active question"

	case errors.Is(err, assessment.ErrInvalidStateTransition):
		return "Session is already terminated"

	case errors.Is(err, selection.ErrPoolExhausted):
		return "No items available in the requested pool"

	case errors.Is(err, assessment.ErrGradingTimeout):
		return "Grading timed out, please retry"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request data"

	case errors.Is(err, review.ErrInvalidCount):
		return "Invalid item count"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps the error to a status code and safe message, then
// writes the sanitized response while logging the full error. An empty
// fallbackMessage defers entirely to GetSafeErrorMessage.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	statusCode := MapErrorToStatusCode(err)
	safeMessage := GetSafeErrorMessage(err)

	if statusCode == http.StatusInternalServerError && fallbackMessage != "" {
		safeMessage = fallbackMessage
	}

	shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation
		// for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}
