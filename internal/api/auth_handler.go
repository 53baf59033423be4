package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lumenlms/adapt-api/internal/api/shared"
	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/redact"
	"github.com/lumenlms/adapt-api/internal/service/auth"
	"github.com/lumenlms/adapt-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	examineeStore    store.ExamineeStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	examineeStore store.ExamineeStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
) *AuthHandler {
	return &AuthHandler{
		examineeStore:    examineeStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
	}
}

// Register handles the /auth/register endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	examinee, err := domain.NewExaminee(req.Email, req.Password)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid examinee data", err)
		return
	}

	if err := h.examineeStore.Create(r.Context(), examinee); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		slog.Error("failed to create examinee", "error", redact.Error(err))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create examinee")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), examinee.ID)
	if err != nil {
		slog.Error("failed to generate token",
			"error", redact.Error(err),
			"examinee_id", examinee.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		ExamineeID: examinee.ID,
		Token:      token,
	})
}

// Login handles the /auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	examinee, err := h.examineeStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrExamineeNotFound) {
			// Same message as a bad password so the response does not
			// reveal which emails are registered.
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		slog.Error("failed to get examinee by email", "error", redact.Error(err))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to authenticate examinee")
		return
	}

	if err := h.passwordVerifier.Compare(examinee.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), examinee.ID)
	if err != nil {
		slog.Error("failed to generate token",
			"error", redact.Error(err),
			"examinee_id", examinee.ID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to generate authentication token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		ExamineeID: examinee.ID,
		Token:      token,
	})
}
