package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/millionaire/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{authSvc: authSvc, logger: logger}
}

type authResponse struct {
	User *User `json:"user"`
	*TokenPair
}

// Register handles POST /v1/auth/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	user, tokens, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeRegistrationFailed)
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{User: user, TokenPair: tokens})
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	user, tokens, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeLoginFailed)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{User: user, TokenPair: tokens})
}

// CreateGuest handles POST /v1/auth/guest
func (h *HTTPHandlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	var req GuestRequest
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}
	user, tokens, err := h.authSvc.CreateGuest(r.Context(), req)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeGuestCreationFailed)
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{User: user, TokenPair: tokens})
}

// ConvertGuest handles POST /v1/auth/convert (authenticated guest)
func (h *HTTPHandlers) ConvertGuest(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	var req ConvertGuestRequest
	if !decode(w, r, &req) {
		return
	}
	user, tokens, err := h.authSvc.ConvertGuest(r.Context(), claims.UserID, req)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeConversionFailed)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{User: user, TokenPair: tokens})
}

// RefreshToken handles POST /v1/auth/refresh
func (h *HTTPHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &req) {
		return
	}
	tokens, err := h.authSvc.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeRefreshFailed, "Invalid refresh token")
		return
	}
	respondJSON(w, http.StatusOK, tokens)
}

// GetMe handles GET /v1/users/me
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	user, err := h.authSvc.Me(r.Context(), claims.UserID)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeInternalError)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *HTTPHandlers) respondAuthError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "email")
	case errors.Is(err, ErrPasswordTooShort):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "password")
	case errors.Is(err, ErrEmailTaken):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeAlreadyExists, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, err.Error())
	case errors.Is(err, ErrNotGuest):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeConflict, err.Error())
	case errors.Is(err, ErrUserNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	default:
		h.logger.Error().Err(err).Str("code", fallback).Msg("auth request failed")
		httperrors.RespondError(w, http.StatusInternalServerError, fallback, "Request failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(dst); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
