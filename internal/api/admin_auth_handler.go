package api

import (
	"encoding/json"
	"net/http"
	"time"

	"cozycakey/internal/auth"
	apperrors "cozycakey/internal/errors"
	"cozycakey/internal/service"
)

type AdminAuthHandler struct {
	service       *service.AdminAuthService
	secureCookies bool
}

func NewAdminAuthHandler(svc *service.AdminAuthService, secureCookies bool) *AdminAuthHandler {
	return &AdminAuthHandler{service: svc, secureCookies: secureCookies}
}

func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, apperrors.ErrBadRequest("Invalid request body"))
		return
	}

	token, expires, err := h.service.Login(req.Password)
	if err != nil {
		apperrors.WriteError(w, err)
		return
	}
	auth.SetSessionCookie(w, token, expires, h.secureCookies)
	apperrors.WriteJSON(w, http.StatusOK, LoginResponse{Success: true, ExpiresAt: expires.UTC().Format(time.RFC3339)})
}

func (h *AdminAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	apperrors.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *AdminAuthHandler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	err := h.service.ValidateToken(auth.TokenFromRequest(r))
	apperrors.WriteJSON(w, http.StatusOK, AuthCheckResponse{Authenticated: err == nil})
}
