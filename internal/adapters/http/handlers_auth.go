package http

import (
	"net/http"

	"github.com/stockdeck/stockdeck/internal/application"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req application.SignupRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		writeMappedError(w, "signup", err)
		return
	}
	writeSuccess(w, http.StatusCreated, resp)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeMappedError(w, "login", err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) oauthLogin(w http.ResponseWriter, r *http.Request) {
	var req application.FederatedLoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	req.IPAddress = readIP(r)
	req.UserAgent = r.UserAgent()
	resp, err := h.service.LoginWithProvider(r.Context(), req)
	if err != nil {
		writeMappedError(w, "oauth_login", err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	profile, err := h.service.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		writeMappedError(w, "get_profile", err)
		return
	}
	writeSuccess(w, http.StatusOK, profile)
}
