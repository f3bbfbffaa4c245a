package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vaughan-dsouza/board/internal/auth"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/middleware"
	"github.com/vaughan-dsouza/board/internal/utils"
)

type AuthHandler struct {
	svc          AuthService
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(svc AuthService, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, cookieSecure: cookieSecure, logger: logger}
}

// ----------- Request DTOs -------------

type credentialsReq struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// -------------- REGISTER ----------------------

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	account, err := h.svc.Register(r.Context(), req.Handle, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusCreated, account)
}

// -------------- LOGIN ------------------------

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	pair, err := h.svc.Login(r.Context(), req.Handle, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setSession(w, pair)
	utils.JSON(w, http.StatusOK, pair)
}

// ---------------- REFRESH ---------------------

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.setSession(w, pair)
	utils.JSON(w, http.StatusOK, pair)
}

// -------------- LOGOUT (protected) -----------

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, common.ErrUnauthenticated)
		return
	}

	var req refreshReq
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		return
	}

	if err := h.svc.Logout(r.Context(), caller.ID, req.RefreshToken); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// -------------- ME (protected) ----------------

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFrom(r.Context())
	if !ok {
		writeError(w, r, h.logger, common.ErrUnauthenticated)
		return
	}

	account, err := h.svc.Me(r.Context(), caller.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	utils.JSON(w, http.StatusOK, account)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, pair *auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiry,
		MaxAge:   int(h.svc.AccessTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
