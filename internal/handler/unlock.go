package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gallerygate/gallerygate-go/internal/model"
	"github.com/gallerygate/gallerygate-go/internal/service"
)

// UnlockHandler handles password submissions. A correct password yields a
// signed cookie scoped to the gallery and scope; a wrong one is not
// distinguishable from presenting no token at all.
type UnlockHandler struct {
	galleries GalleryStore
	access    *service.AccessService
}

// NewUnlockHandler creates a new UnlockHandler.
func NewUnlockHandler(galleries GalleryStore, access *service.AccessService) *UnlockHandler {
	return &UnlockHandler{galleries: galleries, access: access}
}

// HandleUnlockView handles POST /unlock/view requests.
func (h *UnlockHandler) HandleUnlockView(w http.ResponseWriter, r *http.Request) {
	h.handleUnlock(w, r, model.ScopeView)
}

// HandleUnlockDownload handles POST /unlock/download requests.
func (h *UnlockHandler) HandleUnlockDownload(w http.ResponseWriter, r *http.Request) {
	h.handleUnlock(w, r, model.ScopeDownload)
}

func (h *UnlockHandler) handleUnlock(w http.ResponseWriter, r *http.Request, scope string) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid form data"))
		return
	}

	galleryID, err := strconv.ParseInt(r.PostFormValue("gallery_id"), 10, 64)
	if err != nil || galleryID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("gallery_id is required"))
		return
	}
	password := r.PostFormValue("password")
	if password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("password is required"))
		return
	}

	g, err := h.galleries.GetByID(r.Context(), galleryID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse("gallery not found"))
		return
	}

	var token string
	if scope == model.ScopeView {
		token, err = h.access.UnlockView(g, password)
	} else {
		token, err = h.access.UnlockDownload(g, password)
	}
	if err != nil {
		// ErrNoPassword and ErrInvalidPassword collapse to the same
		// answer so the response leaks nothing about stored state.
		if errors.Is(err, service.ErrInvalidPassword) || errors.Is(err, service.ErrNoPassword) {
			writeJSON(w, http.StatusForbidden, errorResponse("invalid password"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	name := viewCookieName(g.ID)
	if scope == model.ScopeDownload {
		name = downloadCookieName(g.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.access.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	if redirect := safeRedirect(r.PostFormValue("redirect")); redirect != "" {
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unlocked": true, "scope": scope})
}

// safeRedirect accepts only same-site relative paths, never absolute or
// protocol-relative URLs.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return ""
	}
	if strings.ContainsAny(target, "\r\n") {
		return ""
	}
	return target
}
