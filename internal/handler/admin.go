package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gallerygate/gallerygate-go/internal/crypto"
	"github.com/gallerygate/gallerygate-go/internal/model"
	"github.com/gallerygate/gallerygate-go/internal/service"
)

// AdminGalleryStore is the write side of the gallery store, used only by the
// admin surface. Satisfied by repository.GalleryRepository.
type AdminGalleryStore interface {
	GalleryStore
	Create(ctx context.Context, g *model.Gallery) error
	UpdateVisibility(ctx context.Context, id int64, visibility string) error
	SetViewHash(ctx context.Context, id int64, hash string) error
	SetDownloadHash(ctx context.Context, id int64, hash string) error
	SetCoverFile(ctx context.Context, id int64, basename string) error
}

// AdminHandler owns the gallery metadata and credential writes: creating
// galleries, rotating passwords, uploading files, syncing folders, and
// rebuilding archives.
type AdminHandler struct {
	galleries AdminGalleryStore
	files     *service.FileService
	archives  *service.ArchiveService

	adminUser         string
	adminPasswordHash string
	jwtSecret         string
	jwtExpiry         time.Duration
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(galleries AdminGalleryStore, files *service.FileService, archives *service.ArchiveService, adminUser, adminPasswordHash, jwtSecret string, jwtExpiry time.Duration) *AdminHandler {
	return &AdminHandler{
		galleries:         galleries,
		files:             files,
		archives:          archives,
		adminUser:         adminUser,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
		jwtExpiry:         jwtExpiry,
	}
}

// HandleLogin handles POST /api/v1/admin/login requests.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	if h.adminPasswordHash == "" || req.Username != h.adminUser {
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid credentials"))
		return
	}
	match, err := crypto.VerifyPassword(req.Password, h.adminPasswordHash)
	if err != nil || !match {
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid credentials"))
		return
	}

	token, err := crypto.GenerateAdminToken(req.Username, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.AdminLoginResponse{Token: token})
}

// HandleCreateGallery handles POST /api/v1/admin/galleries requests.
func (h *AdminHandler) HandleCreateGallery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.CreateGalleryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("title is required"))
		return
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if visibility != model.VisibilityPublic && visibility != model.VisibilityPassword {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid visibility"))
		return
	}

	g := &model.Gallery{
		Title:      req.Title,
		FolderName: req.FolderName,
		Visibility: visibility,
	}
	if err := h.galleries.Create(r.Context(), g); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusCreated, model.GalleryResponse{
		ID:         g.ID,
		Title:      g.Title,
		Visibility: g.Visibility,
		CreatedAt:  g.CreatedAt,
	})
}

// HandleUpdateAccess handles PUT /api/v1/admin/galleries/{gallery_id}/access
// requests. Blank password fields keep the existing hashes; setting a new
// password rotates the stored hash, which silently revokes every token
// issued against the old one.
func (h *AdminHandler) HandleUpdateAccess(w http.ResponseWriter, r *http.Request) {
	g, ok := h.galleryFromURL(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req model.UpdateAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	if req.Visibility != "" {
		if req.Visibility != model.VisibilityPublic && req.Visibility != model.VisibilityPassword {
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid visibility"))
			return
		}
		if err := h.galleries.UpdateVisibility(r.Context(), g.ID, req.Visibility); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
	}

	if req.NewViewPassword != "" {
		hash, err := crypto.HashPassword(req.NewViewPassword)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
		if err := h.galleries.SetViewHash(r.Context(), g.ID, hash); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
	}

	switch {
	case req.RemoveDownloadPassword:
		if err := h.galleries.SetDownloadHash(r.Context(), g.ID, ""); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
	case req.NewDownloadPassword != "":
		hash, err := crypto.HashPassword(req.NewDownloadPassword)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
		if err := h.galleries.SetDownloadHash(r.Context(), g.ID, hash); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleUpload handles POST /api/v1/admin/galleries/{gallery_id}/files
// multipart requests. Duplicate filenames are auto-numbered, never replaced.
func (h *AdminHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	g, ok := h.galleryFromURL(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil { // 64MB in memory, rest spills to disk
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid multipart request"))
		return
	}

	var stored []string
	for _, fh := range r.MultipartForm.File["file"] {
		src, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse("unreadable upload"))
			return
		}

		basename, err := h.files.AddUpload(g, fh.Filename, src)
		src.Close()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse("storing upload failed"))
			return
		}
		stored = append(stored, basename)
	}

	if len(stored) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("no files in request"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"stored": stored})
}

// HandleSync handles POST /api/v1/admin/galleries/{gallery_id}/sync requests:
// scan the server-side folder and generate missing thumbnails.
func (h *AdminHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	g, ok := h.galleryFromURL(w, r)
	if !ok {
		return
	}

	count, err := h.files.SyncFromFolder(g)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("sync failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"thumbnails_generated": count})
}

// HandleRebuildArchive handles POST /api/v1/admin/galleries/{gallery_id}/archive
// requests, forcing a fresh bundle after new uploads.
func (h *AdminHandler) HandleRebuildArchive(w http.ResponseWriter, r *http.Request) {
	g, ok := h.galleryFromURL(w, r)
	if !ok {
		return
	}

	zipPath, err := h.archives.Build(g)
	if err != nil {
		if errors.Is(err, service.ErrNoFiles) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("archive build failed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"archive": zipPath})
}

// HandleSetCover handles PUT /api/v1/admin/galleries/{gallery_id}/cover requests.
func (h *AdminHandler) HandleSetCover(w http.ResponseWriter, r *http.Request) {
	g, ok := h.galleryFromURL(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var req struct {
		Basename string `json:"basename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Basename == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("basename is required"))
		return
	}

	f, err := h.files.ResolveOriginal(g, req.Basename)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse("file not found in gallery"))
		return
	}
	if err := h.galleries.SetCoverFile(r.Context(), g.ID, f.Basename); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cover_file": f.Basename})
}

func (h *AdminHandler) galleryFromURL(w http.ResponseWriter, r *http.Request) (*model.Gallery, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "gallery_id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid gallery id"))
		return nil, false
	}

	g, err := h.galleries.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse("gallery not found"))
		return nil, false
	}
	return g, true
}
