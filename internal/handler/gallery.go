package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gallerygate/gallerygate-go/internal/model"
	"github.com/gallerygate/gallerygate-go/internal/service"
)

// GalleryHandler serves gallery metadata and file listings to the front end.
type GalleryHandler struct {
	galleries GalleryStore
	access    *service.AccessService
	files     *service.FileService
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(galleries GalleryStore, access *service.AccessService, files *service.FileService) *GalleryHandler {
	return &GalleryHandler{galleries: galleries, access: access, files: files}
}

// HandleGetGallery handles GET /api/v1/galleries/{gallery_id} requests.
// Metadata is visible regardless of unlock state; the listing is not.
func (h *GalleryHandler) HandleGetGallery(w http.ResponseWriter, r *http.Request) {
	g, ok := h.galleryFromURL(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, model.GalleryResponse{
		ID:         g.ID,
		Title:      g.Title,
		Visibility: g.Visibility,
		CoverFile:  g.CoverFile,
		CreatedAt:  g.CreatedAt,
	})
}

// HandleListFiles handles GET /api/v1/galleries/{gallery_id}/files requests.
func (h *GalleryHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	g, ok := h.galleryFromURL(w, r)
	if !ok {
		return
	}

	if !h.access.CanView(g, cookieToken(r, viewCookieName(g.ID))) {
		writeJSON(w, http.StatusForbidden, errorResponse("gallery is locked"))
		return
	}

	files := h.files.ListFiles(g)
	resp := model.ListFilesResponse{
		GalleryID: g.ID,
		Files:     make([]model.FileResponse, 0, len(files)),
	}
	for _, f := range files {
		resp.Files = append(resp.Files, model.FileResponse{
			Basename:    f.Basename,
			DownloadURL: f.DownloadURL,
			ThumbURL:    f.ThumbURL,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *GalleryHandler) galleryFromURL(w http.ResponseWriter, r *http.Request) (*model.Gallery, bool) {
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
