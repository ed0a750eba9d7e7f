package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gallerygate/gallerygate-go/internal/fsutil"
	"github.com/gallerygate/gallerygate-go/internal/service"
)

// MediaHandler serves the file-emitting endpoints: thumbnails, single-file
// downloads, and the bulk ZIP bundle. Every endpoint checks access before
// resolving any file.
type MediaHandler struct {
	galleries GalleryStore
	access    *service.AccessService
	files     *service.FileService
	archives  *service.ArchiveService

	// Where to send non-image clients that hit a private thumbnail.
	// Empty means serve the placeholder instead.
	privateNoticeURL string
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(galleries GalleryStore, access *service.AccessService, files *service.FileService, archives *service.ArchiveService, privateNoticeURL string) *MediaHandler {
	return &MediaHandler{
		galleries:        galleries,
		access:           access,
		files:            files,
		archives:         archives,
		privateNoticeURL: privateNoticeURL,
	}
}

// HandleThumb handles GET /thumb?gallery_id=&file= requests.
// Denied or missing thumbnails yield a placeholder image rather than a
// broken <img>, tagged so crawlers do not index it.
func (h *MediaHandler) HandleThumb(w http.ResponseWriter, r *http.Request) {
	galleryID, file, ok := mediaParams(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g, err := h.galleries.GetByID(r.Context(), galleryID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if !h.access.CanView(g, cookieToken(r, viewCookieName(g.ID))) {
		h.denyThumb(w, r)
		return
	}

	thumbPath, err := h.files.ResolveThumb(g, file)
	if err != nil {
		servePlaceholder(w, "Image unavailable")
		return
	}

	if h.access.IsPrivate(g) {
		w.Header().Set("Cache-Control", "private, no-store")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	}
	streamFile(w, thumbPath, imageContentType(thumbPath))
}

// HandleCoverThumb handles GET /cover?gallery_id= requests. The cover is the
// one image a gallery exposes on public index pages, so it skips the view
// gate by design.
func (h *MediaHandler) HandleCoverThumb(w http.ResponseWriter, r *http.Request) {
	galleryID, err := strconv.ParseInt(r.URL.Query().Get("gallery_id"), 10, 64)
	if err != nil || galleryID <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g, err := h.galleries.GetByID(r.Context(), galleryID)
	if err != nil || g.CoverFile == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	thumbPath, err := h.files.ResolveThumb(g, g.CoverFile)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	streamFile(w, thumbPath, imageContentType(thumbPath))
}

// HandleDownload handles GET /download?gallery_id=&file= requests, streaming
// one original as an attachment.
func (h *MediaHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	galleryID, file, ok := mediaParams(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g, err := h.galleries.GetByID(r.Context(), galleryID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if !h.access.CanDownload(g, cookieToken(r, viewCookieName(g.ID)), cookieToken(r, downloadCookieName(g.ID))) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	f, err := h.files.ResolveOriginal(g, file)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	serveAttachment(w, f.OriginalPath, f.Basename, "application/octet-stream")
}

// HandleDownloadAll handles GET /download-all?gallery_id= requests, building
// the persistent ZIP on first call and reusing it afterwards.
func (h *MediaHandler) HandleDownloadAll(w http.ResponseWriter, r *http.Request) {
	galleryID, err := strconv.ParseInt(r.URL.Query().Get("gallery_id"), 10, 64)
	if err != nil || galleryID <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	g, err := h.galleries.GetByID(r.Context(), galleryID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if !h.access.CanDownload(g, cookieToken(r, viewCookieName(g.ID)), cookieToken(r, downloadCookieName(g.ID))) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	zipPath, err := h.archives.GetOrBuild(g)
	if err != nil {
		if errors.Is(err, service.ErrNoFiles) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	serveAttachment(w, zipPath, filepath.Base(zipPath), "application/zip")
}

// denyThumb answers an unauthorized thumbnail request. Image clients get a
// placeholder so the page renders cleanly; other clients are redirected to
// the private-notice page when one is configured.
func (h *MediaHandler) denyThumb(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if !strings.Contains(accept, "image") && h.privateNoticeURL != "" {
		http.Redirect(w, r, h.privateNoticeURL, http.StatusFound)
		return
	}
	servePlaceholder(w, "Private image")
}

func mediaParams(r *http.Request) (int64, string, bool) {
	q := r.URL.Query()
	galleryID, err := strconv.ParseInt(q.Get("gallery_id"), 10, 64)
	if err != nil || galleryID <= 0 {
		return 0, "", false
	}
	file := q.Get("file")
	if file == "" {
		return 0, "", false
	}
	return galleryID, file, true
}

func imageContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return "image/webp"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func streamFile(w http.ResponseWriter, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	io.Copy(w, f)
}

func serveAttachment(w http.ResponseWriter, path, name, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	safe := fsutil.SafeFileName(name)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, safe, url.PathEscape(safe)))
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	io.Copy(w, f)
}

// servePlaceholder writes a generic SVG so broken images never appear and
// crawlers never index a substitute graphic.
func servePlaceholder(w http.ResponseWriter, label string) {
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("X-Robots-Tag", "noimageindex, noindex, nofollow")

	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300" viewBox="0 0 400 300" role="img" aria-label="%s">
  <rect width="400" height="300" fill="#e5e7eb"/>
  <text x="200" y="155" text-anchor="middle" font-family="sans-serif" font-size="18" fill="#6b7280">%s</text>
</svg>`, label, label)
}
