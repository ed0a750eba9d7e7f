package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gallerygate/gallerygate-go/internal/model"
)

// GalleryStore is the read side of the gallery credential/metadata store.
// Satisfied by repository.GalleryRepository.
type GalleryStore interface {
	GetByID(ctx context.Context, id int64) (*model.Gallery, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// Cookie names are per gallery and per scope, so unlocking one gallery never
// leaks access to another.
func viewCookieName(galleryID int64) string {
	return fmt.Sprintf("gallery_view_%d", galleryID)
}

func downloadCookieName(galleryID int64) string {
	return fmt.Sprintf("gallery_dl_%d", galleryID)
}

func cookieToken(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
