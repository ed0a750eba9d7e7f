package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gallerygate/gallerygate-go/internal/crypto"
	"github.com/gallerygate/gallerygate-go/internal/model"
	"github.com/gallerygate/gallerygate-go/internal/service"
)

type fakeGalleryStore struct {
	galleries map[int64]*model.Gallery
}

func (s *fakeGalleryStore) GetByID(_ context.Context, id int64) (*model.Gallery, error) {
	g, ok := s.galleries[id]
	if !ok {
		return nil, errors.New("gallery not found")
	}
	return g, nil
}

// fakeProducer stands in for the imaging collaborator by copying bytes.
type fakeProducer struct{}

func (fakeProducer) Produce(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

type testEnv struct {
	store    *fakeGalleryStore
	access   *service.AccessService
	files    *service.FileService
	archives *service.ArchiveService
	media    *MediaHandler
	unlock   *UnlockHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := &fakeGalleryStore{galleries: map[int64]*model.Gallery{}}
	access := service.NewAccessService("test-secret", 24*time.Hour)
	files := service.NewFileService(t.TempDir(), fakeProducer{})
	archives := service.NewArchiveService(files)

	return &testEnv{
		store:    store,
		access:   access,
		files:    files,
		archives: archives,
		media:    NewMediaHandler(store, access, files, archives, ""),
		unlock:   NewUnlockHandler(store, access),
	}
}

func (e *testEnv) addGallery(g *model.Gallery) {
	e.store.galleries[g.ID] = g
}

func (e *testEnv) addOriginal(t *testing.T, g *model.Gallery, name, content string) {
	t.Helper()
	dir := filepath.Join(e.files.BaseDir(g), "original")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() unexpected error: %v", err)
	}
	return hash
}

func postUnlock(t *testing.T, env *testEnv, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	if path == "/unlock/view" {
		env.unlock.HandleUnlockView(w, req)
	} else {
		env.unlock.HandleUnlockDownload(w, req)
	}
	return w
}

// Scenario: public gallery, thumbnail request without any token.
func TestThumbPublicGallery(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{ID: 42, Title: "Summer", Visibility: model.VisibilityPublic}
	env.addGallery(g)
	env.addOriginal(t, g, "a.jpg", "image-bytes")

	req := httptest.NewRequest(http.MethodGet, "/thumb?gallery_id=42&file=a.jpg", nil)
	w := httptest.NewRecorder()
	env.media.HandleThumb(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", got)
	}
	if got := w.Header().Get("Cache-Control"); !strings.HasPrefix(got, "public") {
		t.Errorf("Cache-Control = %q, want public caching for public gallery", got)
	}
}

// Scenario: password-protected gallery. No cookie yields a placeholder
// tagged against indexing; unlocking sets a cookie that then works.
func TestThumbPasswordGalleryUnlockFlow(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{
		ID:         42,
		Title:      "Private Shoot",
		Visibility: model.VisibilityPassword,
		ViewHash:   mustHash(t, "secret"),
	}
	env.addGallery(g)
	env.addOriginal(t, g, "a.jpg", "image-bytes")

	// 1. No cookie: placeholder, not the image.
	req := httptest.NewRequest(http.MethodGet, "/thumb?gallery_id=42&file=a.jpg", nil)
	req.Header.Set("Accept", "image/webp,image/*")
	w := httptest.NewRecorder()
	env.media.HandleThumb(w, req)

	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "image/svg+xml") {
		t.Fatalf("locked thumb Content-Type = %q, want svg placeholder", got)
	}
	if got := w.Header().Get("X-Robots-Tag"); !strings.Contains(got, "noindex") {
		t.Errorf("X-Robots-Tag = %q, want noindex", got)
	}
	if !strings.Contains(w.Body.String(), "Private image") {
		t.Error("placeholder body missing label")
	}

	// 2. Wrong password: 403, no cookie.
	w = postUnlock(t, env, "/unlock/view", url.Values{"gallery_id": {"42"}, "password": {"nope"}})
	if w.Code != http.StatusForbidden {
		t.Fatalf("unlock with wrong password status = %d, want 403", w.Code)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("wrong password still set a cookie")
	}

	// 3. Correct password sets the view cookie.
	w = postUnlock(t, env, "/unlock/view", url.Values{"gallery_id": {"42"}, "password": {"secret"}})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock status = %d, want 200", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "gallery_view_42" {
		t.Fatalf("unlock cookies = %v, want gallery_view_42", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("unlock cookie is not HttpOnly")
	}
	if cookies[0].SameSite != http.SameSiteLaxMode {
		t.Error("unlock cookie SameSite is not Lax")
	}
	if cookies[0].MaxAge != int((24 * time.Hour).Seconds()) {
		t.Errorf("unlock cookie MaxAge = %d, want 24h", cookies[0].MaxAge)
	}

	// 4. With the cookie the real thumbnail is served, privately cached.
	req = httptest.NewRequest(http.MethodGet, "/thumb?gallery_id=42&file=a.jpg", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	env.media.HandleThumb(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unlocked thumb status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("unlocked thumb Content-Type = %q, want image/jpeg", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "private, no-store" {
		t.Errorf("Cache-Control = %q, want private, no-store", got)
	}
}

// Scenario: no download password, view unlocked. The bulk download builds
// the archive once and reuses it afterwards.
func TestDownloadAllBuildsOnceAndReuses(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{
		ID:         42,
		Title:      "Summer",
		Visibility: model.VisibilityPassword,
		ViewHash:   mustHash(t, "secret"),
	}
	env.addGallery(g)
	env.addOriginal(t, g, "a.jpg", "image-a")
	env.addOriginal(t, g, "b.jpg", "image-b")

	w := postUnlock(t, env, "/unlock/view", url.Values{"gallery_id": {"42"}, "password": {"secret"}})
	cookie := w.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/download-all?gallery_id=42", nil)
	req.AddCookie(cookie)
	w2 := httptest.NewRecorder()
	env.media.HandleDownloadAll(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("download-all status = %d, want 200", w2.Code)
	}
	if got := w2.Header().Get("Content-Type"); got != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", got)
	}
	if got := w2.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", got)
	}

	zipPath := env.archives.Path(g)
	info1, err := os.Stat(zipPath)
	if err != nil {
		t.Fatalf("archive not persisted: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/download-all?gallery_id=42", nil)
	req.AddCookie(cookie)
	w3 := httptest.NewRecorder()
	env.media.HandleDownloadAll(w3, req)

	if w3.Code != http.StatusOK {
		t.Fatalf("second download-all status = %d, want 200", w3.Code)
	}
	info2, err := os.Stat(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("second download rebuilt the archive")
	}
	if w2.Body.String() != w3.Body.String() {
		t.Error("archive bytes changed between downloads")
	}
}

func TestDownloadRequiresDownloadUnlock(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{
		ID:           42,
		Title:        "Summer",
		Visibility:   model.VisibilityPublic,
		DownloadHash: mustHash(t, "dl-pass"),
	}
	env.addGallery(g)
	env.addOriginal(t, g, "a.jpg", "image-a")

	// Viewable without a token, but downloads stay locked.
	req := httptest.NewRequest(http.MethodGet, "/download?gallery_id=42&file=a.jpg", nil)
	w := httptest.NewRecorder()
	env.media.HandleDownload(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("locked download status = %d, want 403", w.Code)
	}

	w = postUnlock(t, env, "/unlock/download", url.Values{"gallery_id": {"42"}, "password": {"dl-pass"}})
	if w.Code != http.StatusOK {
		t.Fatalf("unlock download status = %d, want 200", w.Code)
	}
	cookie := w.Result().Cookies()[0]
	if cookie.Name != "gallery_dl_42" {
		t.Fatalf("cookie name = %q, want gallery_dl_42", cookie.Name)
	}

	req = httptest.NewRequest(http.MethodGet, "/download?gallery_id=42&file=a.jpg", nil)
	req.AddCookie(cookie)
	w2 := httptest.NewRecorder()
	env.media.HandleDownload(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("unlocked download status = %d, want 200", w2.Code)
	}
	if w2.Body.String() != "image-a" {
		t.Error("download body does not match original bytes")
	}
	if got := w2.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="a.jpg"`) {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestDownloadTraversalRejected(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{ID: 42, Title: "Summer", Visibility: model.VisibilityPublic}
	env.addGallery(g)
	env.addOriginal(t, g, "a.jpg", "image-a")

	target := "/download?gallery_id=42&file=" + url.QueryEscape("../../etc/passwd")
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	env.media.HandleDownload(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("traversal download status = %d, want 404", w.Code)
	}
}

func TestMediaParamValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"missing gallery id", "/thumb?file=a.jpg", http.StatusBadRequest},
		{"missing file", "/thumb?gallery_id=42", http.StatusBadRequest},
		{"non-numeric id", "/thumb?gallery_id=abc&file=a.jpg", http.StatusBadRequest},
		{"unknown gallery", "/thumb?gallery_id=999&file=a.jpg", http.StatusNotFound},
	}

	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.target, nil)
		w := httptest.NewRecorder()
		env.media.HandleThumb(w, req)
		if w.Code != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, w.Code, c.want)
		}
	}
}

func TestDownloadAllNoFiles(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{ID: 42, Title: "Empty", Visibility: model.VisibilityPublic}
	env.addGallery(g)

	req := httptest.NewRequest(http.MethodGet, "/download-all?gallery_id=42", nil)
	w := httptest.NewRecorder()
	env.media.HandleDownloadAll(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("empty download-all status = %d, want 404", w.Code)
	}
}

func TestCoverThumbServesOnlyDesignatedCover(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{
		ID:         42,
		Title:      "Private Shoot",
		Visibility: model.VisibilityPassword,
		ViewHash:   mustHash(t, "secret"),
		CoverFile:  "cover.jpg",
	}
	env.addGallery(g)
	env.addOriginal(t, g, "cover.jpg", "cover-bytes")
	env.addOriginal(t, g, "secret.jpg", "secret-bytes")

	req := httptest.NewRequest(http.MethodGet, "/cover?gallery_id=42", nil)
	w := httptest.NewRecorder()
	env.media.HandleCoverThumb(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("cover status = %d, want 200", w.Code)
	}
	if w.Body.String() != "cover-bytes" {
		t.Error("cover body mismatch")
	}

	// Gallery without a cover gets 404.
	env.addGallery(&model.Gallery{ID: 7, Title: "No Cover", Visibility: model.VisibilityPublic})
	req = httptest.NewRequest(http.MethodGet, "/cover?gallery_id=7", nil)
	w = httptest.NewRecorder()
	env.media.HandleCoverThumb(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("coverless status = %d, want 404", w.Code)
	}
}

func TestUnlockRedirect(t *testing.T) {
	env := newTestEnv(t)
	g := &model.Gallery{
		ID:         42,
		Title:      "Private Shoot",
		Visibility: model.VisibilityPassword,
		ViewHash:   mustHash(t, "secret"),
	}
	env.addGallery(g)

	w := postUnlock(t, env, "/unlock/view", url.Values{
		"gallery_id": {"42"},
		"password":   {"secret"},
		"redirect":   {"/galleries/42#photos"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("unlock redirect status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/galleries/42#photos" {
		t.Errorf("Location = %q", got)
	}

	// Absolute and protocol-relative targets are ignored.
	w = postUnlock(t, env, "/unlock/view", url.Values{
		"gallery_id": {"42"},
		"password":   {"secret"},
		"redirect":   {"https://evil.example/phish"},
	})
	if w.Code != http.StatusOK {
		t.Errorf("unlock with external redirect status = %d, want 200 JSON", w.Code)
	}
}
