package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gallerygate/gallerygate-go/internal/fsutil"
	"github.com/gallerygate/gallerygate-go/internal/model"
)

var (
	ErrFileNotFound  = errors.New("file not found in gallery")
	ErrInvalidUpload = errors.New("invalid upload")
)

const thumbExt = ".jpg"

// ThumbnailProducer is the image-processing collaborator. Errors are
// non-fatal to callers: a failed thumbnail skips the entry, never the request.
type ThumbnailProducer interface {
	Produce(src, dst string) error
}

// FileService maps galleries to their on-disk file sets, independent of
// access control. Layout under root:
//
//	<root>/<folder>/original/  originals
//	<root>/<folder>/thumbs/    lazily generated thumbnails
//	<root>/<folder>/<slug>.zip on-demand archive
type FileService struct {
	root     string
	producer ThumbnailProducer
}

// NewFileService creates a new FileService rooted at the storage directory.
func NewFileService(root string, producer ThumbnailProducer) *FileService {
	return &FileService{root: root, producer: producer}
}

// Folder resolves the gallery's directory name: the explicit folder mapping
// if set, else the slugified title, else the numeric ID.
func (s *FileService) Folder(g *model.Gallery) string {
	if g.FolderName != "" {
		if f := fsutil.Slugify(g.FolderName); f != "" {
			return f
		}
	}
	if f := fsutil.Slugify(g.Title); f != "" {
		return f
	}
	return strconv.FormatInt(g.ID, 10)
}

// BaseDir returns the gallery's base directory.
func (s *FileService) BaseDir(g *model.Gallery) string {
	return filepath.Join(s.root, s.Folder(g))
}

func (s *FileService) originalDir(g *model.Gallery) string {
	return filepath.Join(s.BaseDir(g), "original")
}

func (s *FileService) thumbsDir(g *model.Gallery) string {
	return filepath.Join(s.BaseDir(g), "thumbs")
}

func (s *FileService) ensureDirs(g *model.Gallery) error {
	for _, dir := range []string{s.originalDir(g), s.thumbsDir(g)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating gallery directory %s: %w", dir, err)
		}
	}
	return nil
}

// ListFiles lists the gallery's originals in name order, generating a missing
// thumbnail for each entry. Entries whose thumbnail cannot be produced are
// logged and skipped.
func (s *FileService) ListFiles(g *model.Gallery) []model.StoredFile {
	entries, err := os.ReadDir(s.originalDir(g))
	if err != nil {
		return nil
	}

	var out []model.StoredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		basename := e.Name()
		originalPath := filepath.Join(s.originalDir(g), basename)
		thumbPath := filepath.Join(s.thumbsDir(g), basename+thumbExt)

		if _, err := os.Stat(thumbPath); err != nil {
			if err := s.producer.Produce(originalPath, thumbPath); err != nil {
				slog.Warn("thumbnail generation failed, skipping entry",
					"gallery_id", g.ID, "file", basename, "error", err)
				continue
			}
		}

		out = append(out, model.StoredFile{
			Basename:     basename,
			OriginalPath: originalPath,
			ThumbPath:    thumbPath,
			DownloadURL:  fileURL("/download", g.ID, basename),
			ThumbURL:     fileURL("/thumb", g.ID, basename),
		})
	}
	return out
}

// ResolveOriginal looks up one original by exact basename match against the
// directory listing. The requested name is reduced to a bare basename first,
// so traversal input is neutralized rather than joined into a path.
func (s *FileService) ResolveOriginal(g *model.Gallery, name string) (model.StoredFile, error) {
	requested := fsutil.CleanBasename(name)
	if requested == "" {
		return model.StoredFile{}, ErrFileNotFound
	}

	entries, err := os.ReadDir(s.originalDir(g))
	if err != nil {
		return model.StoredFile{}, ErrFileNotFound
	}

	for _, e := range entries {
		if e.IsDir() || e.Name() != requested {
			continue
		}
		return model.StoredFile{
			Basename:     requested,
			OriginalPath: filepath.Join(s.originalDir(g), requested),
			ThumbPath:    filepath.Join(s.thumbsDir(g), requested+thumbExt),
		}, nil
	}
	return model.StoredFile{}, ErrFileNotFound
}

// ResolveThumb resolves the thumbnail path for one original, generating it
// if missing.
func (s *FileService) ResolveThumb(g *model.Gallery, name string) (string, error) {
	f, err := s.ResolveOriginal(g, name)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(f.ThumbPath); err != nil {
		if err := s.producer.Produce(f.OriginalPath, f.ThumbPath); err != nil {
			return "", err
		}
	}
	return f.ThumbPath, nil
}

// AddUpload stores a new original under a collision-free basename and
// generates its thumbnail. Returns the basename actually used.
func (s *FileService) AddUpload(g *model.Gallery, filename string, r io.Reader) (string, error) {
	if err := s.ensureDirs(g); err != nil {
		return "", err
	}

	safe := fsutil.CleanBasename(filename)
	if safe == "" {
		safe = "file"
	}

	target, basename := fsutil.UniquePath(s.originalDir(g), safe, func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating upload target: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(target)
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("writing upload: %w", err)
	}

	thumbPath := filepath.Join(s.thumbsDir(g), basename+thumbExt)
	if err := s.producer.Produce(target, thumbPath); err != nil {
		slog.Warn("thumbnail generation failed after upload",
			"gallery_id", g.ID, "file", basename, "error", err)
	}

	return basename, nil
}

// SyncFromFolder scans the original directory and generates any missing
// thumbnails. Returns the number of thumbnails produced. Used by the admin
// "sync from server folder" action after files are copied in out of band.
func (s *FileService) SyncFromFolder(g *model.Gallery) (int, error) {
	if err := s.ensureDirs(g); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(s.originalDir(g))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		thumbPath := filepath.Join(s.thumbsDir(g), e.Name()+thumbExt)
		if _, err := os.Stat(thumbPath); err == nil {
			continue
		}

		src := filepath.Join(s.originalDir(g), e.Name())
		if err := s.producer.Produce(src, thumbPath); err != nil {
			slog.Warn("sync: thumbnail generation failed",
				"gallery_id", g.ID, "file", e.Name(), "error", err)
			continue
		}
		count++
	}
	return count, nil
}

func fileURL(endpoint string, galleryID int64, basename string) string {
	return fmt.Sprintf("%s?gallery_id=%d&file=%s", endpoint, galleryID, url.QueryEscape(basename))
}
