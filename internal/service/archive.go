package service

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gallerygate/gallerygate-go/internal/model"
)

var ErrNoFiles = errors.New("no files to include in the archive")

// ArchiveService builds one persistent ZIP bundle of originals per gallery.
// The bundle is not invalidated when new files are uploaded; repeated
// downloads stay cheap and the admin rebuild action forces freshness.
type ArchiveService struct {
	files *FileService

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewArchiveService creates a new ArchiveService.
func NewArchiveService(files *FileService) *ArchiveService {
	return &ArchiveService{
		files: files,
		locks: make(map[int64]*sync.Mutex),
	}
}

// Path returns the deterministic archive location for a gallery:
// <base>/<folder>.zip next to the original/ directory.
func (s *ArchiveService) Path(g *model.Gallery) string {
	name := s.files.Folder(g)
	return filepath.Join(s.files.BaseDir(g), name+".zip")
}

// Build writes a fresh archive of all originals, overwriting any existing
// one. Fails without creating a file when the gallery has no originals.
func (s *ArchiveService) Build(g *model.Gallery) (string, error) {
	entries := s.listOriginals(g)
	if len(entries) == 0 {
		return "", ErrNoFiles
	}

	zipPath := s.Path(g)
	if err := os.MkdirAll(filepath.Dir(zipPath), 0o755); err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}

	// Write to a temp file first so a failed build never truncates a
	// bundle another request is streaming.
	tmp, err := os.CreateTemp(filepath.Dir(zipPath), ".archive-*")
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeArchive(tmp, entries); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing archive: %w", err)
	}

	if err := os.Rename(tmpName, zipPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publishing archive: %w", err)
	}
	return zipPath, nil
}

// GetOrBuild returns the existing archive if present, else builds it once.
// Builds for the same gallery are serialized so concurrent first requests
// do not race to write the same bundle.
func (s *ArchiveService) GetOrBuild(g *model.Gallery) (string, error) {
	lock := s.galleryLock(g.ID)
	lock.Lock()
	defer lock.Unlock()

	zipPath := s.Path(g)
	if _, err := os.Stat(zipPath); err == nil {
		return zipPath, nil
	}
	return s.Build(g)
}

func (s *ArchiveService) galleryLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// listOriginals enumerates originals without touching thumbnails.
func (s *ArchiveService) listOriginals(g *model.Gallery) []model.StoredFile {
	dir := s.files.originalDir(g)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []model.StoredFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, model.StoredFile{
			Basename:     e.Name(),
			OriginalPath: filepath.Join(dir, e.Name()),
		})
	}
	return out
}

func writeArchive(w io.Writer, files []model.StoredFile) error {
	zw := zip.NewWriter(w)

	for _, f := range files {
		src, err := os.Open(f.OriginalPath)
		if err != nil {
			// Listing raced a deletion; leave the file out.
			continue
		}

		entry, err := zw.Create(f.Basename)
		if err != nil {
			src.Close()
			zw.Close()
			return fmt.Errorf("adding %s to archive: %w", f.Basename, err)
		}
		if _, err := io.Copy(entry, src); err != nil {
			src.Close()
			zw.Close()
			return fmt.Errorf("writing %s to archive: %w", f.Basename, err)
		}
		src.Close()
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}
