package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gallerygate/gallerygate-go/internal/model"
)

var ErrGalleryNotFound = errors.New("gallery not found")

// GalleryRepository handles gallery persistence: titles, folder mapping, and
// the per-gallery credential state (visibility + password hashes).
type GalleryRepository struct {
	db *sql.DB
}

// NewGalleryRepository creates a new GalleryRepository.
func NewGalleryRepository(db *sql.DB) *GalleryRepository {
	return &GalleryRepository{db: db}
}

// GetByID retrieves a gallery by its ID.
func (r *GalleryRepository) GetByID(ctx context.Context, id int64) (*model.Gallery, error) {
	query := `SELECT id, title, folder_name, visibility, view_password_hash,
		download_password_hash, cover_file, created_at, updated_at
		FROM galleries WHERE id = ?`

	g := &model.Gallery{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Title, &g.FolderName, &g.Visibility,
		&g.ViewHash, &g.DownloadHash, &g.CoverFile,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGalleryNotFound
		}
		return nil, err
	}

	return g, nil
}

// Create inserts a new gallery and sets the generated ID on the struct.
func (r *GalleryRepository) Create(ctx context.Context, g *model.Gallery) error {
	query := `INSERT INTO galleries (title, folder_name, visibility, view_password_hash,
		download_password_hash, cover_file) VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		g.Title, g.FolderName, g.Visibility, g.ViewHash, g.DownloadHash, g.CoverFile)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	g.ID = id
	return nil
}

// UpdateVisibility changes only the visibility mode.
func (r *GalleryRepository) UpdateVisibility(ctx context.Context, id int64, visibility string) error {
	return r.exec(ctx, `UPDATE galleries SET visibility = ? WHERE id = ?`, visibility, id)
}

// SetViewHash replaces the stored viewing password hash. Previously issued
// view tokens stop verifying against the new hash.
func (r *GalleryRepository) SetViewHash(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE galleries SET view_password_hash = ? WHERE id = ?`, hash, id)
}

// SetDownloadHash replaces the stored download password hash. An empty hash
// removes the separate download tier entirely.
func (r *GalleryRepository) SetDownloadHash(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, `UPDATE galleries SET download_password_hash = ? WHERE id = ?`, hash, id)
}

// SetCoverFile records the basename of the designated cover image.
func (r *GalleryRepository) SetCoverFile(ctx context.Context, id int64, basename string) error {
	return r.exec(ctx, `UPDATE galleries SET cover_file = ? WHERE id = ?`, basename, id)
}

func (r *GalleryRepository) exec(ctx context.Context, query string, args ...any) error {
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
