package model

import "time"

// Visibility controls whether viewing a gallery requires a password.
const (
	VisibilityPublic   = "public"
	VisibilityPassword = "password"
)

// Scope names the capability an unlock token or password governs.
const (
	ScopeView     = "view"
	ScopeDownload = "download"
)

// Gallery represents a gallery row in the database.
type Gallery struct {
	ID           int64
	Title        string
	FolderName   string
	Visibility   string
	ViewHash     string
	DownloadHash string
	CoverFile    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RequiresViewPassword reports whether viewing this gallery is password-gated.
func (g *Gallery) RequiresViewPassword() bool {
	return g.Visibility == VisibilityPassword
}

// RequiresDownloadPassword reports whether a separate download password is set.
// When false, downloads follow the viewing rules.
func (g *Gallery) RequiresDownloadPassword() bool {
	return g.DownloadHash != ""
}

// CreateGalleryRequest represents an admin gallery creation request.
type CreateGalleryRequest struct {
	Title      string `json:"title"`
	FolderName string `json:"folder_name"`
	Visibility string `json:"visibility"`
}

// UpdateAccessRequest represents an admin visibility/password update.
// Empty password fields keep the existing hashes; RemoveDownloadPassword
// clears the separate download tier so downloads follow viewing rules again.
type UpdateAccessRequest struct {
	Visibility             string `json:"visibility"`
	NewViewPassword        string `json:"new_view_password"`
	NewDownloadPassword    string `json:"new_download_password"`
	RemoveDownloadPassword bool   `json:"remove_download_password"`
}

// GalleryResponse represents gallery data safe for API responses (no hashes).
type GalleryResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Visibility string    `json:"visibility"`
	CoverFile  string    `json:"cover_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AdminLoginRequest represents an admin login request.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLoginResponse carries the admin JWT.
type AdminLoginResponse struct {
	Token string `json:"token"`
}
