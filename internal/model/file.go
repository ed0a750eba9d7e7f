package model

// StoredFile represents one original image in a gallery, with its lazily
// generated thumbnail and the URLs a front end uses to fetch both.
type StoredFile struct {
	Basename     string
	OriginalPath string
	ThumbPath    string
	DownloadURL  string
	ThumbURL     string
}

// FileResponse represents a stored file in API responses.
type FileResponse struct {
	Basename    string `json:"basename"`
	DownloadURL string `json:"download_url"`
	ThumbURL    string `json:"thumb_url"`
}

// ListFilesResponse is the payload of the gallery file listing endpoint.
type ListFilesResponse struct {
	GalleryID int64          `json:"gallery_id"`
	Files     []FileResponse `json:"files"`
}
