// Package models defines the domain types for sideload.
package models

import "time"

// DirectoryEntry is a subdirectory shown in a listing.
type DirectoryEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// FileEntry is a non-directory entry shown in a listing. It is derived on
// every listing and never persisted.
type FileEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Modified   time.Time `json:"modified"`
	MimeType   string    `json:"mime_type"`
	Importable bool      `json:"importable"`
	Imported   bool      `json:"imported"`
	AssetID    *int64    `json:"asset_id,omitempty"`
}

// Listing is one directory's contents. Directories and files are kept as
// separate ordered sequences; directories are always presented first.
type Listing struct {
	Directories []DirectoryEntry `json:"directories"`
	Files       []FileEntry      `json:"files"`
}

// Breadcrumb is one step of the path from the root to the current directory.
type Breadcrumb struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// BrowseResult is the response to a browse request.
type BrowseResult struct {
	CurrentPath string           `json:"current_path"`
	Breadcrumbs []Breadcrumb     `json:"breadcrumbs"`
	Directories []DirectoryEntry `json:"directories"`
	Files       []FileEntry      `json:"files"`
}

// ImportResult is the outcome of importing one requested path.
type ImportResult struct {
	File      string `json:"file"`
	Path      string `json:"path"`
	Success   bool   `json:"success"`
	AssetID   *int64 `json:"asset_id,omitempty"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Asset storage status values.
const (
	StatusInherit = "inherit"
)

// Asset is a media record owned by the asset registry.
type Asset struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	MimeType     string        `json:"mime_type"`
	Status       string        `json:"status"`
	StoragePath  string        `json:"storage_path"`
	FilePath     string        `json:"file_path"`
	OriginalPath string        `json:"original_path,omitempty"`
	URL          string        `json:"url"`
	Size         int64         `json:"size"`
	Checksum     string        `json:"checksum"`
	Metadata     AssetMetadata `json:"metadata"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewAsset is the input to registering an asset.
type NewAsset struct {
	Title        string
	MimeType     string
	Status       string
	StoragePath  string
	FilePath     string
	OriginalPath string
	URL          string
	Size         int64
	Checksum     string
}

// AssetMetadata is produced by post-processing after registration.
type AssetMetadata struct {
	Width     int                    `json:"width,omitempty"`
	Height    int                    `json:"height,omitempty"`
	FileSize  int64                  `json:"filesize,omitempty"`
	Sizes     map[string]DerivedSize `json:"sizes,omitempty"`
	ImageMeta *ImageMeta             `json:"image_meta,omitempty"`
}

// DerivedSize is one generated rendition of an image asset.
type DerivedSize struct {
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`
}

// ImageMeta is the EXIF summary of an image asset.
type ImageMeta struct {
	Camera      string     `json:"camera,omitempty"`
	CreatedAt   *time.Time `json:"created_timestamp,omitempty"`
	Orientation int        `json:"orientation,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
}

// Activity is one persisted import attempt.
type Activity struct {
	ID        int64     `json:"id"`
	BatchID   string    `json:"batch_id"`
	File      string    `json:"file"`
	Path      string    `json:"path"`
	Success   bool      `json:"success"`
	AssetID   *int64    `json:"asset_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
