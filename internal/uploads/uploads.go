package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"prism/internal/provider"
)

// URLPrefix is the public route prefix generated file URLs use.
const URLPrefix = "/uploads"

// allowedImageTypes maps accepted upload extensions to their MIME types.
var allowedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Store manages the uploads directory: incoming user images and
// generated artifacts both land here and are served back by URL.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the uploads directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the uploads directory path.
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the per-request upload size cap.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// ReadImage validates and reads an uploaded image into memory for
// forwarding to a provider.
func (s *Store) ReadImage(fh *multipart.FileHeader) (provider.MediaInput, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mimeType, ok := allowedImageTypes[ext]
	if !ok {
		return provider.MediaInput{}, fmt.Errorf("unsupported image type %q", ext)
	}
	if fh.Size > s.maxBytes {
		return provider.MediaInput{}, fmt.Errorf("image exceeds %d byte limit", s.maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return provider.MediaInput{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return provider.MediaInput{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return provider.MediaInput{}, fmt.Errorf("image exceeds %d byte limit", s.maxBytes)
	}
	return provider.MediaInput{MIMEType: mimeType, Data: data}, nil
}

// SaveGenerated writes a produced artifact to disk and returns its
// public URL. Names carry a timestamp plus a random suffix so they
// never collide.
func (s *Store) SaveGenerated(kind string, file provider.MediaFile) (string, error) {
	name := fmt.Sprintf("%s_%d_%s%s", kind, time.Now().Unix(), uuid.New().String()[:8], file.Ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), file.Data, 0644); err != nil {
		return "", fmt.Errorf("save %s: %w", kind, err)
	}
	return URLPrefix + "/" + name, nil
}

// ServeHandler serves stored files with path traversal protection.
// Route: GET /uploads/{filename}
func (s *Store) ServeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		if name == "" || name == "." || name == "/" {
			http.Error(w, "file path required", http.StatusBadRequest)
			return
		}

		// Clean and validate — reject any traversal attempts
		cleaned := filepath.Clean(name)
		if strings.Contains(cleaned, "..") {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		fullPath := filepath.Join(s.dir, cleaned)
		if !strings.HasPrefix(fullPath, filepath.Clean(s.dir)) {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}

		switch strings.ToLower(filepath.Ext(fullPath)) {
		case ".png":
			w.Header().Set("Content-Type", "image/png")
		case ".jpg", ".jpeg":
			w.Header().Set("Content-Type", "image/jpeg")
		case ".gif":
			w.Header().Set("Content-Type", "image/gif")
		case ".webp":
			w.Header().Set("Content-Type", "image/webp")
		case ".mp4":
			w.Header().Set("Content-Type", "video/mp4")
		case ".webm":
			w.Header().Set("Content-Type", "video/webm")
		default:
			w.Header().Set("Content-Type", "application/octet-stream")
		}

		// Generated names are unique, so long cache lifetimes are safe
		w.Header().Set("Cache-Control", "public, max-age=3600")

		http.ServeFile(w, r, fullPath)
	}
}
