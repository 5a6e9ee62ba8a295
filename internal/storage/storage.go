package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/config"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("media not found")
	// ErrTooLarge is returned when media exceeds the configured upload limit.
	ErrTooLarge = errors.New("media exceeds size limit")
	// ErrInvalidKey is returned for keys that are empty, absolute, or escape the store root.
	ErrInvalidKey = errors.New("invalid media key")
)

// MediaStore abstracts where uploaded media lives until a job consumes it.
type MediaStore interface {
	// Save stores media. key format: {user_id}/{YYYY-MM-DD}/{filename}
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// Open returns a reader for the media. Returns ErrNotFound if missing.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if media exists.
	Exists(ctx context.Context, key string) bool

	// Delete removes media. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Type returns "local" or "s3".
	Type() string
}

// New creates a MediaStore based on config. Returns an error if S3 is
// configured but unreachable.
func New(cfg config.S3Config, mediaDir string, log zerolog.Logger) (MediaStore, error) {
	if !cfg.Enabled() {
		return NewLocalStore(mediaDir), nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}

	// Startup validation: verify credentials and bucket access
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.Bucket, cfg.Endpoint, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 connection verified")
	return s3store, nil
}

// Key builds a storage key for an upload.
func Key(userID string, at time.Time, filename string) string {
	return path.Join(userID, at.UTC().Format("2006-01-02"), filename)
}

// cleanKey normalizes a slash-separated key and rejects traversal.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

// IsMedia reports whether a filename has a supported audio or video extension.
func IsMedia(name string) bool {
	_, ok := mediaTypes[strings.ToLower(path.Ext(name))]
	return ok
}

// ContentTypeFor guesses a media content type from a filename extension.
// Unknown extensions yield "".
func ContentTypeFor(name string) string {
	return mediaTypes[strings.ToLower(path.Ext(name))]
}
