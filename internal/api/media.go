package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/motionai/motion-engine/internal/database"
	"github.com/motionai/motion-engine/internal/provider"
	"github.com/motionai/motion-engine/internal/sanitize"
	"github.com/motionai/motion-engine/internal/storage"
	"github.com/motionai/motion-engine/internal/transcribe"
)

// multipartOverhead is headroom for form boundaries and text fields on top of
// the media size limit.
const multipartOverhead = 1 << 20

var errBadURL = errors.New("url must be an absolute http or https URL")

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// readUpload parses a multipart request and reads its "file" field into
// memory. Text fields stay available through r.FormValue.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (transcribe.Media, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return transcribe.Media{}, storage.ErrTooLarge
		}
		return transcribe.Media{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return transcribe.Media{}, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()
	if header.Size > maxBytes {
		return transcribe.Media{}, storage.ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return transcribe.Media{}, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return transcribe.Media{}, storage.ErrTooLarge
	}
	if len(data) == 0 {
		return transcribe.Media{}, errors.New("file is empty")
	}

	name := sanitize.FileName(header.Filename)
	if name == "_" {
		name = ""
	}
	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = storage.ContentTypeFor(name)
	}
	return transcribe.Media{Data: data, Filename: name, ContentType: ct}, nil
}

// validateMediaURL accepts only absolute http(s) URLs so API callers cannot
// address media store keys directly.
func validateMediaURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errBadURL
	}
	return nil
}

// writeUploadError reports a readUpload failure.
func writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrTooLarge) {
		writeMediaError(w, r, err)
		return
	}
	WriteError(w, http.StatusBadRequest, err.Error())
}

// writeMediaError maps upload and fetch failures onto HTTP statuses.
func writeMediaError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "media exceeds upload limit")
	case errors.Is(err, storage.ErrNotFound):
		WriteError(w, http.StatusNotFound, "media not found")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "media download timed out")
	default:
		hlog.FromRequest(r).Warn().Err(err).Msg("media fetch failed")
		WriteErrorDetail(w, http.StatusBadGateway, "failed to fetch media", err.Error())
	}
}

// writeTranscribeError maps a transcription chain failure onto an HTTP status.
func writeTranscribeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, provider.ErrAllProvidersFailed):
		hlog.FromRequest(r).Error().Err(err).Msg("transcription failed")
		WriteErrorDetail(w, http.StatusBadGateway, "all transcription providers failed", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "transcription timed out")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("transcription failed")
		WriteError(w, http.StatusInternalServerError, "transcription failed")
	}
}

// writeStoreError maps persistence failures onto HTTP statuses. msg is the
// client-facing text for unexpected failures.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		WriteError(w, http.StatusServiceUnavailable, "database not configured")
	case errors.Is(err, pgx.ErrNoRows):
		WriteError(w, http.StatusNotFound, "not found")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg(msg)
		WriteError(w, http.StatusInternalServerError, msg)
	}
}
