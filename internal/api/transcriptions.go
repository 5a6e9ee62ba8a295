package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/transcribe"
)

type TranscriptionsHandler struct {
	transcriber Transcriber
	fetcher     MediaFetcher
	maxBytes    int64
	log         zerolog.Logger
}

func NewTranscriptionsHandler(transcriber Transcriber, fetcher MediaFetcher, maxBytes int64, log zerolog.Logger) *TranscriptionsHandler {
	return &TranscriptionsHandler{
		transcriber: transcriber,
		fetcher:     fetcher,
		maxBytes:    maxBytes,
		log:         log.With().Str("handler", "transcriptions").Logger(),
	}
}

// Routes registers the transcription endpoint.
func (h *TranscriptionsHandler) Routes(r chi.Router) {
	r.Post("/transcriptions", h.Create)
}

type transcriptionRequest struct {
	URL string `json:"url"`
}

type transcriptionResponse struct {
	Text     string        `json:"text"`
	Language language.Code `json:"language"`
	Provider string        `json:"provider"`
}

// Create handles POST /api/v1/transcriptions.
// Accepts a multipart "file" upload or JSON {"url": "..."}.
func (h *TranscriptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var media transcribe.Media
	if isMultipart(r) {
		m, err := readUpload(w, r, h.maxBytes)
		if err != nil {
			writeUploadError(w, r, err)
			return
		}
		media = m
	} else {
		var req transcriptionRequest
		if err := DecodeJSON(r, &req); err != nil {
			WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		if err := validateMediaURL(req.URL); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		m, err := h.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			writeMediaError(w, r, err)
			return
		}
		media = m
	}

	res, err := h.transcriber.Transcribe(r.Context(), media)
	if err != nil {
		writeTranscribeError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, transcriptionResponse{
		Text:     res.Text,
		Language: res.Language,
		Provider: res.Provider,
	})
}
