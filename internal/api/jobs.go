package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/pipeline"
	"github.com/motionai/motion-engine/internal/sanitize"
	"github.com/motionai/motion-engine/internal/storage"
	"github.com/motionai/motion-engine/internal/transcribe"
)

type JobsHandler struct {
	queue    JobQueue
	media    MediaStore
	maxBytes int64
	now      func() time.Time
	log      zerolog.Logger
}

// NewJobsHandler creates the job endpoints. media may be nil, in which case
// uploads travel inside the job instead of through the media store.
func NewJobsHandler(queue JobQueue, media MediaStore, maxBytes int64, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		queue:    queue,
		media:    media,
		maxBytes: maxBytes,
		now:      time.Now,
		log:      log.With().Str("handler", "jobs").Logger(),
	}
}

// Routes registers read-only job endpoints. Create is mounted separately
// behind the rate limiter.
func (h *JobsHandler) Routes(r chi.Router) {
	r.Get("/jobs/{id}", h.Get)
}

type createJobRequest struct {
	URL            string `json:"url"`
	Filename       string `json:"filename"`
	TargetLanguage string `json:"target_language"`
	Template       string `json:"template"`
}

type createJobResponse struct {
	JobID string         `json:"job_id"`
	State pipeline.State `json:"state"`
}

// Create handles POST /api/v1/jobs.
// Accepts JSON {"url", "filename", "target_language", "template"} or a
// multipart form with a "file" part and the same text fields.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	job := pipeline.Job{ID: uuid.NewString(), UserID: user}
	var req createJobRequest
	var upload *transcribe.Media

	if isMultipart(r) {
		media, err := readUpload(w, r, h.maxBytes)
		if err != nil {
			writeUploadError(w, r, err)
			return
		}
		upload = &media
		req.TargetLanguage = r.FormValue("target_language")
		req.Template = r.FormValue("template")
		req.Filename = r.FormValue("filename")
	} else {
		if err := DecodeJSON(r, &req); err != nil {
			WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		if err := validateMediaURL(req.URL); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		job.Source = req.URL
	}

	target, ok := parseTarget(req.TargetLanguage)
	if !ok {
		WriteError(w, http.StatusBadRequest, "unsupported target_language "+req.TargetLanguage)
		return
	}
	job.TargetLanguage = target
	job.Template = sanitize.Input(req.Template)
	job.Filename = req.Filename

	switch {
	case upload != nil && h.media != nil:
		name := upload.Filename
		if name == "" {
			name = "upload"
		}
		key := storage.Key(user, h.now(), job.ID[:8]+"-"+name)
		if err := h.media.Save(r.Context(), key, upload.Data, upload.ContentType); err != nil {
			h.log.Error().Err(err).Str("key", key).Msg("failed to store upload")
			WriteError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}
		job.Source = key
		job.Cleanup = true
	case upload != nil:
		job.Media = upload
	}

	st, ok := h.queue.Submit(job)
	if !ok {
		if job.Cleanup {
			if err := h.media.Delete(r.Context(), job.Source); err != nil {
				h.log.Warn().Err(err).Str("key", job.Source).Msg("failed to delete rejected upload")
			}
		}
		WriteError(w, http.StatusServiceUnavailable, "job queue is full")
		return
	}
	w.Header().Set("Location", "/api/v1/jobs/"+st.ID)
	WriteJSON(w, http.StatusAccepted, createJobResponse{JobID: st.ID, State: st.State})
}

// Get handles GET /api/v1/jobs/{id}. Jobs owned by other users are reported
// as not found.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, ok := h.queue.Status(chi.URLParam(r, "id"))
	if !ok || st.UserID != UserFromContext(r.Context()) {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	WriteJSON(w, http.StatusOK, st)
}
