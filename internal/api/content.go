package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/generate"
)

// recommendationCount is how many templates ?type=recommendations returns.
const recommendationCount = 3

type ContentHandler struct {
	gen ContentGenerator
	log zerolog.Logger
}

func NewContentHandler(gen ContentGenerator, log zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		gen: gen,
		log: log.With().Str("handler", "content").Logger(),
	}
}

// Routes registers the auxiliary generators. All of them call the LLM chain.
func (h *ContentHandler) Routes(r chi.Router) {
	r.Post("/content/seo", h.SEO)
	r.Post("/content/social", h.Social)
	r.Post("/content/email", h.Email)
	r.Post("/content/podcast", h.Podcast)
}

type contentRequest struct {
	Content       string `json:"content"`
	Platform      string `json:"platform"`
	Transcription string `json:"transcription"`
}

type contentResponse struct {
	Content string `json:"content"`
}

// decodeContent reads the request body and returns the named text field, or
// writes a 400 and returns false.
func decodeContent(w http.ResponseWriter, r *http.Request, field string) (contentRequest, string, bool) {
	var req contentRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return req, "", false
	}
	text := req.Content
	if field == "transcription" {
		text = req.Transcription
	}
	text = strings.TrimSpace(text)
	if text == "" {
		WriteError(w, http.StatusBadRequest, field+" is required")
		return req, "", false
	}
	return req, text, true
}

// SEO handles POST /api/v1/content/seo.
func (h *ContentHandler) SEO(w http.ResponseWriter, r *http.Request) {
	_, content, ok := decodeContent(w, r, "content")
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.gen.SEOSuggestions(r.Context(), content))
}

// Social handles POST /api/v1/content/social.
func (h *ContentHandler) Social(w http.ResponseWriter, r *http.Request) {
	req, content, ok := decodeContent(w, r, "content")
	if !ok {
		return
	}
	platform, ok := generate.ParsePlatform(req.Platform)
	if !ok {
		WriteError(w, http.StatusBadRequest, "platform must be one of twitter, linkedin, facebook, instagram")
		return
	}
	WriteJSON(w, http.StatusOK, contentResponse{Content: h.gen.SocialPost(r.Context(), content, platform)})
}

// Email handles POST /api/v1/content/email.
func (h *ContentHandler) Email(w http.ResponseWriter, r *http.Request) {
	_, content, ok := decodeContent(w, r, "content")
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, contentResponse{Content: h.gen.EmailNewsletter(r.Context(), content)})
}

// Podcast handles POST /api/v1/content/podcast.
func (h *ContentHandler) Podcast(w http.ResponseWriter, r *http.Request) {
	_, transcription, ok := decodeContent(w, r, "transcription")
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, contentResponse{Content: h.gen.PodcastShowNotes(r.Context(), transcription)})
}

// Templates handles GET /api/v1/templates. ?type=recommendations returns the
// most used templates; ?type=<kind> filters by template type.
func (h *ContentHandler) Templates(w http.ResponseWriter, r *http.Request) {
	catalog := h.gen.Catalog()
	kind := r.URL.Query().Get("type")
	if kind == "recommendations" {
		WriteJSON(w, http.StatusOK, catalog.Recommendations(recommendationCount))
		return
	}
	all := catalog.All()
	if kind == "" {
		WriteJSON(w, http.StatusOK, all)
		return
	}
	filtered := all[:0]
	for _, t := range all {
		if t.Type == kind {
			filtered = append(filtered, t)
		}
	}
	WriteJSON(w, http.StatusOK, filtered)
}
