package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/database"
	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/pipeline"
	"github.com/motionai/motion-engine/internal/sanitize"
	"github.com/motionai/motion-engine/internal/transcribe"
)

type PostsHandler struct {
	posts   PostStore
	creator PostCreator
	log     zerolog.Logger
}

func NewPostsHandler(posts PostStore, creator PostCreator, log zerolog.Logger) *PostsHandler {
	return &PostsHandler{
		posts:   posts,
		creator: creator,
		log:     log.With().Str("handler", "posts").Logger(),
	}
}

// Routes registers read-only post endpoints. Create is mounted separately
// behind the rate limiter.
func (h *PostsHandler) Routes(r chi.Router) {
	r.Get("/posts", h.List)
	r.Get("/posts/{id}", h.Get)
}

type createPostRequest struct {
	Transcription struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	} `json:"transcription"`
	TargetLanguage string `json:"target_language"`
	Template       string `json:"template"`
}

type createPostResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Fallback bool   `json:"fallback"`
}

// parseTarget validates an optional target language. Empty means English.
func parseTarget(tag string) (language.Code, bool) {
	if strings.TrimSpace(tag) == "" {
		return language.English, true
	}
	return language.Normalize(tag)
}

// Create handles POST /api/v1/posts.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	text := strings.TrimSpace(req.Transcription.Text)
	if text == "" {
		WriteError(w, http.StatusBadRequest, "transcription text is required")
		return
	}
	target, ok := parseTarget(req.TargetLanguage)
	if !ok {
		WriteError(w, http.StatusBadRequest, "unsupported target_language "+req.TargetLanguage)
		return
	}
	source, ok := language.Normalize(req.Transcription.Language)
	if !ok {
		source = language.Detect(text)
	}

	post, err := h.creator.CreatePost(r.Context(), pipeline.PostRequest{
		UserID:         UserFromContext(r.Context()),
		Transcription:  transcribe.Result{Text: text, Language: source},
		TargetLanguage: target,
		Template:       sanitize.Input(req.Template),
	})
	if err != nil {
		writeStoreError(w, r, err, "failed to save post")
		return
	}
	WriteJSON(w, http.StatusCreated, createPostResponse{
		ID:       post.ID,
		Title:    post.Title,
		Language: post.Language,
		Fallback: post.Fallback,
	})
}

type listPostsResponse struct {
	Posts  []database.Post `json:"posts"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// List handles GET /api/v1/posts.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	posts, total, err := h.posts.ListPostsByUser(r.Context(), UserFromContext(r.Context()), p.Limit, p.Offset)
	if err != nil {
		writeStoreError(w, r, err, "failed to list posts")
		return
	}
	if posts == nil {
		posts = []database.Post{}
	}
	WriteJSON(w, http.StatusOK, listPostsResponse{Posts: posts, Total: total, Limit: p.Limit, Offset: p.Offset})
}

// Get handles GET /api/v1/posts/{id}.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	post, err := h.posts.GetPost(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeStoreError(w, r, err, "failed to load post")
		return
	}
	WriteJSON(w, http.StatusOK, post)
}
