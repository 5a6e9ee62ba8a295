package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/database"
	"github.com/motionai/motion-engine/internal/generate"
	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/metrics"
	"github.com/motionai/motion-engine/internal/sanitize"
	"github.com/motionai/motion-engine/internal/transcribe"
)

type Fetcher interface {
	Fetch(ctx context.Context, ref string) (transcribe.Media, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, media transcribe.Media) (*transcribe.Result, error)
}

type Generator interface {
	Generate(ctx context.Context, gc generate.Context) generate.Result
}

// PostStore persists posts and usage. *database.Handle implements it.
type PostStore interface {
	RecentPostContent(ctx context.Context, userID string, limit int) (string, error)
	InsertPost(ctx context.Context, p *database.Post) error
	IncrementDailyUsage(ctx context.Context, userID string) (int, error)
}

// MediaRemover deletes consumed uploads. storage.MediaStore implements it.
type MediaRemover interface {
	Delete(ctx context.Context, key string) error
}

// RunnerOptions wires a Runner. Fetcher and Remover may be nil.
type RunnerOptions struct {
	Fetcher     Fetcher
	Transcriber Transcriber
	Generator   Generator
	Posts       PostStore
	Remover     MediaRemover
	Log         zerolog.Logger
}

// Runner executes one job end-to-end, sequentially.
type Runner struct {
	fetcher     Fetcher
	transcriber Transcriber
	generator   Generator
	posts       PostStore
	remover     MediaRemover
	log         zerolog.Logger
}

func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		fetcher:     opts.Fetcher,
		transcriber: opts.Transcriber,
		generator:   opts.Generator,
		posts:       opts.Posts,
		remover:     opts.Remover,
		log:         opts.Log.With().Str("component", "pipeline").Logger(),
	}
}

// PostRequest is a transcription ready to become a post.
type PostRequest struct {
	UserID         string
	Transcription  transcribe.Result
	TargetLanguage language.Code
	Template       string
}

// Run fetches, transcribes, generates and saves. progress is called before
// each stage.
func (r *Runner) Run(ctx context.Context, job Job, progress func(State)) (*database.Post, error) {
	if job.Cleanup && r.remover != nil && job.Media == nil {
		defer func() {
			if err := r.remover.Delete(context.WithoutCancel(ctx), job.Source); err != nil {
				r.log.Warn().Err(err).Str("key", job.Source).Msg("failed to delete consumed media")
			}
		}()
	}

	progress(StateFetching)
	var media transcribe.Media
	switch {
	case job.Media != nil:
		media = *job.Media
	case r.fetcher != nil:
		m, err := r.fetcher.Fetch(ctx, job.Source)
		if err != nil {
			return nil, fmt.Errorf("fetch media: %w", err)
		}
		media = m
	default:
		return nil, fmt.Errorf("fetch media: no fetcher configured")
	}
	if job.Filename != "" {
		media.Filename = sanitize.FileName(job.Filename)
	}

	progress(StateTranscribing)
	tr, err := r.transcriber.Transcribe(ctx, media)
	if err != nil {
		return nil, err
	}

	return r.createPost(ctx, PostRequest{
		UserID:         job.UserID,
		Transcription:  *tr,
		TargetLanguage: job.TargetLanguage,
		Template:       job.Template,
	}, progress)
}

// CreatePost generates a post from a transcription using the user's recent
// posts as style reference, persists it verbatim and counts daily usage.
func (r *Runner) CreatePost(ctx context.Context, req PostRequest) (*database.Post, error) {
	return r.createPost(ctx, req, func(State) {})
}

func (r *Runner) createPost(ctx context.Context, req PostRequest, progress func(State)) (*database.Post, error) {
	style, err := r.posts.RecentPostContent(ctx, req.UserID, database.StyleReferenceLimit)
	if err != nil {
		return nil, fmt.Errorf("load style reference: %w", err)
	}

	progress(StateGenerating)
	res := r.generator.Generate(ctx, generate.Context{
		Transcription:  req.Transcription.Text,
		StyleReference: style,
		TargetLanguage: req.TargetLanguage,
		SourceLanguage: req.Transcription.Language,
		Template:       req.Template,
	})

	progress(StateSaving)
	post := &database.Post{
		UserID:   req.UserID,
		Title:    res.Title,
		Content:  res.Text,
		Language: string(res.Language),
		Template: req.Template,
		Provider: res.Provider,
		Fallback: res.Fallback,
	}
	if err := r.posts.InsertPost(ctx, post); err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	metrics.PostsCreatedTotal.Inc()

	if _, err := r.posts.IncrementDailyUsage(ctx, req.UserID); err != nil {
		r.log.Warn().Err(err).Str("user_id", req.UserID).Int64("post_id", post.ID).Msg("failed to increment daily usage")
	}

	r.log.Info().
		Str("user_id", req.UserID).
		Int64("post_id", post.ID).
		Str("provider", res.Provider).
		Bool("fallback", res.Fallback).
		Str("language", post.Language).
		Msg("post created")
	return post, nil
}
