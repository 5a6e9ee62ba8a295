package api

import (
	"context"

	"github.com/motionai/motion-engine/internal/database"
	"github.com/motionai/motion-engine/internal/generate"
	"github.com/motionai/motion-engine/internal/pipeline"
	"github.com/motionai/motion-engine/internal/templates"
	"github.com/motionai/motion-engine/internal/transcribe"
)

// The interfaces below are what handlers need from the rest of the engine.
// api owns them so collaborators can import api without a cycle.

// PostStore reads persisted posts and usage. *database.Handle implements it.
type PostStore interface {
	GetPost(ctx context.Context, userID string, id int64) (*database.Post, error)
	ListPostsByUser(ctx context.Context, userID string, limit, offset int) ([]database.Post, int, error)
	GetDailyUsage(ctx context.Context, userID string) (int, error)
}

// DatabaseChecker reports database health. *database.Handle implements it.
type DatabaseChecker interface {
	Configured() bool
	HealthCheck(ctx context.Context) error
}

// Transcriber runs the speech-to-text chain.
type Transcriber interface {
	Transcribe(ctx context.Context, media transcribe.Media) (*transcribe.Result, error)
}

// MediaFetcher resolves a URL or store key to media bytes.
type MediaFetcher interface {
	Fetch(ctx context.Context, ref string) (transcribe.Media, error)
}

// MediaStore holds uploads until the pipeline consumes them.
type MediaStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// PostCreator generates and persists a post. *pipeline.Runner implements it.
type PostCreator interface {
	CreatePost(ctx context.Context, req pipeline.PostRequest) (*database.Post, error)
}

// JobQueue accepts pipeline jobs. *pipeline.WorkerPool implements it.
type JobQueue interface {
	Submit(j pipeline.Job) (pipeline.Status, bool)
	Status(id string) (pipeline.Status, bool)
	Stats() pipeline.QueueStats
}

// ContentGenerator produces the auxiliary content formats.
// *generate.Service implements it.
type ContentGenerator interface {
	SEOSuggestions(ctx context.Context, content string) generate.SEO
	SocialPost(ctx context.Context, content string, platform generate.Platform) string
	EmailNewsletter(ctx context.Context, content string) string
	PodcastShowNotes(ctx context.Context, transcription string) string
	Catalog() *templates.Catalog
}

// BrokerStatus reports MQTT connectivity.
type BrokerStatus interface {
	IsConnected() bool
}

// WatcherSource reports on the watch-folder ingest.
type WatcherSource interface {
	Status() *WatcherStatusData
}

// WatcherStatusData represents the status of the watch-folder ingest.
type WatcherStatusData struct {
	Status         string `json:"status"` // "starting", "watching", "stopped"
	WatchDir       string `json:"watch_dir"`
	FilesProcessed int64  `json:"files_processed"`
	FilesSkipped   int64  `json:"files_skipped"`
}
