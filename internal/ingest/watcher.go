package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/api"
	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/pipeline"
	"github.com/motionai/motion-engine/internal/storage"
	"github.com/motionai/motion-engine/internal/transcribe"
)

const debounceDelay = 500 * time.Millisecond

// Submitter accepts pipeline jobs. *pipeline.WorkerPool implements it.
type Submitter interface {
	Submit(j pipeline.Job) (pipeline.Status, bool)
}

// Options configures a FileWatcher.
type Options struct {
	WatchDir       string
	UserID         string
	TargetLanguage language.Code
	Template       string
	MaxBytes       int64
	Submitter      Submitter
	Log            zerolog.Logger
}

// FileWatcher monitors a drop folder for new audio and video files and
// submits each one as a pipeline job for a fixed user.
type FileWatcher struct {
	opts Options
	log  zerolog.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	// Debounce: coalesce rapid Create+Write events on the same file.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer
	delay          time.Duration

	// Stats
	filesProcessed atomic.Int64
	filesSkipped   atomic.Int64
	status         atomic.Value // string: "starting", "watching", "stopped"
}

func NewFileWatcher(opts Options) *FileWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		opts:           opts,
		log:            opts.Log.With().Str("component", "watcher").Logger(),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
		delay:          debounceDelay,
	}
	fw.status.Store("starting")
	return fw
}

// Start begins watching the drop folder. Files already present are ignored.
func (fw *FileWatcher) Start() error {
	info, err := os.Stat(fw.opts.WatchDir)
	if err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch dir %s is not a directory", fw.opts.WatchDir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(fw.opts.WatchDir); err != nil {
		w.Close()
		return err
	}
	fw.watcher = w

	fw.log.Info().
		Str("watch_dir", fw.opts.WatchDir).
		Str("user_id", fw.opts.UserID).
		Msg("file watcher initialized")

	fw.status.Store("watching")
	go fw.watchLoop()
	return nil
}

// Stop closes the fsnotify watcher and cancels pending debounced files.
func (fw *FileWatcher) Stop() {
	fw.status.Store("stopped")
	fw.cancel()
	if fw.watcher != nil {
		fw.watcher.Close()
		<-fw.done
	}

	fw.debounceMu.Lock()
	for path, t := range fw.debounceTimers {
		t.Stop()
		delete(fw.debounceTimers, path)
	}
	fw.debounceMu.Unlock()

	fw.log.Info().
		Int64("files_processed", fw.filesProcessed.Load()).
		Int64("files_skipped", fw.filesSkipped.Load()).
		Msg("file watcher stopped")
}

// Status returns the current watcher status for the health endpoint.
func (fw *FileWatcher) Status() *api.WatcherStatusData {
	s, _ := fw.status.Load().(string)
	return &api.WatcherStatusData{
		Status:         s,
		WatchDir:       fw.opts.WatchDir,
		FilesProcessed: fw.filesProcessed.Load(),
		FilesSkipped:   fw.filesSkipped.Load(),
	}
}

// watchLoop is the main event loop that processes fsnotify events.
func (fw *FileWatcher) watchLoop() {
	defer close(fw.done)
	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !storage.IsMedia(name) {
				continue
			}
			fw.scheduleProcess(event.Name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleProcess debounces file processing. This coalesces rapid
// Create+Write events and ensures the file is fully written before reading.
func (fw *FileWatcher) scheduleProcess(path string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if t, ok := fw.debounceTimers[path]; ok {
		t.Reset(fw.delay)
		return
	}

	fw.debounceTimers[path] = time.AfterFunc(fw.delay, func() {
		fw.debounceMu.Lock()
		delete(fw.debounceTimers, path)
		fw.debounceMu.Unlock()

		if fw.ctx.Err() != nil {
			return
		}
		fw.processFile(path)
	})
}

// processFile reads a media file and submits it as a job.
func (fw *FileWatcher) processFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		fw.log.Warn().Err(err).Str("path", path).Msg("failed to stat media file")
		return
	}
	if fw.opts.MaxBytes > 0 && info.Size() > fw.opts.MaxBytes {
		fw.filesSkipped.Add(1)
		fw.log.Warn().Str("path", path).Int64("bytes", info.Size()).Msg("media file exceeds size limit, skipping")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fw.log.Warn().Err(err).Str("path", path).Msg("failed to read media file")
		return
	}

	name := filepath.Base(path)
	st, ok := fw.opts.Submitter.Submit(pipeline.Job{
		UserID: fw.opts.UserID,
		Media: &transcribe.Media{
			Data:        data,
			Filename:    name,
			ContentType: storage.ContentTypeFor(name),
		},
		Filename:       name,
		TargetLanguage: fw.opts.TargetLanguage,
		Template:       fw.opts.Template,
	})
	if !ok {
		fw.filesSkipped.Add(1)
		fw.log.Warn().Str("path", path).Msg("job queue full, skipping media file")
		return
	}

	fw.filesProcessed.Add(1)
	fw.log.Info().Str("path", path).Str("job_id", st.ID).Msg("media file submitted")
}
