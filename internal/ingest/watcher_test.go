package ingest

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/pipeline"
)

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []pipeline.Job
	full bool
}

func (f *fakeSubmitter) Submit(j pipeline.Job) (pipeline.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return pipeline.Status{}, false
	}
	f.jobs = append(f.jobs, j)
	return pipeline.Status{ID: "job-1", State: pipeline.StateQueued}, true
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func newTestWatcher(t *testing.T, sub Submitter, maxBytes int64) (*FileWatcher, string) {
	t.Helper()
	dir := t.TempDir()
	fw := NewFileWatcher(Options{
		WatchDir:       dir,
		UserID:         "user_1",
		TargetLanguage: language.German,
		MaxBytes:       maxBytes,
		Submitter:      sub,
		Log:            zerolog.Nop(),
	})
	fw.delay = 20 * time.Millisecond
	return fw, dir
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestFileWatcher_SubmitsMediaFiles(t *testing.T) {
	sub := &fakeSubmitter{}
	fw, dir := newTestWatcher(t, sub, 1024)
	if err := fw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer fw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "episode.mp3"), []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return sub.count() == 1 })
	time.Sleep(50 * time.Millisecond) // let any stray events settle

	if n := sub.count(); n != 1 {
		t.Fatalf("submitted %d jobs, want 1", n)
	}
	j := sub.jobs[0]
	if j.UserID != "user_1" || j.TargetLanguage != language.German {
		t.Errorf("job = %+v", j)
	}
	if j.Media == nil || string(j.Media.Data) != "ID3" || j.Media.ContentType != "audio/mpeg" {
		t.Errorf("media = %+v", j.Media)
	}
	if st := fw.Status(); st.FilesProcessed != 1 || st.Status != "watching" {
		t.Errorf("status = %+v", st)
	}
}

func TestFileWatcher_SkipsOversizeAndFullQueue(t *testing.T) {
	tests := []struct {
		name string
		sub  *fakeSubmitter
		data []byte
	}{
		{"oversize", &fakeSubmitter{}, make([]byte, 64)},
		{"queue_full", &fakeSubmitter{full: true}, []byte("ok")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw, dir := newTestWatcher(t, tt.sub, 32)
			if err := fw.Start(); err != nil {
				t.Fatalf("Start: %v", err)
			}
			defer fw.Stop()

			if err := os.WriteFile(filepath.Join(dir, "clip.wav"), tt.data, 0o644); err != nil {
				t.Fatal(err)
			}
			waitFor(t, func() bool { return fw.Status().FilesSkipped == 1 })
			if tt.sub.count() != 0 {
				t.Errorf("submitted %d jobs, want 0", tt.sub.count())
			}
		})
	}
}

func TestFileWatcher_StartMissingDir(t *testing.T) {
	fw := NewFileWatcher(Options{WatchDir: filepath.Join(t.TempDir(), "missing"), Log: zerolog.Nop()})
	if err := fw.Start(); err == nil {
		t.Error("expected error for missing directory")
	}
}
