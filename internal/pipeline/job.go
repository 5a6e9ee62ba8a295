// Package pipeline runs uploads through fetch, transcription, generation and
// persistence on a bounded worker pool.
package pipeline

import (
	"sync"
	"time"

	"github.com/motionai/motion-engine/internal/language"
	"github.com/motionai/motion-engine/internal/transcribe"
)

// State is a job's position in the pipeline.
type State string

const (
	StateQueued       State = "queued"
	StateFetching     State = "fetching"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateSaving       State = "saving"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Job is one upload to turn into a post.
type Job struct {
	ID     string
	UserID string
	// Source is an http(s) URL or a media store key. Ignored when Media is set.
	Source         string
	Media          *transcribe.Media
	Filename       string
	TargetLanguage language.Code
	Template       string
	// Cleanup deletes Source from the media store once the job finishes.
	Cleanup bool
}

// Status is the externally visible state of a job.
type Status struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	State     State     `json:"state"`
	PostID    int64     `json:"post_id,omitempty"`
	Fallback  bool      `json:"fallback,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Publisher receives every status change.
type Publisher interface {
	PublishJob(Status)
}

const maxStatuses = 1000

// statusStore keeps the latest status per job, evicting the oldest jobs
// once maxStatuses is exceeded.
type statusStore struct {
	mu    sync.RWMutex
	m     map[string]Status
	order []string
	max   int
}

func newStatusStore(max int) *statusStore {
	return &statusStore{m: make(map[string]Status), max: max}
}

func (s *statusStore) set(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[st.ID]; !ok {
		s.order = append(s.order, st.ID)
		for len(s.order) > s.max {
			delete(s.m, s.order[0])
			s.order = s.order[1:]
		}
	}
	s.m[st.ID] = st
}

func (s *statusStore) get(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[id]
	return st, ok
}
