package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/database"
)

type fakeProcessor struct {
	err   error
	block chan struct{} // if non-nil, Run waits on it
}

func (f *fakeProcessor) Run(ctx context.Context, job Job, progress func(State)) (*database.Post, error) {
	if f.block != nil {
		<-f.block
	}
	progress(StateFetching)
	progress(StateTranscribing)
	if f.err != nil {
		return nil, f.err
	}
	progress(StateGenerating)
	progress(StateSaving)
	return &database.Post{ID: 42, Fallback: true}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	states []State
}

func (p *recordingPublisher) PublishJob(st Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, st.State)
}

func (p *recordingPublisher) snapshot() []State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]State(nil), p.states...)
}

func newTestPool(proc Processor, workers, queueSize int) *WorkerPool {
	return NewWorkerPool(WorkerPoolOptions{
		Processor: proc,
		Workers:   workers,
		QueueSize: queueSize,
		Log:       zerolog.Nop(),
	})
}

func waitForState(t *testing.T, wp *WorkerPool, id string) Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := wp.Status(id); ok && st.State.Terminal() {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return Status{}
}

func TestNewWorkerPool(t *testing.T) {
	wp := newTestPool(&fakeProcessor{}, 4, 100)
	if wp == nil {
		t.Fatal("NewWorkerPool returned nil")
	}
	if cap(wp.jobs) != 100 {
		t.Errorf("queue capacity = %d, want 100", cap(wp.jobs))
	}
}

func TestWorkerPool_SubmitBeforeStart(t *testing.T) {
	wp := newTestPool(&fakeProcessor{}, 2, 5)
	// Submit should work even before Start(); it just buffers
	st, ok := wp.Submit(Job{UserID: "u1"})
	if !ok {
		t.Fatal("Submit should return true when queue has space")
	}
	if st.ID == "" || st.State != StateQueued {
		t.Errorf("status = %+v", st)
	}
	if got, ok := wp.Status(st.ID); !ok || got.State != StateQueued {
		t.Errorf("Status(%s) = %+v, %v", st.ID, got, ok)
	}
}

func TestWorkerPool_SubmitFull(t *testing.T) {
	wp := newTestPool(&fakeProcessor{}, 0, 2) // 0 workers = nobody draining

	wp.Submit(Job{ID: "a"})
	wp.Submit(Job{ID: "b"})

	if _, ok := wp.Submit(Job{ID: "c"}); ok {
		t.Error("Submit should return false when queue is full")
	}
	if _, ok := wp.Status("c"); ok {
		t.Error("rejected job should not have a status")
	}
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	wp := newTestPool(&fakeProcessor{}, 1, 10)
	wp.Start()
	wp.Stop()

	if _, ok := wp.Submit(Job{ID: "a"}); ok {
		t.Error("Submit should return false after Stop()")
	}
	wp.Stop() // second Stop is a no-op
}

func TestWorkerPool_Stats(t *testing.T) {
	wp := newTestPool(&fakeProcessor{}, 0, 10) // 0 workers so nothing drains

	wp.Submit(Job{ID: "a"})
	wp.Submit(Job{ID: "b"})

	stats := wp.Stats()
	if stats.Pending != 2 || wp.Pending() != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Completed != 0 || stats.Failed != 0 {
		t.Errorf("Completed/Failed = %d/%d, want 0/0", stats.Completed, stats.Failed)
	}
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantState  State
		wantStates []State
	}{
		{
			name:      "success",
			wantState: StateDone,
			wantStates: []State{StateQueued, StateFetching, StateTranscribing,
				StateGenerating, StateSaving, StateDone},
		},
		{
			name:       "failure",
			err:        errors.New("transcribe: all providers failed"),
			wantState:  StateFailed,
			wantStates: []State{StateQueued, StateFetching, StateTranscribing, StateFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			wp := NewWorkerPool(WorkerPoolOptions{
				Processor: &fakeProcessor{err: tt.err},
				Workers:   1,
				QueueSize: 4,
				Publisher: pub,
				Log:       zerolog.Nop(),
			})
			wp.Start()
			defer wp.Stop()

			st, ok := wp.Submit(Job{UserID: "u1", Source: "https://example.com/a.mp3"})
			if !ok {
				t.Fatal("Submit rejected")
			}
			final := waitForState(t, wp, st.ID)
			if final.State != tt.wantState {
				t.Errorf("state = %s, want %s", final.State, tt.wantState)
			}
			if tt.err != nil && final.Error != tt.err.Error() {
				t.Errorf("error = %q", final.Error)
			}
			if tt.err == nil && (final.PostID != 42 || !final.Fallback) {
				t.Errorf("final = %+v", final)
			}

			got := pub.snapshot()
			if len(got) != len(tt.wantStates) {
				t.Fatalf("published %v, want %v", got, tt.wantStates)
			}
			for i := range got {
				if got[i] != tt.wantStates[i] {
					t.Errorf("published[%d] = %s, want %s", i, got[i], tt.wantStates[i])
				}
			}
		})
	}
}

func TestWorkerPool_StopDrainsQueue(t *testing.T) {
	block := make(chan struct{})
	wp := newTestPool(&fakeProcessor{block: block}, 1, 10)
	wp.Start()

	var ids []string
	for i := 0; i < 3; i++ {
		st, _ := wp.Submit(Job{UserID: "u1"})
		ids = append(ids, st.ID)
	}
	close(block)
	wp.Stop()

	for _, id := range ids {
		if st, _ := wp.Status(id); st.State != StateDone {
			t.Errorf("job %s state = %s after Stop, want done", id, st.State)
		}
	}
	if got := wp.Stats().Completed; got != 3 {
		t.Errorf("Completed = %d, want 3", got)
	}
}

func TestStatusStore_Evicts(t *testing.T) {
	s := newStatusStore(2)
	s.set(Status{ID: "a"})
	s.set(Status{ID: "b"})
	s.set(Status{ID: "a", State: StateDone}) // update, not a new entry
	s.set(Status{ID: "c"})

	if _, ok := s.get("a"); ok {
		t.Error("oldest entry should be evicted")
	}
	for _, id := range []string{"b", "c"} {
		if _, ok := s.get(id); !ok {
			t.Errorf("%s missing", id)
		}
	}
}
