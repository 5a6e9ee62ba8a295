package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/motionai/motion-engine/internal/database"
	"github.com/motionai/motion-engine/internal/metrics"
)

// Processor runs a single job. *Runner implements it.
type Processor interface {
	Run(ctx context.Context, job Job, progress func(State)) (*database.Post, error)
}

// QueueStats reports the current state of the job queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Workers   int   `json:"workers"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// WorkerPoolOptions configures the worker pool.
type WorkerPoolOptions struct {
	Processor  Processor
	Workers    int
	QueueSize  int
	JobTimeout time.Duration // 0 = no per-job deadline
	Publisher  Publisher     // optional
	Log        zerolog.Logger
	Now        func() time.Time
}

// WorkerPool manages pipeline workers.
type WorkerPool struct {
	jobs     chan Job
	statuses *statusStore
	opts     WorkerPoolOptions
	log      zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.RWMutex
	stopped  bool
	submitMu sync.Mutex // serializes the capacity check and send

	completed atomic.Int64
	failed    atomic.Int64
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(opts WorkerPoolOptions) *WorkerPool {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobs:     make(chan Job, opts.QueueSize),
		statuses: newStatusStore(maxStatuses),
		opts:     opts,
		log:      opts.Log.With().Str("component", "worker-pool").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.opts.Workers).Int("queue_size", wp.opts.QueueSize).Msg("worker pool started")
}

// Stop rejects new jobs, drains the queue and waits for workers to finish.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.cancel()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("worker pool stopped")
}

// Submit queues a job, assigning an ID if it has none. Returns false if the
// queue is full or the pool is stopped.
func (wp *WorkerPool) Submit(j Job) (Status, bool) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return Status{}, false
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}

	wp.submitMu.Lock()
	defer wp.submitMu.Unlock()
	if len(wp.jobs) >= cap(wp.jobs) {
		return Status{}, false
	}

	// Record and publish before the send so "queued" always precedes worker updates.
	st := Status{ID: j.ID, UserID: j.UserID, State: StateQueued, UpdatedAt: wp.opts.Now()}
	wp.statuses.set(st)
	wp.publish(st)
	wp.jobs <- j
	return st, true
}

// Status returns the latest status of a job.
func (wp *WorkerPool) Status(id string) (Status, bool) {
	return wp.statuses.get(id)
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(wp.jobs),
		Workers:   wp.opts.Workers,
		Completed: wp.completed.Load(),
		Failed:    wp.failed.Load(),
	}
}

// Pending returns the number of queued jobs not yet picked up.
func (wp *WorkerPool) Pending() int { return len(wp.jobs) }

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.opts.Workers }

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for job := range wp.jobs {
		wp.processJob(log, job)
	}
}

func (wp *WorkerPool) processJob(log zerolog.Logger, job Job) {
	start := wp.opts.Now()
	ctx := wp.ctx
	if wp.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wp.opts.JobTimeout)
		defer cancel()
	}

	st := Status{ID: job.ID, UserID: job.UserID}
	post, err := wp.opts.Processor.Run(ctx, job, func(s State) {
		st.State = s
		wp.update(st)
	})

	if err != nil {
		wp.failed.Add(1)
		st.State = StateFailed
		st.Error = err.Error()
		log.Warn().Err(err).
			Str("job_id", job.ID).
			Str("user_id", job.UserID).
			Msg("job failed")
	} else {
		wp.completed.Add(1)
		st.State = StateDone
		st.PostID = post.ID
		st.Fallback = post.Fallback
		log.Info().
			Str("job_id", job.ID).
			Int64("post_id", post.ID).
			Int64("duration_ms", wp.opts.Now().Sub(start).Milliseconds()).
			Msg("job complete")
	}
	metrics.JobsTotal.WithLabelValues(string(st.State)).Inc()
	wp.update(st)
}

func (wp *WorkerPool) update(st Status) {
	st.UpdatedAt = wp.opts.Now()
	wp.statuses.set(st)
	wp.publish(st)
	wp.log.Debug().Str("job_id", st.ID).Str("state", string(st.State)).Msg("job state")
}

func (wp *WorkerPool) publish(st Status) {
	if wp.opts.Publisher != nil {
		wp.opts.Publisher.PublishJob(st)
	}
}
