package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/deckedit/internal/config"
	"github.com/dgallion1/deckedit/internal/deck"
	"github.com/dgallion1/deckedit/internal/edit"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Translator turns an instruction into a command against the given slides.
type Translator interface {
	Translate(ctx context.Context, instruction string, slides []deck.SlideText) (edit.Command, error)
}

// Orchestrator runs natural-language instruction jobs on a worker pool.
type Orchestrator struct {
	jobs       *JobStore
	queue      chan *Job
	translator Translator
	editor     *Editor
	retry      RetryPolicy
	log        *slog.Logger
	cfg        config.Config

	mu      sync.RWMutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, tr Translator, ed *Editor, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		jobs:       NewJobStore(cfg.JobTTL),
		queue:      make(chan *Job, max(cfg.MaxQueueSize, 1)),
		translator: tr,
		editor:     ed,
		retry:      DefaultRetry,
		log:        log,
		cfg:        cfg,
	}
}

// WithRetry replaces the translation retry policy. Call before Start.
func (o *Orchestrator) WithRetry(p RetryPolicy) *Orchestrator {
	o.retry = p
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.translator, o.editor, o.retry, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop cancels in-flight jobs and waits for the workers to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit creates and queues a job for deckID.
func (o *Orchestrator) Submit(deckID, instruction string) (*Job, error) {
	if _, err := o.editor.Path(deckID); err != nil {
		return nil, err
	}
	job := NewJob(uuid.NewString(), deckID, instruction)

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return nil, ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Info("job queued", "job_id", job.ID, "deck_id", deckID)
		return job, nil
	default:
		job.Finish(nil, fmt.Errorf("job queue is full (%d)", cap(o.queue)))
		return job, fmt.Errorf("job queue is full (%d)", cap(o.queue))
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
