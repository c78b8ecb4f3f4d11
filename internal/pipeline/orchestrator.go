package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/annolex/internal/config"
	"github.com/dgallion1/annolex/internal/engine"
	"github.com/dgallion1/annolex/internal/recognize"
	"github.com/dgallion1/annolex/internal/store"
	"github.com/dgallion1/annolex/internal/window"
)

// Orchestrator manages the auto-recognition pipeline.
type Orchestrator struct {
	jobs       *JobStore
	queue      chan *Job
	recognizer *recognize.Client
	stats      *recognize.Stats
	engine     *engine.Engine
	store      *store.Store
	log        *slog.Logger
	cfg        config.Config
	windowCfg  window.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(cfg config.Config, rec *recognize.Client, eng *engine.Engine, st *store.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:       NewJobStore(cfg.JobTTL),
		queue:      make(chan *Job, cfg.MaxQueueSize),
		recognizer: rec,
		stats:      recognize.NewStats(time.Hour),
		engine:     eng,
		store:      st,
		log:        log,
		cfg:        cfg,
		windowCfg:  window.Config{WindowSize: cfg.WindowSize},
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.recognizer, o.stats, o.engine, o.store, o.log, o.windowCfg, o.cfg.MaxConcurrentRecognize)
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

// Stop gracefully shuts down the pipeline. Safe to call once; any
// Submit after Stop is rejected instead of reaching the closed queue.
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

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		job.SetStatus(StatusFailed, "shutting_down")
		return fmt.Errorf("pipeline is shutting down")
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
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

// Stats returns the recognizer latency tracker.
func (o *Orchestrator) Stats() *recognize.Stats {
	return o.stats
}
