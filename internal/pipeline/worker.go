package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/annolex/internal/engine"
	"github.com/dgallion1/annolex/internal/recognize"
	"github.com/dgallion1/annolex/internal/store"
	"github.com/dgallion1/annolex/internal/window"
)

// Worker processes a single recognition job.
type Worker struct {
	recognizer *recognize.Client
	stats      *recognize.Stats
	engine     *engine.Engine
	store      *store.Store
	log        *slog.Logger
	windowCfg  window.Config

	maxConcurrentRecognize int
}

func NewWorker(rec *recognize.Client, stats *recognize.Stats, eng *engine.Engine, st *store.Store, log *slog.Logger, windowCfg window.Config, maxRecognize int) *Worker {
	return &Worker{
		recognizer:             rec,
		stats:                  stats,
		engine:                 eng,
		store:                  st,
		log:                    log,
		windowCfg:              windowCfg,
		maxConcurrentRecognize: maxRecognize,
	}
}

// Process runs the full recognition pipeline for a job: load the
// document session, window its text, recognize entities per window
// with bounded concurrency, then apply every anchored candidate as
// one batch. The overlay re-renders once at the end, never per
// candidate.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	session, err := w.engine.Session(ctx, job.DocID)
	if err != nil {
		log.Error("load session failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "loading")
		return
	}

	types, err := w.store.ListEntityTypes(ctx)
	if err != nil {
		log.Error("list entity types failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "loading")
		return
	}
	if len(types) == 0 {
		job.AddError("no entity types configured")
		job.SetStatus(StatusFailed, "loading")
		return
	}
	knownTypes := make(map[string]bool, len(types))
	for _, t := range types {
		knownTypes[t.Name] = true
	}

	doc := session.Doc()
	windows := window.Split(doc.Text, w.windowCfg)
	job.SetTotalWindows(len(windows))
	log.Info("windowed document", "windows", len(windows))

	if len(windows) == 0 {
		job.AddError("document has no recognizable text")
		job.SetStatus(StatusFailed, "windowing")
		return
	}

	// Phase 2: Recognize with bounded concurrency.
	job.SetStatus(StatusRecognizing, "recognizing")
	type windowResult struct {
		candidates []engine.Candidate
		err        error
		idx        int
	}
	results := make(chan windowResult, len(windows))
	sem := make(chan struct{}, w.maxConcurrentRecognize)

	for i, win := range windows {
		sem <- struct{}{}
		go func(i int, win window.Window) {
			defer func() { <-sem }()
			prompt := recognize.BuildWindowPrompt(doc.Title, types, win.Text)
			var entities []recognize.Entity
			var lastErr error
			for attempt := 0; attempt < MaxRetries; attempt++ {
				started := time.Now()
				entities, lastErr = w.recognizer.Recognize(ctx, prompt)
				w.stats.Record(time.Since(started).Milliseconds())
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable recognition error", "window", i, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- windowResult{err: ctx.Err(), idx: i}
					return
				}
			}
			if lastErr != nil {
				results <- windowResult{err: lastErr, idx: i}
				return
			}
			results <- windowResult{
				candidates: recognize.Anchor(win.Text, win.Start, entities, knownTypes),
				idx:        i,
			}
		}(i, win)
	}

	// Collect in window order so the candidate batch is deterministic
	// regardless of which recognition call finishes first.
	collected := make([][]engine.Candidate, len(windows))
	for range windows {
		r := <-results
		if r.err != nil {
			job.AddError(fmt.Sprintf("window %d: %s", r.idx, r.err))
		} else {
			collected[r.idx] = r.candidates
		}
		job.IncrWindowsProcessed()
	}

	var candidates []engine.Candidate
	for _, c := range collected {
		candidates = append(candidates, c...)
	}

	// Phase 3: Save as one batch, one render.
	job.SetStatus(StatusSaving, "saving")
	accepted, skipped, err := session.CreateBatch(ctx, candidates)
	if err != nil {
		log.Error("batch save failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "saving")
		return
	}
	job.AddCandidates(len(candidates), len(accepted), len(skipped))

	log.Info("recognition complete",
		"candidates", len(candidates), "accepted", len(accepted), "skipped", len(skipped))

	if job.HadErrors() {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}
