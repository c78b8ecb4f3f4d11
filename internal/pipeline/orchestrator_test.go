package pipeline

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/annolex/internal/config"
)

func testOrchestrator(queueSize int) *Orchestrator {
	cfg := config.Config{
		WorkerCount:            1,
		MaxQueueSize:           queueSize,
		MaxConcurrentRecognize: 1,
		JobTTL:                 time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrchestrator(cfg, nil, nil, nil, log)
}

func TestSubmitAfterStop_RejectsWithoutPanic(t *testing.T) {
	o := testOrchestrator(4)
	o.Stop()

	job := NewJob("late", "doc-1")
	if err := o.Submit(job); err == nil {
		t.Fatal("expected submit after stop to be rejected")
	}
	if job.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, job.Status)
	}
}

func TestStop_Idempotent(t *testing.T) {
	o := testOrchestrator(4)
	// A second Stop must not close the queue twice.
	o.Stop()
	o.Stop()
}

func TestSubmit_QueueFull(t *testing.T) {
	// Workers are not started, so the first job fills the queue.
	o := testOrchestrator(1)

	if err := o.Submit(NewJob("first", "doc-1")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	overflow := NewJob("second", "doc-1")
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected queue-full error")
	}
	if overflow.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, overflow.Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("queue depth = %d, want 1", o.QueueDepth())
	}
}
