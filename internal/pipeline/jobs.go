package pipeline

import (
	"sync"
	"time"
)

// JobStatus represents the state of an auto-recognition job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusLoading     JobStatus = "loading"
	StatusRecognizing JobStatus = "recognizing"
	StatusSaving      JobStatus = "saving"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
)

// Job tracks one auto-recognition run over a document.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors []string
}

// Progress tracks recognition progress.
type Progress struct {
	TotalWindows     int      `json:"total_windows"`
	WindowsProcessed int      `json:"windows_processed"`
	CandidatesFound  int      `json:"candidates_found"`
	Accepted         int      `json:"accepted"`
	Skipped          int      `json:"skipped"`
	Errors           []string `json:"errors"`
}

// NewJob creates a queued job.
func NewJob(id, docID string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		DocID:     docID,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalWindows records the window count.
func (j *Job) SetTotalWindows(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalWindows = n
	j.UpdatedAt = time.Now()
}

// IncrWindowsProcessed atomically increments processed windows.
func (j *Job) IncrWindowsProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.WindowsProcessed++
	j.UpdatedAt = time.Now()
}

// AddCandidates records found/accepted/skipped candidate counts.
func (j *Job) AddCandidates(found, accepted, skipped int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.CandidatesFound += found
	j.Progress.Accepted += accepted
	j.Progress.Skipped += skipped
	j.UpdatedAt = time.Now()
}

// HadErrors reports whether any window failed.
func (j *Job) HadErrors() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.errors) > 0
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	DocID    string    `json:"doc_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:     j.ID,
		DocID:  j.DocID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalWindows:     j.Progress.TotalWindows,
			WindowsProcessed: j.Progress.WindowsProcessed,
			CandidatesFound:  j.Progress.CandidatesFound,
			Accepted:         j.Progress.Accepted,
			Skipped:          j.Progress.Skipped,
			Errors:           errs,
		},
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
