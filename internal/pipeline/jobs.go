package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/deckedit/internal/edit"
)

// JobStatus represents the state of an instruction job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusTranslating JobStatus = "translating"
	StatusApplying    JobStatus = "applying"
	StatusCompleted   JobStatus = "completed"
	StatusNoMatch     JobStatus = "no_match"
	StatusFailed      JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusNoMatch || s == StatusFailed
}

// Job tracks one natural-language instruction against one deck.
type Job struct {
	mu sync.Mutex

	ID          string
	DeckID      string
	Instruction string

	Status   JobStatus
	Phase    string
	Attempts int
	Command  *edit.Command
	Result   *edit.Result
	Error    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJob returns a queued job.
func NewJob(id, deckID, instruction string) *Job {
	now := time.Now()
	return &Job{
		ID:          id,
		DeckID:      deckID,
		Instruction: instruction,
		Status:      StatusQueued,
		Phase:       "queued",
		CreatedAt:   now,
		UpdatedAt:   now,
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

// IncrAttempts counts one translation attempt.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.UpdatedAt = time.Now()
}

// SetCommand records the translated command.
func (j *Job) SetCommand(cmd edit.Command) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Command = &cmd
	j.UpdatedAt = time.Now()
}

// Finish records the outcome and moves the job to a terminal state.
func (j *Job) Finish(res *edit.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Result = res
	switch {
	case err != nil:
		j.Status = StatusFailed
		j.Error = err.Error()
	case res != nil && !res.Matched:
		j.Status = StatusNoMatch
	default:
		j.Status = StatusCompleted
	}
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string        `json:"job_id"`
	DeckID      string        `json:"deck_id"`
	Instruction string        `json:"instruction"`
	Status      JobStatus     `json:"status"`
	Phase       string        `json:"phase"`
	Attempts    int           `json:"attempts"`
	Command     *edit.Command `json:"command,omitempty"`
	Result      *edit.Result  `json:"result,omitempty"`
	Warning     string        `json:"warning,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:          j.ID,
		DeckID:      j.DeckID,
		Instruction: j.Instruction,
		Status:      j.Status,
		Phase:       j.Phase,
		Attempts:    j.Attempts,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
	if j.Command != nil {
		cmd := *j.Command
		snap.Command = &cmd
	}
	if j.Result != nil {
		res := *j.Result
		snap.Result = &res
	}
	if j.Status == StatusNoMatch {
		snap.Warning = "no text matched; the deck was not changed"
	}
	return snap
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

// Cleanup removes finished jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
