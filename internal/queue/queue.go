package queue

import (
	"errors"
	"slices"
	"sync"
)

// ErrNotFound is returned when a job is addressed by a path that is not queued.
var ErrNotFound = errors.New("job not found")

// Queue is an ordered, duplicate-free sequence of jobs. It is safe for
// concurrent use by the UI and the runner.
type Queue struct {
	mu   sync.RWMutex
	jobs []Job

	onChange func()
}

// New creates a queue holding jobs in the given order. Jobs whose source
// path is already present are dropped.
func New(jobs ...Job) *Queue {
	q := &Queue{}
	for _, j := range jobs {
		q.add(j)
	}
	return q
}

// OnChange registers fn to be called after every mutation. fn runs without
// the queue lock held.
func (q *Queue) OnChange(fn func()) {
	q.mu.Lock()
	q.onChange = fn
	q.mu.Unlock()
}

func (q *Queue) changed() {
	q.mu.RLock()
	fn := q.onChange
	q.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Add appends job unless a job with the same source path exists. It
// reports whether the job was added.
func (q *Queue) Add(job Job) bool {
	q.mu.Lock()
	ok := q.add(job)
	q.mu.Unlock()
	if ok {
		q.changed()
	}
	return ok
}

// AddPath appends a pending job for path.
func (q *Queue) AddPath(path string) bool {
	return q.Add(NewJob(path))
}

func (q *Queue) add(job Job) bool {
	if job.SourcePath == "" || q.indexOf(job.SourcePath) >= 0 {
		return false
	}
	if job.DisplayName == "" {
		job.DisplayName = NewJob(job.SourcePath).DisplayName
	}
	q.jobs = append(q.jobs, job)
	return true
}

// Remove deletes the jobs at the given indices. Out of range and repeated
// indices are ignored. It returns the number of jobs removed.
func (q *Queue) Remove(indices ...int) int {
	q.mu.Lock()
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(q.jobs) {
			drop[i] = struct{}{}
		}
	}
	if len(drop) == 0 {
		q.mu.Unlock()
		return 0
	}
	kept := q.jobs[:0:0]
	for i, j := range q.jobs {
		if _, ok := drop[i]; !ok {
			kept = append(kept, j)
		}
	}
	q.jobs = kept
	q.mu.Unlock()
	q.changed()
	return len(drop)
}

// Move shifts the job at index by delta positions. It is a
// no-op returning false when either position is outside the queue.
func (q *Queue) Move(index, delta int) bool {
	q.mu.Lock()
	target := index + delta
	if delta == 0 || index < 0 || index >= len(q.jobs) || target < 0 || target >= len(q.jobs) {
		q.mu.Unlock()
		return false
	}
	job := q.jobs[index]
	q.jobs = slices.Delete(q.jobs, index, index+1)
	q.jobs = slices.Insert(q.jobs, target, job)
	q.mu.Unlock()
	q.changed()
	return true
}

// Snapshot returns a copy of the queued jobs in display order.
func (q *Queue) Snapshot() []Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.Clone(q.jobs)
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.jobs)
}

// Get returns the job at index.
func (q *Queue) Get(index int) (Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if index < 0 || index >= len(q.jobs) {
		return Job{}, false
	}
	return q.jobs[index], true
}

// IndexOf returns the position of the job with the given source path, or
// -1 when it is not queued.
func (q *Queue) IndexOf(path string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.indexOf(path)
}

func (q *Queue) indexOf(path string) int {
	return slices.IndexFunc(q.jobs, func(j Job) bool { return j.SourcePath == path })
}

// Lookup returns the job with the given source path.
func (q *Queue) Lookup(path string) (Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	i := q.indexOf(path)
	if i < 0 {
		return Job{}, false
	}
	return q.jobs[i], true
}

// SetStatus records a status transition for the job at path. reason is
// stored for StatusError and cleared otherwise.
func (q *Queue) SetStatus(path string, status Status, reason string) error {
	return q.update(path, func(j *Job) {
		j.Status = status
		j.Error = ""
		if status == StatusError {
			j.Error = reason
		}
	})
}

// SetOutput records the audio file produced for the job at path.
func (q *Queue) SetOutput(path, output string) error {
	return q.update(path, func(j *Job) { j.OutputPath = output })
}

func (q *Queue) update(path string, fn func(*Job)) error {
	q.mu.Lock()
	i := q.indexOf(path)
	if i < 0 {
		q.mu.Unlock()
		return ErrNotFound
	}
	fn(&q.jobs[i])
	q.mu.Unlock()
	q.changed()
	return nil
}

// Replace swaps the queue contents for jobs, dropping duplicates.
func (q *Queue) Replace(jobs []Job) {
	q.mu.Lock()
	q.jobs = nil
	for _, j := range jobs {
		q.add(j)
	}
	q.mu.Unlock()
	q.changed()
}

// Reset returns every finished or failed job to pending so it is picked up
// by the next run. It returns the number of jobs reset.
func (q *Queue) Reset() int {
	q.mu.Lock()
	n := 0
	for i := range q.jobs {
		if q.jobs[i].Status != StatusPending {
			q.jobs[i].Status = StatusPending
			q.jobs[i].Error = ""
			n++
		}
	}
	q.mu.Unlock()
	if n > 0 {
		q.changed()
	}
	return n
}

// Clear removes every job.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.jobs = nil
	q.mu.Unlock()
	q.changed()
}

// Counts tallies the queued jobs per status.
func (q *Queue) Counts() map[Status]int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	counts := make(map[Status]int, 4)
	for _, j := range q.jobs {
		counts[j.Status]++
	}
	return counts
}
