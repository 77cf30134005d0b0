// Package runner converts the jobs of a queue.Queue one at a time on a
// single worker goroutine that can be paused, resumed and stopped between
// jobs.
package runner
