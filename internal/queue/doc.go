// Package queue manages the ordered list of conversion jobs.
// It enforces unique source paths, supports user reordering and removal,
// and records status transitions made by the runner.
package queue
