// internal/domain/models/progress.go
package models

import "math"

// Progress summarises completion for a task or a group.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

// NewProgress builds a Progress from counts read at the same instant.
// Percentage is completed/total*100 rounded half up, and 0 when total is 0.
func NewProgress(total, completed int) Progress {
	p := Progress{Total: total, Completed: completed}
	if total > 0 {
		p.Percentage = int(math.Floor(float64(completed)*100/float64(total) + 0.5))
	}
	return p
}

// IndividualProgress is the binary progress of an INDIVIDUAL task.
func IndividualProgress(t Task) Progress {
	if t.Status == StatusCompleted {
		return NewProgress(1, 1)
	}
	return NewProgress(1, 0)
}
