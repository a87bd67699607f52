package model

import "time"

// Deliverable is the final document artifact produced once all steps of a
// task are completed. Immutable once created, at most one per task.
type Deliverable struct {
	ID        string
	TaskID    string
	OwnerID   string
	Title     string
	Content   string
	CreatedAt time.Time
}
