package models

import "time"

// TaskStatus is the workflow state of a task. There is no transition graph;
// any status may follow any other.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether the status is a member of the fixed set.
// Matching is exact, never case-insensitive.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

func (s TaskStatus) String() string {
	return string(s)
}

// TaskPriority is the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether the priority is a member of the fixed set.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

func (p TaskPriority) String() string {
	return string(p)
}

// Task is a unit of work under a project. OwnerID always equals the owner of
// the parent project and is set server-side only.
type Task struct {
	ID        int64
	ProjectID int64
	OwnerID   string
	Title     string
	Status    TaskStatus
	Priority  TaskPriority
	Deadline  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MaxTaskTitleLength is the upper bound on task titles.
const MaxTaskTitleLength = 200
