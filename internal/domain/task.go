package domain

import (
	"context"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for sorting: high > medium > low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Valid reports whether p is one of the known priority values.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type TaskStatus string

const (
	StatusActive    TaskStatus = "active"
	StatusCompleted TaskStatus = "completed"
	StatusDeleted   TaskStatus = "deleted"
)

// Valid reports whether s is one of the known status values.
func (s TaskStatus) Valid() bool {
	return s == StatusActive || s == StatusCompleted || s == StatusDeleted
}

// Task is a single work item, exclusively owned by the user that created it.
// Deletion is soft: status moves to deleted and the row stays for audit and
// stat consistency. CompletedAt is set if and only if status is completed.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TaskFilter narrows a task listing. A nil or zero filter returns the
// caller's active tasks; statuses must be requested explicitly to see
// completed or deleted ones.
type TaskFilter struct {
	Statuses   []TaskStatus
	Priorities []Priority
	Search     string // case-insensitive substring over title and description
	DueAfter   *time.Time
	DueBefore  *time.Time
}

type SortField string

const (
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
	SortByCreatedAt SortField = "createdAt"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortCriteria selects a sort field and direction for task listings.
type SortCriteria struct {
	Field SortField
	Order SortOrder
}

// TaskStats summarizes a user's non-deleted tasks. Overdue counts active
// tasks whose due date has passed.
type TaskStats struct {
	Active    int
	Completed int
	Overdue   int
	Total     int
}

// TaskRepository defines persistence operations for tasks. Every method is
// scoped by the owning user at the query layer; a task belonging to another
// user is indistinguishable from one that does not exist.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, userID, id string) (*Task, error)
	List(ctx context.Context, userID string, filter TaskFilter) ([]Task, error)
	Update(ctx context.Context, task *Task) error
}
