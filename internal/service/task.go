package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/msomdec/taskdeck/internal/domain"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// TaskInput carries the fields a client may set when creating a task.
type TaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    domain.Priority
}

// TaskUpdate carries a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
	Priority    *domain.Priority
}

// Empty reports whether the update touches no fields.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil && !u.ClearDue && u.Priority == nil
}

// TaskService implements task CRUD and queries, always scoped to the
// authenticated user's ID supplied by the caller. Ownership violations
// surface as not-found, never as forbidden.
type TaskService struct {
	tasks domain.TaskRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks domain.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

// Create validates the input and persists a new active task for the user.
func (s *TaskService) Create(ctx context.Context, userID string, input TaskInput) (*domain.Task, error) {
	if verr := validateTaskInput(input); verr != nil {
		return nil, verr
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Status:      domain.StatusActive,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// List returns the user's tasks matching the filter, sorted by the given
// criteria. Without an explicit status filter only active tasks are
// returned; completed and deleted ones must be asked for.
func (s *TaskService) List(ctx context.Context, userID string, filter domain.TaskFilter, sortBy *domain.SortCriteria) ([]domain.Task, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = []domain.TaskStatus{domain.StatusActive}
	}

	tasks, err := s.tasks.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if sortBy != nil {
		sortTasks(tasks, *sortBy)
	}
	return tasks, nil
}

// Get returns one of the user's tasks. A task owned by someone else or
// already deleted fails with the same not-found error as a missing one.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.getLive(ctx, userID, taskID)
}

// getLive fetches one of the user's tasks, treating a soft-deleted row as
// missing. Deleted tasks are only reachable through an explicit status
// filter on List.
func (s *TaskService) getLive(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == domain.StatusDeleted {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

// Update applies a partial update to one of the user's tasks. At least one
// field must be supplied, and every supplied field is validated.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, update TaskUpdate) (*domain.Task, error) {
	if update.Empty() {
		verr := domain.NewValidationError()
		verr.Add("general", "No updates provided")
		return nil, verr
	}
	if verr := validateTaskUpdate(update); verr != nil {
		return nil, verr
	}

	task, err := s.getLive(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		task.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
	}
	if update.DueDate != nil {
		task.DueDate = update.DueDate
	} else if update.ClearDue {
		task.DueDate = nil
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete soft-deletes one of the user's tasks: the row stays but the task
// disappears from default listings and stats.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	task, err := s.getLive(ctx, userID, taskID)
	if err != nil {
		return err
	}

	task.Status = domain.StatusDeleted
	if err := s.tasks.Update(ctx, task); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Complete marks one of the user's tasks completed and stamps
// CompletedAt. Completing an already-completed task is a no-op that
// returns the task unchanged.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.getLive(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == domain.StatusCompleted {
		return task, nil
	}

	now := time.Now().UTC()
	task.Status = domain.StatusCompleted
	task.CompletedAt = &now
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	return task, nil
}

// Completed returns up to limit of the user's completed tasks, most
// recently completed first.
func (s *TaskService) Completed(ctx context.Context, userID string, limit int) ([]domain.Task, error) {
	if limit <= 0 {
		limit = 50
	}

	tasks, err := s.tasks.List(ctx, userID, domain.TaskFilter{
		Statuses: []domain.TaskStatus{domain.StatusCompleted},
	})
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		ti, tj := tasks[i].CompletedAt, tasks[j].CompletedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

// Stats summarizes the user's non-deleted tasks.
func (s *TaskService) Stats(ctx context.Context, userID string) (domain.TaskStats, error) {
	tasks, err := s.tasks.List(ctx, userID, domain.TaskFilter{
		Statuses: []domain.TaskStatus{domain.StatusActive, domain.StatusCompleted},
	})
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("list tasks for stats: %w", err)
	}

	now := time.Now()
	var stats domain.TaskStats
	for _, t := range tasks {
		stats.Total++
		switch t.Status {
		case domain.StatusActive:
			stats.Active++
			if t.DueDate != nil && t.DueDate.Before(now) {
				stats.Overdue++
			}
		case domain.StatusCompleted:
			stats.Completed++
		}
	}
	return stats, nil
}

// sortTasks sorts in place with a stable comparator, so ties keep their
// input order. Missing due dates sort after every real date.
func sortTasks(tasks []domain.Task, by domain.SortCriteria) {
	less := func(a, b *domain.Task) int {
		switch by.Field {
		case domain.SortByDueDate:
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			default:
				return a.DueDate.Compare(*b.DueDate)
			}
		case domain.SortByPriority:
			return a.Priority.Rank() - b.Priority.Rank()
		case domain.SortByCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case domain.SortByTitle:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
		return 0
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		cmp := less(&tasks[i], &tasks[j])
		if by.Order == domain.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func validateTaskInput(input TaskInput) *domain.ValidationError {
	verr := domain.NewValidationError()
	validateTitle(verr, input.Title)
	validateDescription(verr, input.Description)
	if !input.Priority.Valid() {
		verr.Add("priority", "Priority must be one of: low, medium, high")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validateTaskUpdate(update TaskUpdate) *domain.ValidationError {
	verr := domain.NewValidationError()
	if update.Title != nil {
		validateTitle(verr, *update.Title)
	}
	if update.Description != nil {
		validateDescription(verr, *update.Description)
	}
	if update.Priority != nil && !update.Priority.Valid() {
		verr.Add("priority", "Priority must be one of: low, medium, high")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validateTitle(verr *domain.ValidationError, title string) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		verr.Add("title", "Title is required")
		return
	}
	if len(trimmed) > maxTitleLen {
		verr.Add("title", "Title must be less than 200 characters")
	}
}

func validateDescription(verr *domain.ValidationError, description string) {
	if len(strings.TrimSpace(description)) > maxDescriptionLen {
		verr.Add("description", "Description must be less than 1000 characters")
	}
}
