package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/taskdeck/internal/domain"
)

// TaskRepository implements domain.TaskRepository using SQLite. The owning
// user's ID is part of every WHERE clause, so a task belonging to another
// user looks exactly like a missing one.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new SQLite-backed TaskRepository.
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db.SqlDB}
}

const taskColumns = `id, user_id, title, description, due_date, priority, status, created_at, updated_at, completed_at`

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	var due *time.Time
	if task.DueDate != nil {
		t := task.DueDate.UTC()
		due = &t
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, due_date, priority, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, task.UserID, task.Title, task.Description, due, task.Priority, task.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	task := &domain.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate,
		&task.Priority, &task.Status, &task.CreatedAt, &task.UpdatedAt, &task.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// List returns the user's tasks matching the filter, newest first. The
// whole filter is compiled into the SQL query; nothing is post-filtered
// in memory.
func (r *TaskRepository) List(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)

	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if len(filter.Priorities) > 0 {
		where = append(where, "priority IN ("+placeholders(len(filter.Priorities))+")")
		for _, p := range filter.Priorities {
			args = append(args, p)
		}
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, "(instr(lower(title), ?) > 0 OR instr(lower(description), ?) > 0)")
		needle := strings.ToLower(s)
		args = append(args, needle, needle)
	}
	if filter.DueAfter != nil {
		where = append(where, "due_date IS NOT NULL AND due_date >= ?")
		args = append(args, filter.DueAfter.UTC())
	}
	if filter.DueBefore != nil {
		where = append(where, "due_date IS NOT NULL AND due_date <= ?")
		args = append(args, filter.DueBefore.UTC())
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate,
			&t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	var due, completed *time.Time
	if task.DueDate != nil {
		t := task.DueDate.UTC()
		due = &t
	}
	if task.CompletedAt != nil {
		t := task.CompletedAt.UTC()
		completed = &t
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?,
		 status = ?, updated_at = ?, completed_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.Title, task.Description, due, task.Priority,
		task.Status, now, completed, task.ID, task.UserID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	task.UpdatedAt = now
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
