package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/taskdeck/internal/domain"
	"github.com/msomdec/taskdeck/internal/service"
)

// TaskHandler handles task-related HTTP requests. Every operation runs
// scoped to the authenticated user taken from the request context.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// HandleList returns the caller's tasks with stats.
// GET /tasks?status=&priority=&search=&sortBy=&order=&dueAfter=&dueBefore=
// Response: {"success":true,"data":{"tasks":[...],"stats":{...},"total":n}}
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	filter, sortBy, verr := parseTaskQuery(r)
	if verr != nil {
		writeServiceError(w, verr)
		return
	}

	tasks, err := h.tasks.List(r.Context(), user.ID, filter, sortBy)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	stats, err := h.tasks.Stats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"tasks": toTaskDTOs(tasks),
		"stats": toTaskStatsDTO(stats),
		"total": len(tasks),
	})
}

// HandleCreate creates a task for the caller.
// POST /tasks
// Request: {"title":"...","description":"...","dueDate":"...","priority":"low|medium|high"}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		DueDate     *string `json:"dueDate"`
		Priority    string  `json:"priority"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", nil)
		return
	}

	input := service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			verr := domain.NewValidationError()
			verr.Add("dueDate", "Due date must be a valid ISO date format")
			writeServiceError(w, verr)
			return
		}
		input.DueDate = &due
	}

	task, err := h.tasks.Create(r.Context(), user.ID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{"task": toTaskDTO(task)})
}

// HandleGet returns one of the caller's tasks.
// GET /tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	task, err := h.tasks.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"task": toTaskDTO(task)})
}

// HandleUpdate applies a partial update to one of the caller's tasks.
// PUT /tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"dueDate"`
		Priority    *string `json:"priority"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body", nil)
		return
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		update.Priority = &p
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			update.ClearDue = true
		} else {
			due, err := parseDate(*req.DueDate)
			if err != nil {
				verr := domain.NewValidationError()
				verr.Add("dueDate", "Due date must be a valid ISO date format")
				writeServiceError(w, verr)
				return
			}
			update.DueDate = &due
		}
	}

	task, err := h.tasks.Update(r.Context(), user.ID, r.PathValue("id"), update)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"task": toTaskDTO(task)})
}

// HandleDelete removes one of the caller's tasks.
// DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.tasks.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

// HandleComplete marks one of the caller's tasks completed.
// PATCH /tasks/{id}/complete
func (h *TaskHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	task, err := h.tasks.Complete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"task": toTaskDTO(task)})
}

// HandleStats returns the caller's task counts.
// GET /tasks/stats
func (h *TaskHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	stats, err := h.tasks.Stats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"stats": toTaskStatsDTO(stats)})
}

// HandleCompleted returns the caller's recently completed tasks.
// GET /tasks/completed?limit=
func (h *TaskHandler) HandleCompleted(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			verr := domain.NewValidationError()
			verr.Add("limit", "Limit must be a positive integer")
			writeServiceError(w, verr)
			return
		}
		limit = parsed
	}

	tasks, err := h.tasks.Completed(r.Context(), user.ID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"tasks": toTaskDTOs(tasks),
		"total": len(tasks),
	})
}

// parseTaskQuery builds the filter and sort criteria from list query
// parameters. Values may repeat or be comma-separated.
func parseTaskQuery(r *http.Request) (domain.TaskFilter, *domain.SortCriteria, *domain.ValidationError) {
	q := r.URL.Query()
	verr := domain.NewValidationError()
	var filter domain.TaskFilter

	for _, raw := range splitMulti(q["status"]) {
		s := domain.TaskStatus(raw)
		if !s.Valid() {
			verr.Add("status", "Status must be one of: active, completed, deleted")
			continue
		}
		filter.Statuses = append(filter.Statuses, s)
	}

	for _, raw := range splitMulti(q["priority"]) {
		p := domain.Priority(raw)
		if !p.Valid() {
			verr.Add("priority", "Priority must be one of: low, medium, high")
			continue
		}
		filter.Priorities = append(filter.Priorities, p)
	}

	filter.Search = strings.TrimSpace(q.Get("search"))

	if v := q.Get("dueAfter"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			verr.Add("dueAfter", "Must be a valid ISO date format")
		} else {
			filter.DueAfter = &t
		}
	}
	if v := q.Get("dueBefore"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			verr.Add("dueBefore", "Must be a valid ISO date format")
		} else {
			filter.DueBefore = &t
		}
	}

	var sortBy *domain.SortCriteria
	if field := q.Get("sortBy"); field != "" {
		switch domain.SortField(field) {
		case domain.SortByDueDate, domain.SortByPriority, domain.SortByCreatedAt, domain.SortByTitle:
			order := domain.SortAsc
			switch q.Get("order") {
			case "", "asc":
			case "desc":
				order = domain.SortDesc
			default:
				verr.Add("order", "Order must be asc or desc")
			}
			sortBy = &domain.SortCriteria{Field: domain.SortField(field), Order: order}
		default:
			verr.Add("sortBy", "Sort field must be one of: dueDate, priority, createdAt, title")
		}
	}

	if verr.HasErrors() {
		return filter, nil, verr
	}
	return filter, sortBy, nil
}

// splitMulti flattens repeated query values and comma-separated lists.
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
