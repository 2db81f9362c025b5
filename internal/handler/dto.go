package handler

import (
	"time"

	"github.com/msomdec/taskdeck/internal/domain"
	"github.com/msomdec/taskdeck/internal/service"
)

// UserDTO is the JSON representation of a user. The password hash is not
// part of it by construction.
type UserDTO struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	IsActive    bool    `json:"isActive"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	LastLoginAt *string `json:"lastLoginAt,omitempty"`
}

func toUserDTO(u *domain.User) UserDTO {
	dto := UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		t := u.LastLoginAt.Format(time.RFC3339)
		dto.LastLoginAt = &t
	}
	return dto
}

// AuthResultDTO is the JSON representation of a signup/login/refresh
// result.
type AuthResultDTO struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    int     `json:"expiresIn"`
}

func toAuthResultDTO(res *service.AuthResult) AuthResultDTO {
	return AuthResultDTO{
		User:         toUserDTO(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}
}

// TaskDTO is the JSON representation of a task.
type TaskDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

func toTaskDTO(t *domain.Task) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(time.RFC3339)
		dto.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := t.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &c
	}
	return dto
}

func toTaskDTOs(tasks []domain.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = toTaskDTO(&tasks[i])
	}
	return dtos
}

// TaskStatsDTO is the JSON representation of a user's task counts.
type TaskStatsDTO struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	Total     int `json:"total"`
}

func toTaskStatsDTO(s domain.TaskStats) TaskStatsDTO {
	return TaskStatsDTO{
		Active:    s.Active,
		Completed: s.Completed,
		Overdue:   s.Overdue,
		Total:     s.Total,
	}
}
