package models

import "time"

const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	UserID      string    `json:"userId"`
	Labels      []Label   `json:"labels"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Label struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TaskID string `json:"-"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	// Roles принимается от клиента, но никогда не учитывается:
	// роли при регистрации всегда назначает сервер.
	Roles []string `json:"roles"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=100"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Status      string   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS DONE"`
	Labels      []string `json:"labels" validate:"omitempty,dive,required"`
}

// UpdateTaskRequest — частичное обновление: nil означает "поле не передано",
// а указатель на пустое значение — "поле явно очищено".
type UpdateTaskRequest struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Status      *string   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS DONE"`
	Labels      *[]string `json:"labels" validate:"omitempty,dive,required"`
}

type CreateLabelRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type TaskFilters struct {
	Status    string
	Search    string
	Labels    []string
	SortBy    string
	SortOrder string
}

type Pagination struct {
	Offset int
	Limit  int
}

// TaskQuery — готовая спецификация выборки для хранилища. SortBy здесь
// уже имя колонки из белого списка, а не пользовательский ввод.
type TaskQuery struct {
	OwnerID   string
	Status    string
	Search    string
	Labels    []string
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}
