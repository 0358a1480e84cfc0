package tasks

import (
	"context"

	"tasktracker/internal/domain/errors"
	"tasktracker/internal/domain/models"

	"github.com/google/uuid"
)

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	QueryTasks(ctx context.Context, q *models.TaskQuery) ([]models.Task, int, error)
}

// Порядок статусов фиксированный: OPEN < IN_PROGRESS < DONE.
// Допускается любой переход, не уменьшающий порядок, включая переход
// в тот же статус.
var statusOrder = map[string]int{
	models.StatusOpen:       0,
	models.StatusInProgress: 1,
	models.StatusDone:       2,
}

func canTransition(current, next string) bool {
	return statusOrder[current] <= statusOrder[next]
}

type Service struct {
	repo TaskRepository
}

func NewService(repo TaskRepository) *Service {
	return &Service{repo: repo}
}

// Create создаёт задачу. Владелец берётся только из аутентифицированного
// вызывающего, повторяющиеся метки схлопываются.
func (s *Service) Create(ctx context.Context, ownerID string, req *models.CreateTaskRequest) (*models.Task, error) {
	status := req.Status
	if status == "" {
		status = models.StatusOpen
	}
	task := &models.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		UserID:      ownerID,
	}
	task.Labels = makeLabels(task.ID, uniqueNames(req.Labels))
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update сначала проверяет переход статуса и только потом накладывает
// остальные поля патча. Отсутствующие в патче поля не меняются.
func (s *Service) Update(ctx context.Context, task *models.Task, patch *models.UpdateTaskRequest) (*models.Task, error) {
	if patch.Status != nil && !canTransition(task.Status, *patch.Status) {
		return nil, errors.ErrWrongTaskStatus
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Labels != nil {
		task.Labels = makeLabels(task.ID, uniqueNames(*patch.Labels))
	}

	if err := s.repo.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete — жёсткое удаление; метки задачи удаляются каскадно хранилищем.
func (s *Service) Delete(ctx context.Context, task *models.Task) error {
	return s.repo.DeleteTask(ctx, task.ID)
}

// AddLabels добавляет к задаче отсутствующие на ней имена меток. Если
// после дедупликации добавлять нечего, задача возвращается без обращения
// к хранилищу.
func (s *Service) AddLabels(ctx context.Context, task *models.Task, names []string) (*models.Task, error) {
	existing := make(map[string]bool, len(task.Labels))
	for _, l := range task.Labels {
		existing[l.Name] = true
	}

	var added []models.Label
	for _, name := range uniqueNames(names) {
		if existing[name] {
			continue
		}
		added = append(added, models.Label{
			ID:     uuid.New().String(),
			Name:   name,
			TaskID: task.ID,
		})
	}
	if len(added) == 0 {
		return task, nil
	}

	task.Labels = append(task.Labels, added...)
	if err := s.repo.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// RemoveLabels снимает метки по именам. Имя, которого на задаче нет,
// не считается ошибкой.
func (s *Service) RemoveLabels(ctx context.Context, task *models.Task, names []string) error {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}

	kept := make([]models.Label, 0, len(task.Labels))
	for _, l := range task.Labels {
		if !drop[l.Name] {
			kept = append(kept, l)
		}
	}
	task.Labels = kept
	return s.repo.SaveTask(ctx, task)
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	return unique
}

func makeLabels(taskID string, names []string) []models.Label {
	labels := make([]models.Label, 0, len(names))
	for _, name := range names {
		labels = append(labels, models.Label{
			ID:     uuid.New().String(),
			Name:   name,
			TaskID: taskID,
		})
	}
	return labels
}
