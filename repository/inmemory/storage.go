package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tasktracker/internal/domain/errors"
	"tasktracker/internal/domain/models"

	"github.com/google/uuid"
)

// Storage — потокобезопасное хранилище в памяти. Используется в тестах
// и как запасной вариант, когда база данных недоступна.
type Storage struct {
	mu    sync.RWMutex
	users map[string]models.User
	tasks map[string]models.Task
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[string]models.User),
		tasks: make(map[string]models.Task),
	}
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return errors.ErrEmailTaken
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.users[user.ID] = *user
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists {
		return nil, errors.ErrTaskNotFound
	}
	copied := cloneTask(&task)
	return &copied, nil
}

func (s *Storage) SaveTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return errors.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// DeleteTask удаляет задачу вместе с её метками: метки живут внутри
// записи задачи, отдельной очистки не требуется.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) QueryTasks(ctx context.Context, q *models.TaskQuery) ([]models.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Task
	for _, task := range s.tasks {
		if !matches(&task, q) {
			continue
		}
		matched = append(matched, cloneTask(&task))
	}

	sortTasks(matched, q.SortBy, q.SortOrder)

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func matches(task *models.Task, q *models.TaskQuery) bool {
	if task.UserID != q.OwnerID {
		return false
	}
	if q.Status != "" && task.Status != q.Status {
		return false
	}
	if q.Search != "" {
		search := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(task.Title), search) &&
			!strings.Contains(strings.ToLower(task.Description), search) {
			return false
		}
	}
	if len(q.Labels) > 0 {
		wanted := make(map[string]bool, len(q.Labels))
		for _, name := range q.Labels {
			wanted[name] = true
		}
		found := false
		for _, label := range task.Labels {
			if wanted[label.Name] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortTasks(items []models.Task, sortBy, sortOrder string) {
	less := func(a, b *models.Task) bool {
		switch sortBy {
		case "title":
			return a.Title < b.Title
		case "status":
			return a.Status < b.Status
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if sortOrder == "DESC" {
			return less(&items[j], &items[i])
		}
		return less(&items[i], &items[j])
	})
}

func cloneTask(task *models.Task) models.Task {
	copied := *task
	copied.Labels = make([]models.Label, len(task.Labels))
	copy(copied.Labels, task.Labels)
	return copied
}
