package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tasktracker/internal/domain/errors"
	"tasktracker/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const queryTimeout = 15 * time.Second

type Storage struct {
	pool *pgxpool.Pool

	sqlCreateUser     string
	sqlGetUserByID    string
	sqlGetUserByEmail string
	sqlCreateTask     string
	sqlGetTaskByID    string
	sqlGetTaskLabels  string
	sqlUpdateTask     string
	sqlDeleteTask     string
	sqlDeleteLabels   string
	sqlInsertLabel    string
}

func NewStorage(connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.WithError(err).Error("не удалось создать пул соединений с базой данных")
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		log.WithError(err).Error("не удалось подключиться к базе данных")
		pool.Close()
		return nil, err
	}

	s := &Storage{
		pool:              pool,
		sqlCreateUser:     `INSERT INTO users (id, name, email, password_hash, roles, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		sqlGetUserByID:    `SELECT id, name, email, password_hash, roles, created_at, updated_at FROM users WHERE id = $1`,
		sqlGetUserByEmail: `SELECT id, name, email, password_hash, roles, created_at, updated_at FROM users WHERE lower(email) = lower($1)`,
		sqlCreateTask:     `INSERT INTO tasks (id, title, description, status, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		sqlGetTaskByID:    `SELECT id, title, description, status, user_id, created_at, updated_at FROM tasks WHERE id = $1`,
		sqlGetTaskLabels:  `SELECT id, name, task_id FROM task_labels WHERE task_id = ANY($1) ORDER BY id`,
		sqlUpdateTask:     `UPDATE tasks SET title = $1, description = $2, status = $3, updated_at = $4 WHERE id = $5`,
		sqlDeleteTask:     `DELETE FROM tasks WHERE id = $1`,
		sqlDeleteLabels:   `DELETE FROM task_labels WHERE task_id = $1`,
		sqlInsertLabel:    `INSERT INTO task_labels (id, name, task_id) VALUES ($1, $2, $3)`,
	}
	log.Info("соединение с базой данных установлено")
	return s, nil
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.pool.Exec(ctx, s.sqlCreateUser, user.ID, user.Name, user.Email, user.PasswordHash, user.Roles, now)
	if err != nil {
		log.WithError(err).Error("не удалось создать пользователя")
		return errors.ErrEmailTaken
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.scanUser(s.pool.QueryRow(ctx, s.sqlGetUserByID, id))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.scanUser(s.pool.QueryRow(ctx, s.sqlGetUserByEmail, email))
}

func (s *Storage) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Roles, &user.CreatedAt, &user.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		log.WithError(err).Error("ошибка при получении пользователя")
		return nil, err
	}
	return user, nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, s.sqlCreateTask, task.ID, task.Title, task.Description, task.Status, task.UserID, now); err != nil {
		log.WithError(err).Error("не удалось создать задачу")
		return err
	}
	if err := insertLabels(ctx, tx, s.sqlInsertLabel, task.Labels); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, s.sqlGetTaskByID, id)
	task := &models.Task{}
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.UserID, &task.CreatedAt, &task.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.ErrTaskNotFound
	}
	if err != nil {
		log.WithError(err).Error("ошибка при получении задачи")
		return nil, err
	}

	labels, err := s.loadLabels(ctx, []string{task.ID})
	if err != nil {
		return nil, err
	}
	task.Labels = labels[task.ID]
	if task.Labels == nil {
		task.Labels = []models.Label{}
	}
	return task, nil
}

// SaveTask записывает поля задачи и приводит набор её меток в базе к
// набору в переданной структуре, всё в одной транзакции.
func (s *Storage) SaveTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task.UpdatedAt = time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, s.sqlUpdateTask, task.Title, task.Description, task.Status, task.UpdatedAt, task.ID)
	if err != nil {
		log.WithError(err).Error("не удалось обновить задачу")
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}

	if _, err := tx.Exec(ctx, s.sqlDeleteLabels, task.ID); err != nil {
		log.WithError(err).Error("не удалось очистить метки задачи")
		return err
	}
	if err := insertLabels(ctx, tx, s.sqlInsertLabel, task.Labels); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteTask — жёсткое удаление; метки снимает каскад внешнего ключа.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, s.sqlDeleteTask, id)
	if err != nil {
		log.WithError(err).Error("не удалось удалить задачу")
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	return nil
}

func (s *Storage) QueryTasks(ctx context.Context, q *models.TaskQuery) ([]models.Task, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := []string{"t.user_id = $1"}
	args := []interface{}{q.OwnerID}

	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}
	if len(q.Labels) > 0 {
		args = append(args, q.Labels)
		where = append(where, fmt.Sprintf("t.id IN (SELECT l.task_id FROM task_labels l WHERE l.name = ANY($%d))", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	countSQL := "SELECT count(*) FROM tasks t WHERE " + cond
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		log.WithError(err).Error("не удалось посчитать задачи")
		return nil, 0, err
	}

	// SortBy и SortOrder приходят из белого списка построителя запросов,
	// подстановка в текст безопасна.
	args = append(args, q.Offset)
	offsetArg := len(args)
	args = append(args, q.Limit)
	limitArg := len(args)
	pageSQL := fmt.Sprintf(
		"SELECT t.id, t.title, t.description, t.status, t.user_id, t.created_at, t.updated_at FROM tasks t WHERE %s ORDER BY t.%s %s, t.id OFFSET $%d LIMIT $%d",
		cond, q.SortBy, q.SortOrder, offsetArg, limitArg,
	)

	rows, err := s.pool.Query(ctx, pageSQL, args...)
	if err != nil {
		log.WithError(err).Error("не удалось получить задачи")
		return nil, 0, err
	}
	defer rows.Close()

	items := []models.Task{}
	ids := []string{}
	for rows.Next() {
		task := models.Task{}
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.UserID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			log.WithError(err).Error("ошибка при чтении задач")
			return nil, 0, err
		}
		task.Labels = []models.Label{}
		items = append(items, task)
		ids = append(ids, task.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		labels, err := s.loadLabels(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range items {
			if l, ok := labels[items[i].ID]; ok {
				items[i].Labels = l
			}
		}
	}

	return items, total, nil
}

func (s *Storage) loadLabels(ctx context.Context, taskIDs []string) (map[string][]models.Label, error) {
	rows, err := s.pool.Query(ctx, s.sqlGetTaskLabels, taskIDs)
	if err != nil {
		log.WithError(err).Error("не удалось получить метки задач")
		return nil, err
	}
	defer rows.Close()

	labels := make(map[string][]models.Label)
	for rows.Next() {
		label := models.Label{}
		if err := rows.Scan(&label.ID, &label.Name, &label.TaskID); err != nil {
			log.WithError(err).Error("ошибка при чтении меток")
			return nil, err
		}
		labels[label.TaskID] = append(labels[label.TaskID], label)
	}
	return labels, rows.Err()
}

func insertLabels(ctx context.Context, tx pgx.Tx, insertSQL string, labels []models.Label) error {
	for _, label := range labels {
		if label.ID == "" {
			label.ID = uuid.New().String()
		}
		if _, err := tx.Exec(ctx, insertSQL, label.ID, label.Name, label.TaskID); err != nil {
			log.WithError(err).Error("не удалось сохранить метку задачи")
			return err
		}
	}
	return nil
}
