package tasks

import (
	"tasktracker/internal/domain/errors"
	"tasktracker/internal/domain/models"
)

// CheckOwnership — единственное правило доступа к задачам: задачу видит
// и меняет только её владелец. Вызывается сразу после разрешения задачи
// по id, поэтому чужой id даёт ErrForbidden, а несуществующий —
// ErrTaskNotFound ещё до этой проверки.
func CheckOwnership(task *models.Task, callerID string) error {
	if task.UserID != callerID {
		return errors.ErrForbidden
	}
	return nil
}
