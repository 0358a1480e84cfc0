package tasks

import (
	"strings"

	"tasktracker/internal/domain/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Сортировать можно только по этим полям; значение — имя колонки.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"status":    "status",
}

// BuildQuery переводит фильтры и пагинацию запроса в спецификацию выборки.
// Ограничение по владельцу ставится всегда и не зависит от фильтров.
func BuildQuery(filters *models.TaskFilters, page *models.Pagination, callerID string) *models.TaskQuery {
	q := &models.TaskQuery{
		OwnerID:   callerID,
		SortBy:    "created_at",
		SortOrder: "DESC",
		Limit:     DefaultLimit,
	}

	if filters != nil {
		q.Status = filters.Status
		if search := strings.TrimSpace(filters.Search); search != "" {
			q.Search = search
		}
		for _, name := range filters.Labels {
			if name != "" {
				q.Labels = append(q.Labels, name)
			}
		}
		if column, ok := sortColumns[filters.SortBy]; ok {
			q.SortBy = column
		}
		if order := strings.ToUpper(filters.SortOrder); order == "ASC" || order == "DESC" {
			q.SortOrder = order
		}
	}

	if page != nil {
		if page.Offset > 0 {
			q.Offset = page.Offset
		}
		if page.Limit > 0 {
			q.Limit = page.Limit
		}
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}
