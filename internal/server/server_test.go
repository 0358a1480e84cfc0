package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasktracker/internal/domain/errors"
	"tasktracker/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) SaveTask(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) QueryTasks(ctx context.Context, q *models.TaskQuery) ([]models.Task, int, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.Task), args.Int(1), args.Error(2)
}

func testConfig() *Config {
	return &Config{BcryptCost: bcrypt.MinCost}
}

func newTestAPI(t *testing.T, mockUsers *MockUserRepository, mockTasks *MockTaskRepository) *TaskAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := NewTaskAPI(mockUsers, mockTasks, testConfig())
	assert.NotNil(t, api)
	return api
}

func generateTestToken(userID string, roles ...string) string {
	if roles == nil {
		roles = []string{models.RoleUser}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"name":  "testuser",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	tokenString, _ := token.SignedString([]byte(defaultJWTSecret))
	return tokenString
}

func doJSON(api *TaskAPI, method, path string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		jsonData, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonData)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: jwtCookieName, Value: token})
	}

	return doRequest(api, req)
}

func doRequest(api *TaskAPI, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	api.httpSrv.Handler.ServeHTTP(w, req)
	return w
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func strPtr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		request models.RegisterRequest
		want    struct {
			statusCode int
			contains   string
		}
		mockSetup func(*MockUserRepository)
	}{
		{
			name: "successful registration",
			request: models.RegisterRequest{
				Name:     "testuser",
				Email:    "test@example.com",
				Password: "password123",
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusCreated,
				contains:   `"email":"test@example.com"`,
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByEmail", mock.Anything, "test@example.com").Return(nil, errors.ErrUserNotFound)
				mockUsers.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
			},
		},
		{
			name: "client-supplied roles are ignored",
			request: models.RegisterRequest{
				Name:     "wannabe",
				Email:    "admin@example.com",
				Password: "password123",
				Roles:    []string{models.RoleAdmin},
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusCreated,
				contains:   `"roles":["USER"]`,
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByEmail", mock.Anything, "admin@example.com").Return(nil, errors.ErrUserNotFound)
				mockUsers.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
			},
		},
		{
			name: "duplicate email",
			request: models.RegisterRequest{
				Name:     "testuser",
				Email:    "taken@example.com",
				Password: "password123",
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusConflict,
				contains:   "error",
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByEmail", mock.Anything, "taken@example.com").
					Return(&models.User{ID: "existing", Email: "Taken@Example.com"}, nil)
			},
		},
		{
			name: "invalid email",
			request: models.RegisterRequest{
				Name:     "testuser",
				Email:    "not-an-email",
				Password: "password123",
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusBadRequest,
				contains:   "error",
			},
			mockSetup: func(mockUsers *MockUserRepository) {},
		},
		{
			name: "password too short",
			request: models.RegisterRequest{
				Name:     "testuser",
				Email:    "test@example.com",
				Password: "short",
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusBadRequest,
				contains:   "error",
			},
			mockSetup: func(mockUsers *MockUserRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := &MockUserRepository{}
			mockTasks := &MockTaskRepository{}
			tt.mockSetup(mockUsers)

			api := newTestAPI(t, mockUsers, mockTasks)
			w := doJSON(api, "POST", "/auth/register", tt.request, "")

			assert.Equal(t, tt.want.statusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.want.contains)
			assert.NotContains(t, w.Body.String(), "password_hash")

			mockUsers.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	hash := ""

	tests := []struct {
		name    string
		request models.LoginRequest
		want    struct {
			statusCode int
			contains   string
		}
		mockSetup func(*MockUserRepository)
	}{
		{
			name: "successful login",
			request: models.LoginRequest{
				Email:    "test@example.com",
				Password: "password123",
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusOK,
				contains:   "accessToken",
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByEmail", mock.Anything, "test@example.com").Return(&models.User{
					ID:           "user123",
					Name:         "testuser",
					Email:        "test@example.com",
					PasswordHash: hash,
					Roles:        []string{models.RoleUser},
				}, nil)
			},
		},
		{
			name: "wrong password",
			request: models.LoginRequest{
				Email:    "test@example.com",
				Password: "wrongpassword",
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusUnauthorized,
				contains:   errors.ErrInvalidCredentials.Error(),
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByEmail", mock.Anything, "test@example.com").Return(&models.User{
					ID:           "user123",
					Email:        "test@example.com",
					PasswordHash: hash,
				}, nil)
			},
		},
		{
			name: "unknown email gives the same error",
			request: models.LoginRequest{
				Email:    "nobody@example.com",
				Password: "password123",
			},
			want: struct {
				statusCode int
				contains   string
			}{
				statusCode: http.StatusUnauthorized,
				contains:   errors.ErrInvalidCredentials.Error(),
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, errors.ErrUserNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash = mustHash(t, "password123")
			mockUsers := &MockUserRepository{}
			mockTasks := &MockTaskRepository{}
			tt.mockSetup(mockUsers)

			api := newTestAPI(t, mockUsers, mockTasks)
			w := doJSON(api, "POST", "/auth/login", tt.request, "")

			assert.Equal(t, tt.want.statusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.want.contains)

			mockUsers.AssertExpectations(t)
		})
	}
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  struct {
			statusCode int
		}
		mockSetup func(*MockUserRepository)
	}{
		{
			name:  "successful profile",
			token: generateTestToken("user123"),
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusOK,
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByID", mock.Anything, "user123").Return(&models.User{
					ID:    "user123",
					Name:  "testuser",
					Email: "test@example.com",
					Roles: []string{models.RoleUser},
				}, nil)
			},
		},
		{
			name:  "user not found",
			token: generateTestToken("ghost"),
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusNotFound,
			},
			mockSetup: func(mockUsers *MockUserRepository) {
				mockUsers.On("GetUserByID", mock.Anything, "ghost").Return(nil, errors.ErrUserNotFound)
			},
		},
		{
			name:  "missing token",
			token: "",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusUnauthorized,
			},
			mockSetup: func(mockUsers *MockUserRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUsers := &MockUserRepository{}
			mockTasks := &MockTaskRepository{}
			tt.mockSetup(mockUsers)

			api := newTestAPI(t, mockUsers, mockTasks)
			w := doJSON(api, "GET", "/auth/profile", nil, tt.token)

			assert.Equal(t, tt.want.statusCode, w.Code)

			mockUsers.AssertExpectations(t)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  struct {
			statusCode int
		}
	}{
		{
			name:  "admin role allowed",
			token: generateTestToken("admin1", models.RoleAdmin),
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusOK,
			},
		},
		{
			name:  "user role forbidden",
			token: generateTestToken("user123", models.RoleUser),
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusForbidden,
			},
		},
		{
			name:  "missing token",
			token: "",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusUnauthorized,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, &MockUserRepository{}, &MockTaskRepository{})
			w := doJSON(api, "GET", "/auth/admin", nil, tt.token)

			assert.Equal(t, tt.want.statusCode, w.Code)
		})
	}
}

func TestGetTaskByID(t *testing.T) {
	tests := []struct {
		name   string
		taskID string
		userID string
		want   struct {
			statusCode int
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:   "owner gets the task",
			taskID: "task1",
			userID: "user123",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusOK,
			},
			mockSetup: func(mockTasks *MockTaskRepository) {
				mockTasks.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{
					ID:     "task1",
					Title:  "Task 1",
					Status: models.StatusOpen,
					UserID: "user123",
				}, nil)
			},
		},
		{
			name:   "foreign task is forbidden",
			taskID: "task1",
			userID: "intruder",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusForbidden,
			},
			mockSetup: func(mockTasks *MockTaskRepository) {
				mockTasks.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{
					ID:     "task1",
					Title:  "Task 1",
					Status: models.StatusOpen,
					UserID: "user123",
				}, nil)
			},
		},
		{
			name:   "missing task is not found",
			taskID: "ghost",
			userID: "user123",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusNotFound,
			},
			mockSetup: func(mockTasks *MockTaskRepository) {
				mockTasks.On("GetTaskByID", mock.Anything, "ghost").Return(nil, errors.ErrTaskNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := &MockTaskRepository{}
			tt.mockSetup(mockTasks)

			api := newTestAPI(t, &MockUserRepository{}, mockTasks)
			w := doJSON(api, "GET", "/tasks/"+tt.taskID, nil, generateTestToken(tt.userID))

			assert.Equal(t, tt.want.statusCode, w.Code)

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name    string
		request models.CreateTaskRequest
		want    struct {
			statusCode int
		}
		mockSetup func(*MockTaskRepository)
		check     func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful creation with default status",
			request: models.CreateTaskRequest{
				Title:       "New Task",
				Description: "Description",
			},
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusCreated,
			},
			mockSetup: func(mockTasks *MockTaskRepository) {
				mockTasks.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
					return task.Status == models.StatusOpen && task.UserID == "user123"
				})).Return(nil)
			},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), `"status":"OPEN"`)
			},
		},
		{
			name: "duplicate labels are collapsed",
			request: models.CreateTaskRequest{
				Title:  "Labeled",
				Labels: []string{"x", "x", "y"},
			},
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusCreated,
			},
			mockSetup: func(mockTasks *MockTaskRepository) {
				mockTasks.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
					return len(task.Labels) == 2
				})).Return(nil)
			},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, 1, strings.Count(w.Body.String(), `"name":"x"`))
				assert.Equal(t, 1, strings.Count(w.Body.String(), `"name":"y"`))
			},
		},
		{
			name: "missing title",
			request: models.CreateTaskRequest{
				Description: "no title",
			},
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusBadRequest,
			},
			mockSetup: func(mockTasks *MockTaskRepository) {},
			check:     func(t *testing.T, w *httptest.ResponseRecorder) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := &MockTaskRepository{}
			tt.mockSetup(mockTasks)

			api := newTestAPI(t, &MockUserRepository{}, mockTasks)
			w := doJSON(api, "POST", "/tasks", tt.request, generateTestToken("user123"))

			assert.Equal(t, tt.want.statusCode, w.Code)
			tt.check(t, w)

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	tests := []struct {
		name    string
		current string
		request models.UpdateTaskRequest
		want    struct {
			statusCode int
			saved      bool
		}
	}{
		{
			name:    "forward transition",
			current: models.StatusOpen,
			request: models.UpdateTaskRequest{Status: strPtr(models.StatusDone)},
			want: struct {
				statusCode int
				saved      bool
			}{
				statusCode: http.StatusOK,
				saved:      true,
			},
		},
		{
			name:    "same status is a no-op transition",
			current: models.StatusDone,
			request: models.UpdateTaskRequest{Status: strPtr(models.StatusDone)},
			want: struct {
				statusCode int
				saved      bool
			}{
				statusCode: http.StatusOK,
				saved:      true,
			},
		},
		{
			name:    "status regression is rejected",
			current: models.StatusDone,
			request: models.UpdateTaskRequest{Status: strPtr(models.StatusOpen)},
			want: struct {
				statusCode int
				saved      bool
			}{
				statusCode: http.StatusBadRequest,
				saved:      false,
			},
		},
		{
			name:    "title-only patch keeps other fields",
			current: models.StatusInProgress,
			request: models.UpdateTaskRequest{Title: strPtr("Renamed")},
			want: struct {
				statusCode int
				saved      bool
			}{
				statusCode: http.StatusOK,
				saved:      true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := &MockTaskRepository{}
			mockTasks.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{
				ID:          "task1",
				Title:       "Task 1",
				Description: "Description",
				Status:      tt.current,
				UserID:      "user123",
			}, nil)
			if tt.want.saved {
				mockTasks.On("SaveTask", mock.Anything, mock.AnythingOfType("*models.Task")).Return(nil)
			}

			api := newTestAPI(t, &MockUserRepository{}, mockTasks)
			w := doJSON(api, "PATCH", "/tasks/task1", tt.request, generateTestToken("user123"))

			assert.Equal(t, tt.want.statusCode, w.Code)
			if !tt.want.saved {
				mockTasks.AssertNotCalled(t, "SaveTask", mock.Anything, mock.Anything)
			}
			if tt.name == "title-only patch keeps other fields" {
				assert.Contains(t, w.Body.String(), `"title":"Renamed"`)
				assert.Contains(t, w.Body.String(), `"description":"Description"`)
				assert.Contains(t, w.Body.String(), fmt.Sprintf(`"status":"%s"`, tt.current))
			}

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestDeleteTask(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		want   struct {
			statusCode int
			deleted    bool
		}
	}{
		{
			name:   "owner deletes the task",
			userID: "user123",
			want: struct {
				statusCode int
				deleted    bool
			}{
				statusCode: http.StatusNoContent,
				deleted:    true,
			},
		},
		{
			name:   "foreign task is forbidden",
			userID: "intruder",
			want: struct {
				statusCode int
				deleted    bool
			}{
				statusCode: http.StatusForbidden,
				deleted:    false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := &MockTaskRepository{}
			mockTasks.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{
				ID:     "task1",
				Status: models.StatusOpen,
				UserID: "user123",
			}, nil)
			if tt.want.deleted {
				mockTasks.On("DeleteTask", mock.Anything, "task1").Return(nil)
			}

			api := newTestAPI(t, &MockUserRepository{}, mockTasks)
			w := doJSON(api, "DELETE", "/tasks/task1", nil, generateTestToken(tt.userID))

			assert.Equal(t, tt.want.statusCode, w.Code)
			if !tt.want.deleted {
				mockTasks.AssertNotCalled(t, "DeleteTask", mock.Anything, mock.Anything)
			}

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestAddLabels(t *testing.T) {
	tests := []struct {
		name    string
		request []models.CreateLabelRequest
		want    struct {
			statusCode int
			saved      bool
		}
	}{
		{
			name: "new labels are appended",
			request: []models.CreateLabelRequest{
				{Name: "urgent"},
				{Name: "urgent"},
				{Name: "home"},
			},
			want: struct {
				statusCode int
				saved      bool
			}{
				statusCode: http.StatusOK,
				saved:      true,
			},
		},
		{
			name: "all labels already present",
			request: []models.CreateLabelRequest{
				{Name: "existing"},
			},
			want: struct {
				statusCode int
				saved      bool
			}{
				statusCode: http.StatusOK,
				saved:      false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := &MockTaskRepository{}
			mockTasks.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{
				ID:     "task1",
				Status: models.StatusOpen,
				UserID: "user123",
				Labels: []models.Label{{ID: "l1", Name: "existing", TaskID: "task1"}},
			}, nil)
			if tt.want.saved {
				mockTasks.On("SaveTask", mock.Anything, mock.AnythingOfType("*models.Task")).Return(nil)
			}

			api := newTestAPI(t, &MockUserRepository{}, mockTasks)
			w := doJSON(api, "POST", "/tasks/task1/labels", tt.request, generateTestToken("user123"))

			assert.Equal(t, tt.want.statusCode, w.Code)
			if !tt.want.saved {
				mockTasks.AssertNotCalled(t, "SaveTask", mock.Anything, mock.Anything)
			}

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestRemoveLabels(t *testing.T) {
	tests := []struct {
		name    string
		request []string
		want    struct {
			statusCode int
		}
	}{
		{
			name:    "existing label is removed",
			request: []string{"urgent"},
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusNoContent,
			},
		},
		{
			name:    "missing label is a no-op",
			request: []string{"nonexistent"},
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusNoContent,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := &MockTaskRepository{}
			mockTasks.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{
				ID:     "task1",
				Status: models.StatusOpen,
				UserID: "user123",
				Labels: []models.Label{{ID: "l1", Name: "urgent", TaskID: "task1"}},
			}, nil)
			mockTasks.On("SaveTask", mock.Anything, mock.AnythingOfType("*models.Task")).Return(nil)

			api := newTestAPI(t, &MockUserRepository{}, mockTasks)
			w := doJSON(api, "DELETE", "/tasks/task1/labels", tt.request, generateTestToken("user123"))

			assert.Equal(t, tt.want.statusCode, w.Code)

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestListTasks(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  struct {
			statusCode int
		}
		matchQuery func(*models.TaskQuery) bool
	}{
		{
			name:  "plain listing uses defaults",
			query: "",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusOK,
			},
			matchQuery: func(q *models.TaskQuery) bool {
				return q.OwnerID == "user123" && q.Limit == 10 && q.Offset == 0 &&
					q.SortBy == "created_at" && q.SortOrder == "DESC"
			},
		},
		{
			name:  "status and search filters",
			query: "?status=OPEN&search=%20foo%20&offset=5&limit=2",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusOK,
			},
			matchQuery: func(q *models.TaskQuery) bool {
				return q.OwnerID == "user123" && q.Status == models.StatusOpen &&
					q.Search == "foo" && q.Offset == 5 && q.Limit == 2
			},
		},
		{
			name:  "label filter",
			query: "?labels=urgent,home",
			want: struct {
				statusCode int
			}{
				statusCode: http.StatusOK,
			},
			matchQuery: func(q *models.TaskQuery) bool {
				return len(q.Labels) == 2 && q.Labels[0] == "urgent" && q.Labels[1] == "home"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTasks := &MockTaskRepository{}
			mockTasks.On("QueryTasks", mock.Anything, mock.MatchedBy(tt.matchQuery)).Return([]models.Task{
				{ID: "task1", Title: "Task 1", Status: models.StatusOpen, UserID: "user123"},
			}, 1, nil)

			api := newTestAPI(t, &MockUserRepository{}, mockTasks)
			w := doJSON(api, "GET", "/tasks"+tt.query, nil, generateTestToken("user123"))

			assert.Equal(t, tt.want.statusCode, w.Code)
			assert.Contains(t, w.Body.String(), `"total":1`)

			mockTasks.AssertExpectations(t)
		})
	}
}

func TestListTasksRejectsUnknownStatus(t *testing.T) {
	api := newTestAPI(t, &MockUserRepository{}, &MockTaskRepository{})
	w := doJSON(api, "GET", "/tasks?status=BOGUS", nil, generateTestToken("user123"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
