package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tasktracker/internal/auth"
	"tasktracker/internal/domain/errors"
	"tasktracker/internal/domain/models"
	"tasktracker/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	log "github.com/sirupsen/logrus"
)

type TaskAPI struct {
	httpSrv  *http.Server
	users    auth.UserRepository
	taskRepo tasks.TaskRepository
	authSvc  *auth.Service
	taskSvc  *tasks.Service
	tokens   *auth.TokenService
}

func NewTaskAPI(users auth.UserRepository, taskRepo tasks.TaskRepository, cfg *Config) *TaskAPI {
	if users == nil || taskRepo == nil || cfg == nil {
		return nil
	}
	cfg.normalize()

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLMin)*time.Minute)

	api := TaskAPI{
		httpSrv: &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		},
		users:    users,
		taskRepo: taskRepo,
		authSvc:  auth.NewService(users, hasher, tokens),
		taskSvc:  tasks.NewService(taskRepo),
		tokens:   tokens,
	}

	api.configRoutes()

	return &api
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}

	if api.httpSrv.Addr == "" {
		api.httpSrv.Addr = ":8080"
	}

	return api.httpSrv.ListenAndServe()
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}
	return api.httpSrv.Shutdown(ctx)
}

func (api *TaskAPI) configRoutes() {
	router := gin.Default()
	router.Use(GzipRequestDecompress(), GzipResponseCompress())

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "использован некорректный HTTP-метод"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", api.register)
		authGroup.POST("/login", api.login)
		authGroup.GET("/profile", api.authRequired(), api.profile)
		authGroup.GET("/admin", api.authRequired(), api.requireRole(models.RoleAdmin), api.adminOnly)
	}

	tasksGroup := router.Group("/tasks", api.authRequired())
	{
		tasksGroup.GET("", api.listTasks)
		tasksGroup.GET(":taskID", api.getTaskByID)
		tasksGroup.POST("", api.createTask)
		tasksGroup.PATCH(":taskID", api.updateTask)
		tasksGroup.DELETE(":taskID", api.deleteTask)
		tasksGroup.POST(":taskID/labels", api.addLabels)
		tasksGroup.DELETE(":taskID/labels", api.removeLabels)
	}

	api.httpSrv.Handler = router
}

func (api *TaskAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректные данные пользователя"})
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	user, err := api.authSvc.Register(ctx.Request.Context(), &req)
	if err != nil {
		if err == errors.ErrEmailTaken {
			ctx.JSON(http.StatusConflict, gin.H{"error": errors.ErrEmailTaken.Error()})
			return
		}
		log.WithError(err).Error("не удалось зарегистрировать пользователя")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "пользователь успешно создан",
		"user":    user,
	})
}

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректные данные запроса"})
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	token, err := api.authSvc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == errors.ErrInvalidCredentials {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrInvalidCredentials.Error()})
			return
		}
		log.WithError(err).Error("не удалось выполнить вход")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.SetCookie(jwtCookieName, token, 0, "/", "", false, true)
	ctx.JSON(http.StatusOK, gin.H{"accessToken": token})
}

func (api *TaskAPI) profile(ctx *gin.Context) {
	claims := currentClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
		return
	}

	user, err := api.authSvc.Profile(ctx.Request.Context(), claims.UserID)
	if err != nil {
		if err == errors.ErrUserNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errors.ErrUserNotFound.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}

func (api *TaskAPI) adminOnly(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "This is for admins only!"})
}

var allowedTaskStatuses = map[string]bool{
	models.StatusOpen:       true,
	models.StatusInProgress: true,
	models.StatusDone:       true,
}

func (api *TaskAPI) listTasks(ctx *gin.Context) {
	claims := currentClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
		return
	}

	status := ctx.Query("status")
	if status != "" && !allowedTaskStatuses[status] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidStatus.Error()})
		return
	}

	filters := &models.TaskFilters{
		Status:    status,
		Search:    ctx.Query("search"),
		Labels:    labelsQuery(ctx),
		SortBy:    ctx.Query("sortBy"),
		SortOrder: ctx.Query("sortOrder"),
	}
	page := &models.Pagination{
		Offset: intQuery(ctx, "offset"),
		Limit:  intQuery(ctx, "limit"),
	}

	query := tasks.BuildQuery(filters, page, claims.UserID)
	items, total, err := api.taskRepo.QueryTasks(ctx.Request.Context(), query)
	if err != nil {
		log.WithError(err).Error("не удалось получить список задач")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data": items,
		"meta": gin.H{
			"total":  total,
			"offset": query.Offset,
			"limit":  query.Limit,
		},
	})
}

func (api *TaskAPI) getTaskByID(ctx *gin.Context) {
	task := api.findOwnedTask(ctx)
	if task == nil {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	claims := currentClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
		return
	}

	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	task, err := api.taskSvc.Create(ctx.Request.Context(), claims.UserID, &req)
	if err != nil {
		log.WithError(err).Error("не удалось создать задачу")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"task": task})
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	task := api.findOwnedTask(ctx)
	if task == nil {
		return
	}

	var patch models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(patch); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	updated, err := api.taskSvc.Update(ctx.Request.Context(), task, &patch)
	if err != nil {
		if err == errors.ErrWrongTaskStatus {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrWrongTaskStatus.Error()})
			return
		}
		log.WithError(err).Error("не удалось обновить задачу")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": updated})
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	task := api.findOwnedTask(ctx)
	if task == nil {
		return
	}

	if err := api.taskSvc.Delete(ctx.Request.Context(), task); err != nil {
		log.WithError(err).Error("не удалось удалить задачу")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (api *TaskAPI) addLabels(ctx *gin.Context) {
	task := api.findOwnedTask(ctx)
	if task == nil {
		return
	}

	var req []models.CreateLabelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	for _, label := range req {
		if err := valid.Struct(label); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidLabel.Error()})
			return
		}
	}

	names := make([]string, 0, len(req))
	for _, label := range req {
		names = append(names, label.Name)
	}

	updated, err := api.taskSvc.AddLabels(ctx.Request.Context(), task, names)
	if err != nil {
		log.WithError(err).Error("не удалось добавить метки")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": updated})
}

func (api *TaskAPI) removeLabels(ctx *gin.Context) {
	task := api.findOwnedTask(ctx)
	if task == nil {
		return
	}

	var names []string
	if err := ctx.ShouldBindJSON(&names); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}

	if err := api.taskSvc.RemoveLabels(ctx.Request.Context(), task, names); err != nil {
		log.WithError(err).Error("не удалось снять метки")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// findOwnedTask разрешает задачу по id и проверяет владение. Порядок
// ошибок фиксированный: сначала NotFound, затем Forbidden, чтобы по
// ответу нельзя было понять, существует ли чужая задача.
func (api *TaskAPI) findOwnedTask(ctx *gin.Context) *models.Task {
	claims := currentClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthorized.Error()})
		return nil
	}

	id := ctx.Param("taskID")
	task, err := api.taskRepo.GetTaskByID(ctx.Request.Context(), id)
	if err != nil {
		if err == errors.ErrTaskNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errors.ErrTaskNotFound.Error()})
		} else {
			log.WithError(err).Error("не удалось получить задачу")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		}
		return nil
	}

	if err := tasks.CheckOwnership(task, claims.UserID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": errors.ErrForbidden.Error()})
		return nil
	}

	return task
}

func labelsQuery(ctx *gin.Context) []string {
	var names []string
	for _, raw := range ctx.QueryArray("labels") {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func intQuery(ctx *gin.Context, key string) int {
	raw := ctx.Query(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func validationErrorToErrorResponse(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			switch verr.Field() {
			case "Name":
				return errors.ErrInvalidName
			case "Email":
				return errors.ErrInvalidEmail
			case "Password":
				return errors.ErrInvalidPassword
			case "Status":
				return errors.ErrInvalidStatus
			case "Title":
				return errors.ErrInvalidTitle
			case "Description":
				return errors.ErrInvalidDescription
			case "Labels":
				return errors.ErrInvalidLabel
			}
		}
	}
	return errors.ErrValidationFailed
}
