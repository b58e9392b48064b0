package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"task-tracker/internal/domain"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

type taskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

func (r taskRequest) toInput() (service.TaskInput, error) {
	in := service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
	}
	if strings.TrimSpace(r.Status) != "" {
		status, err := domain.ParseTaskStatus(r.Status)
		if err != nil {
			return service.TaskInput{}, err
		}
		in.Status = status
	}
	if strings.TrimSpace(r.Priority) != "" {
		priority, err := domain.ParseTaskPriority(r.Priority)
		if err != nil {
			return service.TaskInput{}, err
		}
		in.Priority = priority
	}
	return in, nil
}

func (h *Handler) bindTask(c *gin.Context) (service.TaskInput, bool) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.TaskInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.TaskInput{}, false
	}
	return in, true
}

// createTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body taskRequest true "Task"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/tasks [post]
func (h *Handler) createTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	in, ok := h.bindTask(c)
	if !ok {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), userID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, taskToResponse(*task))
}

// listTasks godoc
// @Summary List the caller's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "TODO, IN_PROGRESS or DONE"
// @Param priority query string false "LOW, MEDIUM, HIGH or URGENT"
// @Param title query string false "Case-insensitive title substring"
// @Param order query string false "date (default) or priority"
// @Success 200 {array} TaskResponse
// @Router /api/tasks [get]
func (h *Handler) listTasks(c *gin.Context) {
	var filter repository.TaskFilter

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseTaskStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Status = status
	}
	if raw := c.Query("priority"); raw != "" {
		priority, err := domain.ParseTaskPriority(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Priority = priority
	}
	filter.TitleContains = c.Query("title")

	switch strings.ToLower(c.DefaultQuery("order", "date")) {
	case "date":
		filter.Order = repository.OrderByDate
	case "priority":
		filter.Order = repository.OrderByPriority
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be date or priority"})
		return
	}

	h.respondTasks(c, filter)
}

// searchTasks godoc
// @Summary Search the caller's tasks by title
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param title query string true "Case-insensitive title substring"
// @Success 200 {array} TaskResponse
// @Router /api/tasks/search [get]
func (h *Handler) searchTasks(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title query parameter is required"})
		return
	}
	h.respondTasks(c, repository.TaskFilter{TitleContains: title})
}

// listTasksByStatus godoc
// @Summary List the caller's tasks with one status
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status path string true "TODO, IN_PROGRESS or DONE"
// @Success 200 {array} TaskResponse
// @Router /api/tasks/status/{status} [get]
func (h *Handler) listTasksByStatus(c *gin.Context) {
	status, err := domain.ParseTaskStatus(c.Param("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondTasks(c, repository.TaskFilter{Status: status})
}

// listTasksByPriority godoc
// @Summary List the caller's tasks with one priority
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param priority path string true "LOW, MEDIUM, HIGH or URGENT"
// @Success 200 {array} TaskResponse
// @Router /api/tasks/priority/{priority} [get]
func (h *Handler) listTasksByPriority(c *gin.Context) {
	priority, err := domain.ParseTaskPriority(c.Param("priority"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondTasks(c, repository.TaskFilter{Priority: priority})
}

// listTasksOrdered godoc
// @Summary List the caller's tasks in a fixed order
// @Description /order/priority sorts most urgent first, /order/date newest first
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TaskResponse
// @Router /api/tasks/order/priority [get]
// @Router /api/tasks/order/date [get]
func (h *Handler) listTasksOrdered(c *gin.Context) {
	order := repository.OrderByDate
	if strings.HasSuffix(c.FullPath(), "/priority") {
		order = repository.OrderByPriority
	}
	h.respondTasks(c, repository.TaskFilter{Order: order})
}

func (h *Handler) respondTasks(c *gin.Context, filter repository.TaskFilter) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), userID, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasksToResponse(tasks))
}

// getTask godoc
// @Summary Get one of the caller's tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tasks/{id} [get]
func (h *Handler) getTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskToResponse(*task))
}

// updateTask godoc
// @Summary Replace one of the caller's tasks
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param request body taskRequest true "Task"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tasks/{id} [put]
func (h *Handler) updateTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "task")
	if !ok {
		return
	}
	in, ok := h.bindTask(c)
	if !ok {
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), userID, id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskToResponse(*task))
}

// patchTask godoc
// @Summary Change a task's status or priority
// @Description transition is one of todo, in-progress, complete, low, medium, high, urgent
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param transition path string true "Transition"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tasks/{id}/{transition} [patch]
func (h *Handler) patchTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	var (
		task *domain.Task
		err  error
	)
	ctx := c.Request.Context()
	switch c.Param("transition") {
	case "todo":
		task, err = h.tasks.SetStatus(ctx, userID, id, domain.TaskStatusTodo)
	case "in-progress":
		task, err = h.tasks.SetStatus(ctx, userID, id, domain.TaskStatusInProgress)
	case "complete":
		task, err = h.tasks.SetStatus(ctx, userID, id, domain.TaskStatusDone)
	case "low":
		task, err = h.tasks.SetPriority(ctx, userID, id, domain.TaskPriorityLow)
	case "medium":
		task, err = h.tasks.SetPriority(ctx, userID, id, domain.TaskPriorityMedium)
	case "high":
		task, err = h.tasks.SetPriority(ctx, userID, id, domain.TaskPriorityHigh)
	case "urgent":
		task, err = h.tasks.SetPriority(ctx, userID, id, domain.TaskPriorityUrgent)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task transition"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskToResponse(*task))
}

// deleteTask godoc
// @Summary Delete one of the caller's tasks
// @Tags tasks
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /api/tasks/{id} [delete]
func (h *Handler) deleteTask(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "task")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// deleteAllTasks godoc
// @Summary Delete all of the caller's tasks
// @Tags tasks
// @Security BearerAuth
// @Success 204
// @Router /api/tasks [delete]
func (h *Handler) deleteAllTasks(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	deleted, err := h.tasks.DeleteAllTasks(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithField(ctxUserIDKey, userID).Infof("deleted %d tasks", deleted)
	c.Status(http.StatusNoContent)
}
