package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "task-tracker/docs" // Swagger docs
	"task-tracker/internal/auth"
	"task-tracker/internal/exporter"
	"task-tracker/internal/service"
	"task-tracker/internal/storage"
)

// Options carries the dependencies of Handler. Manager and Storage may be nil,
// in which case the export routes answer 503.
type Options struct {
	Users     service.UserService
	Tasks     service.TaskService
	Exports   service.ExportService
	Manager   exporter.Manager
	Storage   storage.Service
	Tokens    *auth.TokenCodec
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
	Logger    *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	tasks     service.TaskService
	exports   service.ExportService
	manager   exporter.Manager
	storage   storage.Service
	tokens    *auth.TokenCodec
	bucket    string
	keyPrefix string
	urlExpiry time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:     opts.Users,
		tasks:     opts.Tasks,
		exports:   opts.Exports,
		manager:   opts.Manager,
		storage:   opts.Storage,
		tokens:    opts.Tokens,
		bucket:    opts.Bucket,
		keyPrefix: opts.KeyPrefix,
		urlExpiry: opts.URLExpiry,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRoutes installs the middleware chain and every route. The gate runs
// for all routes; public paths are let through by the gate itself.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(
		requestIDMiddleware(),
		recoveryMiddleware(h.logger),
		accessLogMiddleware(h.logger),
		corsMiddleware(),
		h.Gate(),
	)

	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	router.GET("/v3/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/swagger/doc.json")
	})

	api := router.Group("/api")
	{
		api.GET("/health", h.health)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)

		api.GET("/users/me", h.me)

		tasks := api.Group("/tasks")
		tasks.POST("", h.createTask)
		tasks.GET("", h.listTasks)
		tasks.DELETE("", h.deleteAllTasks)
		tasks.GET("/search", h.searchTasks)
		tasks.GET("/status/:status", h.listTasksByStatus)
		tasks.GET("/priority/:priority", h.listTasksByPriority)
		tasks.GET("/order/priority", h.listTasksOrdered)
		tasks.GET("/order/date", h.listTasksOrdered)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
		tasks.PATCH("/:id/:transition", h.patchTask)

		exports := api.Group("/exports", h.requireStorage())
		exports.POST("", h.createExport)
		exports.GET("", h.listExports)
		exports.GET("/objects", h.listObjects)
		exports.GET("/:id", h.getExport)
		exports.GET("/:id/url", h.exportURL)
		exports.DELETE("/:id", h.deleteExport)
	}
}

// health godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
