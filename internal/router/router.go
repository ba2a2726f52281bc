package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/api/transport"
)

type Handlers struct {
	Auth       *apiHandler.AuthHandler
	Profile    *apiHandler.ProfileHandler
	Task       *apiHandler.TaskHandler
	Categories *apiHandler.TaxonomyHandler
	Tags       *apiHandler.TaxonomyHandler
	Health     *apiHandler.HealthHandler
}

type Options struct {
	EnableMetrics bool
	Logger        *zap.Logger
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := router.New()
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, recovered interface{}) {
		logger.Error("handler panic",
			zap.String("path", string(ctx.Path())),
			zap.Any("panic", recovered))
		transport.WriteError(ctx, fasthttp.StatusInternalServerError, "internal server error")
	}

	r.GET("/health", handlers.Health.Check)
	if opts.EnableMetrics {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	}

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Protected routes
	r.GET("/api/v1/users/me", authMiddleware(handlers.Profile.GetProfile))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.ListTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/category", authMiddleware(handlers.Task.AssignCategory))
	r.POST("/api/v1/tasks/{id}/tags", authMiddleware(handlers.Task.AssignTag))
	r.PUT("/api/v1/tasks/{id}/reminder", authMiddleware(handlers.Task.SetReminder))
	r.GET("/api/v1/tasks/{id}/activity", authMiddleware(handlers.Task.ListActivity))

	r.GET("/api/v1/categories", authMiddleware(handlers.Categories.List))
	r.POST("/api/v1/categories", authMiddleware(handlers.Categories.Create))
	r.GET("/api/v1/tags", authMiddleware(handlers.Tags.List))
	r.POST("/api/v1/tags", authMiddleware(handlers.Tags.Create))

	return r
}
