package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"trajectfit/docs"
	"trajectfit/internal/auth"
	"trajectfit/internal/config"
	"trajectfit/internal/handler"
	"trajectfit/internal/metrics"
	"trajectfit/internal/model"
	"trajectfit/internal/storage"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	goalHandler *handler.GoalHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(slog.Default()))
	e.Use(metrics.Middleware())

	e.Validator = NewCustomValidator()

	docs.SwaggerInfo.BasePath = cfg.Prefix()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group(cfg.Prefix())

	if cfg.AvatarStorage == storage.KindLocal {
		api.Static("/uploads/avatars", cfg.UploadDir)
	}

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/users", userHandler.CreateUser)

	// Secured routes (require JWT authentication)
	secured := api.Group("", auth.Middleware(jwtService))
	adminOnly := auth.RequireRole(model.RoleAdmin)

	secured.GET("/auth/refresh", authHandler.Refresh)
	secured.GET("/auth/profile", authHandler.Profile)

	// User routes
	secured.GET("/users", userHandler.ListUsers, adminOnly)
	secured.GET("/users/profile/me", userHandler.GetMe)
	secured.GET("/users/:id", userHandler.GetUser)
	secured.PATCH("/users/:id", userHandler.UpdateUser)
	secured.DELETE("/users/:id", userHandler.DeleteUser, adminOnly)
	secured.POST("/users/:id/avatar", userHandler.UploadAvatar, middleware.BodyLimit("6M"))

	// Fitness goal routes
	secured.POST("/fitness-goals", goalHandler.CreateGoal)
	secured.GET("/fitness-goals", goalHandler.ListGoals)
	secured.GET("/fitness-goals/:id", goalHandler.GetGoal)
	secured.PATCH("/fitness-goals/:id", goalHandler.UpdateGoal)
	secured.DELETE("/fitness-goals/:id", goalHandler.DeleteGoal)
	secured.PATCH("/fitness-goals/:id/progress", goalHandler.UpdateProgress)
	secured.GET("/fitness-goals/:id/history", goalHandler.GoalHistory)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}
