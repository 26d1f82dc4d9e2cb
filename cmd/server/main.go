package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/croftbit/taskboard/internal/config"
	"github.com/croftbit/taskboard/internal/database"
	"github.com/croftbit/taskboard/internal/handlers"
	"github.com/croftbit/taskboard/internal/middleware"
	"github.com/croftbit/taskboard/internal/notify"
	"github.com/croftbit/taskboard/internal/realtime"
	"github.com/croftbit/taskboard/internal/repository"
	"github.com/croftbit/taskboard/internal/services"
	"github.com/croftbit/taskboard/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)

	hub := realtime.NewHub()
	go hub.Run(ctx)

	dispatcher := notify.NewDispatcher(hub)
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, userRepo)
	authService := services.NewAuthService(userRepo, tokenService)
	taskService := services.NewTaskService(taskRepo, userRepo, blobs, dispatcher)
	userService := services.NewUserService(userRepo, taskRepo, taskService)

	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	attachmentHandler := handlers.NewAttachmentHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)
	wsHandler := handlers.NewWSHandler(hub, tokenService)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ws", wsHandler.Serve)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.RequireAuth(tokenService), authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(middleware.RequireAuth(tokenService))
		{
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth(tokenService))
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), taskHandler.AddComment)
			tasks.POST("/:id/attachments", middleware.RequireTaskAccess(), attachmentHandler.Upload)
			tasks.GET("/:id/attachments/:attachment_id", middleware.RequireTaskAccess(), attachmentHandler.Download)
			tasks.DELETE("/:id/attachments/:attachment_id", middleware.RequireTaskAccess(), attachmentHandler.Remove)
		}
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageType == "s3" {
		return storage.NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region)
	}
	return storage.NewLocalStorage(cfg.StorageDir)
}
