package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/croftbit/taskboard/internal/database"
	"github.com/croftbit/taskboard/internal/middleware"
	"github.com/croftbit/taskboard/internal/models"
	"github.com/croftbit/taskboard/internal/notify"
	"github.com/croftbit/taskboard/internal/realtime"
	"github.com/croftbit/taskboard/internal/repository"
	"github.com/croftbit/taskboard/internal/services"
	"github.com/croftbit/taskboard/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires the full request path: router, middleware, services, hub,
// and an in-memory database.
type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	hub    *realtime.Hub
	auth   *services.AuthService
	tasks  *services.TaskService
	tokens *services.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One shared in-memory database across the pool.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.Comment{},
		&models.Attachment{},
		&models.AuditEntry{},
	))
	database.SetDB(db)

	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)

	hub := realtime.NewHub()
	dispatcher := notify.NewDispatcher(hub)
	tokens := services.NewTokenService("test-secret", time.Hour, userRepo)
	authService := services.NewAuthService(userRepo, tokens)
	taskService := services.NewTaskService(taskRepo, userRepo, blobs, dispatcher)
	userService := services.NewUserService(userRepo, taskRepo, taskService)

	authHandler := NewAuthHandler(authService)
	taskHandler := NewTaskHandler(taskService)
	attachmentHandler := NewAttachmentHandler(taskService)
	userHandler := NewUserHandler(userService)
	wsHandler := NewWSHandler(hub, tokens)

	router := gin.New()
	router.GET("/ws", wsHandler.Serve)

	api := router.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.RequireAuth(tokens), authHandler.GetCurrentUser)

	users := api.Group("/users")
	users.Use(middleware.RequireAuth(tokens))
	users.DELETE("/:id", userHandler.DeleteUser)

	tasks := api.Group("/tasks")
	tasks.Use(middleware.RequireAuth(tokens))
	tasks.GET("", taskHandler.ListTasks)
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
	tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
	tasks.DELETE("/:id", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
	tasks.POST("/:id/comments", middleware.RequireTaskAccess(), taskHandler.AddComment)
	tasks.POST("/:id/attachments", middleware.RequireTaskAccess(), attachmentHandler.Upload)
	tasks.GET("/:id/attachments/:attachment_id", middleware.RequireTaskAccess(), attachmentHandler.Download)
	tasks.DELETE("/:id/attachments/:attachment_id", middleware.RequireTaskAccess(), attachmentHandler.Remove)

	return &testEnv{
		db:     db,
		router: router,
		hub:    hub,
		auth:   authService,
		tasks:  taskService,
		tokens: tokens,
	}
}

// signup creates a user through the auth service and returns it with a
// valid credential.
func (e *testEnv) signup(t *testing.T, name, email string) (*models.User, string) {
	t.Helper()
	user, token, err := e.auth.Signup(services.SignupInput{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createTask(t *testing.T, creator, assignee *models.User) *models.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(services.CreateTaskInput{
		Title:        "Prepare sprint review",
		AssignedToID: assignee.ID,
		DueDate:      time.Now().Add(72 * time.Hour),
		CreatorID:    creator.ID,
	})
	require.NoError(t, err)
	return task
}

// request performs an HTTP request against the test router.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
