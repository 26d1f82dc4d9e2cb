package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")

	w := env.request(t, "POST", "/api/tasks", token, map[string]interface{}{
		"title":          "Prepare sprint review",
		"assigned_to_id": bob.ID,
		"due_date":       time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "TODO", body["status"])
	assert.Equal(t, "MEDIUM", body["priority"])
	assert.Len(t, body["audit_history"], 1)
}

func TestCreateTask_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "Alice", "alice@example.com")

	w := env.request(t, "POST", "/api/tasks", token, map[string]interface{}{
		"title": "No assignee or due date",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decodeBody(t, w)["code"])
}

func TestCreateTask_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/tasks", "", map[string]interface{}{})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateTask_ReopenCompletedConflicts(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")
	task := env.createTask(t, alice, bob)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := env.request(t, "PATCH", path, token, map[string]interface{}{"status": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decodeBody(t, w)["completed_at"])

	w = env.request(t, "PATCH", path, token, map[string]interface{}{"status": "TODO"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeBody(t, w)["code"])
}

func TestTaskAccess_StrangerGets404(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")
	_, strangerToken := env.signup(t, "Mallory", "mallory@example.com")
	task := env.createTask(t, alice, bob)

	// Existence must not leak to users outside the task.
	w := env.request(t, "GET", fmt.Sprintf("/api/tasks/%d", task.ID), strangerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")
	task := env.createTask(t, alice, bob)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := env.request(t, "DELETE", path, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, "GET", path, token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")
	task := env.createTask(t, alice, bob)

	w := env.request(t, "POST", fmt.Sprintf("/api/tasks/%d/comments", task.ID), token,
		map[string]interface{}{"text": "ready for review"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	comments := body["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "ready for review", comments[0].(map[string]interface{})["text"])
	assert.Len(t, body["audit_history"], 2)
}

func TestListTasks_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")

	first := env.createTask(t, alice, bob)
	env.createTask(t, alice, bob)

	w := env.request(t, "PATCH", fmt.Sprintf("/api/tasks/%d", first.ID), token,
		map[string]interface{}{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, "GET", "/api/tasks?status=IN_PROGRESS", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	tasks := body["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, float64(first.ID), tasks[0].(map[string]interface{})["id"])

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])
}

func TestListTasks_InvalidStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "Alice", "alice@example.com")

	w := env.request(t, "GET", "/api/tasks?status=DONE", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
