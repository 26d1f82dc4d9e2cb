package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteUser_ConflictThenReassign(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")
	carol, _ := env.signup(t, "Carol", "carol@example.com")

	env.createTask(t, alice, bob)
	env.createTask(t, alice, bob)

	// First attempt reports the count and changes nothing.
	w := env.request(t, "DELETE", fmt.Sprintf("/api/users/%d", bob.ID), token, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "CONFLICT", body["code"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, float64(2), details["task_count"])

	// The caller confirms with a reassignment target.
	w = env.request(t, "DELETE",
		fmt.Sprintf("/api/users/%d?reassign_to=%d", bob.ID, carol.ID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Both tasks now belong to Carol.
	w = env.request(t, "GET", fmt.Sprintf("/api/tasks?assigned_to=%d", carol.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["tasks"], 2)
}

func TestDeleteUser_ReassignToSelf(t *testing.T) {
	env := newTestEnv(t)
	alice, token := env.signup(t, "Alice", "alice@example.com")
	bob, _ := env.signup(t, "Bob", "bob@example.com")
	env.createTask(t, alice, bob)

	w := env.request(t, "DELETE",
		fmt.Sprintf("/api/users/%d?reassign_to=%d", bob.ID, bob.ID), token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUser_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "Alice", "alice@example.com")

	w := env.request(t, "DELETE", "/api/users/9999", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
