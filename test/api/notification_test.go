package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreadCount(t *testing.T, u testUser) float64 {
	t.Helper()
	resp := makeRequest(t, http.MethodGet, "/notifications/count", nil, u.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return resp.Object(t)["unread_count"].(float64)
}

func TestNotificationLedger(t *testing.T) {
	invitee := newUser("dave")

	invite := makeRequest(t, http.MethodPost, "/notifications/team-invitation", map[string]interface{}{
		"team_id": team.ID.String(),
		"user_id": invitee.ID.String(),
	}, alice.token)
	require.Equal(t, http.StatusCreated, invite.StatusCode, invite.Message)
	assert.Equal(t, "team_invitation", invite.GetString(t, "type"))

	id := createRequest(t, invitee, "Dave's tool")
	submitClaim(t, bob, id)

	items := notificationsFor(t, invitee)
	require.Len(t, items, 2)
	assert.Equal(t, "New claim request for: Dave's tool", items[0]["title"], "newest first")
	assert.Equal(t, "You've been invited to join: Platform", items[1]["title"])
	assert.Equal(t, float64(2), unreadCount(t, invitee))

	notifID := items[0]["id"].(string)

	other := makeRequest(t, http.MethodPost, fmt.Sprintf("/notifications/%s/read", notifID), nil, bob.token)
	assert.Equal(t, http.StatusNotFound, other.StatusCode, "foreign notifications look absent")

	read := makeRequest(t, http.MethodPost, fmt.Sprintf("/notifications/%s/read", notifID), nil, invitee.token)
	require.Equal(t, http.StatusOK, read.StatusCode)
	assert.Equal(t, true, read.Object(t)["is_read"])
	assert.Equal(t, float64(1), unreadCount(t, invitee))

	unread := makeRequest(t, http.MethodGet, "/notifications?unread_only=true", nil, invitee.token)
	require.Equal(t, http.StatusOK, unread.StatusCode)
	assert.Len(t, unread.List(t), 1)

	all := makeRequest(t, http.MethodPost, "/notifications/read-all", nil, invitee.token)
	require.Equal(t, http.StatusOK, all.StatusCode)
	assert.Equal(t, float64(1), all.Object(t)["marked"])
	assert.Equal(t, float64(0), unreadCount(t, invitee))

	del := makeRequest(t, http.MethodDelete, "/notifications/"+notifID, nil, invitee.token)
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
	assert.Len(t, notificationsFor(t, invitee), 1)

	missing := makeRequest(t, http.MethodDelete, "/notifications/"+uuid.NewString(), nil, invitee.token)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestNotifications_RequireAuth(t *testing.T) {
	resp := makeRequest(t, http.MethodGet, "/notifications", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	badLimit := makeRequest(t, http.MethodGet, "/notifications?limit=abc", nil, alice.token)
	assert.Equal(t, http.StatusBadRequest, badLimit.StatusCode)
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, makeRequest(t, http.MethodGet, "/health/ready", nil, "").StatusCode)
}
