package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(err error) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondWithError(c, err)

	var body Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", apperrors.NotFound("app request", nil), http.StatusNotFound, "not_found", "app request not found"},
		{"forbidden", apperrors.Forbidden("only the requester can approve claims"), http.StatusForbidden, "forbidden", "only the requester can approve claims"},
		{"invalid state", apperrors.InvalidState("claim is already denied"), http.StatusBadRequest, "invalid_state", "claim is already denied"},
		{"already exists", apperrors.AlreadyExists("dup"), http.StatusBadRequest, "already_exists", "dup"},
		{"wrapped", errors.Join(errors.New("ctx"), apperrors.InvalidArgument("bad")), http.StatusBadRequest, "invalid_argument", "bad"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := respond(tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestRespondWithSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithSuccess(c, http.StatusCreated, gin.H{"id": "x"})

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "x", body["data"].(map[string]interface{})["id"])
}
