package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResponse is the decoded envelope plus the HTTP status.
type TestResponse struct {
	StatusCode int
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Code       string          `json:"code"`
	Data       json.RawMessage `json:"data"`
}

func (r TestResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r TestResponse) Object(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Data, &out), "data: %s", r.Data)
	return out
}

func (r TestResponse) List(t *testing.T) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Data, &out), "data: %s", r.Data)
	return out
}

func (r TestResponse) GetString(t *testing.T, key string) string {
	t.Helper()
	v, _ := r.Object(t)[key].(string)
	return v
}

func makeRequest(t *testing.T, method, path string, body interface{}, token string) TestResponse {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := TestResponse{StatusCode: resp.StatusCode}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return out
}

func createRequest(t *testing.T, owner testUser, name string) string {
	t.Helper()
	resp := makeRequest(t, http.MethodPost, "/app-requests", map[string]interface{}{
		"name":        name,
		"description": "Build " + name,
	}, owner.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create failed: %s", resp.Message)
	return resp.GetString(t, "id")
}

func submitClaim(t *testing.T, claimer testUser, requestID string) string {
	t.Helper()
	resp := makeRequest(t, http.MethodPost, fmt.Sprintf("/app-requests/%s/claims", requestID),
		map[string]interface{}{"message": "I can do it"}, claimer.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "claim failed: %s", resp.Message)
	return resp.GetString(t, "id")
}

func notificationsFor(t *testing.T, u testUser) []map[string]interface{} {
	t.Helper()
	resp := makeRequest(t, http.MethodGet, "/notifications?limit=100", nil, u.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return resp.List(t)
}

func titles(items []map[string]interface{}) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		title, _ := n["title"].(string)
		out = append(out, title)
	}
	return out
}
