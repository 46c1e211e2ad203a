package api_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimLifecycle_LedgerApp(t *testing.T) {
	id := createRequest(t, alice, "Ledger App")

	bobClaim := submitClaim(t, bob, id)
	carolClaim := makeRequest(t, http.MethodPost, fmt.Sprintf("/app-requests/%s/claim", id), nil, carol.token)
	require.Equal(t, http.StatusCreated, carolClaim.StatusCode, carolClaim.Message)

	duplicate := makeRequest(t, http.MethodPost, fmt.Sprintf("/app-requests/%s/claims", id), nil, bob.token)
	assert.Equal(t, http.StatusBadRequest, duplicate.StatusCode)
	assert.Equal(t, "already_exists", duplicate.Code)

	self := makeRequest(t, http.MethodPost, fmt.Sprintf("/app-requests/%s/claims", id), nil, alice.token)
	assert.Equal(t, http.StatusBadRequest, self.StatusCode)

	get := makeRequest(t, http.MethodGet, "/app-requests/"+id, nil, "")
	assert.Equal(t, float64(2), get.Object(t)["pending_claims_count"])

	notOwner := makeRequest(t, http.MethodGet, fmt.Sprintf("/app-requests/%s/claims", id), nil, bob.token)
	assert.Equal(t, http.StatusForbidden, notOwner.StatusCode)

	notOwnerApprove := makeRequest(t, http.MethodPost,
		fmt.Sprintf("/app-requests/%s/claims/%s/approve", id, bobClaim), nil, carol.token)
	assert.Equal(t, http.StatusForbidden, notOwnerApprove.StatusCode)

	approve := makeRequest(t, http.MethodPost,
		fmt.Sprintf("/app-requests/%s/claims/%s/approve", id, bobClaim), nil, alice.token)
	require.Equal(t, http.StatusOK, approve.StatusCode, approve.Message)
	req := approve.Object(t)
	assert.Equal(t, "in_progress", req["status"])
	assert.Equal(t, bob.ID.String(), req["assignee_id"])

	claims := makeRequest(t, http.MethodGet, fmt.Sprintf("/app-requests/%s/claims", id), nil, alice.token)
	require.Equal(t, http.StatusOK, claims.StatusCode)
	statuses := map[string]string{}
	for _, c := range claims.List(t) {
		statuses[c["claimer_id"].(string)] = c["status"].(string)
	}
	assert.Equal(t, "approved", statuses[bob.ID.String()])
	assert.Equal(t, "denied", statuses[carol.ID.String()])

	again := makeRequest(t, http.MethodPost,
		fmt.Sprintf("/app-requests/%s/claims/%s/approve", id, bobClaim), nil, alice.token)
	assert.Equal(t, http.StatusBadRequest, again.StatusCode)

	assert.Contains(t, titles(notificationsFor(t, alice)), "New claim request for: Ledger App")
	assert.Contains(t, titles(notificationsFor(t, bob)), "Your claim was approved: Ledger App")
	assert.Contains(t, titles(notificationsFor(t, carol)), "Your claim was not selected: Ledger App")

	late := makeRequest(t, http.MethodPost, fmt.Sprintf("/app-requests/%s/claims", id), nil, carol.token)
	assert.Equal(t, http.StatusBadRequest, late.StatusCode, "in-progress requests do not accept claims")
}

func TestDenyClaim(t *testing.T) {
	id := createRequest(t, alice, "Habit Tracker")
	claimID := submitClaim(t, carol, id)

	deny := makeRequest(t, http.MethodPost, fmt.Sprintf("/app-requests/%s/claims/%s/deny", id, claimID), nil, alice.token)
	require.Equal(t, http.StatusOK, deny.StatusCode, deny.Message)
	assert.Equal(t, "denied", deny.GetString(t, "status"))

	get := makeRequest(t, http.MethodGet, "/app-requests/"+id, nil, "")
	assert.Equal(t, "open", get.Object(t)["status"])

	twice := makeRequest(t, http.MethodPost, fmt.Sprintf("/app-requests/%s/claims/%s/deny", id, claimID), nil, alice.token)
	assert.Equal(t, http.StatusBadRequest, twice.StatusCode)

	assert.Contains(t, titles(notificationsFor(t, carol)), "Your claim was denied: Habit Tracker")

	// a denied claimer may try again
	submitClaim(t, carol, id)
}

func TestConcurrentApprovals(t *testing.T) {
	id := createRequest(t, alice, "Race Condition")
	first := submitClaim(t, bob, id)
	second := submitClaim(t, carol, id)

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, claimID := range []string{first, second} {
		wg.Add(1)
		go func(i int, claimID string) {
			defer wg.Done()
			resp := makeRequest(t, http.MethodPost,
				fmt.Sprintf("/app-requests/%s/claims/%s/approve", id, claimID), nil, alice.token)
			codes[i] = resp.StatusCode
		}(i, claimID)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusBadRequest}, codes)
}
