package model

import (
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
)

type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusDenied   ClaimStatus = "denied"
)

// ClaimRequest is a user's offer to build the app for a request.
type ClaimRequest struct {
	Base
	AppRequestID uuid.UUID   `db:"app_request_id" json:"app_request_id"`
	ClaimerID    uuid.UUID   `db:"claimer_id" json:"claimer_id"`
	Message      *string     `db:"message" json:"message,omitempty"`
	Status       ClaimStatus `db:"status" json:"status"`
}

func (c *ClaimRequest) IsPending() bool {
	return c.Status == ClaimStatusPending
}

// Decide moves a pending claim to approved or denied.
func (c *ClaimRequest) Decide(next ClaimStatus) error {
	if next != ClaimStatusApproved && next != ClaimStatusDenied {
		return apperrors.InvalidArgument(fmt.Sprintf("invalid claim decision %q", next))
	}
	if !c.IsPending() {
		return apperrors.InvalidState(fmt.Sprintf("claim is already %s", c.Status))
	}
	c.Status = next
	return nil
}

type SubmitClaimInput struct {
	Message *string `json:"message" binding:"omitempty,max=2000"`
}
