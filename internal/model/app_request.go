package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
)

type RequestStatus string

const (
	RequestStatusOpen       RequestStatus = "open"
	RequestStatusAssigned   RequestStatus = "assigned"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

const ShortDescriptionMaxLen = 200

// requestTransitions lists the legal edges of the request state machine.
// in_progress is entered only through claim approval.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusOpen:       {RequestStatusAssigned, RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusAssigned:   {RequestStatusAssigned, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusCancelled},
}

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch st := RequestStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case RequestStatusOpen, RequestStatusAssigned, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AppRequest is a posted request for someone to build an app. Status is only
// changed through the transition methods below.
type AppRequest struct {
	Base
	Name             string        `db:"name" json:"name"`
	ShortDescription string        `db:"short_description" json:"short_description"`
	Description      *string       `db:"description" json:"description,omitempty"`
	Status           RequestStatus `db:"status" json:"status"`
	RequesterID      uuid.UUID     `db:"requester_id" json:"requester_id"`
	AssigneeID       *uuid.UUID    `db:"assignee_id" json:"assignee_id,omitempty"`
	AssignedEmail    *string       `db:"assigned_email" json:"assigned_email,omitempty"`
	AppID            *uuid.UUID    `db:"app_id" json:"app_id,omitempty"`
	TeamID           *uuid.UUID    `db:"team_id" json:"team_id,omitempty"`
}

// AppRequestSummary is the list projection of a request.
type AppRequestSummary struct {
	AppRequest
	PendingClaimsCount int `db:"pending_claims_count" json:"pending_claims_count"`
}

func (r *AppRequest) transition(next RequestStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return apperrors.InvalidState(fmt.Sprintf("request cannot move from %s to %s", r.Status, next))
	}
	r.Status = next
	return nil
}

// AssignTo records a direct assignment. A nil userID keeps only the email as
// a pending invitation target.
func (r *AppRequest) AssignTo(userID *uuid.UUID, email *string) error {
	if err := r.transition(RequestStatusAssigned); err != nil {
		return err
	}
	r.AssigneeID = userID
	r.AssignedEmail = email
	return nil
}

// StartWork hands the request to the approved claimer.
func (r *AppRequest) StartWork(assignee uuid.UUID) error {
	if err := r.transition(RequestStatusInProgress); err != nil {
		return err
	}
	r.AssigneeID = &assignee
	return nil
}

func (r *AppRequest) Complete(appID uuid.UUID) error {
	if r.AssigneeID == nil {
		return apperrors.InvalidState("request has no assignee")
	}
	if err := r.transition(RequestStatusCompleted); err != nil {
		return err
	}
	r.AppID = &appID
	return nil
}

func (r *AppRequest) Cancel() error {
	return r.transition(RequestStatusCancelled)
}

// AcceptingClaims reports whether new claims may be submitted.
func (r *AppRequest) AcceptingClaims() bool {
	return r.Status == RequestStatusOpen
}

// ApprovalEligible reports whether a pending claim may still be approved.
func (r *AppRequest) ApprovalEligible() bool {
	return r.Status == RequestStatusOpen || r.Status == RequestStatusAssigned
}

func (r *AppRequest) IsRequester(userID uuid.UUID) bool {
	return r.RequesterID == userID
}

func (r *AppRequest) IsAssignee(userID uuid.UUID) bool {
	return r.AssigneeID != nil && *r.AssigneeID == userID
}

// DeriveShortDescription truncates the long description (or the name) to the
// short description limit.
func DeriveShortDescription(name string, description *string) string {
	src := name
	if description != nil && strings.TrimSpace(*description) != "" {
		src = strings.TrimSpace(*description)
	}
	runes := []rune(src)
	if len(runes) > ShortDescriptionMaxLen {
		runes = runes[:ShortDescriptionMaxLen]
	}
	return string(runes)
}

type AppRequestFilters struct {
	Status        *RequestStatus
	TeamID        *uuid.UUID
	RequesterID   *uuid.UUID
	AssigneeID    *uuid.UUID
	AssigneeEmail string
}

type CreateAppRequestInput struct {
	Name             string     `json:"name" binding:"required,notblank,max=200"`
	ShortDescription *string    `json:"short_description" binding:"omitempty,max=200"`
	Description      *string    `json:"description" binding:"omitempty,max=10000"`
	TeamID           *uuid.UUID `json:"team_id"`
	AssignedEmail    *string    `json:"assigned_email" binding:"omitempty,email"`
}

type UpdateAppRequestInput struct {
	Name             *string `json:"name" binding:"omitempty,notblank,max=200"`
	ShortDescription *string `json:"short_description" binding:"omitempty,max=200"`
	Description      *string `json:"description" binding:"omitempty,max=10000"`
	// Status is accepted only to reject it with a clear message.
	Status *string `json:"status"`
}

type AssignInput struct {
	Email  *string    `json:"email" binding:"omitempty,email"`
	UserID *uuid.UUID `json:"user_id"`
}

type CompleteInput struct {
	AppID uuid.UUID `json:"app_id" form:"app_id"`
}
