package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationRequestAssigned  NotificationType = "request_assigned"
	NotificationNewClaim         NotificationType = "new_claim"
	NotificationClaimApproved    NotificationType = "claim_approved"
	NotificationClaimDenied      NotificationType = "claim_denied"
	NotificationRequestCompleted NotificationType = "request_completed"
	NotificationTeamInvitation   NotificationType = "team_invitation"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationRequestAssigned, NotificationNewClaim, NotificationClaimApproved,
		NotificationClaimDenied, NotificationRequestCompleted, NotificationTeamInvitation:
		return true
	}
	return false
}

type RelatedKind string

const (
	RelatedAppRequest   RelatedKind = "app_request"
	RelatedClaimRequest RelatedKind = "claim_request"
	RelatedTeam         RelatedKind = "team"
)

// RelatedRef points a notification at the entity it concerns.
type RelatedRef struct {
	Kind RelatedKind `json:"type"`
	ID   uuid.UUID   `json:"id"`
}

func AppRequestRef(id uuid.UUID) *RelatedRef {
	return &RelatedRef{Kind: RelatedAppRequest, ID: id}
}

func TeamRef(id uuid.UUID) *RelatedRef {
	return &RelatedRef{Kind: RelatedTeam, ID: id}
}

// ParseRelatedRef rebuilds a reference from its stored columns. Both columns
// must be set or both empty.
func ParseRelatedRef(kind *string, id *uuid.UUID) (*RelatedRef, error) {
	if kind == nil && id == nil {
		return nil, nil
	}
	if kind == nil || id == nil {
		return nil, fmt.Errorf("related reference is incomplete")
	}
	switch k := RelatedKind(*kind); k {
	case RelatedAppRequest, RelatedClaimRequest, RelatedTeam:
		return &RelatedRef{Kind: k, ID: *id}, nil
	default:
		return nil, fmt.Errorf("unknown related type %q", *kind)
	}
}

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   *string          `json:"message,omitempty"`
	Related   *RelatedRef      `json:"related,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Notice is the input for appending a notification.
type Notice struct {
	UserID  uuid.UUID        `json:"user_id" binding:"required"`
	Type    NotificationType `json:"type" binding:"required"`
	Title   string           `json:"title" binding:"required,notblank,max=200"`
	Message *string          `json:"message,omitempty"`
	Related *RelatedRef      `json:"related,omitempty"`
}

type NotificationEvent struct {
	NotificationID uuid.UUID        `json:"notification_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        *string          `json:"message,omitempty"`
	Related        *RelatedRef      `json:"related,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (n *Notification) Event() NotificationEvent {
	return NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		Related:        n.Related,
		CreatedAt:      n.CreatedAt,
	}
}
