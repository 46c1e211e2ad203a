// Package access holds the authorization rules for requests, claims and
// notifications. Every check is a pure function of the actor and the entity.
package access

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
)

func IsRequester(actor uuid.UUID, req *model.AppRequest) bool {
	return req != nil && req.IsRequester(actor)
}

func IsAssignee(actor uuid.UUID, req *model.AppRequest) bool {
	return req != nil && req.IsAssignee(actor)
}

func OwnsNotification(actor uuid.UUID, n *model.Notification) bool {
	return n != nil && n.UserID == actor
}

// RequireRequester fails with Forbidden unless actor posted the request.
// action completes the sentence "only the requester can ...".
func RequireRequester(actor uuid.UUID, req *model.AppRequest, action string) error {
	if !IsRequester(actor, req) {
		return apperrors.Forbidden("only the requester can " + action)
	}
	return nil
}

func RequireAssignee(actor uuid.UUID, req *model.AppRequest, action string) error {
	if !IsAssignee(actor, req) {
		return apperrors.Forbidden("only the assignee can " + action)
	}
	return nil
}

// RequireNotificationOwner reports a foreign notification as missing.
func RequireNotificationOwner(actor uuid.UUID, n *model.Notification) error {
	if !OwnsNotification(actor, n) {
		return apperrors.NotFound("notification", nil)
	}
	return nil
}
