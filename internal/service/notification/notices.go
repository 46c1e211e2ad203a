package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

func text(s string) *string { return &s }

// ActorName resolves the display name used in notice messages. Lookup
// failures fall back to a neutral name rather than failing the operation.
func ActorName(ctx context.Context, users repository.UserDirectory, id uuid.UUID) string {
	if users == nil {
		return "Someone"
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return "Someone"
	}
	return user.DisplayName()
}

// The constructors below build the lifecycle notices. All of them point at
// the app request they concern.

func RequestAssigned(req *model.AppRequest, assignee model.User, actorName string) model.Notice {
	return model.Notice{
		UserID:  assignee.ID,
		Type:    model.NotificationRequestAssigned,
		Title:   fmt.Sprintf("You've been assigned to: %s", req.Name),
		Message: text(fmt.Sprintf("%s assigned you to work on this request.", actorName)),
		Related: model.AppRequestRef(req.ID),
	}
}

func NewClaim(req *model.AppRequest, claimerName string) model.Notice {
	return model.Notice{
		UserID:  req.RequesterID,
		Type:    model.NotificationNewClaim,
		Title:   fmt.Sprintf("New claim request for: %s", req.Name),
		Message: text(fmt.Sprintf("%s wants to work on your request.", claimerName)),
		Related: model.AppRequestRef(req.ID),
	}
}

func ClaimApproved(req *model.AppRequest, claim *model.ClaimRequest) model.Notice {
	return model.Notice{
		UserID:  claim.ClaimerID,
		Type:    model.NotificationClaimApproved,
		Title:   fmt.Sprintf("Your claim was approved: %s", req.Name),
		Message: text("You've been assigned to work on this request. Time to get started!"),
		Related: model.AppRequestRef(req.ID),
	}
}

// AssignmentReplaced tells a directly assigned user that an approved claim
// took the request over.
func AssignmentReplaced(req *model.AppRequest, previous uuid.UUID) model.Notice {
	return model.Notice{
		UserID:  previous,
		Type:    model.NotificationRequestAssigned,
		Title:   fmt.Sprintf("You're no longer assigned to: %s", req.Name),
		Message: text("The requester approved a claim from another developer."),
		Related: model.AppRequestRef(req.ID),
	}
}

// ClaimNotSelected tells a losing claimer another claim was approved.
func ClaimNotSelected(req *model.AppRequest, claim *model.ClaimRequest) model.Notice {
	return model.Notice{
		UserID:  claim.ClaimerID,
		Type:    model.NotificationClaimDenied,
		Title:   fmt.Sprintf("Your claim was not selected: %s", req.Name),
		Message: text("Another developer was chosen for this request."),
		Related: model.AppRequestRef(req.ID),
	}
}

func ClaimDenied(req *model.AppRequest, claim *model.ClaimRequest) model.Notice {
	return model.Notice{
		UserID:  claim.ClaimerID,
		Type:    model.NotificationClaimDenied,
		Title:   fmt.Sprintf("Your claim was denied: %s", req.Name),
		Message: text("The requester chose not to accept your claim for this request."),
		Related: model.AppRequestRef(req.ID),
	}
}

func RequestCancelled(req *model.AppRequest, claim *model.ClaimRequest) model.Notice {
	return model.Notice{
		UserID:  claim.ClaimerID,
		Type:    model.NotificationClaimDenied,
		Title:   fmt.Sprintf("Request cancelled: %s", req.Name),
		Message: text("The requester cancelled this request, so your claim was closed."),
		Related: model.AppRequestRef(req.ID),
	}
}

func RequestCompleted(req *model.AppRequest, assigneeName string) model.Notice {
	return model.Notice{
		UserID:  req.RequesterID,
		Type:    model.NotificationRequestCompleted,
		Title:   fmt.Sprintf("Your request was completed: %s", req.Name),
		Message: text(fmt.Sprintf("%s finished building the app you asked for.", assigneeName)),
		Related: model.AppRequestRef(req.ID),
	}
}

func TeamInvitation(team model.Team, invitee model.User, inviterName string) model.Notice {
	return model.Notice{
		UserID:  invitee.ID,
		Type:    model.NotificationTeamInvitation,
		Title:   fmt.Sprintf("You've been invited to join: %s", team.Name),
		Message: text(fmt.Sprintf("%s invited you to the team.", inviterName)),
		Related: model.TeamRef(team.ID),
	}
}
