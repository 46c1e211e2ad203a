package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/handler"
	"github.com/jwalitptl/showcase-api/internal/middleware"
	"github.com/jwalitptl/showcase-api/internal/service/notification"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
	"github.com/jwalitptl/showcase-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	notifications := r.Group("/notifications", auth.Authenticate())
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/count", h.UnreadCount)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.POST("/team-invitation", h.InviteToTeam)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}
}

type teamInvitationRequest struct {
	TeamID uuid.UUID `json:"team_id" binding:"required"`
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *Handler) ListNotifications(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	unreadOnly, ok := handler.QueryBool(c, "unread_only")
	if !ok {
		return
	}

	limit := notification.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.InvalidArgument("invalid limit"))
			return
		}
		limit = n
	}

	items, err := h.service.List(c.Request.Context(), actor, unreadOnly, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, items)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	n, err := h.service.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"unread_count": n})
}

func (h *Handler) MarkRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	n, err := h.service.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"marked": n})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// InviteToTeam records a team_invitation for the invitee on behalf of the
// caller.
func (h *Handler) InviteToTeam(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	var req teamInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	n, err := h.service.NotifyTeamInvitation(c.Request.Context(), actor, req.TeamID, req.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, n)
}
