package apprequest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/handler"
	"github.com/jwalitptl/showcase-api/internal/middleware"
	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/service/apprequest"
	"github.com/jwalitptl/showcase-api/internal/service/claim"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
	"github.com/jwalitptl/showcase-api/pkg/httputil"
)

type Handler struct {
	requests *apprequest.Service
	claims   *claim.Service
}

func NewHandler(requests *apprequest.Service, claims *claim.Service) *Handler {
	return &Handler{requests: requests, claims: claims}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	requests := r.Group("/app-requests")
	{
		requests.GET("", auth.OptionalAuth(), h.ListRequests)
		requests.GET("/:id", h.GetRequest)

		protected := requests.Group("", auth.Authenticate())
		protected.POST("", h.CreateRequest)
		protected.PUT("/:id", h.UpdateRequest)
		protected.DELETE("/:id", h.DeleteRequest)
		protected.POST("/:id/assign", h.AssignRequest)
		protected.POST("/:id/complete", h.CompleteRequest)
		protected.POST("/:id/cancel", h.CancelRequest)

		protected.POST("/:id/claims", h.SubmitClaim)
		protected.POST("/:id/claim", h.SubmitClaim)
		protected.GET("/:id/claims", h.ListClaims)
		protected.POST("/:id/claims/:claim_id/approve", h.ApproveClaim)
		protected.POST("/:id/claims/:claim_id/deny", h.DenyClaim)
	}
}

func (h *Handler) ListRequests(c *gin.Context) {
	var q apprequest.ListQuery

	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseRequestStatus(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.InvalidArgument("invalid status"))
			return
		}
		q.Status = &status
	}
	if raw := c.Query("team_id"); raw != "" {
		teamID, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.InvalidArgument("invalid team_id"))
			return
		}
		q.TeamID = &teamID
	}

	var ok bool
	if q.Mine, ok = handler.QueryBool(c, "mine"); !ok {
		return
	}
	if q.AssignedToMe, ok = handler.QueryBool(c, "assigned_to_me"); !ok {
		return
	}

	var actor *uuid.UUID
	if q.Mine || q.AssignedToMe {
		id, ok := handler.Actor(c)
		if !ok {
			return
		}
		actor = &id
	}

	items, err := h.requests.List(c.Request.Context(), actor, q)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, items)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, req)
}

func (h *Handler) CreateRequest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}

	var in model.CreateAppRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	req, err := h.requests.Create(c.Request.Context(), actor, in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, req)
}

func (h *Handler) UpdateRequest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	var in model.UpdateAppRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	req, err := h.requests.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, req)
}

func (h *Handler) AssignRequest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	var in model.AssignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	req, err := h.requests.Assign(c.Request.Context(), actor, id, in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, req)
}

// CompleteRequest takes app_id from the query string or the JSON body.
func (h *Handler) CompleteRequest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	var in model.CompleteInput
	if raw := c.Query("app_id"); raw != "" {
		appID, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.InvalidArgument("invalid app_id"))
			return
		}
		in.AppID = appID
	} else if c.Request.ContentLength != 0 && strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&in); err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
	}

	req, err := h.requests.Complete(c.Request.Context(), actor, id, in.AppID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, req)
}

func (h *Handler) CancelRequest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	req, err := h.requests.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, req)
}

func (h *Handler) DeleteRequest(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.requests.Delete(c.Request.Context(), actor, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
