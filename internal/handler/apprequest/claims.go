package apprequest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/showcase-api/internal/handler"
	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/pkg/httputil"
)

// SubmitClaim accepts an empty body; message is optional.
func (h *Handler) SubmitClaim(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	var in model.SubmitClaimInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
	}

	claim, err := h.claims.Submit(c.Request.Context(), actor, id, in)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, claim)
}

func (h *Handler) ListClaims(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}

	claims, err := h.claims.List(c.Request.Context(), actor, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, claims)
}

func (h *Handler) ApproveClaim(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}
	claimID, ok := handler.PathID(c, "claim_id")
	if !ok {
		return
	}

	req, err := h.claims.Approve(c.Request.Context(), actor, id, claimID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, req)
}

func (h *Handler) DenyClaim(c *gin.Context) {
	actor, ok := handler.Actor(c)
	if !ok {
		return
	}
	id, ok := handler.PathID(c, "id")
	if !ok {
		return
	}
	claimID, ok := handler.PathID(c, "claim_id")
	if !ok {
		return
	}

	claim, err := h.claims.Deny(c.Request.Context(), actor, id, claimID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, claim)
}
