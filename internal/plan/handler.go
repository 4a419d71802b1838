package plan

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fitcore/internal/apperr"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPlans godoc
// @Summary      List membership plans
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        all query bool false "Include inactive plans"
// @Success      200 {array} Plan
// @Failure      500 {object} api.ErrorResponse
// @Router       /plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	onlyActive := c.Query("all") != "true"
	plans, err := h.service.List(c.Request.Context(), onlyActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreatePlan godoc
// @Summary      Create membership plan
// @Tags         plans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        plan body CreateInput true "Plan definition"
// @Success      201 {object} Plan
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdatePlan godoc
// @Summary      Update membership plan
// @Description  Edits name, pricing and flags. The booking-rule family of a
// @Description  plan with live members cannot change; create a new plan and
// @Description  migrate memberships instead.
// @Tags         plans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        planID path int true "Plan ID"
// @Param        plan body UpdateInput true "Plan fields"
// @Success      200 {object} Plan
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/plans/{planID} [put]
func (h *Handler) UpdatePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
		return
	}

	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// SyncPricing godoc
// @Summary      Sync plan pricing with the payment provider
// @Description  Creates a new provider price and deactivates the old one when
// @Description  the local price changed; otherwise refreshes metadata only.
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        planID path int true "Plan ID"
// @Success      200 {object} Plan
// @Failure      404 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /admin/plans/{planID}/sync-pricing [post]
func (h *Handler) SyncPricing(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
		return
	}

	synced, err := h.service.SyncPricing(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, synced)
}

// DeletePlan godoc
// @Summary      Delete a plan and cancel its memberships
// @Description  Best-effort cancels provider subscriptions, archives the
// @Description  provider product, cancels all dependent memberships, then
// @Description  deletes the plan. Returns the aggregate cascade result.
// @Tags         plans
// @Security     BearerAuth
// @Produce      json
// @Param        planID path int true "Plan ID"
// @Success      200 {object} DeleteResult
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/plans/{planID} [delete]
func (h *Handler) DeletePlan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
		return
	}

	result, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
