package membership

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fitcore/internal/apperr"
	"fitcore/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type PurchaseRequest struct {
	PlanID    int        `json:"plan_id" binding:"required"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

type UpgradeRequest struct {
	PlanID int `json:"plan_id" binding:"required"`
}

// ListMine godoc
// @Summary      List my memberships
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} Membership
// @Failure      401 {object} api.ErrorResponse
// @Router       /memberships/me [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	memberships, err := h.service.GetForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, memberships)
}

// Purchase godoc
// @Summary      Purchase a membership plan
// @Tags         memberships
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        purchase body PurchaseRequest true "Plan to purchase"
// @Success      201 {object} Membership
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /memberships [post]
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate := time.Time{}
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	created, err := h.service.Purchase(c.Request.Context(), userID, req.PlanID, startDate)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Upgrade godoc
// @Summary      Upgrade or convert the active membership to another plan
// @Description  Creates a pending membership on the target plan. The current
// @Description  membership is retired once the provider confirms payment.
// @Tags         memberships
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        upgrade body UpgradeRequest true "Target plan"
// @Success      201 {object} Membership
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /memberships/upgrade [post]
func (h *Handler) Upgrade(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.Upgrade(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RequestCancellation godoc
// @Summary      Request cancellation of a membership
// @Description  Records the request and schedules the subscription to end at
// @Description  period end. The membership stays active until then.
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Param        membershipID path int true "Membership ID"
// @Success      200 {object} Membership
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /memberships/{membershipID}/cancel [post]
func (h *Handler) RequestCancellation(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	membershipID, err := strconv.Atoi(c.Param("membershipID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID"})
		return
	}

	m, err := h.service.RequestCancellation(c.Request.Context(), userID, membershipID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

// CancelNow godoc
// @Summary      Cancel a membership immediately (admin)
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Param        membershipID path int true "Membership ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/memberships/{membershipID}/cancel [post]
func (h *Handler) CancelNow(c *gin.Context) {
	membershipID, err := strconv.Atoi(c.Param("membershipID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID"})
		return
	}

	if err := h.service.CancelNow(c.Request.Context(), membershipID, ReasonAdmin); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Membership cancelled"})
}
