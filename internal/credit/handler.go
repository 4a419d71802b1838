package credit

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

type AdjustRequest struct {
	Mode   Mode `json:"mode" binding:"required,oneof=add subtract set"`
	Amount int  `json:"amount" binding:"min=0"`
}

// Adjust godoc
// @Summary      Adjust the credit balance of a membership (admin)
// @Description  Subtractions below zero are clamped to zero and reported
// @Description  with the clamped flag set.
// @Tags         credits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        membershipID path int true "Membership ID"
// @Param        adjustment body AdjustRequest true "Adjustment"
// @Success      200 {object} AdjustResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/memberships/{membershipID}/credits [post]
func (h *Handler) Adjust(c *gin.Context) {
	membershipID, err := strconv.Atoi(c.Param("membershipID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID"})
		return
	}

	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := c.Get("user_email")
	actorStr, _ := actor.(string)
	if actorStr == "" {
		actorStr = "admin"
	}

	result, err := h.service.Adjust(c.Request.Context(), membershipID, req.Mode, req.Amount, actorStr)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// History godoc
// @Summary      List the adjustment history of a membership (admin)
// @Tags         credits
// @Security     BearerAuth
// @Produce      json
// @Param        membershipID path int true "Membership ID"
// @Param        limit query int false "Page size" default(50)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {array} Adjustment
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/memberships/{membershipID}/credits [get]
func (h *Handler) History(c *gin.Context) {
	membershipID, err := strconv.Atoi(c.Param("membershipID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	history, err := h.service.History(c.Request.Context(), membershipID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, history)
}
