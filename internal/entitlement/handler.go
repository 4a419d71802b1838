package entitlement

import (
	"net/http"
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

// CanBook godoc
// @Summary      Check whether the current user may book a resource
// @Description  A denial comes back as 200 with allowed=false and a reason
// @Description  code; 4xx is reserved for malformed requests.
// @Tags         entitlements
// @Security     BearerAuth
// @Produce      json
// @Param        resource query string false "Resource kind" Enums(class, open_gym) default(class)
// @Param        at query string false "Booking instant (RFC 3339), defaults to now"
// @Success      200 {object} Decision
// @Failure      400 {object} api.ErrorResponse
// @Router       /entitlements/can-book [get]
func (h *Handler) CanBook(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	resource := ResourceKind(c.DefaultQuery("resource", string(ResourceClass)))

	var at time.Time
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid at timestamp, expected RFC 3339"})
			return
		}
		at = parsed
	}

	decision, err := h.service.CanBook(c.Request.Context(), userID, resource, at)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, decision)
}
