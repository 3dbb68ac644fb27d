package handlers

import (
	"net/http"

	"tradehub_backend/internal/models"
	"tradehub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// PlanHandler serves the static plan catalog. No service behind it: the
// catalog is compiled in and read-only.
type PlanHandler struct {
	*BaseHandler
}

func NewPlanHandler(base *BaseHandler) *PlanHandler {
	return &PlanHandler{BaseHandler: base}
}

func (h *PlanHandler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.GET("", h.GetPlans)
		plans.GET("/:tier", h.GetPlan)
	}
}

func (h *PlanHandler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": models.ListPlans()})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	tier := models.SubscriptionTier(c.Param("tier"))
	plan, ok := models.GetPlan(tier)
	if !ok {
		h.HandleServiceError(c, apperrors.ErrUnknownPlanTier)
		return
	}
	c.JSON(http.StatusOK, plan)
}
