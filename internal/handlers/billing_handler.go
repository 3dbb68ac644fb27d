package handlers

import (
	"net/http"
	"time"

	"tradehub_backend/internal/middleware"
	"tradehub_backend/internal/models"
	"tradehub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	*BaseHandler
	billingService services.BillingService
}

func NewBillingHandler(base *BaseHandler, billingService services.BillingService) *BillingHandler {
	return &BillingHandler{
		BaseHandler:    base,
		billingService: billingService,
	}
}

func (h *BillingHandler) RegisterRoutes(r *gin.RouterGroup) {
	billing := r.Group("/billing")
	billing.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleTrader))
	{
		billing.GET("/summary", h.GetSummary)
		billing.POST("/subscribe", h.Subscribe)
		billing.PUT("/auto-renew", h.ToggleAutoRenew)
		billing.POST("/leads/purchase", h.PurchaseLead)
		billing.POST("/leads/unlock", h.UnlockLeadViaQuota)
		billing.GET("/leads", h.GetUnlocks)
		billing.POST("/responses", h.RecordResponse)
		billing.POST("/feature", h.FeatureListing)
		billing.GET("/payments", h.GetPaymentHistory)
	}

	admin := r.Group("/admin/billing")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.POST("/process-expired", h.ProcessExpired)
	}
}

func (h *BillingHandler) GetSummary(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	summary, err := h.billingService.Summary(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *BillingHandler) Subscribe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.UpgradePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	account, err := h.billingService.UpgradeToPlan(c.Request.Context(), userID, req.Tier, req.BillingCycle)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *BillingHandler) ToggleAutoRenew(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	account, err := h.billingService.ToggleAutoRenew(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *BillingHandler) PurchaseLead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.PurchaseLeadRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	unlock, err := h.billingService.PurchaseLead(c.Request.Context(), userID, req.JobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unlock)
}

func (h *BillingHandler) UnlockLeadViaQuota(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.PurchaseLeadRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	unlock, err := h.billingService.UnlockLeadViaQuota(c.Request.Context(), userID, req.JobID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unlock)
}

func (h *BillingHandler) GetUnlocks(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	unlocks, err := h.billingService.ListUnlocks(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocks": unlocks})
}

func (h *BillingHandler) RecordResponse(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.RecordResponseRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	account, err := h.billingService.RecordJobResponse(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *BillingHandler) FeatureListing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	listing, err := h.billingService.FeatureListing(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *BillingHandler) GetPaymentHistory(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	history, err := h.billingService.PaymentHistory(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": history})
}

// ProcessExpired runs the expiration sweep on demand. The billing worker
// runs the same pass on a schedule.
func (h *BillingHandler) ProcessExpired(c *gin.Context) {
	processed, err := h.billingService.ProcessExpiredSubscriptions(time.Now())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}
