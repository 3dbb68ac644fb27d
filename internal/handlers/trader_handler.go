package handlers

import (
	"net/http"

	"tradehub_backend/internal/middleware"
	"tradehub_backend/internal/models"
	"tradehub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TraderHandler struct {
	*BaseHandler
	traderService services.TraderService
}

func NewTraderHandler(base *BaseHandler, traderService services.TraderService) *TraderHandler {
	return &TraderHandler{BaseHandler: base, traderService: traderService}
}

func (h *TraderHandler) RegisterRoutes(r *gin.RouterGroup) {
	traders := r.Group("/traders")
	{
		// Directory is public; ordering favors featured and paid tiers.
		traders.GET("", h.ListTraders)

		me := traders.Group("/me")
		me.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleTrader))
		{
			me.POST("/profile", h.CreateProfile)
			me.GET("/profile", h.GetProfile)
			me.PUT("/profile", h.UpdateProfile)
			me.GET("/account", h.GetAccount)
		}
	}
}

func (h *TraderHandler) ListTraders(c *gin.Context) {
	listings, err := h.traderService.ListTraders()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"traders": listings})
}

func (h *TraderHandler) CreateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.CreateTraderProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	profile, account, err := h.traderService.CreateProfile(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile, "account": account})
}

func (h *TraderHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	profile, err := h.traderService.GetProfile(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *TraderHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.CreateTraderProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	profile, err := h.traderService.UpdateProfile(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *TraderHandler) GetAccount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	account, err := h.traderService.GetAccount(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
