package handlers

import (
	"net/http"

	"tradehub_backend/internal/middleware"
	"tradehub_backend/internal/models"
	"tradehub_backend/internal/repositories"
	"tradehub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	*BaseHandler
	jobService services.JobService
	userRepo   repositories.UserRepository
}

func NewJobHandler(base *BaseHandler, jobService services.JobService, userRepo repositories.UserRepository) *JobHandler {
	return &JobHandler{BaseHandler: base, jobService: jobService, userRepo: userRepo}
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	jobs.Use(middleware.AuthMiddleware())
	{
		jobs.POST("", middleware.RequireRoles(models.UserRoleCustomer), h.CreateJob)
		jobs.GET("/feed", middleware.RequireRoles(models.UserRoleTrader), h.GetTraderFeed)
		jobs.GET("/:jobId", h.GetJob)
	}
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req models.CreateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userRepo.FindByID(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	job, err := h.jobService.CreateJob(userID, user.Name, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// GetTraderFeed returns every open job with contact details gated on
// unlocks.
func (h *JobHandler) GetTraderFeed(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	views, err := h.jobService.ListJobsForTrader(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": views})
}

func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Param("jobId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
