package services

import (
	"tradehub_backend/internal/entitlement"
	"tradehub_backend/internal/logger"
	"tradehub_backend/internal/models"
	"tradehub_backend/internal/repositories"
	"tradehub_backend/pkg/apperrors"
)

// JobView is a job as seen by a trader: customer contact details are
// blanked until the lead is unlocked.
type JobView struct {
	models.Job
	Unlocked bool `json:"unlocked"`
}

type JobService interface {
	CreateJob(customerID, customerName string, req *models.CreateJobRequest) (*models.Job, error)
	GetJob(jobID string) (*models.Job, error)
	// ListJobsForTrader applies lead gating: every job comes back, but
	// contact fields are present only on unlocked ones.
	ListJobsForTrader(traderUserID string) ([]JobView, error)
	ListOpenJobs() ([]models.Job, error)
}

type jobService struct {
	jobRepo    repositories.JobRepository
	traderRepo repositories.TraderRepository
	leadRepo   repositories.LeadRepository
}

func NewJobService(jobRepo repositories.JobRepository, traderRepo repositories.TraderRepository, leadRepo repositories.LeadRepository) JobService {
	return &jobService{jobRepo: jobRepo, traderRepo: traderRepo, leadRepo: leadRepo}
}

func (s *jobService) CreateJob(customerID, customerName string, req *models.CreateJobRequest) (*models.Job, error) {
	job := &models.Job{
		CustomerID:   customerID,
		CustomerName: customerName,
		ProjectType:  req.ProjectType,
		Description:  req.Description,
		BudgetRange:  req.BudgetRange,
		Timeline:     req.Timeline,
		City:         req.City,
		Community:    req.Community,
		Address:      req.Address,
		Status:       models.JobStatusOpen,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}

	logger.Info("job posted", "job_id", job.ID, "project_type", job.ProjectType)
	return job, nil
}

func (s *jobService) GetJob(jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *jobService) ListJobsForTrader(traderUserID string) ([]JobView, error) {
	account, err := s.traderRepo.FindAccountByUserID(traderUserID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrAccountNotFound) {
			return nil, apperrors.ErrTraderNotFound
		}
		return nil, err
	}

	unlocks, err := s.leadRepo.FindUnlocksByTrader(account.ID)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobRepo.FindAll()
	if err != nil {
		return nil, err
	}

	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		view := JobView{Job: job}
		view.Unlocked = entitlement.IsLeadUnlocked(unlocks, account.ID, job.ID)
		if !view.Unlocked {
			view.CustomerName = ""
			view.Address = ""
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *jobService) ListOpenJobs() ([]models.Job, error) {
	return s.jobRepo.FindByStatus(models.JobStatusOpen)
}
