package repositories

import (
	"errors"
	"time"

	"tradehub_backend/internal/models"

	"gorm.io/gorm"
)

var ErrUsageNotFound = errors.New("lead usage record not found")

// LeadRepository is the lead consumption tracker: append-only unlock
// records plus the per-trader monthly counter.
type LeadRepository interface {
	WithTx(tx *gorm.DB) LeadRepository

	CreateUnlock(unlock *models.LeadUnlock) error
	FindUnlocksByTrader(traderID string) ([]models.LeadUnlock, error)

	// GetUsage returns the trader's monthly counter, creating a zero row
	// on first touch.
	GetUsage(traderID string) (*models.LeadUsage, error)
	IncrementUsage(traderID string) error
	ResetUsage(traderID string, periodStart time.Time) error
	// FindLapsedUsage returns counters whose period started on or before
	// the cutoff. Used by the billing worker to roll periods over.
	FindLapsedUsage(cutoff time.Time) ([]models.LeadUsage, error)
}

type LeadRepositoryImpl struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &LeadRepositoryImpl{db: db}
}

func (r *LeadRepositoryImpl) WithTx(tx *gorm.DB) LeadRepository {
	return &LeadRepositoryImpl{db: tx}
}

func (r *LeadRepositoryImpl) CreateUnlock(unlock *models.LeadUnlock) error {
	return r.db.Create(unlock).Error
}

func (r *LeadRepositoryImpl) FindUnlocksByTrader(traderID string) ([]models.LeadUnlock, error) {
	var unlocks []models.LeadUnlock
	err := r.db.Where("trader_id = ?", traderID).Order("unlocked_at DESC").Find(&unlocks).Error
	return unlocks, err
}

func (r *LeadRepositoryImpl) GetUsage(traderID string) (*models.LeadUsage, error) {
	var usage models.LeadUsage
	err := r.db.Where("trader_id = ?", traderID).First(&usage).Error
	if err == nil {
		return &usage, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	usage = models.LeadUsage{
		TraderID:    traderID,
		LeadsUsed:   0,
		PeriodStart: time.Now(),
	}
	if err := r.db.Create(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *LeadRepositoryImpl) IncrementUsage(traderID string) error {
	// Ensure the row exists before the atomic increment.
	if _, err := r.GetUsage(traderID); err != nil {
		return err
	}

	result := r.db.Model(&models.LeadUsage{}).
		Where("trader_id = ?", traderID).
		Updates(map[string]interface{}{
			"leads_used": gorm.Expr("leads_used + 1"),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageNotFound
	}
	return nil
}

func (r *LeadRepositoryImpl) FindLapsedUsage(cutoff time.Time) ([]models.LeadUsage, error) {
	var usages []models.LeadUsage
	err := r.db.Where("period_start <= ?", cutoff).Find(&usages).Error
	return usages, err
}

func (r *LeadRepositoryImpl) ResetUsage(traderID string, periodStart time.Time) error {
	result := r.db.Model(&models.LeadUsage{}).
		Where("trader_id = ?", traderID).
		Updates(map[string]interface{}{
			"leads_used":   0,
			"period_start": periodStart,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageNotFound
	}
	return nil
}
