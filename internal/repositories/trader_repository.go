package repositories

import (
	"errors"
	"time"

	"tradehub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("trader account not found")
	ErrProfileNotFound = errors.New("trader profile not found")
)

// TraderRepository owns the subscription ledger (TraderAccount) and the
// presentation profile.
type TraderRepository interface {
	// WithTx returns a repository bound to the given transaction handle.
	WithTx(tx *gorm.DB) TraderRepository

	CreateAccount(account *models.TraderAccount) error
	FindAccountByID(id string) (*models.TraderAccount, error)
	FindAccountByUserID(userID string) (*models.TraderAccount, error)
	FindAccountByReferralCode(code string) (*models.TraderAccount, error)
	SaveAccount(account *models.TraderAccount) error
	// FindAccountsToExpire returns paid accounts whose period has lapsed
	// with auto-renew off. Used by the billing worker.
	FindAccountsToExpire(now time.Time) ([]models.TraderAccount, error)

	CreateProfile(profile *models.TraderProfile) error
	FindProfileByUserID(userID string) (*models.TraderProfile, error)
	SaveProfile(profile *models.TraderProfile) error
	ListProfiles() ([]models.TraderProfile, error)
}

type TraderRepositoryImpl struct {
	db *gorm.DB
}

func NewTraderRepository(db *gorm.DB) TraderRepository {
	return &TraderRepositoryImpl{db: db}
}

func (r *TraderRepositoryImpl) WithTx(tx *gorm.DB) TraderRepository {
	return &TraderRepositoryImpl{db: tx}
}

func (r *TraderRepositoryImpl) CreateAccount(account *models.TraderAccount) error {
	return r.db.Create(account).Error
}

func (r *TraderRepositoryImpl) FindAccountByID(id string) (*models.TraderAccount, error) {
	var account models.TraderAccount
	err := r.db.First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *TraderRepositoryImpl) FindAccountByUserID(userID string) (*models.TraderAccount, error) {
	var account models.TraderAccount
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *TraderRepositoryImpl) FindAccountByReferralCode(code string) (*models.TraderAccount, error) {
	var account models.TraderAccount
	err := r.db.Where("referral_code = ?", code).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// SaveAccount writes the full set of billing-owned fields in one update so a
// billing operation's mutation lands atomically.
func (r *TraderRepositoryImpl) SaveAccount(account *models.TraderAccount) error {
	result := r.db.Model(&models.TraderAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"subscription_tier":     account.SubscriptionTier,
			"billing_cycle":         account.BillingCycle,
			"subscription_status":   account.SubscriptionStatus,
			"subscription_end_date": account.SubscriptionEndDate,
			"auto_renew":            account.AutoRenew,
			"job_responses_count":   account.JobResponsesCount,
			"referral_credits":      account.ReferralCredits,
			"updated_at":            time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *TraderRepositoryImpl) FindAccountsToExpire(now time.Time) ([]models.TraderAccount, error) {
	var accounts []models.TraderAccount
	err := r.db.
		Where("subscription_tier IN ?", []models.SubscriptionTier{models.TierPro, models.TierElite}).
		Where("auto_renew = ?", false).
		Where("subscription_end_date IS NOT NULL AND subscription_end_date <= ?", now).
		Find(&accounts).Error
	return accounts, err
}

func (r *TraderRepositoryImpl) CreateProfile(profile *models.TraderProfile) error {
	return r.db.Create(profile).Error
}

func (r *TraderRepositoryImpl) FindProfileByUserID(userID string) (*models.TraderProfile, error) {
	var profile models.TraderProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *TraderRepositoryImpl) SaveProfile(profile *models.TraderProfile) error {
	result := r.db.Model(&models.TraderProfile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"business_name":     profile.BusinessName,
			"owner_name":        profile.OwnerName,
			"category":          profile.Category,
			"service_areas":     profile.ServiceAreas,
			"certifications":    profile.Certifications,
			"description":       profile.Description,
			"insured":           profile.Insured,
			"years_in_business": profile.YearsInBusiness,
			"phone":             profile.Phone,
			"email":             profile.Email,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *TraderRepositoryImpl) ListProfiles() ([]models.TraderProfile, error) {
	var profiles []models.TraderProfile
	err := r.db.Order("created_at DESC").Find(&profiles).Error
	return profiles, err
}
