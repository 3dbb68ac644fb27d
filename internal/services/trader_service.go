package services

import (
	"sort"
	"strings"
	"time"

	"tradehub_backend/internal/logger"
	"tradehub_backend/internal/models"
	"tradehub_backend/internal/repositories"
	"tradehub_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TraderListing pairs a profile with the account fields that drive
// search ordering.
type TraderListing struct {
	Profile  models.TraderProfile    `json:"profile"`
	Tier     models.SubscriptionTier `json:"tier"`
	Featured bool                    `json:"featured"`
}

type TraderService interface {
	// CreateProfile sets up both the public profile and the subscription
	// ledger entry for a trader, on the free tier. The referral code in
	// the request, when it resolves, pins the referrer on the new account.
	CreateProfile(userID string, req *models.CreateTraderProfileRequest) (*models.TraderProfile, *models.TraderAccount, error)
	GetProfile(userID string) (*models.TraderProfile, error)
	UpdateProfile(userID string, req *models.CreateTraderProfileRequest) (*models.TraderProfile, error)
	GetAccount(userID string) (*models.TraderAccount, error)
	// ListTraders orders featured listings first, then by tier.
	ListTraders() ([]TraderListing, error)
}

type traderService struct {
	tx          TxRunner
	traderRepo  repositories.TraderRepository
	paymentRepo repositories.PaymentRepository
}

func NewTraderService(tx TxRunner, traderRepo repositories.TraderRepository, paymentRepo repositories.PaymentRepository) TraderService {
	return &traderService{tx: tx, traderRepo: traderRepo, paymentRepo: paymentRepo}
}

// GenerateReferralCode derives the stable share code from the account id.
func GenerateReferralCode(accountID string) string {
	compact := strings.ReplaceAll(accountID, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "TRADE" + strings.ToUpper(compact)
}

func (s *traderService) CreateProfile(userID string, req *models.CreateTraderProfileRequest) (*models.TraderProfile, *models.TraderAccount, error) {
	if _, err := s.traderRepo.FindProfileByUserID(userID); err == nil {
		return nil, nil, apperrors.NewConflictError("Trader profile already exists")
	}

	profile := &models.TraderProfile{
		UserID:          userID,
		BusinessName:    req.BusinessName,
		OwnerName:       req.OwnerName,
		Category:        req.Category,
		ServiceAreas:    req.ServiceAreas,
		Certifications:  req.Certifications,
		Description:     req.Description,
		Insured:         req.Insured,
		YearsInBusiness: req.YearsInBusiness,
		Phone:           req.Phone,
		Email:           req.Email,
	}

	// The id is generated up front so the referral code can be derived
	// from it before the insert.
	accountID := uuid.NewString()
	account := &models.TraderAccount{
		BaseModel:          models.BaseModel{ID: accountID},
		UserID:             userID,
		SubscriptionTier:   models.TierBasic,
		BillingCycle:       models.BillingCycleMonthly,
		SubscriptionStatus: models.SubscriptionStatusActive,
		AutoRenew:          true,
		ReferralCode:       GenerateReferralCode(accountID),
	}

	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		referrer, err := s.traderRepo.FindAccountByReferralCode(strings.ToUpper(code))
		if err != nil {
			// Attribution is best effort; a stale code must not block signup.
			logger.Warn("referral code did not resolve", "code", code, "user_id", userID)
		} else {
			account.ReferredBy = referrer.ID
		}
	}

	err := s.tx.Transaction(func(tx *gorm.DB) error {
		traderRepo := s.traderRepo.WithTx(tx)
		if err := traderRepo.CreateProfile(profile); err != nil {
			return err
		}
		return traderRepo.CreateAccount(account)
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("trader profile created", "user_id", userID, "account_id", account.ID)
	return profile, account, nil
}

func (s *traderService) GetProfile(userID string) (*models.TraderProfile, error) {
	profile, err := s.traderRepo.FindProfileByUserID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// UpdateProfile replaces the presentation fields. The referral code in
// the request is ignored here: attribution is fixed at profile creation.
func (s *traderService) UpdateProfile(userID string, req *models.CreateTraderProfileRequest) (*models.TraderProfile, error) {
	profile, err := s.traderRepo.FindProfileByUserID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, err
	}

	profile.BusinessName = req.BusinessName
	profile.OwnerName = req.OwnerName
	profile.Category = req.Category
	profile.ServiceAreas = req.ServiceAreas
	profile.Certifications = req.Certifications
	profile.Description = req.Description
	profile.Insured = req.Insured
	profile.YearsInBusiness = req.YearsInBusiness
	profile.Phone = req.Phone
	profile.Email = req.Email

	if err := s.traderRepo.SaveProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *traderService) GetAccount(userID string) (*models.TraderAccount, error) {
	account, err := s.traderRepo.FindAccountByUserID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrAccountNotFound) {
			return nil, apperrors.ErrTraderNotFound
		}
		return nil, err
	}
	return account, nil
}

func (s *traderService) ListTraders() ([]TraderListing, error) {
	profiles, err := s.traderRepo.ListProfiles()
	if err != nil {
		return nil, err
	}

	featuredIDs, err := s.paymentRepo.FindActiveFeaturedTraderIDs(time.Now())
	if err != nil {
		return nil, err
	}
	featured := make(map[string]bool, len(featuredIDs))
	for _, id := range featuredIDs {
		featured[id] = true
	}

	listings := make([]TraderListing, 0, len(profiles))
	for _, profile := range profiles {
		tier := models.TierBasic
		var accountID string
		if account, err := s.traderRepo.FindAccountByUserID(profile.UserID); err == nil {
			tier = account.SubscriptionTier
			accountID = account.ID
		}
		listings = append(listings, TraderListing{
			Profile:  profile,
			Tier:     tier,
			Featured: featured[accountID],
		})
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].Featured != listings[j].Featured {
			return listings[i].Featured
		}
		return models.TierPriority(listings[i].Tier) > models.TierPriority(listings[j].Tier)
	})

	return listings, nil
}
