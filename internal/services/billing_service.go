package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tradehub_backend/internal/entitlement"
	"tradehub_backend/internal/logger"
	"tradehub_backend/internal/models"
	"tradehub_backend/internal/payments"
	"tradehub_backend/internal/repositories"
	"tradehub_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TxRunner is the transactional boundary for billing mutations. *gorm.DB
// satisfies it directly.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// EntitlementSummary is the read-model handed to the UI: everything it
// needs to render gates and counters, computed by the pure evaluator.
type EntitlementSummary struct {
	Tier               models.SubscriptionTier   `json:"tier"`
	PlanName           string                    `json:"plan_name"`
	Status             models.SubscriptionStatus `json:"status"`
	BillingCycle       models.BillingCycle       `json:"billing_cycle"`
	EndDate            *time.Time                `json:"end_date,omitempty"`
	AutoRenew          bool                      `json:"auto_renew"`
	LeadsUsedThisMonth int                       `json:"leads_used_this_month"`
	// -1 means unlimited.
	RemainingLeads     int     `json:"remaining_leads"`
	CanAccessViaQuota  bool    `json:"can_access_via_quota"`
	CanRespondToJob    bool    `json:"can_respond_to_job"`
	ResponsesRemaining int     `json:"responses_remaining"`
	ReferralCode       string  `json:"referral_code"`
	ReferralCredits    float64 `json:"referral_credits"`
	IsFeatured         bool    `json:"is_featured"`
}

// BillingService owns every state transition on the subscription ledger
// and the lead tracker. Each operation validates, asks the payment
// collaborator to authorize, then mutates atomically; a declined
// authorization leaves the ledger and tracker untouched.
type BillingService interface {
	UpgradeToPlan(ctx context.Context, userID string, tier models.SubscriptionTier, cycle models.BillingCycle) (*models.TraderAccount, error)
	PurchaseLead(ctx context.Context, userID, jobID string) (*models.LeadUnlock, error)
	UnlockLeadViaQuota(ctx context.Context, userID, jobID string) (*models.LeadUnlock, error)
	RecordJobResponse(ctx context.Context, userID string) (*models.TraderAccount, error)
	FeatureListing(ctx context.Context, userID string) (*models.FeaturedListing, error)
	ToggleAutoRenew(ctx context.Context, userID string) (*models.TraderAccount, error)

	// CheckSubscriptionExpiration applies the time-based downgrade when the
	// paid period has lapsed with auto-renew off. Idempotent.
	CheckSubscriptionExpiration(accountID string, now time.Time) (*models.TraderAccount, error)
	// ProcessExpiredSubscriptions sweeps every lapsed account and returns
	// how many were downgraded.
	ProcessExpiredSubscriptions(now time.Time) (int, error)

	AddReferralCredit(referrerAccountID string, amount float64) error
	ProcessReferralPayment(traderAccountID string, paymentAmount float64) error

	Summary(userID string) (*EntitlementSummary, error)
	PaymentHistory(userID string) ([]models.PaymentTransaction, error)
	ListUnlocks(userID string) ([]models.LeadUnlock, error)

	// SetExpiryNotifier enables the best-effort expiry email.
	SetExpiryNotifier(userRepo repositories.UserRepository, notifier ExpiryNotifier)

	// ResetMonthlyUsage starts a fresh quota period for one trader.
	// Called by the billing worker at the cycle boundary, never by the
	// unlock path itself.
	ResetMonthlyUsage(accountID string, periodStart time.Time) error
}

// ExpiryNotifier tells a trader their paid plan lapsed. Sends are best
// effort and never block or fail a billing operation.
type ExpiryNotifier interface {
	SendSubscriptionExpired(to, planName string) error
}

type billingService struct {
	tx          TxRunner
	traderRepo  repositories.TraderRepository
	leadRepo    repositories.LeadRepository
	paymentRepo repositories.PaymentRepository
	jobRepo     repositories.JobRepository
	authorizer  payments.Authorizer

	userRepo repositories.UserRepository
	notifier ExpiryNotifier

	// Per-account mutexes: one billing operation at a time per account,
	// so two concurrent upgrades cannot interleave their read-then-write.
	locks sync.Map
}

func NewBillingService(
	tx TxRunner,
	traderRepo repositories.TraderRepository,
	leadRepo repositories.LeadRepository,
	paymentRepo repositories.PaymentRepository,
	jobRepo repositories.JobRepository,
	authorizer payments.Authorizer,
) BillingService {
	return &billingService{
		tx:          tx,
		traderRepo:  traderRepo,
		leadRepo:    leadRepo,
		paymentRepo: paymentRepo,
		jobRepo:     jobRepo,
		authorizer:  authorizer,
	}
}

// SetExpiryNotifier enables the expiry email. Optional; without it the
// sweep just downgrades silently.
func (s *billingService) SetExpiryNotifier(userRepo repositories.UserRepository, notifier ExpiryNotifier) {
	s.userRepo = userRepo
	s.notifier = notifier
}

func (s *billingService) lockAccount(accountID string) func() {
	mu, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *billingService) accountForUser(userID string) (*models.TraderAccount, error) {
	account, err := s.traderRepo.FindAccountByUserID(userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrAccountNotFound) {
			return nil, apperrors.ErrTraderNotFound
		}
		return nil, err
	}
	return account, nil
}

// lockedAccountForUser resolves the user's account id, takes the account
// lock, then re-reads the row inside the critical section. Every mutating
// operation must go through this (or lockedAccountByID): a read taken
// before the lock can be stale by the time the write lands.
func (s *billingService) lockedAccountForUser(userID string) (*models.TraderAccount, func(), error) {
	account, err := s.accountForUser(userID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.lockAccount(account.ID)
	account, err = s.traderRepo.FindAccountByID(account.ID)
	if err != nil {
		unlock()
		if apperrors.Is(err, repositories.ErrAccountNotFound) {
			return nil, nil, apperrors.ErrTraderNotFound
		}
		return nil, nil, err
	}
	return account, unlock, nil
}

// lockedAccountByID is the same contract when the account id is already
// known: lock first, read inside. Repository errors pass through unmapped.
func (s *billingService) lockedAccountByID(accountID string) (*models.TraderAccount, func(), error) {
	unlock := s.lockAccount(accountID)
	account, err := s.traderRepo.FindAccountByID(accountID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return account, unlock, nil
}

// --- Plan changes ---

func (s *billingService) UpgradeToPlan(ctx context.Context, userID string, tier models.SubscriptionTier, cycle models.BillingCycle) (*models.TraderAccount, error) {
	plan, ok := models.GetPlan(tier)
	if !ok {
		return nil, apperrors.ErrUnknownPlanTier
	}
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}

	account, unlock, err := s.lockedAccountForUser(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Downgrade to basic is free and unconditional: no payment call,
	// status goes to canceled regardless of prior state.
	if tier == models.TierBasic {
		account.SubscriptionTier = models.TierBasic
		account.SubscriptionStatus = models.SubscriptionStatusCanceled
		account.AutoRenew = true
		account.BillingCycle = models.BillingCycleMonthly
		account.SubscriptionEndDate = nil

		if err := s.traderRepo.SaveAccount(account); err != nil {
			return nil, err
		}
		logger.Info("subscription downgraded to basic", "account_id", account.ID)
		return account, nil
	}

	amount := plan.PriceFor(cycle)
	finalAmount, discount := entitlement.ApplyReferralCredits(account.ReferralCredits, amount)

	description := fmt.Sprintf("%s Plan Subscription (%s)", plan.Name, cycleLabel(cycle))
	approved, err := s.authorizer.Authorize(ctx, finalAmount, description, true)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "billing", "Payment authorization failed", 503)
	}
	if !approved {
		s.recordDeclined(account.ID, models.PaymentKindSubscription, finalAmount, description)
		return nil, apperrors.ErrPaymentDeclined
	}

	now := time.Now()
	endDate := now.AddDate(0, 1, 0)
	if cycle == models.BillingCycleAnnual {
		endDate = now.AddDate(1, 0, 0)
	}

	account.SubscriptionTier = tier
	account.SubscriptionStatus = models.SubscriptionStatusActive
	account.AutoRenew = true
	account.BillingCycle = cycle
	account.SubscriptionEndDate = &endDate
	account.ReferralCredits -= discount
	if account.ReferralCredits < 0 {
		account.ReferralCredits = 0
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		if err := s.traderRepo.WithTx(tx).SaveAccount(account); err != nil {
			return err
		}
		return s.paymentRepo.WithTx(tx).CreateTransaction(s.paidTransaction(
			account.ID, models.PaymentKindSubscription, finalAmount, description,
			map[string]interface{}{
				"tier":          tier,
				"billing_cycle": cycle,
				"list_price":    amount,
				"credits_used":  discount,
			},
		))
	})
	if err != nil {
		return nil, err
	}

	// Pay the referrer their share of what was actually charged. A broken
	// referral chain must not fail an already-charged upgrade.
	if err := s.ProcessReferralPayment(account.ID, finalAmount); err != nil {
		logger.WithError(err).Warn("referral payout failed", "account_id", account.ID)
	}

	logger.Info("subscription activated",
		"account_id", account.ID,
		"tier", tier,
		"cycle", cycle,
		"charged", finalAmount,
		"credits_used", discount,
	)
	return account, nil
}

// --- Lead unlocks ---

func (s *billingService) PurchaseLead(ctx context.Context, userID, jobID string) (*models.LeadUnlock, error) {
	account, unlock, err := s.lockedAccountForUser(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.jobRepo.FindByID(jobID); err != nil {
		if apperrors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, err
	}

	description := "Unlock Job Lead"
	approved, err := s.authorizer.Authorize(ctx, models.PayPerLeadPrice, description, false)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "billing", "Payment authorization failed", 503)
	}
	if !approved {
		s.recordDeclined(account.ID, models.PaymentKindLead, models.PayPerLeadPrice, description)
		return nil, apperrors.ErrPaymentDeclined
	}

	return s.createUnlock(account.ID, jobID, models.PayPerLeadPrice, description)
}

func (s *billingService) UnlockLeadViaQuota(_ context.Context, userID, jobID string) (*models.LeadUnlock, error) {
	account, unlock, err := s.lockedAccountForUser(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.jobRepo.FindByID(jobID); err != nil {
		if apperrors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, err
	}

	usage, err := s.leadRepo.GetUsage(account.ID)
	if err != nil {
		return nil, err
	}
	if !entitlement.CanAccessViaQuota(account, usage.LeadsUsed) {
		return nil, apperrors.ErrLeadQuotaExhausted
	}

	return s.createUnlock(account.ID, jobID, 0, "quota unlock")
}

// createUnlock appends the unlock record and bumps the monthly counter in
// one transaction. The counter is incremented on every unlock regardless
// of tier; only the worker resets it.
func (s *billingService) createUnlock(accountID, jobID string, amount float64, description string) (*models.LeadUnlock, error) {
	record := &models.LeadUnlock{
		JobID:      jobID,
		TraderID:   accountID,
		UnlockedAt: time.Now(),
		Amount:     amount,
	}

	err := s.tx.Transaction(func(tx *gorm.DB) error {
		leadRepo := s.leadRepo.WithTx(tx)
		if err := leadRepo.CreateUnlock(record); err != nil {
			return err
		}
		if err := leadRepo.IncrementUsage(accountID); err != nil {
			return err
		}
		if amount > 0 {
			return s.paymentRepo.WithTx(tx).CreateTransaction(s.paidTransaction(
				accountID, models.PaymentKindLead, amount, description,
				map[string]interface{}{"job_id": jobID},
			))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("lead unlocked", "account_id", accountID, "job_id", jobID, "amount", amount)
	return record, nil
}

// RecordJobResponse bumps the lifetime response counter. On the basic
// tier the lifetime cap is enforced here too, so a client that skips the
// CanRespondToJob check still cannot respond past it.
func (s *billingService) RecordJobResponse(_ context.Context, userID string) (*models.TraderAccount, error) {
	account, unlock, err := s.lockedAccountForUser(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !entitlement.CanRespondToJob(account) {
		return nil, apperrors.ErrResponseCapReached
	}

	account.JobResponsesCount++
	if err := s.traderRepo.SaveAccount(account); err != nil {
		return nil, err
	}

	logger.Debug("job response recorded", "account_id", account.ID, "total", account.JobResponsesCount)
	return account, nil
}

// --- Listing boost ---

func (s *billingService) FeatureListing(ctx context.Context, userID string) (*models.FeaturedListing, error) {
	account, unlock, err := s.lockedAccountForUser(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	description := fmt.Sprintf("Feature Your Listing (%d days)", models.FeatureListingDays)
	approved, err := s.authorizer.Authorize(ctx, models.FeatureListingPrice, description, false)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternalServiceError, "billing", "Payment authorization failed", 503)
	}
	if !approved {
		s.recordDeclined(account.ID, models.PaymentKindFeature, models.FeatureListingPrice, description)
		return nil, apperrors.ErrPaymentDeclined
	}

	now := time.Now()
	listing := &models.FeaturedListing{
		TraderID:  account.ID,
		Price:     models.FeatureListingPrice,
		StartsAt:  now,
		ExpiresAt: now.AddDate(0, 0, models.FeatureListingDays),
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		if err := paymentRepo.CreateFeaturedListing(listing); err != nil {
			return err
		}
		return paymentRepo.CreateTransaction(s.paidTransaction(
			account.ID, models.PaymentKindFeature, models.FeatureListingPrice, description, nil,
		))
	})
	if err != nil {
		return nil, err
	}

	logger.Info("listing featured", "account_id", account.ID, "expires_at", listing.ExpiresAt)
	return listing, nil
}

// --- Renewal & expiration ---

func (s *billingService) ToggleAutoRenew(_ context.Context, userID string) (*models.TraderAccount, error) {
	account, unlock, err := s.lockedAccountForUser(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account.AutoRenew = !account.AutoRenew
	if err := s.traderRepo.SaveAccount(account); err != nil {
		return nil, err
	}

	logger.Info("auto-renew toggled", "account_id", account.ID, "auto_renew", account.AutoRenew)
	return account, nil
}

func (s *billingService) CheckSubscriptionExpiration(accountID string, now time.Time) (*models.TraderAccount, error) {
	account, unlock, err := s.lockedAccountByID(accountID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrAccountNotFound) {
			return nil, apperrors.ErrTraderNotFound
		}
		return nil, err
	}
	defer unlock()

	// No-op unless the paid period has lapsed with auto-renew off. Once
	// the account is back on basic the condition can never hold again,
	// which is what makes repeated sweeps safe.
	if !account.OnPaidTier() ||
		account.SubscriptionEndDate == nil ||
		now.Before(*account.SubscriptionEndDate) ||
		account.AutoRenew {
		return account, nil
	}

	lapsedPlan := models.CurrentPlan(account.SubscriptionTier)

	account.SubscriptionTier = models.TierBasic
	account.SubscriptionStatus = models.SubscriptionStatusExpired
	account.AutoRenew = true

	if err := s.traderRepo.SaveAccount(account); err != nil {
		return nil, err
	}

	logger.Info("subscription expired, downgraded to basic", "account_id", account.ID)
	s.notifyExpired(account.UserID, lapsedPlan.Name)
	return account, nil
}

func (s *billingService) notifyExpired(userID, planName string) {
	if s.notifier == nil || s.userRepo == nil {
		return
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		logger.WithError(err).Warn("expiry notice skipped, user lookup failed", "user_id", userID)
		return
	}
	go func() {
		if err := s.notifier.SendSubscriptionExpired(user.Email, planName); err != nil {
			logger.WithError(err).Warn("expiry notice failed", "user_id", userID)
		}
	}()
}

func (s *billingService) ProcessExpiredSubscriptions(now time.Time) (int, error) {
	accounts, err := s.traderRepo.FindAccountsToExpire(now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range accounts {
		if _, err := s.CheckSubscriptionExpiration(accounts[i].ID, now); err != nil {
			logger.WithError(err).Error("expiration sweep failed for account", "account_id", accounts[i].ID)
			continue
		}
		processed++
	}

	if processed > 0 {
		logger.Info("expiration sweep finished", "processed", processed)
	}
	return processed, nil
}

// --- Referrals ---

func (s *billingService) AddReferralCredit(referrerAccountID string, amount float64) error {
	referrer, unlock, err := s.lockedAccountByID(referrerAccountID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrAccountNotFound) {
			return apperrors.ErrReferrerNotFound
		}
		return err
	}
	defer unlock()

	referrer.ReferralCredits += amount
	if err := s.traderRepo.SaveAccount(referrer); err != nil {
		return err
	}

	logger.Info("referral credit added", "referrer_id", referrer.ID, "amount", amount)
	return nil
}

func (s *billingService) ProcessReferralPayment(traderAccountID string, paymentAmount float64) error {
	account, err := s.traderRepo.FindAccountByID(traderAccountID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrAccountNotFound) {
			return apperrors.ErrTraderNotFound
		}
		return err
	}
	if account.ReferredBy == "" {
		return nil
	}

	credit := paymentAmount * models.ReferralPayoutRate
	if credit <= 0 {
		return nil
	}
	return s.AddReferralCredit(account.ReferredBy, credit)
}

// --- Read side ---

func (s *billingService) Summary(userID string) (*EntitlementSummary, error) {
	account, err := s.accountForUser(userID)
	if err != nil {
		return nil, err
	}

	usage, err := s.leadRepo.GetUsage(account.ID)
	if err != nil {
		return nil, err
	}

	featured, err := s.paymentRepo.FindActiveFeatured(account.ID, time.Now())
	if err != nil {
		return nil, err
	}

	plan := models.CurrentPlan(account.SubscriptionTier)

	return &EntitlementSummary{
		Tier:               account.SubscriptionTier,
		PlanName:           plan.Name,
		Status:             account.SubscriptionStatus,
		BillingCycle:       account.BillingCycle,
		EndDate:            account.SubscriptionEndDate,
		AutoRenew:          account.AutoRenew,
		LeadsUsedThisMonth: usage.LeadsUsed,
		RemainingLeads:     entitlement.RemainingLeads(account, usage.LeadsUsed),
		CanAccessViaQuota:  entitlement.CanAccessViaQuota(account, usage.LeadsUsed),
		CanRespondToJob:    entitlement.CanRespondToJob(account),
		ResponsesRemaining: entitlement.ResponsesRemaining(account),
		ReferralCode:       account.ReferralCode,
		ReferralCredits:    account.ReferralCredits,
		IsFeatured:         featured != nil,
	}, nil
}

func (s *billingService) PaymentHistory(userID string) ([]models.PaymentTransaction, error) {
	account, err := s.accountForUser(userID)
	if err != nil {
		return nil, err
	}
	return s.paymentRepo.FindByTrader(account.ID)
}

func (s *billingService) ListUnlocks(userID string) ([]models.LeadUnlock, error) {
	account, err := s.accountForUser(userID)
	if err != nil {
		return nil, err
	}
	return s.leadRepo.FindUnlocksByTrader(account.ID)
}

func (s *billingService) ResetMonthlyUsage(accountID string, periodStart time.Time) error {
	if err := s.leadRepo.ResetUsage(accountID, periodStart); err != nil {
		if apperrors.Is(err, repositories.ErrUsageNotFound) {
			// Nothing consumed yet, nothing to reset.
			return nil
		}
		return err
	}
	return nil
}

// --- Helpers ---

func (s *billingService) paidTransaction(accountID string, kind models.PaymentKind, amount float64, description string, details map[string]interface{}) *models.PaymentTransaction {
	now := time.Now()
	payment := &models.PaymentTransaction{
		TraderID:    accountID,
		Kind:        kind,
		Amount:      amount,
		Currency:    models.PlanCurrency,
		Description: description,
		Status:      models.PaymentStatusPaid,
		InvID:       generateInvoiceID(),
		PaidAt:      &now,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			payment.Details = datatypes.JSON(raw)
		}
	}
	return payment
}

// recordDeclined keeps an audit row for a refused authorization. Failure
// to write it is logged and swallowed: the caller already reports the
// decline, and no ledger state depends on this row.
func (s *billingService) recordDeclined(accountID string, kind models.PaymentKind, amount float64, description string) {
	payment := &models.PaymentTransaction{
		TraderID:    accountID,
		Kind:        kind,
		Amount:      amount,
		Currency:    models.PlanCurrency,
		Description: description,
		Status:      models.PaymentStatusDeclined,
		InvID:       generateInvoiceID(),
	}
	if err := s.paymentRepo.CreateTransaction(payment); err != nil {
		logger.WithError(err).Warn("failed to record declined payment", "account_id", accountID)
	}
}

func cycleLabel(cycle models.BillingCycle) string {
	if cycle == models.BillingCycleAnnual {
		return "Annual"
	}
	return "Monthly"
}

func generateInvoiceID() string {
	return fmt.Sprintf("INV%d", time.Now().UnixNano())
}
