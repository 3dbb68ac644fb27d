package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradehub_backend/internal/models"
	"tradehub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeToPlan_ProMonthly(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)

	updated, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.TierPro, models.BillingCycleMonthly)
	require.NoError(t, err)

	assert.Equal(t, models.TierPro, updated.SubscriptionTier)
	assert.Equal(t, models.SubscriptionStatusActive, updated.SubscriptionStatus)
	assert.True(t, updated.AutoRenew)
	require.NotNil(t, updated.SubscriptionEndDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *updated.SubscriptionEndDate, time.Minute)

	require.Len(t, f.authorizer.calls, 1)
	assert.Equal(t, 39.0, f.authorizer.calls[0].amount)
	assert.True(t, f.authorizer.calls[0].recurring)

	history, err := f.service.PaymentHistory(account.UserID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PaymentStatusPaid, history[0].Status)
	assert.Equal(t, models.PaymentKindSubscription, history[0].Kind)
	assert.Equal(t, 39.0, history[0].Amount)
	assert.Equal(t, "CAD", history[0].Currency)
}

func TestUpgradeToPlan_AnnualPricing(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)

	updated, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.TierElite, models.BillingCycleAnnual)
	require.NoError(t, err)

	assert.Equal(t, 790.0, f.authorizer.calls[0].amount)
	require.NotNil(t, updated.SubscriptionEndDate)
	assert.WithinDuration(t, time.Now().AddDate(1, 0, 0), *updated.SubscriptionEndDate, time.Minute)
}

func TestUpgradeToPlan_ReferralCreditsCoverCharge(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	account.ReferralCredits = 50
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.TierPro, models.BillingCycleMonthly)
	require.NoError(t, err)

	// $50 in credits against a $39 charge: nothing is charged and $11
	// of credit survives.
	assert.Equal(t, 0.0, f.authorizer.calls[0].amount)
	assert.Equal(t, 11.0, updated.ReferralCredits)
	assert.Equal(t, models.TierPro, updated.SubscriptionTier)
}

func TestUpgradeToPlan_PartialCredits(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	account.ReferralCredits = 10
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.TierPro, models.BillingCycleMonthly)
	require.NoError(t, err)

	assert.Equal(t, 29.0, f.authorizer.calls[0].amount)
	assert.Equal(t, 0.0, updated.ReferralCredits)
}

func TestUpgradeToPlan_DeclinedLeavesLedgerUntouched(t *testing.T) {
	f := newBillingFixture(false)
	account := f.seedAccount(models.TierBasic)

	_, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.TierPro, models.BillingCycleMonthly)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPaymentDeclined))

	stored, err := f.traderRepo.FindAccountByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierBasic, stored.SubscriptionTier)
	assert.Nil(t, stored.SubscriptionEndDate)

	// The declined attempt still leaves an audit row.
	history, err := f.service.PaymentHistory(account.UserID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PaymentStatusDeclined, history[0].Status)
}

func TestUpgradeToPlan_UnknownTier(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)

	_, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.SubscriptionTier("platinum"), models.BillingCycleMonthly)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnknownPlanTier))
	assert.Empty(t, f.authorizer.calls)
}

func TestUpgradeToPlan_DowngradeToBasicIsFree(t *testing.T) {
	f := newBillingFixture(false) // would decline any charge
	account := f.seedAccount(models.TierPro)
	end := time.Now().AddDate(0, 1, 0)
	account.SubscriptionEndDate = &end
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.TierBasic, "")
	require.NoError(t, err)

	assert.Equal(t, models.TierBasic, updated.SubscriptionTier)
	assert.Equal(t, models.SubscriptionStatusCanceled, updated.SubscriptionStatus)
	assert.True(t, updated.AutoRenew)
	assert.Nil(t, updated.SubscriptionEndDate)
	assert.Empty(t, f.authorizer.calls, "downgrade must not touch the payment collaborator")
}

func TestUpgradeToPlan_ReactivatesCanceledAccount(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	account.SubscriptionStatus = models.SubscriptionStatusCanceled
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.UpgradeToPlan(context.Background(), account.UserID, models.TierElite, models.BillingCycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, updated.SubscriptionStatus)
	assert.Equal(t, 79.0, f.authorizer.calls[0].amount)
}

func TestUpgradeToPlan_PaysReferrer(t *testing.T) {
	f := newBillingFixture(true)
	referrer := f.seedAccount(models.TierPro)
	referred := f.seedAccount(models.TierBasic)
	referred.ReferredBy = referrer.ID
	require.NoError(t, f.traderRepo.SaveAccount(referred))

	_, err := f.service.UpgradeToPlan(context.Background(), referred.UserID, models.TierPro, models.BillingCycleMonthly)
	require.NoError(t, err)

	stored, err := f.traderRepo.FindAccountByID(referrer.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.9, stored.ReferralCredits, 1e-9)
}

func TestUpgradeToPlan_MissingAccount(t *testing.T) {
	f := newBillingFixture(true)
	_, err := f.service.UpgradeToPlan(context.Background(), "no-such-user", models.TierPro, models.BillingCycleMonthly)
	assert.True(t, apperrors.Is(err, apperrors.ErrTraderNotFound))
}

func TestPurchaseLead(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	job := f.seedJob()

	unlock, err := f.service.PurchaseLead(context.Background(), account.UserID, job.ID)
	require.NoError(t, err)

	assert.Equal(t, job.ID, unlock.JobID)
	assert.Equal(t, account.ID, unlock.TraderID)
	assert.Equal(t, 12.0, unlock.Amount)

	usage, err := f.leadRepo.GetUsage(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.LeadsUsed)

	history, err := f.service.PaymentHistory(account.UserID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.PaymentKindLead, history[0].Kind)
	assert.Equal(t, 12.0, history[0].Amount)
}

func TestPurchaseLead_DoesNotTouchResponseCounter(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	job := f.seedJob()

	_, err := f.service.PurchaseLead(context.Background(), account.UserID, job.ID)
	require.NoError(t, err)

	stored, err := f.traderRepo.FindAccountByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.JobResponsesCount)
}

func TestPurchaseLead_Declined(t *testing.T) {
	f := newBillingFixture(false)
	account := f.seedAccount(models.TierBasic)
	job := f.seedJob()

	_, err := f.service.PurchaseLead(context.Background(), account.UserID, job.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrPaymentDeclined))

	assert.Empty(t, f.leadRepo.unlocks)
	usage, err := f.leadRepo.GetUsage(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.LeadsUsed)
}

func TestPurchaseLead_MissingJob(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)

	_, err := f.service.PurchaseLead(context.Background(), account.UserID, "a7cfc1b1-0000-0000-0000-000000000000")
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotFound))
	assert.Empty(t, f.authorizer.calls)
}

func TestUnlockLeadViaQuota(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	job := f.seedJob()

	unlock, err := f.service.UnlockLeadViaQuota(context.Background(), account.UserID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, unlock.Amount)

	usage, err := f.leadRepo.GetUsage(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.LeadsUsed)
	assert.Empty(t, f.authorizer.calls)
	assert.Empty(t, f.payRepo.transactions)
}

func TestUnlockLeadViaQuota_ExhaustedQuota(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	for i := 0; i < 3; i++ {
		job := f.seedJob()
		_, err := f.service.UnlockLeadViaQuota(context.Background(), account.UserID, job.ID)
		require.NoError(t, err)
	}

	job := f.seedJob()
	_, err := f.service.UnlockLeadViaQuota(context.Background(), account.UserID, job.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrLeadQuotaExhausted))
}

func TestUnlockLeadViaQuota_UnlimitedTier(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierElite)
	for i := 0; i < 10; i++ {
		job := f.seedJob()
		_, err := f.service.UnlockLeadViaQuota(context.Background(), account.UserID, job.ID)
		require.NoError(t, err)
	}
}

func TestRecordJobResponse_BasicTierCap(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)

	for i := 1; i <= 3; i++ {
		updated, err := f.service.RecordJobResponse(context.Background(), account.UserID)
		require.NoError(t, err)
		assert.Equal(t, i, updated.JobResponsesCount)
	}

	// The lifetime cap holds on the fourth attempt.
	_, err := f.service.RecordJobResponse(context.Background(), account.UserID)
	assert.True(t, apperrors.Is(err, apperrors.ErrResponseCapReached))
}

func TestRecordJobResponse_PaidTierUncapped(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierPro)
	account.JobResponsesCount = 50
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.RecordJobResponse(context.Background(), account.UserID)
	require.NoError(t, err)
	assert.Equal(t, 51, updated.JobResponsesCount)
}

func TestFeatureListing(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierPro)

	listing, err := f.service.FeatureListing(context.Background(), account.UserID)
	require.NoError(t, err)

	assert.Equal(t, 29.0, listing.Price)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), listing.ExpiresAt, time.Minute)
	assert.Equal(t, 29.0, f.authorizer.calls[0].amount)
	assert.False(t, f.authorizer.calls[0].recurring)

	summary, err := f.service.Summary(account.UserID)
	require.NoError(t, err)
	assert.True(t, summary.IsFeatured)
}

func TestFeatureListing_Declined(t *testing.T) {
	f := newBillingFixture(false)
	account := f.seedAccount(models.TierPro)

	_, err := f.service.FeatureListing(context.Background(), account.UserID)
	assert.True(t, apperrors.Is(err, apperrors.ErrPaymentDeclined))
	assert.Empty(t, f.payRepo.listings)
}

func TestToggleAutoRenew(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierPro)

	updated, err := f.service.ToggleAutoRenew(context.Background(), account.UserID)
	require.NoError(t, err)
	assert.False(t, updated.AutoRenew)

	updated, err = f.service.ToggleAutoRenew(context.Background(), account.UserID)
	require.NoError(t, err)
	assert.True(t, updated.AutoRenew)
}

// barrierTraderRepo holds every FindAccountByUserID result at a barrier
// until all expected callers have read, so concurrent operations each start
// from the same pre-lock snapshot.
type barrierTraderRepo struct {
	*fakeTraderRepo
	barrier *sync.WaitGroup
}

func (r *barrierTraderRepo) FindAccountByUserID(userID string) (*models.TraderAccount, error) {
	account, err := r.fakeTraderRepo.FindAccountByUserID(userID)
	r.barrier.Done()
	r.barrier.Wait()
	return account, err
}

func TestToggleAutoRenew_ConcurrentCallsSerialize(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierPro)

	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	repo := &barrierTraderRepo{fakeTraderRepo: f.traderRepo, barrier: barrier}
	service := NewBillingService(&fakeTxRunner{}, repo, f.leadRepo, f.payRepo, f.jobRepo, f.authorizer)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.ToggleAutoRenew(context.Background(), account.UserID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	saved, err := f.traderRepo.FindAccountByID(account.ID)
	require.NoError(t, err)
	assert.True(t, saved.AutoRenew,
		"two serialized toggles must restore auto-renew; a stale read loses one of them")
}

func TestCheckSubscriptionExpiration(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierPro)
	end := time.Now().Add(-time.Hour)
	account.SubscriptionEndDate = &end
	account.AutoRenew = false
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.CheckSubscriptionExpiration(account.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.TierBasic, updated.SubscriptionTier)
	assert.Equal(t, models.SubscriptionStatusExpired, updated.SubscriptionStatus)
	assert.True(t, updated.AutoRenew)

	// A second sweep over the same account changes nothing.
	again, err := f.service.CheckSubscriptionExpiration(account.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.TierBasic, again.SubscriptionTier)
	assert.Equal(t, models.SubscriptionStatusExpired, again.SubscriptionStatus)
}

func TestCheckSubscriptionExpiration_AutoRenewKeepsTier(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierElite)
	end := time.Now().Add(-time.Hour)
	account.SubscriptionEndDate = &end
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.CheckSubscriptionExpiration(account.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.TierElite, updated.SubscriptionTier)
	assert.Equal(t, models.SubscriptionStatusActive, updated.SubscriptionStatus)
}

func TestCheckSubscriptionExpiration_FutureEndDate(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierPro)
	end := time.Now().AddDate(0, 0, 7)
	account.SubscriptionEndDate = &end
	account.AutoRenew = false
	require.NoError(t, f.traderRepo.SaveAccount(account))

	updated, err := f.service.CheckSubscriptionExpiration(account.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.TierPro, updated.SubscriptionTier)
}

func TestAddReferralCredit_MissingReferrer(t *testing.T) {
	f := newBillingFixture(true)
	err := f.service.AddReferralCredit("f2b6c9f4-0000-0000-0000-000000000000", 10)
	assert.True(t, apperrors.Is(err, apperrors.ErrReferrerNotFound))
}

func TestProcessReferralPayment(t *testing.T) {
	f := newBillingFixture(true)
	referrer := f.seedAccount(models.TierPro)
	referred := f.seedAccount(models.TierBasic)
	referred.ReferredBy = referrer.ID
	require.NoError(t, f.traderRepo.SaveAccount(referred))

	require.NoError(t, f.service.ProcessReferralPayment(referred.ID, 100))

	stored, err := f.traderRepo.FindAccountByID(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.ReferralCredits)
}

func TestProcessReferralPayment_NoReferrerIsNoOp(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	assert.NoError(t, f.service.ProcessReferralPayment(account.ID, 100))
}

func TestSummary(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	job := f.seedJob()
	_, err := f.service.UnlockLeadViaQuota(context.Background(), account.UserID, job.ID)
	require.NoError(t, err)

	summary, err := f.service.Summary(account.UserID)
	require.NoError(t, err)

	assert.Equal(t, models.TierBasic, summary.Tier)
	assert.Equal(t, "Basic", summary.PlanName)
	assert.Equal(t, 1, summary.LeadsUsedThisMonth)
	assert.Equal(t, 2, summary.RemainingLeads)
	assert.True(t, summary.CanAccessViaQuota)
	assert.True(t, summary.CanRespondToJob)
	assert.Equal(t, 3, summary.ResponsesRemaining)
	assert.Equal(t, account.ReferralCode, summary.ReferralCode)
	assert.False(t, summary.IsFeatured)
}

func TestSummary_UnlimitedTier(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierElite)

	summary, err := f.service.Summary(account.UserID)
	require.NoError(t, err)
	assert.Equal(t, -1, summary.RemainingLeads)
	assert.Equal(t, -1, summary.ResponsesRemaining)
	assert.True(t, summary.CanAccessViaQuota)
}

func TestResetMonthlyUsage(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	job := f.seedJob()
	_, err := f.service.UnlockLeadViaQuota(context.Background(), account.UserID, job.ID)
	require.NoError(t, err)

	periodStart := time.Now()
	require.NoError(t, f.service.ResetMonthlyUsage(account.ID, periodStart))

	usage, err := f.leadRepo.GetUsage(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.LeadsUsed)
}

func TestResetMonthlyUsage_NothingConsumed(t *testing.T) {
	f := newBillingFixture(true)
	account := f.seedAccount(models.TierBasic)
	assert.NoError(t, f.service.ResetMonthlyUsage(account.ID, time.Now()))
}
