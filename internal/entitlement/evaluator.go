// Package entitlement computes lead access decisions from the plan catalog,
// the trader's account and the monthly usage counter. Every function here is
// pure and total over well-formed inputs: no state is mutated, no errors are
// returned, and missing data fails closed to "no access".
package entitlement

import (
	"tradehub_backend/internal/models"
)

// Unlimited is the sentinel returned by RemainingLeads and
// ResponsesRemaining for paid tiers.
const Unlimited = -1

// RemainingLeads returns how many leads the account may still unlock this
// month: Unlimited for pro/elite, otherwise the quota minus usage floored
// at zero. Negative usage inputs count as zero remaining.
func RemainingLeads(account *models.TraderAccount, usageThisMonth int) int {
	if account == nil {
		return 0
	}

	plan := models.CurrentPlan(account.SubscriptionTier)
	if plan.Unlimited() {
		return Unlimited
	}
	if usageThisMonth < 0 || plan.LeadQuota < 0 {
		return 0
	}

	remaining := plan.LeadQuota - usageThisMonth
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanAccessViaQuota reports whether the account may consume one more lead
// from its monthly quota.
func CanAccessViaQuota(account *models.TraderAccount, usageThisMonth int) bool {
	remaining := RemainingLeads(account, usageThisMonth)
	return remaining == Unlimited || remaining > 0
}

// CanRespondToJob is the tier gate, independent of the monthly quota: paid
// tiers always pass, basic passes until the lifetime free-response cap.
// The two gates meter different things (lead unlocks per billing period vs
// total free responses) and are deliberately never reconciled.
func CanRespondToJob(account *models.TraderAccount) bool {
	if account == nil {
		return false
	}
	if account.OnPaidTier() {
		return true
	}
	return account.JobResponsesCount < models.FreeResponseLimit
}

// ResponsesRemaining returns Unlimited on paid tiers, otherwise the free
// responses left before the cap.
func ResponsesRemaining(account *models.TraderAccount) int {
	if account == nil {
		return 0
	}
	if account.OnPaidTier() {
		return Unlimited
	}

	remaining := models.FreeResponseLimit - account.JobResponsesCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsLeadUnlocked reports whether any unlock record matches the job for the
// given trader. Duplicate records count as a single unlock.
func IsLeadUnlocked(unlocks []models.LeadUnlock, traderID, jobID string) bool {
	for _, u := range unlocks {
		if u.JobID == jobID && u.TraderID == traderID {
			return true
		}
	}
	return false
}

// ApplyReferralCredits computes the discounted charge: the discount is
// min(credits, amount) and the result is never negative. Pure; the caller
// deducts the consumed discount from the stored balance after a successful
// charge.
func ApplyReferralCredits(credits, amount float64) (finalAmount, discount float64) {
	if amount <= 0 {
		return 0, 0
	}
	if credits <= 0 {
		return amount, 0
	}

	discount = credits
	if discount > amount {
		discount = amount
	}
	return amount - discount, discount
}
