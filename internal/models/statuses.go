package models

type UserRole string
type SubscriptionTier string
type BillingCycle string
type SubscriptionStatus string
type PaymentStatus string
type PaymentKind string
type JobStatus string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleTrader   UserRole = "trader"
	UserRoleAdmin    UserRole = "admin"

	TierBasic SubscriptionTier = "basic"
	TierPro   SubscriptionTier = "pro"
	TierElite SubscriptionTier = "elite"

	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"

	// Status transitions: active -> canceled (downgrade to basic),
	// active -> expired (time-based, auto_renew off),
	// canceled|expired -> active (paid upgrade).
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusDeclined PaymentStatus = "declined"

	PaymentKindSubscription PaymentKind = "subscription"
	PaymentKindLead         PaymentKind = "lead"
	PaymentKindFeature      PaymentKind = "feature"

	JobStatusOpen       JobStatus = "open"
	JobStatusQuoted     JobStatus = "quoted"
	JobStatusInProgress JobStatus = "in-progress"
	JobStatusCompleted  JobStatus = "completed"
)

// ValidTier reports whether tier is one of the three known catalog tiers.
func ValidTier(tier SubscriptionTier) bool {
	switch tier {
	case TierBasic, TierPro, TierElite:
		return true
	}
	return false
}

// TierPriority orders traders in search results: elite above pro above basic.
func TierPriority(tier SubscriptionTier) int {
	switch tier {
	case TierElite:
		return 3
	case TierPro:
		return 2
	default:
		return 1
	}
}
