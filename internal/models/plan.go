package models

// QuotaUnlimited is the lead quota sentinel for paid tiers.
const QuotaUnlimited = -1

// Pricing constants, all amounts in CAD.
const (
	PayPerLeadPrice     = 12.0
	FeatureListingPrice = 29.0
	FeatureListingDays  = 30

	// FreeResponseLimit is the lifetime response cap on the basic tier.
	// It is independent of the monthly lead quota: the quota meters lead
	// unlocks per billing period, this caps total free job responses.
	FreeResponseLimit = 3

	// ReferralPayoutRate is the share of a referred trader's payment
	// credited to the referrer.
	ReferralPayoutRate = 0.10

	PlanCurrency = "CAD"
)

// PlanDefinition is an immutable catalog entry. The catalog is static and
// lives in code; there is no write path.
type PlanDefinition struct {
	ID                    SubscriptionTier `json:"id"`
	Name                  string           `json:"name"`
	MonthlyPrice          float64          `json:"monthly_price"`
	AnnualPrice           float64          `json:"annual_price"` // 0 when the tier has no annual option
	Currency              string           `json:"currency"`
	LeadQuota             int              `json:"lead_quota"` // QuotaUnlimited for paid tiers
	Features              []string         `json:"features"`
	PortfolioPhotoLimit   int              `json:"portfolio_photo_limit"`
	SupportResponseTarget string           `json:"support_response_target"`
	Recommended           bool             `json:"recommended"`
}

// Unlimited reports whether the plan has no monthly lead quota.
func (p PlanDefinition) Unlimited() bool {
	return p.LeadQuota == QuotaUnlimited
}

// PriceFor returns the charge amount for the given billing cycle. Tiers
// without an annual price fall back to the monthly price.
func (p PlanDefinition) PriceFor(cycle BillingCycle) float64 {
	if cycle == BillingCycleAnnual && p.AnnualPrice > 0 {
		return p.AnnualPrice
	}
	return p.MonthlyPrice
}

// subscriptionPlans is the catalog in display order: basic, pro, elite.
var subscriptionPlans = []PlanDefinition{
	{
		ID:           TierBasic,
		Name:         "Basic",
		MonthlyPrice: 0,
		Currency:     PlanCurrency,
		LeadQuota:    3,
		Features: []string{
			"3 job requests per month",
			"Basic profile listing",
			"Normal profile visibility",
			"Standard support",
			"Community visibility",
		},
		PortfolioPhotoLimit:   5,
		SupportResponseTarget: "48 hours",
	},
	{
		ID:           TierPro,
		Name:         "Pro",
		MonthlyPrice: 39,
		AnnualPrice:  390,
		Currency:     PlanCurrency,
		LeadQuota:    QuotaUnlimited,
		Features: []string{
			"Unlimited job requests",
			"Featured higher in search results",
			"Priority support",
			"Advanced analytics",
			"Early access to jobs",
		},
		PortfolioPhotoLimit:   20,
		SupportResponseTarget: "24 hours",
		Recommended:           true,
	},
	{
		ID:           TierElite,
		Name:         "Elite",
		MonthlyPrice: 79,
		AnnualPrice:  790,
		Currency:     PlanCurrency,
		LeadQuota:    QuotaUnlimited,
		Features: []string{
			"Unlimited job requests",
			"Top placement in search results",
			"\"Elite Pro\" badge on profile",
			"Dedicated support",
			"Advanced analytics & insights",
			"Instant job notifications",
			"Custom branding options",
		},
		PortfolioPhotoLimit:   999,
		SupportResponseTarget: "1 hour",
	},
}

// GetPlan looks up a catalog entry by tier id. Unknown tiers return
// ok=false; callers that need a display fallback use CurrentPlan.
func GetPlan(tier SubscriptionTier) (PlanDefinition, bool) {
	for _, p := range subscriptionPlans {
		if p.ID == tier {
			return p, true
		}
	}
	return PlanDefinition{}, false
}

// CurrentPlan resolves the plan for an account tier, defaulting to basic
// for empty or unknown values so evaluation fails closed onto the free
// tier rather than erroring.
func CurrentPlan(tier SubscriptionTier) PlanDefinition {
	if p, ok := GetPlan(tier); ok {
		return p
	}
	return subscriptionPlans[0]
}

// ListPlans returns the catalog in display order.
func ListPlans() []PlanDefinition {
	plans := make([]PlanDefinition, len(subscriptionPlans))
	copy(plans, subscriptionPlans)
	return plans
}
