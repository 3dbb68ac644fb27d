package models

// Request payloads bound and validated by handlers.

type RegisterRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Name     string   `json:"name" validate:"required"`
	Role     UserRole `json:"role" validate:"required,oneof=customer trader"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateTraderProfileRequest struct {
	BusinessName    string   `json:"business_name" validate:"required"`
	OwnerName       string   `json:"owner_name" validate:"required"`
	Category        string   `json:"category" validate:"required"`
	ServiceAreas    []string `json:"service_areas"`
	Certifications  []string `json:"certifications"`
	Description     string   `json:"description"`
	Insured         bool     `json:"insured"`
	YearsInBusiness int      `json:"years_in_business" validate:"min=0"`
	Phone           string   `json:"phone"`
	Email           string   `json:"email" validate:"omitempty,email"`
	// Referral code of the trader who invited this one, if any.
	ReferralCode string `json:"referral_code"`
}

type CreateJobRequest struct {
	ProjectType string `json:"project_type" validate:"required"`
	Description string `json:"description" validate:"required"`
	BudgetRange string `json:"budget_range"`
	Timeline    string `json:"timeline"`
	City        string `json:"city"`
	Community   string `json:"community"`
	Address     string `json:"address"`
}

type UpgradePlanRequest struct {
	Tier         SubscriptionTier `json:"tier" validate:"required,oneof=basic pro elite"`
	BillingCycle BillingCycle     `json:"billing_cycle" validate:"omitempty,oneof=monthly annual"`
}

type PurchaseLeadRequest struct {
	JobID string `json:"job_id" validate:"required,uuid"`
}

type RecordResponseRequest struct {
	JobID string `json:"job_id" validate:"required,uuid"`
}
