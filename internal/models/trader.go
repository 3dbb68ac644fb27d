package models

import (
	"time"

	"github.com/lib/pq"
)

// TraderAccount is the subscription ledger: one mutable record per trader,
// created at profile setup, mutated only by billing operations, never
// deleted (expiry resets it to basic).
type TraderAccount struct {
	BaseModel
	UserID             string             `gorm:"type:uuid;not null;uniqueIndex"`
	SubscriptionTier   SubscriptionTier   `gorm:"type:varchar(10);not null;default:'basic'"`
	BillingCycle       BillingCycle       `gorm:"type:varchar(10);not null;default:'monthly'"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(10);not null;default:'active'"`
	// Set whenever the tier is paid; nil on basic.
	SubscriptionEndDate *time.Time
	AutoRenew           bool `gorm:"not null;default:true"`

	// Lifetime count of job responses. Only enforced while on basic
	// (paid tiers ignore it); the stored value survives upgrades.
	JobResponsesCount int `gorm:"not null;default:0"`

	// Referral subsystem. The code is generated once from the account id
	// and stable thereafter. Credits never go negative.
	ReferralCode    string  `gorm:"uniqueIndex;not null"`
	ReferredBy      string  `gorm:"type:uuid;index;default:null"`
	ReferralCredits float64 `gorm:"not null;default:0"`
}

// OnPaidTier reports whether the account is on pro or elite.
func (a *TraderAccount) OnPaidTier() bool {
	return a.SubscriptionTier == TierPro || a.SubscriptionTier == TierElite
}

// TraderProfile carries the public presentation data for a trader. The
// entitlement engine only touches it when ordering search results.
type TraderProfile struct {
	BaseModel
	UserID          string         `gorm:"type:uuid;not null;uniqueIndex"`
	BusinessName    string         `gorm:"not null"`
	OwnerName       string         `gorm:"not null"`
	Category        string         `gorm:"not null"`
	ServiceAreas    pq.StringArray `gorm:"type:text[]"`
	Certifications  pq.StringArray `gorm:"type:text[]"`
	Description     string
	Insured         bool
	YearsInBusiness int
	Phone           string
	Email           string
}
