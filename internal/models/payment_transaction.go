package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentTransaction is the audit trail of every authorization attempt,
// including declined ones. Declined rows carry no state mutation elsewhere.
type PaymentTransaction struct {
	BaseModel
	TraderID    string        `gorm:"type:uuid;not null;index"`
	Kind        PaymentKind   `gorm:"type:varchar(15);not null"`
	Amount      float64       `gorm:"not null"`
	Currency    string        `gorm:"type:varchar(3);not null;default:'CAD'"`
	Description string        `gorm:"not null"`
	Status      PaymentStatus `gorm:"type:varchar(10);not null;default:'pending'"`
	InvID       string        `gorm:"uniqueIndex;not null"`
	// Kind-specific detail: tier/cycle/credits for subscriptions,
	// job id for lead purchases.
	Details datatypes.JSON `gorm:"type:jsonb"`
	PaidAt  *time.Time
}

// FeaturedListing is a paid 30-day placement boost for a trader profile.
type FeaturedListing struct {
	BaseModel
	TraderID  string    `gorm:"type:uuid;not null;index"`
	Price     float64   `gorm:"not null"`
	StartsAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// Active reports whether the placement is live at the given instant.
func (f *FeaturedListing) Active(now time.Time) bool {
	return !now.Before(f.StartsAt) && now.Before(f.ExpiresAt)
}
