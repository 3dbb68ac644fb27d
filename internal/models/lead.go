package models

import "time"

// LeadUnlock records that a trader paid for (or quota-consumed) visibility
// of one job's contact details. Append-only: rows are never edited or
// removed. The (job_id, trader_id) pair is indexed; duplicates are treated
// as a single unlock by the evaluator.
type LeadUnlock struct {
	BaseModel
	JobID      string    `gorm:"type:uuid;not null;index:idx_lead_unlock_job_trader"`
	TraderID   string    `gorm:"type:uuid;not null;index:idx_lead_unlock_job_trader"`
	UnlockedAt time.Time `gorm:"not null"`
	// Price paid at unlock time; zero when consumed from quota.
	Amount float64 `gorm:"not null;default:0"`
}

// LeadUsage is the monthly consumption counter: one row per trader,
// incremented on every successful unlock regardless of tier. The billing
// worker resets it at the billing-cycle boundary; the engine itself never
// clears it.
type LeadUsage struct {
	BaseModel
	TraderID    string    `gorm:"type:uuid;not null;uniqueIndex"`
	LeadsUsed   int       `gorm:"not null;default:0"`
	PeriodStart time.Time `gorm:"not null"`
}
