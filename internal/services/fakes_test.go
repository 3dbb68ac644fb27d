package services

import (
	"context"
	"database/sql"
	"time"

	"tradehub_backend/internal/models"
	"tradehub_backend/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory doubles for the repository layer. WithTx returns the fake
// itself; fakeTxRunner passes a nil handle straight through so service
// code exercises the same paths it does against a real database.

type fakeTxRunner struct{}

func (f *fakeTxRunner) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	return fc(nil)
}

type authCall struct {
	amount      float64
	description string
	recurring   bool
}

type scriptedAuthorizer struct {
	approve bool
	err     error
	calls   []authCall
}

func (a *scriptedAuthorizer) Authorize(_ context.Context, amount float64, description string, isRecurring bool) (bool, error) {
	a.calls = append(a.calls, authCall{amount: amount, description: description, recurring: isRecurring})
	if a.err != nil {
		return false, a.err
	}
	return a.approve, nil
}

// --- trader repo ---

type fakeTraderRepo struct {
	accounts map[string]*models.TraderAccount // by account id
	profiles map[string]*models.TraderProfile // by user id
}

func newFakeTraderRepo() *fakeTraderRepo {
	return &fakeTraderRepo{
		accounts: make(map[string]*models.TraderAccount),
		profiles: make(map[string]*models.TraderProfile),
	}
}

func (r *fakeTraderRepo) WithTx(_ *gorm.DB) repositories.TraderRepository { return r }

func (r *fakeTraderRepo) CreateAccount(account *models.TraderAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeTraderRepo) FindAccountByID(id string) (*models.TraderAccount, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (r *fakeTraderRepo) FindAccountByUserID(userID string) (*models.TraderAccount, error) {
	for _, account := range r.accounts {
		if account.UserID == userID {
			clone := *account
			return &clone, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (r *fakeTraderRepo) FindAccountByReferralCode(code string) (*models.TraderAccount, error) {
	for _, account := range r.accounts {
		if account.ReferralCode == code {
			clone := *account
			return &clone, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (r *fakeTraderRepo) SaveAccount(account *models.TraderAccount) error {
	if _, ok := r.accounts[account.ID]; !ok {
		return repositories.ErrAccountNotFound
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeTraderRepo) FindAccountsToExpire(now time.Time) ([]models.TraderAccount, error) {
	var out []models.TraderAccount
	for _, account := range r.accounts {
		if account.OnPaidTier() && !account.AutoRenew &&
			account.SubscriptionEndDate != nil && !now.Before(*account.SubscriptionEndDate) {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (r *fakeTraderRepo) CreateProfile(profile *models.TraderProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	clone := *profile
	r.profiles[profile.UserID] = &clone
	return nil
}

func (r *fakeTraderRepo) FindProfileByUserID(userID string) (*models.TraderProfile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeTraderRepo) SaveProfile(profile *models.TraderProfile) error {
	if _, ok := r.profiles[profile.UserID]; !ok {
		return repositories.ErrProfileNotFound
	}
	clone := *profile
	r.profiles[profile.UserID] = &clone
	return nil
}

func (r *fakeTraderRepo) ListProfiles() ([]models.TraderProfile, error) {
	var out []models.TraderProfile
	for _, profile := range r.profiles {
		out = append(out, *profile)
	}
	return out, nil
}

// --- lead repo ---

type fakeLeadRepo struct {
	unlocks []models.LeadUnlock
	usage   map[string]*models.LeadUsage
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{usage: make(map[string]*models.LeadUsage)}
}

func (r *fakeLeadRepo) WithTx(_ *gorm.DB) repositories.LeadRepository { return r }

func (r *fakeLeadRepo) CreateUnlock(unlock *models.LeadUnlock) error {
	if unlock.ID == "" {
		unlock.ID = uuid.NewString()
	}
	r.unlocks = append(r.unlocks, *unlock)
	return nil
}

func (r *fakeLeadRepo) FindUnlocksByTrader(traderID string) ([]models.LeadUnlock, error) {
	var out []models.LeadUnlock
	for _, u := range r.unlocks {
		if u.TraderID == traderID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) GetUsage(traderID string) (*models.LeadUsage, error) {
	if usage, ok := r.usage[traderID]; ok {
		clone := *usage
		return &clone, nil
	}
	usage := &models.LeadUsage{TraderID: traderID, PeriodStart: time.Now()}
	usage.ID = uuid.NewString()
	r.usage[traderID] = usage
	clone := *usage
	return &clone, nil
}

func (r *fakeLeadRepo) IncrementUsage(traderID string) error {
	if _, err := r.GetUsage(traderID); err != nil {
		return err
	}
	r.usage[traderID].LeadsUsed++
	return nil
}

func (r *fakeLeadRepo) FindLapsedUsage(cutoff time.Time) ([]models.LeadUsage, error) {
	var out []models.LeadUsage
	for _, usage := range r.usage {
		if !usage.PeriodStart.After(cutoff) {
			out = append(out, *usage)
		}
	}
	return out, nil
}

func (r *fakeLeadRepo) ResetUsage(traderID string, periodStart time.Time) error {
	usage, ok := r.usage[traderID]
	if !ok {
		return repositories.ErrUsageNotFound
	}
	usage.LeadsUsed = 0
	usage.PeriodStart = periodStart
	return nil
}

// --- payment repo ---

type fakePaymentRepo struct {
	transactions []models.PaymentTransaction
	listings     []models.FeaturedListing
}

func newFakePaymentRepo() *fakePaymentRepo { return &fakePaymentRepo{} }

func (r *fakePaymentRepo) WithTx(_ *gorm.DB) repositories.PaymentRepository { return r }

func (r *fakePaymentRepo) CreateTransaction(payment *models.PaymentTransaction) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	r.transactions = append(r.transactions, *payment)
	return nil
}

func (r *fakePaymentRepo) FindByID(id string) (*models.PaymentTransaction, error) {
	for i := range r.transactions {
		if r.transactions[i].ID == id {
			clone := r.transactions[i]
			return &clone, nil
		}
	}
	return nil, repositories.ErrPaymentNotFound
}

func (r *fakePaymentRepo) FindByTrader(traderID string) ([]models.PaymentTransaction, error) {
	var out []models.PaymentTransaction
	for _, t := range r.transactions {
		if t.TraderID == traderID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) CreateFeaturedListing(listing *models.FeaturedListing) error {
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	r.listings = append(r.listings, *listing)
	return nil
}

func (r *fakePaymentRepo) FindActiveFeatured(traderID string, now time.Time) (*models.FeaturedListing, error) {
	for i := range r.listings {
		l := r.listings[i]
		if l.TraderID == traderID && l.Active(now) {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindActiveFeaturedTraderIDs(now time.Time) ([]string, error) {
	var out []string
	for _, l := range r.listings {
		if l.Active(now) {
			out = append(out, l.TraderID)
		}
	}
	return out, nil
}

// --- job repo ---

type fakeJobRepo struct {
	jobs map[string]*models.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*models.Job)}
}

func (r *fakeJobRepo) Create(job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *fakeJobRepo) FindByID(id string) (*models.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, repositories.ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (r *fakeJobRepo) FindByStatus(status models.JobStatus) ([]models.Job, error) {
	var out []models.Job
	for _, job := range r.jobs {
		if job.Status == status {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) FindAll() ([]models.Job, error) {
	var out []models.Job
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out, nil
}

// --- user repo ---

type fakeUserRepo struct {
	users map[string]*models.User // by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// --- fixture helpers ---

type billingFixture struct {
	service    BillingService
	traderRepo *fakeTraderRepo
	leadRepo   *fakeLeadRepo
	payRepo    *fakePaymentRepo
	jobRepo    *fakeJobRepo
	authorizer *scriptedAuthorizer
}

func newBillingFixture(approve bool) *billingFixture {
	f := &billingFixture{
		traderRepo: newFakeTraderRepo(),
		leadRepo:   newFakeLeadRepo(),
		payRepo:    newFakePaymentRepo(),
		jobRepo:    newFakeJobRepo(),
		authorizer: &scriptedAuthorizer{approve: approve},
	}
	f.service = NewBillingService(&fakeTxRunner{}, f.traderRepo, f.leadRepo, f.payRepo, f.jobRepo, f.authorizer)
	return f
}

func (f *billingFixture) seedAccount(tier models.SubscriptionTier) *models.TraderAccount {
	accountID := uuid.NewString()
	account := &models.TraderAccount{
		BaseModel:          models.BaseModel{ID: accountID},
		UserID:             uuid.NewString(),
		SubscriptionTier:   tier,
		BillingCycle:       models.BillingCycleMonthly,
		SubscriptionStatus: models.SubscriptionStatusActive,
		AutoRenew:          true,
		ReferralCode:       GenerateReferralCode(accountID),
	}
	_ = f.traderRepo.CreateAccount(account)
	return account
}

func (f *billingFixture) seedJob() *models.Job {
	job := &models.Job{
		CustomerID:   uuid.NewString(),
		CustomerName: "Dana",
		ProjectType:  "Kitchen Remodel",
		Description:  "Full gut renovation",
		Status:       models.JobStatusOpen,
	}
	_ = f.jobRepo.Create(job)
	return job
}
