package repositories

import (
	"errors"
	"time"

	"tradehub_backend/internal/models"

	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment transaction not found")

type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository

	CreateTransaction(payment *models.PaymentTransaction) error
	FindByID(id string) (*models.PaymentTransaction, error)
	FindByTrader(traderID string) ([]models.PaymentTransaction, error)

	CreateFeaturedListing(listing *models.FeaturedListing) error
	FindActiveFeatured(traderID string, now time.Time) (*models.FeaturedListing, error)
	FindActiveFeaturedTraderIDs(now time.Time) ([]string, error)
}

type PaymentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{db: db}
}

func (r *PaymentRepositoryImpl) WithTx(tx *gorm.DB) PaymentRepository {
	return &PaymentRepositoryImpl{db: tx}
}

func (r *PaymentRepositoryImpl) CreateTransaction(payment *models.PaymentTransaction) error {
	return r.db.Create(payment).Error
}

func (r *PaymentRepositoryImpl) FindByID(id string) (*models.PaymentTransaction, error) {
	var payment models.PaymentTransaction
	err := r.db.First(&payment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepositoryImpl) FindByTrader(traderID string) ([]models.PaymentTransaction, error) {
	var payments []models.PaymentTransaction
	err := r.db.Where("trader_id = ?", traderID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *PaymentRepositoryImpl) CreateFeaturedListing(listing *models.FeaturedListing) error {
	return r.db.Create(listing).Error
}

func (r *PaymentRepositoryImpl) FindActiveFeatured(traderID string, now time.Time) (*models.FeaturedListing, error) {
	var listing models.FeaturedListing
	err := r.db.
		Where("trader_id = ?", traderID).
		Where("starts_at <= ? AND expires_at > ?", now, now).
		Order("expires_at DESC").
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *PaymentRepositoryImpl) FindActiveFeaturedTraderIDs(now time.Time) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.FeaturedListing{}).
		Where("starts_at <= ? AND expires_at > ?", now, now).
		Distinct().
		Pluck("trader_id", &ids).Error
	return ids, err
}
