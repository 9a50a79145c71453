// Package database persists the catalog and orders in PostgreSQL through gorm.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(&ProductRecord{}, &OrderRecord{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// Repository implements domain.ProductCatalog and domain.OrderRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SeedProducts inserts products that don't exist yet. Existing rows keep their price.
func (r *Repository) SeedProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	records := make([]ProductRecord, 0, len(products))
	for _, p := range products {
		records = append(records, productToRecord(p))
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "sku"}}, DoNothing: true}).
		Create(&records).Error
}

// GetProduct implements domain.ProductCatalog.
func (r *Repository) GetProduct(ctx context.Context, sku string) (*domain.Product, error) {
	var rec ProductRecord
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", sku, err)
	}
	p := productFromRecord(rec)
	return &p, nil
}

// ListProducts implements domain.ProductCatalog.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var recs []ProductRecord
	if err := r.db.WithContext(ctx).Order("sku ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]domain.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, productFromRecord(rec))
	}
	return out, nil
}

// CreateOrder implements domain.OrderRepository.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	rec := orderToRecord(*order)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	order.CreatedAt = rec.CreatedAt
	order.UpdatedAt = rec.UpdatedAt
	return nil
}

// GetOrder implements domain.OrderRepository.
func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var rec OrderRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	o := orderFromRecord(rec)
	return &o, nil
}

// TransitionOrder implements domain.OrderRepository with a conditional update.
func (r *Repository) TransitionOrder(ctx context.Context, id string, from, to domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&OrderRecord{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("transition order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := r.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("order %s is %s: %w", id, current.Status, domain.ErrOrderNotPending)
}

// UpdatePayment implements domain.OrderRepository.
func (r *Repository) UpdatePayment(ctx context.Context, status domain.PaymentStatus) error {
	updates := map[string]any{
		"status":        string(status.Status),
		"status_detail": status.StatusDetail,
		"updated_at":    time.Now().UTC(),
	}
	if status.PaymentID != "" {
		updates["gateway_payment_id"] = status.PaymentID
	}
	res := r.db.WithContext(ctx).Model(&OrderRecord{}).Where("id = ?", status.OrderID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update payment for order %s: %w", status.OrderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
