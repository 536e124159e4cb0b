package repository

import (
	"context"
	"errors"
	"time"

	"github.com/metrify/backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AdjustmentRepository interface {
	Append(ctx context.Context, adj *model.StockAdjustment) error
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error)
	// ListByProductAsc returns the full timestamp-ordered log for replay.
	ListByProductAsc(ctx context.Context, productID uuid.UUID) ([]model.StockAdjustment, error)
	// SnapshotAtOrBefore returns the latest ledger snapshot for a product at
	// or before t, or nil when no adjustment precedes t.
	SnapshotAtOrBefore(ctx context.Context, productID uuid.UUID, t time.Time) (*model.StockAdjustment, error)
	// UpdateSnapshot rewrites a row's post-event snapshot after a backdated
	// event shifts the states downstream of it.
	UpdateSnapshot(ctx context.Context, id uuid.UUID, quantity int, cost decimal.Decimal, overdrawn bool) error
}

type adjustmentRepository struct {
	db *gorm.DB
}

func NewAdjustmentRepository(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

func (r *adjustmentRepository) Append(ctx context.Context, adj *model.StockAdjustment) error {
	return GetDB(ctx, r.db).Create(adj).Error
}

func (r *adjustmentRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error) {
	var adjustments []model.StockAdjustment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockAdjustment{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("occurred_at desc, created_at desc").Offset(offset).Limit(limit).Find(&adjustments).Error; err != nil {
		return nil, 0, err
	}

	return adjustments, total, nil
}

func (r *adjustmentRepository) ListByProductAsc(ctx context.Context, productID uuid.UUID) ([]model.StockAdjustment, error) {
	var adjustments []model.StockAdjustment
	if err := GetDB(ctx, r.db).Where("product_id = ?", productID).
		Order("occurred_at asc, created_at asc").Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

func (r *adjustmentRepository) UpdateSnapshot(ctx context.Context, id uuid.UUID, quantity int, cost decimal.Decimal, overdrawn bool) error {
	return GetDB(ctx, r.db).Model(&model.StockAdjustment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity_after": quantity,
			"cost_after":     cost,
			"overdrawn":      overdrawn,
		}).Error
}

func (r *adjustmentRepository) SnapshotAtOrBefore(ctx context.Context, productID uuid.UUID, t time.Time) (*model.StockAdjustment, error) {
	var adj model.StockAdjustment
	err := GetDB(ctx, r.db).Where("product_id = ? AND occurred_at <= ?", productID, t).
		Order("occurred_at desc, created_at desc").First(&adj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &adj, nil
}
