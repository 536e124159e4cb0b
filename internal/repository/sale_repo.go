package repository

import (
	"context"
	"time"

	"github.com/metrify/backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleFilter narrows sale listings. Zero values mean "no constraint".
type SaleFilter struct {
	Start  time.Time
	End    time.Time
	Source string
	Status string
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter SaleFilter, page, limit int) ([]model.Sale, int64, error)
	ListInPeriod(ctx context.Context, start, end time.Time) ([]model.Sale, error)
	ListUnresolved(ctx context.Context, page, limit int) ([]model.Sale, int64, error)
	// AssignProduct sets the product reference and match fields on an
	// unresolved sale. The WHERE clause enforces set-once semantics at the
	// database level; returns gorm.ErrRecordNotFound semantics via rows count.
	AssignProduct(ctx context.Context, saleID, productID uuid.UUID, confidence string) (int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) List(ctx context.Context, filter SaleFilter, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Sale{})
	if !filter.Start.IsZero() {
		db = db.Where("sold_at >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		db = db.Where("sold_at <= ?", filter.End)
	}
	if filter.Source != "" {
		db = db.Where("source = ?", filter.Source)
	}
	if filter.Status != "" {
		db = db.Where("match_status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("sold_at desc").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

func (r *saleRepository) ListInPeriod(ctx context.Context, start, end time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	if err := GetDB(ctx, r.db).
		Where("sold_at >= ? AND sold_at <= ?", start, end).
		Order("sold_at asc").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *saleRepository) ListUnresolved(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Sale{}).
		Where("product_id IS NULL AND match_status IN ?", []string{model.MatchStatusUnmatched, model.MatchStatusAmbiguous})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("sold_at asc").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

func (r *saleRepository) AssignProduct(ctx context.Context, saleID, productID uuid.UUID, confidence string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Sale{}).
		Where("id = ? AND product_id IS NULL", saleID).
		Updates(map[string]interface{}{
			"product_id":       productID,
			"match_status":     model.MatchStatusMatched,
			"match_confidence": confidence,
		})
	return res.RowsAffected, res.Error
}
