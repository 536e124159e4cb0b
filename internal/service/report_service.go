package service

import (
	"context"
	"fmt"
	"time"

	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReportService interface {
	GetProfitReport(ctx context.Context, start, end time.Time) (Report, error)
}

type reportService struct {
	saleRepo       repository.SaleRepository
	productRepo    repository.ProductRepository
	adjustmentRepo repository.AdjustmentRepository
	settingsRepo   repository.SettingsRepository
}

func NewReportService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	adjustmentRepo repository.AdjustmentRepository,
	settingsRepo repository.SettingsRepository,
) ReportService {
	return &reportService{
		saleRepo:       saleRepo,
		productRepo:    productRepo,
		adjustmentRepo: adjustmentRepo,
		settingsRepo:   settingsRepo,
	}
}

// GetProfitReport builds the per-product profit report for the period.
// Settings are read once per invocation and passed in explicitly; a missing
// settings row falls back to zero rates instead of failing.
func (s *reportService) GetProfitReport(ctx context.Context, start, end time.Time) (Report, error) {
	taxRate, expenseRate := decimal.Zero, decimal.Zero
	if settings, err := s.settingsRepo.Get(ctx); err != nil {
		return Report{}, fmt.Errorf("failed to read settings: %w", err)
	} else if settings != nil {
		taxRate = settings.TaxRate
		expenseRate = settings.ExpenseRate
	}

	sales, err := s.saleRepo.ListInPeriod(ctx, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load sales: %w", err)
	}

	priced := make([]PricedSale, 0, len(sales))
	productIDs := make([]uuid.UUID, 0, len(sales))
	seen := make(map[uuid.UUID]bool)

	for _, sale := range sales {
		ps := PricedSale{Sale: sale, CostBasis: decimal.Zero}
		if sale.ProductID != nil {
			// Cost basis as of the sale timestamp, from the ledger snapshot.
			// No stock-in before the sale means a zero basis, not an error.
			snapshot, err := s.adjustmentRepo.SnapshotAtOrBefore(ctx, *sale.ProductID, sale.SoldAt)
			if err != nil {
				return Report{}, fmt.Errorf("failed to load ledger snapshot for product %s: %w", sale.ProductID, err)
			}
			if snapshot != nil {
				ps.CostBasis = snapshot.CostAfter
			}
			if !seen[*sale.ProductID] {
				seen[*sale.ProductID] = true
				productIDs = append(productIDs, *sale.ProductID)
			}
		}
		priced = append(priced, ps)
	}

	productList, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load products: %w", err)
	}
	products := make(map[uuid.UUID]model.Product, len(productList))
	for _, p := range productList {
		products[p.ID] = p
	}

	return AggregateProfit(priced, products, taxRate, expenseRate, start, end), nil
}
