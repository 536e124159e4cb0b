package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateSaleRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unit_price" binding:"required"` // decimal string
	SoldAt    string `json:"sold_at"`                       // RFC3339, defaults to now
}

type ResolveSaleRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type SaleListFilter struct {
	Start  time.Time
	End    time.Time
	Source string
	Status string
}

type SaleResponse struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id,omitempty"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	Source          string `json:"source"`
	SoldAt          string `json:"sold_at"`
	ExternalRef     string `json:"external_ref,omitempty"`
	ExternalSKU     string `json:"external_sku,omitempty"`
	ExternalTitle   string `json:"external_title,omitempty"`
	MatchStatus     string `json:"match_status"`
	MatchConfidence string `json:"match_confidence"`
}

type SalesService interface {
	CreateManualSale(ctx context.Context, userID string, req CreateSaleRequest) (SaleResponse, error)
	GetSales(ctx context.Context, filter SaleListFilter, page, limit int) ([]SaleResponse, int64, error)
	GetUnresolved(ctx context.Context, page, limit int) ([]SaleResponse, int64, error)
	ResolveSale(ctx context.Context, userID, saleID string, req ResolveSaleRequest) (SaleResponse, error)
}

type salesService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewSalesService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SalesService {
	return &salesService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func toSaleResponse(sale *model.Sale) SaleResponse {
	res := SaleResponse{
		ID:              sale.ID.String(),
		Quantity:        sale.Quantity,
		UnitPrice:       sale.UnitPrice.StringFixed(2),
		Source:          sale.Source,
		SoldAt:          sale.SoldAt.Format(time.RFC3339),
		ExternalRef:     sale.ExternalRef,
		ExternalSKU:     sale.ExternalSKU,
		ExternalTitle:   sale.ExternalTitle,
		MatchStatus:     sale.MatchStatus,
		MatchConfidence: sale.MatchConfidence,
	}
	if sale.ProductID != nil {
		res.ProductID = sale.ProductID.String()
	}
	return res
}

func (s *salesService) CreateManualSale(ctx context.Context, userID string, req CreateSaleRequest) (SaleResponse, error) {
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid unit price %q: %w", req.UnitPrice, err)
	}
	if unitPrice.IsNegative() {
		return SaleResponse{}, fmt.Errorf("unit price must not be negative: %s", req.UnitPrice)
	}

	soldAt := time.Now()
	if req.SoldAt != "" {
		soldAt, err = time.Parse(time.RFC3339, req.SoldAt)
		if err != nil {
			return SaleResponse{}, fmt.Errorf("invalid sold_at %q, expected RFC3339: %w", req.SoldAt, err)
		}
	}

	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
		}
		return SaleResponse{}, fmt.Errorf("database error: %w", err)
	}

	sale := model.Sale{
		ProductID:       &pid,
		Quantity:        req.Quantity,
		UnitPrice:       unitPrice,
		Source:          model.SaleSourceManual,
		SoldAt:          soldAt,
		MatchStatus:     model.MatchStatusMatched,
		MatchConfidence: model.ConfidenceManual,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.saleRepo.Create(txCtx, &sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateSale,
			EntityID:   sale.ID.String(),
			EntityName: product.Title,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})

	if err != nil {
		return SaleResponse{}, err
	}

	return toSaleResponse(&sale), nil
}

func (s *salesService) GetSales(ctx context.Context, filter SaleListFilter, page, limit int) ([]SaleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	sales, total, err := s.saleRepo.List(ctx, repository.SaleFilter{
		Start:  filter.Start,
		End:    filter.End,
		Source: filter.Source,
		Status: filter.Status,
	}, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, toSaleResponse(&sales[i]))
	}

	return res, total, nil
}

func (s *salesService) GetUnresolved(ctx context.Context, page, limit int) ([]SaleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	sales, total, err := s.saleRepo.ListUnresolved(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, toSaleResponse(&sales[i]))
	}

	return res, total, nil
}

func (s *salesService) ResolveSale(ctx context.Context, userID, saleID string, req ResolveSaleRequest) (SaleResponse, error) {
	sid, err := uuid.Parse(saleID)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid sale id: %w", err)
	}
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	sale, err := s.saleRepo.FindByID(ctx, sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, fmt.Errorf("%w: %s", ErrSaleNotFound, saleID)
		}
		return SaleResponse{}, fmt.Errorf("database error: %w", err)
	}
	if sale.ProductID != nil {
		return SaleResponse{}, fmt.Errorf("%w: sale %s is assigned to product %s", ErrSaleAlreadyResolved, saleID, sale.ProductID)
	}

	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, fmt.Errorf("%w: %s", ErrProductNotFound, req.ProductID)
		}
		return SaleResponse{}, fmt.Errorf("database error: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		affected, err := s.saleRepo.AssignProduct(txCtx, sid, pid, model.ConfidenceManual)
		if err != nil {
			return fmt.Errorf("failed to assign product: %w", err)
		}
		if affected == 0 {
			// Lost the race with another resolution; the reference is set once.
			return fmt.Errorf("%w: sale %s", ErrSaleAlreadyResolved, saleID)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"product_id":     req.ProductID,
			"external_ref":   sale.ExternalRef,
			"external_title": sale.ExternalTitle,
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionResolveSale,
			EntityID:   sale.ID.String(),
			EntityName: product.Title,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})

	if err != nil {
		return SaleResponse{}, err
	}

	sale.ProductID = &pid
	sale.MatchStatus = model.MatchStatusMatched
	sale.MatchConfidence = model.ConfidenceManual
	return toSaleResponse(sale), nil
}
