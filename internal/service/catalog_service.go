package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	SKU   string `json:"sku"`
	Title string `json:"title" binding:"required"`
	Price string `json:"price" binding:"required"` // decimal string, e.g. "49.90"
}

type UpdateProductRequest struct {
	SKU   string `json:"sku"`
	Title string `json:"title" binding:"required"`
	Price string `json:"price" binding:"required"`
}

type ProductResponse struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	CostBasis string `json:"cost_basis"`
	Quantity  int    `json:"quantity"`
}

type CatalogService interface {
	GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, userID string, id string) error
}

type catalogService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func toProductResponse(p *model.Product) ProductResponse {
	sku := ""
	if p.SKU != nil {
		sku = *p.SKU
	}
	return ProductResponse{
		ID:        p.ID.String(),
		SKU:       sku,
		Title:     p.Title,
		Price:     p.Price.StringFixed(2),
		CostBasis: p.CostBasis.StringFixed(2),
		Quantity:  p.Quantity,
	}
}

func (s *catalogService) GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}

	return res, total, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, ErrProductNotFound
		}
		return ProductResponse{}, fmt.Errorf("database error: %w", err)
	}

	return toProductResponse(product), nil
}

func (s *catalogService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (ProductResponse, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid price %q: %w", req.Price, err)
	}
	if price.IsNegative() {
		return ProductResponse{}, fmt.Errorf("price must not be negative: %s", req.Price)
	}

	product := model.Product{
		Title:     req.Title,
		Price:     price,
		CostBasis: decimal.Zero,
	}
	if req.SKU != "" {
		if err := s.ensureSKUAvailable(ctx, req.SKU, uuid.Nil); err != nil {
			return ProductResponse{}, err
		}
		sku := req.SKU
		product.SKU = &sku
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Title,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})

	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(&product), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, userID string, id string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid price %q: %w", req.Price, err)
	}
	if price.IsNegative() {
		return ProductResponse{}, fmt.Errorf("price must not be negative: %s", req.Price)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, ErrProductNotFound
		}
		return ProductResponse{}, fmt.Errorf("database error: %w", err)
	}

	product.Title = req.Title
	product.Price = price
	if req.SKU != "" {
		if err := s.ensureSKUAvailable(ctx, req.SKU, product.ID); err != nil {
			return ProductResponse{}, err
		}
		sku := req.SKU
		product.SKU = &sku
	} else {
		product.SKU = nil
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Title,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})

	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(product), nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, userID string, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionDeleteProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Title,
			Details:    `{"deleted": true}`,
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

// ensureSKUAvailable pre-checks SKU uniqueness for a friendly error instead
// of surfacing the unique-index violation. selfID exempts the product being
// updated from its own SKU.
func (s *catalogService) ensureSKUAvailable(ctx context.Context, sku string, selfID uuid.UUID) error {
	existing, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: %q belongs to product %s", ErrDuplicateSKU, sku, existing.ID)
}

// parseUserID converts the JWT subject into a nullable uuid for audit rows.
func parseUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}
