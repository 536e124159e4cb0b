package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/metrify/backend/internal/database"
	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/repository"
	ws "github.com/metrify/backend/internal/websocket"

	"github.com/google/uuid"
)

// testEnv wires the full service stack against a throwaway SQLite database.
type testEnv struct {
	catalog   CatalogService
	inventory InventoryService
	sales     SalesService
	imports   ImportService
	reports   ReportService
	settings  SettingsService

	productRepo    repository.ProductRepository
	saleRepo       repository.SaleRepository
	adjustmentRepo repository.AdjustmentRepository

	userID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewConnection("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	user := model.User{Username: "tester", Email: "tester@example.com", Password: "x", Role: model.RoleAdmin}
	if err := userRepo.Create(context.Background(), &user); err != nil {
		t.Fatalf("create test user: %v", err)
	}

	return &testEnv{
		catalog:        NewCatalogService(productRepo, auditRepo, txManager),
		inventory:      NewInventoryService(productRepo, adjustmentRepo, settingsRepo, auditRepo, txManager, hub),
		sales:          NewSalesService(saleRepo, productRepo, auditRepo, txManager),
		imports:        NewImportService(saleRepo, productRepo, auditRepo, txManager, hub),
		reports:        NewReportService(saleRepo, productRepo, adjustmentRepo, settingsRepo),
		settings:       NewSettingsService(settingsRepo, auditRepo, txManager),
		productRepo:    productRepo,
		saleRepo:       saleRepo,
		adjustmentRepo: adjustmentRepo,
		userID:         user.ID.String(),
	}
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}

func (e *testEnv) createProduct(t *testing.T, sku, title, price string) ProductResponse {
	t.Helper()
	p, err := e.catalog.CreateProduct(context.Background(), e.userID, CreateProductRequest{
		SKU:   sku,
		Title: title,
		Price: price,
	})
	if err != nil {
		t.Fatalf("create product %q: %v", title, err)
	}
	return p
}

func (e *testEnv) stockIn(t *testing.T, productID string, delta int, unitCost string, occurredAt time.Time) AdjustmentResponse {
	t.Helper()
	res, err := e.inventory.ApplyAdjustment(context.Background(), e.userID, productID, ApplyAdjustmentRequest{
		Delta:      delta,
		UnitCost:   unitCost,
		OccurredAt: occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("stock-in %d@%s: %v", delta, unitCost, err)
	}
	return res
}
