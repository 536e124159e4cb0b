package service

import (
	"context"
	"errors"
	"testing"
)

func TestCreateAndGetProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.createProduct(t, "MUG-001", "Caneca Azul", "49.90")
	if created.SKU != "MUG-001" || created.Title != "Caneca Azul" || created.Price != "49.90" {
		t.Fatalf("created: %+v", created)
	}
	if created.Quantity != 0 || created.CostBasis != "0.00" {
		t.Fatalf("new product should start empty: %+v", created)
	}

	got, err := env.catalog.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID || got.Title != created.Title {
		t.Fatalf("got %+v, want %+v", got, created)
	}
}

func TestCreateProductWithoutSKU(t *testing.T) {
	env := newTestEnv(t)

	// SKU is optional; several SKU-less products may coexist.
	a := env.createProduct(t, "", "Camiseta Preta M", "89.90")
	b := env.createProduct(t, "", "Camiseta Preta G", "89.90")
	if a.SKU != "" || b.SKU != "" {
		t.Fatalf("skus: %q, %q", a.SKU, b.SKU)
	}
}

func TestCreateProductRejectsBadPrice(t *testing.T) {
	env := newTestEnv(t)

	for _, price := range []string{"abc", "-1.00"} {
		_, err := env.catalog.CreateProduct(context.Background(), env.userID, CreateProductRequest{
			Title: "Caneca", Price: price,
		})
		if err == nil {
			t.Fatalf("price %q accepted", price)
		}
	}
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "MUG-001", "Caneca Azul", "49.90")
	env.stockIn(t, p.ID, 10, "2.00", mustParseTime(t, "2026-03-01T09:00:00Z"))

	updated, err := env.catalog.UpdateProduct(ctx, env.userID, p.ID, UpdateProductRequest{
		SKU:   "MUG-001-B",
		Title: "Caneca Azul Grande",
		Price: "54.90",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SKU != "MUG-001-B" || updated.Title != "Caneca Azul Grande" || updated.Price != "54.90" {
		t.Fatalf("updated: %+v", updated)
	}
	// Derived ledger state is untouched by catalog edits.
	if updated.Quantity != 10 || updated.CostBasis != "2.00" {
		t.Fatalf("ledger state changed: qty=%d cost=%s", updated.Quantity, updated.CostBasis)
	}
}

func TestDeleteProductKeepsSalesHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "MUG-001", "Caneca Azul", "49.90")
	env.stockIn(t, p.ID, 5, "2.00", mustParseTime(t, "2026-03-01T09:00:00Z"))
	sale, err := env.sales.CreateManualSale(ctx, env.userID, CreateSaleRequest{
		ProductID: p.ID, Quantity: 1, UnitPrice: "49.90", SoldAt: "2026-03-05T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}

	if err := env.catalog.DeleteProduct(ctx, env.userID, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := env.catalog.GetProduct(ctx, p.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("deleted product still readable: %v", err)
	}

	// The sale keeps its reference and the report still names the product.
	got, err := env.saleRepo.FindByID(ctx, mustUUID(t, sale.ID))
	if err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	if got.ProductID == nil || got.ProductID.String() != p.ID {
		t.Fatal("sale lost its product reference on delete")
	}

	report, err := env.reports.GetProfitReport(ctx,
		mustParseTime(t, "2026-03-01T00:00:00Z"), mustParseTime(t, "2026-03-31T23:59:59Z"))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Rows) != 1 || report.Rows[0].Title != "Caneca Azul" {
		t.Fatalf("report after delete: %+v", report.Rows)
	}
}

func TestGetProductsSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createProduct(t, "MUG-001", "Caneca Azul", "49.90")
	env.createProduct(t, "MUG-002", "Caneca Vermelha", "39.90")
	env.createProduct(t, "TS-001", "Camiseta Preta", "89.90")

	list, total, err := env.catalog.GetProducts(ctx, 1, 50, "caneca")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("search hits = %d (total %d), want 2", len(list), total)
	}
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	env := newTestEnv(t)

	env.createProduct(t, "MUG-001", "Caneca Azul", "49.90")
	_, err := env.catalog.CreateProduct(context.Background(), env.userID, CreateProductRequest{
		SKU: "MUG-001", Title: "Caneca Verde", Price: "39.90",
	})
	if !errors.Is(err, ErrDuplicateSKU) {
		t.Fatalf("err = %v, want ErrDuplicateSKU", err)
	}
}

func TestUpdateProductRejectsTakenSKU(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createProduct(t, "MUG-001", "Caneca Azul", "49.90")
	other := env.createProduct(t, "MUG-002", "Caneca Vermelha", "39.90")

	_, err := env.catalog.UpdateProduct(ctx, env.userID, other.ID, UpdateProductRequest{
		SKU: "MUG-001", Title: other.Title, Price: other.Price,
	})
	if !errors.Is(err, ErrDuplicateSKU) {
		t.Fatalf("err = %v, want ErrDuplicateSKU", err)
	}

	// Keeping its own SKU is not a conflict.
	if _, err := env.catalog.UpdateProduct(ctx, env.userID, other.ID, UpdateProductRequest{
		SKU: "MUG-002", Title: "Caneca Vermelha P", Price: other.Price,
	}); err != nil {
		t.Fatalf("self update: %v", err)
	}
}
