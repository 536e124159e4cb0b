package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestApplyAdjustmentUpdatesDerivedState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p := env.createProduct(t, "MUG-001", "Caneca Azul", "49.90")

	res := env.stockIn(t, p.ID, 10, "2.00", base)
	if res.QuantityAfter != 10 || res.CostAfter != "2.00" {
		t.Fatalf("after first stock-in: qty=%d cost=%s", res.QuantityAfter, res.CostAfter)
	}

	res = env.stockIn(t, p.ID, 5, "5.00", base.Add(time.Hour))
	if res.QuantityAfter != 15 || res.CostAfter != "3.00" {
		t.Fatalf("after second stock-in: qty=%d cost=%s", res.QuantityAfter, res.CostAfter)
	}

	res, err := env.inventory.ApplyAdjustment(ctx, env.userID, p.ID, ApplyAdjustmentRequest{
		Delta:      -8,
		OccurredAt: base.Add(2 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("stock-out: %v", err)
	}
	if res.QuantityAfter != 7 || res.CostAfter != "3.00" {
		t.Fatalf("after stock-out: qty=%d cost=%s", res.QuantityAfter, res.CostAfter)
	}

	// The product row carries the same derived state.
	got, err := env.catalog.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Quantity != 7 || got.CostBasis != "3.00" {
		t.Fatalf("product row: qty=%d cost=%s", got.Quantity, got.CostBasis)
	}
}

func TestApplyAdjustmentInsufficientStockLeavesLedgerUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p := env.createProduct(t, "MUG-002", "Caneca Vermelha", "39.90")
	env.stockIn(t, p.ID, 3, "2.00", base)

	_, err := env.inventory.ApplyAdjustment(ctx, env.userID, p.ID, ApplyAdjustmentRequest{Delta: -5})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	got, err := env.catalog.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Quantity != 3 {
		t.Fatalf("rejected event changed quantity: %d", got.Quantity)
	}

	// The rejected event must not leave a ledger row behind.
	log, total, err := env.inventory.GetAdjustments(ctx, p.ID, 1, 50)
	if err != nil {
		t.Fatalf("get adjustments: %v", err)
	}
	if total != 1 || len(log) != 1 {
		t.Fatalf("ledger rows = %d (total %d), want 1", len(log), total)
	}
}

func TestApplyAdjustmentAllowNegativeStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.settings.UpdateSettings(ctx, env.userID, UpdateSettingsRequest{
		TaxRate:            "0",
		ExpenseRate:        "0",
		AllowNegativeStock: true,
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	p := env.createProduct(t, "MUG-003", "Caneca Preta", "29.90")
	env.stockIn(t, p.ID, 3, "2.00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	res, err := env.inventory.ApplyAdjustment(ctx, env.userID, p.ID, ApplyAdjustmentRequest{Delta: -5})
	if err != nil {
		t.Fatalf("overdraw: %v", err)
	}
	if res.QuantityAfter != -2 || !res.Overdrawn {
		t.Fatalf("got qty=%d overdrawn=%v, want -2 flagged", res.QuantityAfter, res.Overdrawn)
	}
}

func TestApplyAdjustmentValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "", "Camiseta", "89.90")

	// Stock-in without a unit cost.
	_, err := env.inventory.ApplyAdjustment(ctx, env.userID, p.ID, ApplyAdjustmentRequest{Delta: 5})
	if !errors.Is(err, ErrInvalidAdjustment) {
		t.Fatalf("missing unit cost: err = %v, want ErrInvalidAdjustment", err)
	}

	// Unknown product.
	_, err = env.inventory.ApplyAdjustment(ctx, env.userID, "2f9adf1c-0000-0000-0000-000000000000", ApplyAdjustmentRequest{Delta: 5, UnitCost: "1.00"})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product: err = %v, want ErrProductNotFound", err)
	}
}

func TestBackdatedAdjustmentRewritesDownstreamSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "MUG-001", "Caneca Azul", "50.00")
	env.stockIn(t, p.ID, 10, "2.00", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	env.stockIn(t, p.ID, 10, "4.00", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	// Backdated between the two events. The ledger state on March 5 is
	// 10 units at 2.00, so the new row snapshots (10*2 + 5*14)/15 = 6.00,
	// not a blend against the current 20-unit state.
	res := env.stockIn(t, p.ID, 5, "14.00", time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC))
	if res.QuantityAfter != 15 || res.CostAfter != "6.00" {
		t.Fatalf("backdated row snapshot: qty=%d cost=%s, want 15 at 6.00", res.QuantityAfter, res.CostAfter)
	}

	// The March 10 row was recorded against 10@2.00; after the backdated
	// event it must be rewritten to (15*6 + 10*4)/25 = 5.20.
	log, _, err := env.inventory.GetAdjustments(ctx, p.ID, 1, 50)
	if err != nil {
		t.Fatalf("get adjustments: %v", err)
	}
	rewritten := false
	for _, adj := range log {
		if adj.Delta == 10 && adj.UnitCost == "4.00" {
			if adj.QuantityAfter != 25 || adj.CostAfter != "5.20" {
				t.Fatalf("downstream row snapshot: qty=%d cost=%s, want 25 at 5.20", adj.QuantityAfter, adj.CostAfter)
			}
			rewritten = true
		}
	}
	if !rewritten {
		t.Fatal("march 10 row not found in log")
	}

	got, err := env.catalog.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Quantity != 25 || got.CostBasis != "5.20" {
		t.Fatalf("product row: qty=%d cost=%s, want 25 at 5.20", got.Quantity, got.CostBasis)
	}
}

func TestBackdatedStockOutValidatedAtInsertionPoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "MUG-001", "Caneca Azul", "50.00")
	env.stockIn(t, p.ID, 10, "2.00", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	// Current stock could absorb the removal, but nothing was on hand at the
	// backdated timestamp.
	_, err := env.inventory.ApplyAdjustment(ctx, env.userID, p.ID, ApplyAdjustmentRequest{
		Delta:      -5,
		OccurredAt: "2026-02-20T09:00:00Z",
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	_, total, err := env.inventory.GetAdjustments(ctx, p.ID, 1, 50)
	if err != nil {
		t.Fatalf("get adjustments: %v", err)
	}
	if total != 1 {
		t.Fatalf("ledger rows = %d, want 1", total)
	}
}

func TestRebuildProductRestoresDerivedState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	p := env.createProduct(t, "MUG-004", "Caneca Branca", "19.90")
	env.stockIn(t, p.ID, 10, "2.00", base)
	env.stockIn(t, p.ID, 5, "5.00", base.Add(time.Hour))
	if _, err := env.inventory.ApplyAdjustment(ctx, env.userID, p.ID, ApplyAdjustmentRequest{
		Delta:      -8,
		OccurredAt: base.Add(2 * time.Hour).Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("stock-out: %v", err)
	}

	// Corrupt the derived row, then rebuild from the log.
	pid := mustUUID(t, p.ID)
	if err := env.productRepo.UpdateDerivedState(ctx, pid, 999, dec("123.45")); err != nil {
		t.Fatalf("corrupt product row: %v", err)
	}

	res, err := env.inventory.RebuildProduct(ctx, env.userID, p.ID)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if res.QuantityAfter != 7 || res.CostAfter != "3.00" {
		t.Fatalf("rebuilt state: qty=%d cost=%s, want 7 at 3.00", res.QuantityAfter, res.CostAfter)
	}

	got, err := env.catalog.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Quantity != 7 || got.CostBasis != "3.00" {
		t.Fatalf("product row after rebuild: qty=%d cost=%s", got.Quantity, got.CostBasis)
	}
}

func TestRebuildProductRewritesRowSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "MUG-005", "Caneca Cinza", "24.90")
	env.stockIn(t, p.ID, 10, "2.00", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	second := env.stockIn(t, p.ID, 10, "4.00", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	// Corrupt the second row's stored snapshot directly.
	if err := env.adjustmentRepo.UpdateSnapshot(ctx, mustUUID(t, second.ID), 999, dec("9.99"), true); err != nil {
		t.Fatalf("corrupt snapshot: %v", err)
	}

	if _, err := env.inventory.RebuildProduct(ctx, env.userID, p.ID); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	log, _, err := env.inventory.GetAdjustments(ctx, p.ID, 1, 50)
	if err != nil {
		t.Fatalf("get adjustments: %v", err)
	}
	for _, adj := range log {
		if adj.ID == second.ID {
			if adj.QuantityAfter != 20 || adj.CostAfter != "3.00" || adj.Overdrawn {
				t.Fatalf("row snapshot after rebuild: qty=%d cost=%s overdrawn=%v, want 20 at 3.00",
					adj.QuantityAfter, adj.CostAfter, adj.Overdrawn)
			}
			return
		}
	}
	t.Fatal("second row not found in log")
}
