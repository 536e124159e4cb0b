package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/repository"
	ws "github.com/metrify/backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type ApplyAdjustmentRequest struct {
	Delta      int    `json:"delta" binding:"required"`
	UnitCost   string `json:"unit_cost"`   // decimal string, required when delta > 0
	Note       string `json:"note"`
	OccurredAt string `json:"occurred_at"` // RFC3339, defaults to now
}

type AdjustmentResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	Delta         int    `json:"delta"`
	UnitCost      string `json:"unit_cost,omitempty"`
	Note          string `json:"note"`
	OccurredAt    string `json:"occurred_at"`
	QuantityAfter int    `json:"quantity_after"`
	CostAfter     string `json:"cost_after"`
	Overdrawn     bool   `json:"overdrawn"`
}

type InventoryService interface {
	ApplyAdjustment(ctx context.Context, userID, productID string, req ApplyAdjustmentRequest) (AdjustmentResponse, error)
	GetAdjustments(ctx context.Context, productID string, page, limit int) ([]AdjustmentResponse, int64, error)
	// RebuildProduct replays the full adjustment log and rewrites the
	// product's derived quantity/cost. Replay is deterministic, so this is a
	// safe consistency tool, not a mutation of history.
	RebuildProduct(ctx context.Context, userID, productID string) (AdjustmentResponse, error)
}

type inventoryService struct {
	productRepo    repository.ProductRepository
	adjustmentRepo repository.AdjustmentRepository
	settingsRepo   repository.SettingsRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	hub            *ws.Hub
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	adjustmentRepo repository.AdjustmentRepository,
	settingsRepo repository.SettingsRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		productRepo:    productRepo,
		adjustmentRepo: adjustmentRepo,
		settingsRepo:   settingsRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		hub:            hub,
	}
}

func toAdjustmentResponse(adj *model.StockAdjustment) AdjustmentResponse {
	res := AdjustmentResponse{
		ID:            adj.ID.String(),
		ProductID:     adj.ProductID.String(),
		Delta:         adj.Delta,
		Note:          adj.Note,
		OccurredAt:    adj.OccurredAt.Format(time.RFC3339),
		QuantityAfter: adj.QuantityAfter,
		CostAfter:     adj.CostAfter.StringFixed(2),
		Overdrawn:     adj.Overdrawn,
	}
	if adj.UnitCost != nil {
		res.UnitCost = adj.UnitCost.StringFixed(2)
	}
	return res
}

func (s *inventoryService) ApplyAdjustment(ctx context.Context, userID, productID string, req ApplyAdjustmentRequest) (AdjustmentResponse, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return AdjustmentResponse{}, fmt.Errorf("%w: invalid product id %q", ErrInvalidAdjustment, productID)
	}

	var unitCost *decimal.Decimal
	if req.UnitCost != "" {
		parsed, err := decimal.NewFromString(req.UnitCost)
		if err != nil {
			return AdjustmentResponse{}, fmt.Errorf("%w: invalid unit cost %q", ErrInvalidAdjustment, req.UnitCost)
		}
		unitCost = &parsed
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return AdjustmentResponse{}, fmt.Errorf("%w: invalid occurred_at %q, expected RFC3339", ErrInvalidAdjustment, req.OccurredAt)
		}
	}

	var adjustment model.StockAdjustment
	var current ProductState

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Row lock so concurrent adjustments never read a stale quantity/cost pair.
		product, err := s.productRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", ErrProductNotFound, productID)
			}
			return fmt.Errorf("failed to lock product %s: %w", productID, err)
		}

		allowNegative := false
		if settings, err := s.settingsRepo.Get(txCtx); err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		} else if settings != nil {
			allowNegative = settings.AllowNegativeStock
		}

		log, err := s.adjustmentRepo.ListByProductAsc(txCtx, pid)
		if err != nil {
			return fmt.Errorf("failed to load adjustment log: %w", err)
		}

		// occurred_at may be backdated, so the event is validated against the
		// ledger state at its insertion point, not the current state.
		var prefix []model.StockAdjustment
		for _, adj := range log {
			if !adj.OccurredAt.After(occurredAt) {
				prefix = append(prefix, adj)
			}
		}
		next, err := ApplyLedgerEvent(ReplayLedger(prefix), req.Delta, unitCost, allowNegative)
		if err != nil {
			return fmt.Errorf("product %s: %w", productID, err)
		}

		adjustment = model.StockAdjustment{
			ProductID:     pid,
			Delta:         req.Delta,
			UnitCost:      unitCost,
			Note:          req.Note,
			OccurredAt:    occurredAt,
			QuantityAfter: next.Quantity,
			CostAfter:     next.CostBasis,
			Overdrawn:     next.Overdrawn,
		}
		if err := s.adjustmentRepo.Append(txCtx, &adjustment); err != nil {
			return fmt.Errorf("failed to record adjustment: %w", err)
		}

		// Rows after the insertion point were snapshotted against a state the
		// new event just changed; rewrite them inside the same transaction so
		// historical-cost lookups stay consistent.
		stale, final := ReplaySnapshots(append(log, adjustment))
		for _, row := range stale {
			if row.ID == adjustment.ID {
				continue
			}
			if err := s.adjustmentRepo.UpdateSnapshot(txCtx, row.ID, row.QuantityAfter, row.CostAfter, row.Overdrawn); err != nil {
				return fmt.Errorf("failed to rewrite snapshot %s: %w", row.ID, err)
			}
		}

		current = final
		if err := s.productRepo.UpdateDerivedState(txCtx, pid, final.Quantity, final.CostBasis); err != nil {
			return fmt.Errorf("failed to update product state: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"delta":          req.Delta,
			"unit_cost":      req.UnitCost,
			"note":           req.Note,
			"quantity_after": next.Quantity,
			"cost_after":     next.CostBasis.String(),
			"overdrawn":      next.Overdrawn,
			"resnapshotted":  len(stale),
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionApplyAdjustment,
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
		return AdjustmentResponse{}, err
	}

	s.hub.BroadcastEvent(ws.EventStockUpdated, map[string]interface{}{
		"product_id": productID,
		"quantity":   current.Quantity,
		"cost_basis": current.CostBasis.StringFixed(2),
		"overdrawn":  current.Overdrawn,
	})

	return toAdjustmentResponse(&adjustment), nil
}

func (s *inventoryService) GetAdjustments(ctx context.Context, productID string, page, limit int) ([]AdjustmentResponse, int64, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid product id %q", ErrInvalidAdjustment, productID)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	adjustments, total, err := s.adjustmentRepo.ListByProduct(ctx, pid, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AdjustmentResponse, 0, len(adjustments))
	for i := range adjustments {
		res = append(res, toAdjustmentResponse(&adjustments[i]))
	}

	return res, total, nil
}

func (s *inventoryService) RebuildProduct(ctx context.Context, userID, productID string) (AdjustmentResponse, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return AdjustmentResponse{}, fmt.Errorf("%w: invalid product id %q", ErrInvalidAdjustment, productID)
	}

	var rebuilt ProductState

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", ErrProductNotFound, productID)
			}
			return fmt.Errorf("failed to lock product %s: %w", productID, err)
		}

		log, err := s.adjustmentRepo.ListByProductAsc(txCtx, pid)
		if err != nil {
			return fmt.Errorf("failed to load adjustment log: %w", err)
		}

		// Rewrites both the product's derived fields and any per-row snapshot
		// that no longer matches the replayed state.
		stale, final := ReplaySnapshots(log)
		rebuilt = final
		for _, row := range stale {
			if err := s.adjustmentRepo.UpdateSnapshot(txCtx, row.ID, row.QuantityAfter, row.CostAfter, row.Overdrawn); err != nil {
				return fmt.Errorf("failed to rewrite snapshot %s: %w", row.ID, err)
			}
		}

		if err := s.productRepo.UpdateDerivedState(txCtx, pid, rebuilt.Quantity, rebuilt.CostBasis); err != nil {
			return fmt.Errorf("failed to update product state: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"events":        len(log),
			"resnapshotted": len(stale),
			"quantity":      rebuilt.Quantity,
			"cost_basis":    rebuilt.CostBasis.String(),
		})
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionRebuildLedger,
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
		return AdjustmentResponse{}, err
	}

	return AdjustmentResponse{
		ProductID:     productID,
		QuantityAfter: rebuilt.Quantity,
		CostAfter:     rebuilt.CostBasis.StringFixed(2),
		Overdrawn:     rebuilt.Overdrawn,
	}, nil
}
