package service

import (
	"fmt"
	"sort"

	"github.com/metrify/backend/internal/model"

	"github.com/shopspring/decimal"
)

// ProductState is the derived (quantity, cost basis) pair a ledger event
// transitions. Overdrawn marks a state whose quantity went negative under
// the allow-negative override.
type ProductState struct {
	Quantity  int
	CostBasis decimal.Decimal
	Overdrawn bool
}

// ApplyLedgerEvent computes the state after one adjustment. Stock-in
// recomputes the weighted-average cost basis; stock-out only decreases
// quantity. The input state is never mutated, so a failed event leaves the
// ledger untouched.
func ApplyLedgerEvent(state ProductState, delta int, unitCost *decimal.Decimal, allowNegative bool) (ProductState, error) {
	if delta == 0 {
		return state, fmt.Errorf("%w: delta must be non-zero", ErrInvalidAdjustment)
	}

	if delta > 0 {
		if unitCost == nil {
			return state, fmt.Errorf("%w: stock-in requires a unit cost", ErrInvalidAdjustment)
		}
		if unitCost.IsNegative() {
			return state, fmt.Errorf("%w: stock-in unit cost %s is negative", ErrInvalidAdjustment, unitCost)
		}
		return ProductState{
			Quantity:  state.Quantity + delta,
			CostBasis: weightedAverageCost(state.CostBasis, state.Quantity, *unitCost, delta),
		}, nil
	}

	newQty := state.Quantity + delta
	if newQty < 0 && !allowNegative {
		return state, fmt.Errorf("%w: removing %d from quantity %d", ErrInsufficientStock, -delta, state.Quantity)
	}

	return ProductState{
		Quantity:  newQty,
		CostBasis: state.CostBasis,
		Overdrawn: newQty < 0,
	}, nil
}

// weightedAverageCost returns (oldQty*oldCost + inQty*inCost) / (oldQty+inQty).
// When nothing is on hand (or the ledger is overdrawn) the incoming cost
// becomes the basis outright.
func weightedAverageCost(oldCost decimal.Decimal, oldQty int, inCost decimal.Decimal, inQty int) decimal.Decimal {
	if oldQty <= 0 {
		return inCost
	}
	oldValue := oldCost.Mul(decimal.NewFromInt(int64(oldQty)))
	inValue := inCost.Mul(decimal.NewFromInt(int64(inQty)))
	return oldValue.Add(inValue).DivRound(decimal.NewFromInt(int64(oldQty+inQty)), 6)
}

// ReplayLedger rebuilds product state from scratch by applying the full
// adjustment log in timestamp order. Replay is deterministic: the same log
// always yields the same final state. Events that were recorded are applied
// verbatim, so a log written under the allow-negative override replays
// without error regardless of the current setting.
func ReplayLedger(adjustments []model.StockAdjustment) ProductState {
	var state ProductState
	state.CostBasis = decimal.Zero
	for _, adj := range orderLedger(adjustments) {
		next, err := ApplyLedgerEvent(state, adj.Delta, adj.UnitCost, true)
		if err != nil {
			// Recorded events passed validation when written; skip rather
			// than fail the whole rebuild on a historically bad row.
			continue
		}
		state = next
	}
	return state
}

// ReplaySnapshots replays the full log in timestamp order and recomputes each
// row's post-event snapshot. A backdated event shifts the state every later
// row was recorded against, so their stored QuantityAfter/CostAfter go stale
// until rewritten. Returns the rows whose stored snapshot diverged, carrying
// the corrected values, plus the final state.
func ReplaySnapshots(adjustments []model.StockAdjustment) ([]model.StockAdjustment, ProductState) {
	ordered := orderLedger(adjustments)

	var stale []model.StockAdjustment
	var state ProductState
	state.CostBasis = decimal.Zero
	for i := range ordered {
		next, err := ApplyLedgerEvent(state, ordered[i].Delta, ordered[i].UnitCost, true)
		if err != nil {
			continue
		}
		state = next
		if ordered[i].QuantityAfter != next.Quantity ||
			!ordered[i].CostAfter.Equal(next.CostBasis) ||
			ordered[i].Overdrawn != next.Overdrawn {
			ordered[i].QuantityAfter = next.Quantity
			ordered[i].CostAfter = next.CostBasis
			ordered[i].Overdrawn = next.Overdrawn
			stale = append(stale, ordered[i])
		}
	}
	return stale, state
}

// orderLedger sorts a copy of the log by occurred_at, breaking ties by
// insertion order.
func orderLedger(adjustments []model.StockAdjustment) []model.StockAdjustment {
	ordered := make([]model.StockAdjustment, len(adjustments))
	copy(ordered, adjustments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})
	return ordered
}
