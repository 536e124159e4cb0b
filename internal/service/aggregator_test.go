package service

import (
	"testing"
	"time"

	"github.com/metrify/backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func periodMarch() (time.Time, time.Time) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	return start, end
}

func TestAggregateProfitSingleProduct(t *testing.T) {
	start, end := periodMarch()
	productID := uuid.New()
	products := map[uuid.UUID]model.Product{
		productID: {ID: productID, Title: "Caneca Azul"},
	}

	sales := []PricedSale{
		{
			Sale: model.Sale{
				ProductID: &productID,
				Quantity:  2,
				UnitPrice: dec("50.00"),
				SoldAt:    start.Add(24 * time.Hour),
			},
			CostBasis: dec("20.00"),
		},
	}

	report := AggregateProfit(sales, products, dec("0.05"), dec("0.03"), start, end)

	if len(report.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(report.Rows))
	}
	row := report.Rows[0]
	// revenue 100, cost 40, tax 5, expense 3, profit 52
	if !row.Revenue.Equal(dec("100.00")) {
		t.Errorf("revenue = %s, want 100.00", row.Revenue)
	}
	if !row.Cost.Equal(dec("40.00")) {
		t.Errorf("cost = %s, want 40.00", row.Cost)
	}
	if !row.Tax.Equal(dec("5.00")) {
		t.Errorf("tax = %s, want 5.00", row.Tax)
	}
	if !row.Expense.Equal(dec("3.00")) {
		t.Errorf("expense = %s, want 3.00", row.Expense)
	}
	if !row.Profit.Equal(dec("52.00")) {
		t.Errorf("profit = %s, want 52.00", row.Profit)
	}
	if row.Title != "Caneca Azul" {
		t.Errorf("title = %q", row.Title)
	}
}

func TestAggregateProfitTotalsMatchRowSums(t *testing.T) {
	start, end := periodMarch()
	idA, idB := uuid.New(), uuid.New()
	products := map[uuid.UUID]model.Product{
		idA: {ID: idA, Title: "Azul"},
		idB: {ID: idB, Title: "Vermelha"},
	}

	sales := []PricedSale{
		{Sale: model.Sale{ProductID: &idA, Quantity: 2, UnitPrice: dec("50.00"), SoldAt: start.Add(time.Hour)}, CostBasis: dec("20.00")},
		{Sale: model.Sale{ProductID: &idA, Quantity: 1, UnitPrice: dec("55.00"), SoldAt: start.Add(2 * time.Hour)}, CostBasis: dec("20.00")},
		{Sale: model.Sale{ProductID: &idB, Quantity: 3, UnitPrice: dec("10.00"), SoldAt: start.Add(3 * time.Hour)}, CostBasis: dec("4.00")},
	}

	report := AggregateProfit(sales, products, dec("0.1"), dec("0.02"), start, end)

	if len(report.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(report.Rows))
	}
	// Rows sort by title: Azul before Vermelha.
	if report.Rows[0].Title != "Azul" || report.Rows[1].Title != "Vermelha" {
		t.Fatalf("row order: %q, %q", report.Rows[0].Title, report.Rows[1].Title)
	}

	var revenue, profit decimal.Decimal
	qty := 0
	for _, row := range report.Rows {
		revenue = revenue.Add(row.Revenue)
		profit = profit.Add(row.Profit)
		qty += row.Quantity
	}
	if !report.Totals.Revenue.Equal(revenue) {
		t.Errorf("totals revenue %s != row sum %s", report.Totals.Revenue, revenue)
	}
	if !report.Totals.Profit.Equal(profit) {
		t.Errorf("totals profit %s != row sum %s", report.Totals.Profit, profit)
	}
	if report.Totals.Quantity != qty {
		t.Errorf("totals quantity %d != row sum %d", report.Totals.Quantity, qty)
	}
	if report.Totals.Title != "TOTAL" {
		t.Errorf("totals title = %q", report.Totals.Title)
	}
}

func TestAggregateProfitExcludesUnresolvedSales(t *testing.T) {
	start, end := periodMarch()
	productID := uuid.New()
	products := map[uuid.UUID]model.Product{
		productID: {ID: productID, Title: "Azul"},
	}

	sales := []PricedSale{
		{Sale: model.Sale{ProductID: &productID, Quantity: 1, UnitPrice: dec("10.00"), SoldAt: start.Add(time.Hour)}, CostBasis: dec("4.00")},
		{Sale: model.Sale{ProductID: nil, Quantity: 5, UnitPrice: dec("99.00"), SoldAt: start.Add(time.Hour)}},
		{Sale: model.Sale{ProductID: nil, Quantity: 1, UnitPrice: dec("12.00"), SoldAt: start.Add(2 * time.Hour)}},
	}

	report := AggregateProfit(sales, products, decimal.Zero, decimal.Zero, start, end)

	if report.ExcludedUnmatchedCount != 2 {
		t.Fatalf("excluded count = %d, want 2", report.ExcludedUnmatchedCount)
	}
	if !report.Totals.Revenue.Equal(dec("10.00")) {
		t.Fatalf("unresolved sales leaked into totals: %s", report.Totals.Revenue)
	}
}

func TestAggregateProfitFiltersByPeriod(t *testing.T) {
	start, end := periodMarch()
	productID := uuid.New()
	products := map[uuid.UUID]model.Product{
		productID: {ID: productID, Title: "Azul"},
	}

	sales := []PricedSale{
		{Sale: model.Sale{ProductID: &productID, Quantity: 1, UnitPrice: dec("10.00"), SoldAt: start.Add(-time.Hour)}, CostBasis: dec("4.00")},
		{Sale: model.Sale{ProductID: &productID, Quantity: 1, UnitPrice: dec("20.00"), SoldAt: start.Add(time.Hour)}, CostBasis: dec("4.00")},
		{Sale: model.Sale{ProductID: &productID, Quantity: 1, UnitPrice: dec("30.00"), SoldAt: end.Add(time.Hour)}, CostBasis: dec("4.00")},
	}

	report := AggregateProfit(sales, products, decimal.Zero, decimal.Zero, start, end)

	if len(report.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(report.Rows))
	}
	if !report.Totals.Revenue.Equal(dec("20.00")) {
		t.Fatalf("revenue = %s, want only the in-period sale", report.Totals.Revenue)
	}
}

func TestAggregateProfitEmptyPeriod(t *testing.T) {
	start, end := periodMarch()

	report := AggregateProfit(nil, nil, dec("0.05"), dec("0.03"), start, end)

	if len(report.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(report.Rows))
	}
	if !report.Totals.Revenue.Equal(decimal.Zero) || !report.Totals.Profit.Equal(decimal.Zero) {
		t.Fatalf("empty report has non-zero totals: %+v", report.Totals)
	}
	if report.ExcludedUnmatchedCount != 0 {
		t.Fatalf("excluded count = %d, want 0", report.ExcludedUnmatchedCount)
	}
}
