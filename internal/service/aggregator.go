package service

import (
	"sort"
	"time"

	"github.com/metrify/backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricedSale pairs a sale with the cost basis the product carried at the
// sale's timestamp. Historical cost, not current cost: later adjustments
// must never retroactively alter a past report.
type PricedSale struct {
	Sale      model.Sale
	CostBasis decimal.Decimal
}

// ReportRow is one aggregated line of the profit report.
type ReportRow struct {
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	Tax       decimal.Decimal `json:"tax"`
	Expense   decimal.Decimal `json:"expense"`
	Profit    decimal.Decimal `json:"profit"`
}

// Report is the aggregator output: per-product rows, a grand total, and the
// count of sales excluded for lacking a resolved product.
type Report struct {
	PeriodStart            time.Time   `json:"period_start"`
	PeriodEnd              time.Time   `json:"period_end"`
	Rows                   []ReportRow `json:"rows"`
	Totals                 ReportRow   `json:"totals"`
	ExcludedUnmatchedCount int         `json:"excluded_unmatched_count"`
}

// AggregateProfit combines priced sales, product titles and the configured
// tax/expense fractions into a per-product profit report for the period.
// Sales without a resolved product are excluded from the rows but counted,
// so totals stay auditable. Pure over its inputs.
func AggregateProfit(sales []PricedSale, products map[uuid.UUID]model.Product, taxRate, expenseRate decimal.Decimal, start, end time.Time) Report {
	report := Report{
		PeriodStart: start,
		PeriodEnd:   end,
		Rows:        []ReportRow{},
	}
	report.Totals.Title = "TOTAL"
	zeroRow(&report.Totals)

	perProduct := make(map[uuid.UUID]*ReportRow)

	for _, ps := range sales {
		sale := ps.Sale
		if sale.SoldAt.Before(start) || sale.SoldAt.After(end) {
			continue
		}
		if sale.ProductID == nil {
			report.ExcludedUnmatchedCount++
			continue
		}

		qty := decimal.NewFromInt(int64(sale.Quantity))
		revenue := qty.Mul(sale.UnitPrice)
		cost := qty.Mul(ps.CostBasis)
		tax := revenue.Mul(taxRate)
		expense := revenue.Mul(expenseRate)
		profit := revenue.Sub(cost).Sub(tax).Sub(expense)

		row, ok := perProduct[*sale.ProductID]
		if !ok {
			row = &ReportRow{ProductID: *sale.ProductID}
			zeroRow(row)
			if p, found := products[*sale.ProductID]; found {
				row.Title = p.Title
			}
			perProduct[*sale.ProductID] = row
		}

		row.Quantity += sale.Quantity
		row.Revenue = row.Revenue.Add(revenue)
		row.Cost = row.Cost.Add(cost)
		row.Tax = row.Tax.Add(tax)
		row.Expense = row.Expense.Add(expense)
		row.Profit = row.Profit.Add(profit)

		report.Totals.Quantity += sale.Quantity
		report.Totals.Revenue = report.Totals.Revenue.Add(revenue)
		report.Totals.Cost = report.Totals.Cost.Add(cost)
		report.Totals.Tax = report.Totals.Tax.Add(tax)
		report.Totals.Expense = report.Totals.Expense.Add(expense)
		report.Totals.Profit = report.Totals.Profit.Add(profit)
	}

	for _, row := range perProduct {
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Title == report.Rows[j].Title {
			return report.Rows[i].ProductID.String() < report.Rows[j].ProductID.String()
		}
		return report.Rows[i].Title < report.Rows[j].Title
	})

	return report
}

func zeroRow(row *ReportRow) {
	row.Revenue = decimal.Zero
	row.Cost = decimal.Zero
	row.Tax = decimal.Zero
	row.Expense = decimal.Zero
	row.Profit = decimal.Zero
}
