package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/repository"
	ws "github.com/metrify/backend/internal/websocket"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportSummary reports what happened to every row of an uploaded
// spreadsheet. Unmatched and ambiguous rows are persisted too, never
// dropped; they stay visible for manual resolution.
type ImportSummary struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Ambiguous int `json:"ambiguous"`
	Skipped   int `json:"skipped"` // empty or malformed rows
}

type ImportService interface {
	ImportMarketplaceSales(ctx context.Context, userID string, file io.Reader) (ImportSummary, error)
}

type importService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewImportService(
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ImportService {
	return &importService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// Accepted header spellings per column, compared lowercase/trimmed.
var importHeaderAliases = map[string][]string{
	"ref":      {"order_id", "order id", "order", "external_ref", "reference"},
	"sku":      {"sku"},
	"title":    {"title", "item", "product", "description"},
	"quantity": {"quantity", "qty", "units"},
	"price":    {"unit_price", "unit price", "price"},
	"date":     {"sold_at", "date", "sale date", "order date"},
}

func (s *importService) ImportMarketplaceSales(ctx context.Context, userID string, file io.Reader) (ImportSummary, error) {
	records, skipped, err := ParseMarketplaceWorkbook(file)
	if err != nil {
		return ImportSummary{}, err
	}

	summary := ImportSummary{Total: len(records) + skipped, Skipped: skipped}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// One catalog snapshot for the whole batch: matching is pure over it.
		catalog, err := s.productRepo.ListAll(txCtx)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}

		for _, rec := range records {
			result := MatchSale(rec, catalog)

			sale := model.Sale{
				Quantity:        rec.Quantity,
				UnitPrice:       rec.UnitPrice,
				Source:          model.SaleSourceImported,
				SoldAt:          rec.SoldAt,
				ExternalRef:     rec.ExternalRef,
				ExternalSKU:     rec.SKU,
				ExternalTitle:   rec.Title,
				MatchConfidence: result.Confidence,
			}

			switch result.Confidence {
			case model.ConfidenceExactSKU, model.ConfidenceExactTitle:
				id := result.Product.ID
				sale.ProductID = &id
				sale.MatchStatus = model.MatchStatusMatched
				summary.Matched++
			case model.ConfidenceAmbiguous:
				sale.MatchStatus = model.MatchStatusAmbiguous
				summary.Ambiguous++
			default:
				sale.MatchStatus = model.MatchStatusUnmatched
				summary.Unmatched++
			}

			if err := s.saleRepo.Create(txCtx, &sale); err != nil {
				return fmt.Errorf("failed to persist imported sale %q: %w", rec.ExternalRef, err)
			}
		}

		details, _ := json.Marshal(summary)
		audit := &model.AuditLog{
			UserID:     parseUserID(userID),
			Action:     model.ActionImportSales,
			EntityID:   "marketplace",
			EntityName: fmt.Sprintf("%d rows", summary.Total),
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})

	if err != nil {
		return ImportSummary{}, err
	}

	s.hub.BroadcastEvent(ws.EventImportCompleted, map[string]interface{}{
		"total":     summary.Total,
		"matched":   summary.Matched,
		"unmatched": summary.Unmatched,
		"ambiguous": summary.Ambiguous,
	})

	return summary, nil
}

// ParseMarketplaceWorkbook reads the first sheet of an uploaded xlsx order
// export. The first row must be a header naming at least quantity and price
// columns; rows with no sku and no title, or with unparseable numbers, are
// skipped and counted rather than failing the upload.
func ParseMarketplaceWorkbook(file io.Reader) ([]ExternalSale, int, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, 0, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	cols, err := mapImportHeaders(rows[0])
	if err != nil {
		return nil, 0, err
	}

	var records []ExternalSale
	skipped := 0

	for _, row := range rows[1:] {
		rec, ok := parseImportRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

func mapImportHeaders(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for key, aliases := range importHeaderAliases {
			for _, alias := range aliases {
				if name == alias {
					if _, exists := cols[key]; !exists {
						cols[key] = i
					}
				}
			}
		}
	}

	for _, required := range []string{"quantity", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q in header row", required)
		}
	}
	if _, hasSKU := cols["sku"]; !hasSKU {
		if _, hasTitle := cols["title"]; !hasTitle {
			return nil, fmt.Errorf("header row needs a sku or title column")
		}
	}

	return cols, nil
}

func parseImportRow(row []string, cols map[string]int) (ExternalSale, bool) {
	cell := func(key string) string {
		idx, ok := cols[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := ExternalSale{
		ExternalRef: cell("ref"),
		SKU:         cell("sku"),
		Title:       cell("title"),
	}
	if rec.SKU == "" && rec.Title == "" {
		return ExternalSale{}, false
	}

	qty, err := strconv.Atoi(cell("quantity"))
	if err != nil || qty <= 0 {
		return ExternalSale{}, false
	}
	rec.Quantity = qty

	price, err := decimal.NewFromString(strings.ReplaceAll(cell("price"), ",", "."))
	if err != nil || price.IsNegative() {
		return ExternalSale{}, false
	}
	rec.UnitPrice = price

	rec.SoldAt = time.Now()
	if raw := cell("date"); raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "02/01/2006"} {
			if t, err := time.Parse(layout, raw); err == nil {
				rec.SoldAt = t
				break
			}
		}
	}

	return rec, true
}
