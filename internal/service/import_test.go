package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes rows to the first sheet and returns the file as an
// upload-shaped reader.
func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func TestParseMarketplaceWorkbook(t *testing.T) {
	file := buildWorkbook(t, [][]interface{}{
		{"Order ID", "SKU", "Title", "Qty", "Unit Price", "Date"},
		{"ORD-1", "MUG-001", "Caneca Azul", 2, "49.90", "2026-03-05"},
		{"ORD-2", "", "Camiseta Preta M", 1, "89,90", ""},
		{"ORD-3", "", "", 1, "10.00", ""},       // no sku, no title
		{"ORD-4", "MUG-001", "Caneca", 0, "10.00", ""}, // zero quantity
		{"ORD-5", "MUG-001", "Caneca", 3, "abc", ""},   // bad price
	})

	records, skipped, err := ParseMarketplaceWorkbook(file)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if skipped != 3 {
		t.Fatalf("skipped = %d, want 3", skipped)
	}

	first := records[0]
	if first.ExternalRef != "ORD-1" || first.SKU != "MUG-001" || first.Quantity != 2 {
		t.Fatalf("first record: %+v", first)
	}
	if !first.UnitPrice.Equal(dec("49.90")) {
		t.Fatalf("first price = %s, want 49.90", first.UnitPrice)
	}
	if first.SoldAt.Format("2006-01-02") != "2026-03-05" {
		t.Fatalf("first date = %s", first.SoldAt)
	}

	// Comma decimal separator is accepted.
	if !records[1].UnitPrice.Equal(dec("89.90")) {
		t.Fatalf("second price = %s, want 89.90", records[1].UnitPrice)
	}
}

func TestParseMarketplaceWorkbookHeaderAliases(t *testing.T) {
	file := buildWorkbook(t, [][]interface{}{
		{"reference", "product", "units", "price"},
		{"R-1", "Caneca Azul", 4, "12.50"},
	})

	records, skipped, err := ParseMarketplaceWorkbook(file)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 || skipped != 0 {
		t.Fatalf("records = %d skipped = %d", len(records), skipped)
	}
	if records[0].Title != "Caneca Azul" || records[0].Quantity != 4 {
		t.Fatalf("record: %+v", records[0])
	}
}

func TestParseMarketplaceWorkbookMissingColumns(t *testing.T) {
	cases := []struct {
		name   string
		header []interface{}
		want   string
	}{
		{"no quantity", []interface{}{"sku", "title", "price"}, "quantity"},
		{"no price", []interface{}{"sku", "title", "qty"}, "price"},
		{"no sku or title", []interface{}{"qty", "price"}, "sku or title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file := buildWorkbook(t, [][]interface{}{tc.header, {"x", "y", "z"}})
			_, _, err := ParseMarketplaceWorkbook(file)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestParseMarketplaceWorkbookEmptySheet(t *testing.T) {
	file := buildWorkbook(t, [][]interface{}{
		{"sku", "title", "qty", "price"},
	})

	_, _, err := ParseMarketplaceWorkbook(file)
	if err == nil {
		t.Fatal("header-only sheet should fail")
	}
}

func TestParseMarketplaceWorkbookNotXLSX(t *testing.T) {
	_, _, err := ParseMarketplaceWorkbook(strings.NewReader("not a spreadsheet"))
	if err == nil {
		t.Fatal("plain text should fail to open")
	}
}
