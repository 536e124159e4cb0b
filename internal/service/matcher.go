package service

import (
	"strings"
	"time"
	"unicode"

	"github.com/metrify/backend/internal/model"

	"github.com/shopspring/decimal"
)

// ExternalSale is one raw marketplace order row, the shape the import
// collaborator hands to the matcher.
type ExternalSale struct {
	ExternalRef string
	SKU         string
	Title       string
	Quantity    int
	UnitPrice   decimal.Decimal
	SoldAt      time.Time
}

// MatchResult is the categorical outcome of resolving an external sale
// against the catalog. Product is nil for ambiguous and unmatched results.
type MatchResult struct {
	Product    *model.Product
	Confidence string
}

// MatchSale resolves an external sale record against a snapshot of the
// product catalog. SKU match is exact and case-sensitive; on a miss, both
// titles are normalized and compared exactly. More than one title candidate
// yields an ambiguous result, zero yields unmatched. Pure: no side effects,
// persistence of the decision is the caller's responsibility.
func MatchSale(ext ExternalSale, catalog []model.Product) MatchResult {
	if ext.SKU != "" {
		for i := range catalog {
			if catalog[i].SKU != nil && *catalog[i].SKU == ext.SKU {
				return MatchResult{Product: &catalog[i], Confidence: model.ConfidenceExactSKU}
			}
		}
	}

	normalized := NormalizeTitle(ext.Title)
	if normalized == "" {
		return MatchResult{Confidence: model.ConfidenceUnmatched}
	}

	var candidates []*model.Product
	for i := range catalog {
		if NormalizeTitle(catalog[i].Title) == normalized {
			candidates = append(candidates, &catalog[i])
		}
	}

	switch len(candidates) {
	case 0:
		return MatchResult{Confidence: model.ConfidenceUnmatched}
	case 1:
		return MatchResult{Product: candidates[0], Confidence: model.ConfidenceExactTitle}
	default:
		return MatchResult{Confidence: model.ConfidenceAmbiguous}
	}
}

// NormalizeTitle lowercases, trims, strips punctuation and collapses internal
// whitespace so cosmetically different titles compare equal.
func NormalizeTitle(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// stripped
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimRight(b.String(), " ")
}
