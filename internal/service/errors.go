package service

import "errors"

// Sentinel errors surfaced to handlers. Each is wrapped with enough context
// (product id, offending value) at the call site for an actionable message.
var (
	// ErrInsufficientStock is returned when a stock-out would drive quantity
	// negative and the allow-negative override is off. Ledger state is left
	// unchanged.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidAdjustment rejects malformed ledger events before any
	// mutation: zero delta, stock-in without a unit cost, or a negative
	// stock-in unit cost.
	ErrInvalidAdjustment = errors.New("invalid adjustment")

	ErrProductNotFound = errors.New("product not found")
	ErrSaleNotFound    = errors.New("sale not found")

	// ErrDuplicateSKU rejects a catalog write whose SKU is already carried by
	// another live product.
	ErrDuplicateSKU = errors.New("sku already in use")

	// ErrSaleAlreadyResolved enforces set-once semantics on a sale's product
	// reference.
	ErrSaleAlreadyResolved = errors.New("sale already resolved")
)
