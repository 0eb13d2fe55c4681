package sanitize

import "github.com/shopspring/decimal"

// Bounds shared by every write path (CSV, JSON, DB CHECK constraints).
const (
	MaxQuantity = 999999

	// Column widths of the inventory_items and audit_entries tables.
	MaxItemNumberLen  = 64
	MaxDescriptionLen = 500
	MaxCategoryLen    = 120
	MaxActorLen       = 256
	MaxTicketURLLen   = 2048

	// Decimal exponents outside this window are rejected before any
	// arithmetic. Costs never need more than nine integer digits.
	MaxExponent = 9
	MinExponent = -18
)

var (
	MinCost = decimal.Zero
	MaxCost = decimal.RequireFromString("999999.99")
)
