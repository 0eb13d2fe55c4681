package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateItemRequest struct {
	ItemNumber       string          `json:"itemNumber"       validate:"required,max=64"`
	AssetType        string          `json:"assetType"        validate:"omitempty,oneof=Hardware Software"`
	Description      string          `json:"description"      validate:"required,max=500"`
	Category         *string         `json:"category"         validate:"omitempty,max=120"`
	Cost             decimal.Decimal `json:"cost"             validate:"min=0,max=999999.99"`
	MinimumThreshold int             `json:"minimumThreshold" validate:"min=0,max=999999"`
	ReorderAmount    int             `json:"reorderAmount"    validate:"min=0,max=999999"`
	CurrentQuantity  int             `json:"currentQuantity"  validate:"min=0,max=999999"`
}

// UpdateItemRequest whitelists editable fields; nil means "leave unchanged".
type UpdateItemRequest struct {
	AssetType        *string          `json:"assetType"        validate:"omitempty,oneof=Hardware Software"`
	Description      *string          `json:"description"      validate:"omitempty,min=1,max=500"`
	Category         *string          `json:"category"         validate:"omitempty,max=120"`
	Cost             *decimal.Decimal `json:"cost"             validate:"omitempty,min=0,max=999999.99"`
	MinimumThreshold *int             `json:"minimumThreshold" validate:"omitempty,min=0,max=999999"`
	ReorderAmount    *int             `json:"reorderAmount"    validate:"omitempty,min=0,max=999999"`
	CurrentQuantity  *int             `json:"currentQuantity"  validate:"omitempty,min=0,max=999999"`
}

type AdjustQuantityRequest struct {
	ItemNumber     string  `json:"itemNumber"     validate:"required"`
	QuantityChange int     `json:"quantityChange" validate:"min=-999999,max=999999"`
	TicketURL      *string `json:"serviceNowTicketUrl" validate:"omitempty,max=2048"`
}

// ─── Filters ─────────────────────────────────────────────────────────────────

type InventoryFilter struct {
	Search       string `form:"search"`
	AssetType    string `form:"assetType"`
	Category     string `form:"category"`
	NeedsReorder string `form:"needsReorder"` // "true" | "false" | ""
	SortBy       string `form:"sortBy"`
	SortDesc     bool   `form:"sortDesc"`
}

type AuditFilter struct {
	Search string `form:"search"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID               string          `json:"id"`
	ItemNumber       string          `json:"itemNumber"`
	AssetType        string          `json:"assetType"`
	Description      string          `json:"description"`
	Category         *string         `json:"category"`
	Cost             decimal.Decimal `json:"cost"`
	MinimumThreshold int             `json:"minimumThreshold"`
	ReorderAmount    int             `json:"reorderAmount"`
	CurrentQuantity  int             `json:"currentQuantity"`
	NeedsReorder     bool            `json:"needsReorder"`
	LastModifiedBy   string          `json:"lastModifiedBy"`
	LastModifiedAt   time.Time       `json:"lastModifiedAt"`
}

type AuditEntryResponse struct {
	ID               string    `json:"id"`
	ItemID           *string   `json:"itemId"`
	ItemNumber       string    `json:"itemNumber"`
	ItemDescription  string    `json:"itemDescription"`
	PreviousQuantity int       `json:"previousQuantity"`
	NewQuantity      int       `json:"newQuantity"`
	ChangeType       string    `json:"changeType"`
	ChangedBy        string    `json:"changedBy"`
	ChangedAt        time.Time `json:"changedAt"`
	TicketURL        *string   `json:"serviceNowTicketUrl"`
}

type AuditListResponse struct {
	Data  []AuditEntryResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type DashboardStatsResponse struct {
	TotalItems    int64                `json:"totalItems"`
	LowStockCount int64                `json:"lowStockCount"`
	TotalValue    decimal.Decimal      `json:"totalValue"`
	RecentChanges []AuditEntryResponse `json:"recentChanges"`
}
