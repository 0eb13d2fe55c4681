package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AssetHardware = "Hardware"
	AssetSoftware = "Software"
)

// InventoryItem is one tracked stock-keeping unit. ItemNumber is the business
// key: unique, case-sensitive and never changed after creation.
type InventoryItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemNumber       string          `gorm:"uniqueIndex;not null"`
	AssetType        string          `gorm:"not null;default:'Hardware'"`
	Description      string          `gorm:"not null"`
	Category         *string         `gorm:"index"`
	Cost             decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MinimumThreshold int             `gorm:"not null;default:0"`
	ReorderAmount    int             `gorm:"not null;default:0"`
	CurrentQuantity  int             `gorm:"not null;default:0"`
	LastModifiedBy   string          `gorm:"not null"`
	LastModifiedAt   time.Time       `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (InventoryItem) TableName() string { return "inventory_items" }

// NeedsReorder reports whether stock is strictly below the minimum threshold.
func (i *InventoryItem) NeedsReorder() bool {
	return i.CurrentQuantity < i.MinimumThreshold
}
