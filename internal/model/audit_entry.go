package model

import (
	"time"

	"github.com/google/uuid"
)

// Change types recorded on AuditEntry.ChangeType.
const (
	ChangeCSVImport  = "csv_import"
	ChangeCreate     = "create"
	ChangeEdit       = "edit"
	ChangeAdjustment = "adjustment"
	ChangeDeleted    = "DELETED"
)

// AuditEntry records one quantity transition of an InventoryItem.
// Rows are append-only: nothing in the repository layer updates or deletes them.
// ItemID is nulled by the FK when the item is deleted; ItemNumber and
// ItemDescription keep the entry readable afterwards.
type AuditEntry struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID           *uuid.UUID `gorm:"type:uuid;index"`
	ItemNumber       string     `gorm:"not null;index"`
	ItemDescription  string     `gorm:"not null"`
	PreviousQuantity int        `gorm:"not null"`
	NewQuantity      int        `gorm:"not null"`
	ChangeType       string     `gorm:"not null"` // csv_import | create | edit | adjustment | DELETED
	ChangedBy        string     `gorm:"not null"`
	ChangedAt        time.Time  `gorm:"not null;index"`
	TicketURL        *string

	Item *InventoryItem `gorm:"foreignKey:ItemID;constraint:OnDelete:SET NULL"`
}

func (AuditEntry) TableName() string { return "audit_entries" }
