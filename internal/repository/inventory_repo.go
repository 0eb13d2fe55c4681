package repository

import (
	"context"
	"fmt"

	"assettracker/internal/dto"
	"assettracker/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordStore is the write surface used by CSV ingestion. Transaction runs fn
// against a store bound to a single DB transaction; fn's error rolls it back.
type RecordStore interface {
	FindByItemNumber(ctx context.Context, itemNumber string) (*model.InventoryItem, error)
	Create(ctx context.Context, item *model.InventoryItem) error
	Update(ctx context.Context, item *model.InventoryItem) error
	AppendAudit(ctx context.Context, entry *model.AuditEntry) error
	Transaction(ctx context.Context, fn func(RecordStore) error) error
}

// InventoryRepository defines the data access contract for inventory items.
// Services depend on this interface, not on the concrete GORM implementation.
type InventoryRepository interface {
	RecordStore

	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	List(ctx context.Context, filter dto.InventoryFilter) ([]model.InventoryItem, error)
	// Delete removes the item; audit rows survive with item_id set to NULL.
	Delete(ctx context.Context, id uuid.UUID) error
	Totals(ctx context.Context) (*InventoryTotals, error)

	// InTx is Transaction for the full repository surface.
	InTx(ctx context.Context, fn func(InventoryRepository) error) error
}

// InventoryTotals aggregates the whole table for the dashboard.
type InventoryTotals struct {
	TotalUnits    int64
	LowStockCount int64
	TotalValue    decimal.Decimal
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) FindByItemNumber(ctx context.Context, itemNumber string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	// = on a text column is case-sensitive in Postgres; no ILIKE here on purpose.
	if err := r.db.WithContext(ctx).Where("item_number = ?", itemNumber).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *inventoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *inventoryRepo) Create(ctx context.Context, item *model.InventoryItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *inventoryRepo) Update(ctx context.Context, item *model.InventoryItem) error {
	res := r.db.WithContext(ctx).Save(item)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

func (r *inventoryRepo) AppendAudit(ctx context.Context, entry *model.AuditEntry) error {
	return translate(r.db.WithContext(ctx).Omit("Item").Create(entry).Error)
}

func (r *inventoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepo) List(ctx context.Context, filter dto.InventoryFilter) ([]model.InventoryItem, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryItem{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("item_number ILIKE ? OR description ILIKE ?", like, like)
	}
	if filter.AssetType != "" {
		q = q.Where("asset_type = ?", filter.AssetType)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	switch filter.NeedsReorder {
	case "true":
		q = q.Where("current_quantity < minimum_threshold")
	case "false":
		q = q.Where("current_quantity >= minimum_threshold")
	}

	order := "item_number"
	if col, ok := sortColumns[filter.SortBy]; ok {
		order = col
	}
	if filter.SortDesc {
		order += " DESC"
	}

	var items []model.InventoryItem
	err := q.Order(order).Find(&items).Error
	return items, err
}

// sortColumns whitelists ORDER BY targets; the raw query param never reaches SQL.
var sortColumns = map[string]string{
	"itemNumber":      "item_number",
	"description":     "description",
	"category":        "category",
	"cost":            "cost",
	"currentQuantity": "current_quantity",
	"lastModifiedAt":  "last_modified_at",
}

func (r *inventoryRepo) Totals(ctx context.Context) (*InventoryTotals, error) {
	var row struct {
		TotalUnits    int64
		LowStockCount int64
		TotalValue    decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Select(`COALESCE(SUM(current_quantity), 0) AS total_units,
			COUNT(*) FILTER (WHERE current_quantity < minimum_threshold) AS low_stock_count,
			COALESCE(SUM(cost * current_quantity), 0) AS total_value`).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("inventory totals: %w", err)
	}
	return &InventoryTotals{
		TotalUnits:    row.TotalUnits,
		LowStockCount: row.LowStockCount,
		TotalValue:    row.TotalValue,
	}, nil
}

func (r *inventoryRepo) Transaction(ctx context.Context, fn func(RecordStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&inventoryRepo{db: tx})
	})
}

func (r *inventoryRepo) InTx(ctx context.Context, fn func(InventoryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&inventoryRepo{db: tx})
	})
}
