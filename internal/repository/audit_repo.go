package repository

import (
	"context"

	"assettracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter defines filters for listing audit entries.
type AuditFilter struct {
	ItemID *uuid.UUID
	Search string
	Page   int
	Limit  int
}

// AuditRepository is the read side of the audit trail. Writes go through
// RecordStore.AppendAudit so they share the item's transaction.
type AuditRepository interface {
	List(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, int64, error)
	Recent(ctx context.Context, n int) ([]model.AuditEntry, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

// List returns entries newest-first (append-only table, so this reflects
// natural insert order).
func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditEntry{})
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("item_number ILIKE ? OR item_description ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var entries []model.AuditEntry
	err := q.Order("changed_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func (r *auditRepo) Recent(ctx context.Context, n int) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := r.db.WithContext(ctx).Order("changed_at DESC").Limit(n).Find(&entries).Error
	return entries, err
}
