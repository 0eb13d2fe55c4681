package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"assettracker/internal/model"
	"assettracker/internal/repository"
	"assettracker/internal/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RowStatus classifies the outcome of reconciling one CSV row.
type RowStatus string

const (
	RowCreated          RowStatus = "created"
	RowUpdated          RowStatus = "updated"
	RowValidationFailed RowStatus = "validation_failed"
	RowStoreError       RowStatus = "store_error"
)

// RowOutcome is the result of reconciling one row. Item is set only on
// success and reflects the record as committed.
type RowOutcome struct {
	Row      int
	Status   RowStatus
	Err      error
	Item     *model.InventoryItem
	LowStock bool
}

func (o RowOutcome) Succeeded() bool {
	return o.Status == RowCreated || o.Status == RowUpdated
}

// requiredFieldsError names required columns a row left blank.
type requiredFieldsError []string

func (e requiredFieldsError) Error() string {
	if len(e) == 1 {
		return e[0] + " is required"
	}
	return strings.Join(e, " and ") + " are required"
}

// rowValues is a row that passed validation, with text already sanitized.
type rowValues struct {
	itemNumber    string
	assetType     string
	description   string
	category      *string
	cost          decimal.Decimal
	minThreshold  int
	reorderAmount int
	quantity      int
	changedBy     string
	ticketURL     *string
}

// parseAssetType maps raw onto Hardware or Software, case-insensitively.
// Blank defaults to Hardware.
func parseAssetType(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return model.AssetHardware, nil
	case strings.EqualFold(raw, model.AssetHardware):
		return model.AssetHardware, nil
	case strings.EqualFold(raw, model.AssetSoftware):
		return model.AssetSoftware, nil
	}
	return "", &sanitize.FieldError{Field: "AssetType", Msg: "must be Hardware or Software"}
}

// parseRow validates row. The first failing field aborts with its error.
func parseRow(row Row, actor string) (*rowValues, error) {
	var missing requiredFieldsError
	if row[colItemNumber] == "" {
		missing = append(missing, string(colItemNumber))
	}
	if row[colDescription] == "" {
		missing = append(missing, string(colDescription))
	}
	if len(missing) > 0 {
		return nil, missing
	}

	v := &rowValues{
		itemNumber:  sanitize.Text(row[colItemNumber]),
		description: sanitize.Text(row[colDescription]),
		category:    sanitize.OptionalText(row[colCategory]),
		ticketURL:   sanitize.OptionalText(row[colTicketURL]),
		changedBy:   actor,
	}
	if u := row[colAuditUser]; u != "" {
		v.changedBy = sanitize.Text(u)
		if err := sanitize.MaxLen(v.changedBy, string(colAuditUser), sanitize.MaxActorLen); err != nil {
			return nil, err
		}
	}

	if err := sanitize.MaxLen(v.itemNumber, string(colItemNumber), sanitize.MaxItemNumberLen); err != nil {
		return nil, err
	}
	if err := sanitize.MaxLen(v.description, string(colDescription), sanitize.MaxDescriptionLen); err != nil {
		return nil, err
	}
	if v.category != nil {
		if err := sanitize.MaxLen(*v.category, string(colCategory), sanitize.MaxCategoryLen); err != nil {
			return nil, err
		}
	}
	if v.ticketURL != nil {
		if err := sanitize.MaxLen(*v.ticketURL, string(colTicketURL), sanitize.MaxTicketURLLen); err != nil {
			return nil, err
		}
	}

	var err error
	if v.assetType, err = parseAssetType(row[colAssetType]); err != nil {
		return nil, err
	}
	if v.cost, err = sanitize.Decimal(row[colCost], string(colCost), sanitize.MinCost, sanitize.MaxCost); err != nil {
		return nil, err
	}
	v.cost = v.cost.Round(2)
	if v.minThreshold, err = sanitize.Int(row[colMinimumThreshold], string(colMinimumThreshold), 0, sanitize.MaxQuantity); err != nil {
		return nil, err
	}
	if v.reorderAmount, err = sanitize.Int(row[colReorderAmount], string(colReorderAmount), 0, sanitize.MaxQuantity); err != nil {
		return nil, err
	}
	if raw := row[colCurrentQuantity]; raw != "" {
		if v.quantity, err = sanitize.Int(raw, string(colCurrentQuantity), 0, sanitize.MaxQuantity); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// RowReconciler applies one validated row to the record store.
type RowReconciler struct {
	store repository.RecordStore
	now   func() time.Time
}

func NewRowReconciler(store repository.RecordStore) *RowReconciler {
	return &RowReconciler{store: store, now: time.Now}
}

// Reconcile validates row and upserts it by item number. The record write
// and its audit entry share one transaction. Store errors come back as a
// store_error outcome, never as a panic or a returned error.
func (r *RowReconciler) Reconcile(ctx context.Context, rowNum int, row Row, actor string) RowOutcome {
	out := RowOutcome{Row: rowNum}

	v, err := parseRow(row, actor)
	if err != nil {
		out.Status = RowValidationFailed
		out.Err = err
		return out
	}

	var (
		item   *model.InventoryItem
		status RowStatus
	)
	txn := func(tx repository.RecordStore) error {
		var err error
		item, status, err = r.apply(ctx, tx, v)
		return err
	}

	err = r.store.Transaction(ctx, txn)
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a create race with a concurrent upload: the row exists now,
		// so a second pass takes the update path.
		err = r.store.Transaction(ctx, txn)
	}
	if err != nil {
		out.Status = RowStoreError
		out.Err = err
		return out
	}

	out.Status = status
	out.Item = item
	out.LowStock = item.NeedsReorder()
	return out
}

func (r *RowReconciler) apply(ctx context.Context, tx repository.RecordStore, v *rowValues) (*model.InventoryItem, RowStatus, error) {
	now := r.now()

	existing, err := tx.FindByItemNumber(ctx, v.itemNumber)
	if errors.Is(err, repository.ErrNotFound) {
		item := &model.InventoryItem{
			ID:               uuid.New(),
			ItemNumber:       v.itemNumber,
			AssetType:        v.assetType,
			Description:      v.description,
			Category:         v.category,
			Cost:             v.cost,
			MinimumThreshold: v.minThreshold,
			ReorderAmount:    v.reorderAmount,
			CurrentQuantity:  v.quantity,
			LastModifiedBy:   v.changedBy,
			LastModifiedAt:   now,
		}
		if err := tx.Create(ctx, item); err != nil {
			return nil, "", fmt.Errorf("create %s: %w", v.itemNumber, err)
		}
		if item.CurrentQuantity > 0 {
			if err := tx.AppendAudit(ctx, csvAudit(item, 0, v, now)); err != nil {
				return nil, "", fmt.Errorf("audit %s: %w", v.itemNumber, err)
			}
		}
		return item, RowCreated, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup %s: %w", v.itemNumber, err)
	}

	prev := existing.CurrentQuantity
	existing.AssetType = v.assetType
	existing.Description = v.description
	existing.Category = v.category
	existing.Cost = v.cost
	existing.MinimumThreshold = v.minThreshold
	existing.ReorderAmount = v.reorderAmount
	if v.quantity > 0 {
		existing.CurrentQuantity = v.quantity
	}
	existing.LastModifiedBy = v.changedBy
	existing.LastModifiedAt = now

	if err := tx.Update(ctx, existing); err != nil {
		return nil, "", fmt.Errorf("update %s: %w", v.itemNumber, err)
	}
	if existing.CurrentQuantity != prev {
		if err := tx.AppendAudit(ctx, csvAudit(existing, prev, v, now)); err != nil {
			return nil, "", fmt.Errorf("audit %s: %w", v.itemNumber, err)
		}
	}
	return existing, RowUpdated, nil
}

func csvAudit(item *model.InventoryItem, prev int, v *rowValues, at time.Time) *model.AuditEntry {
	id := item.ID
	return &model.AuditEntry{
		ID:               uuid.New(),
		ItemID:           &id,
		ItemNumber:       item.ItemNumber,
		ItemDescription:  item.Description,
		PreviousQuantity: prev,
		NewQuantity:      item.CurrentQuantity,
		ChangeType:       model.ChangeCSVImport,
		ChangedBy:        v.changedBy,
		ChangedAt:        at,
		TicketURL:        v.ticketURL,
	}
}
