package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assettracker/internal/dto"
	"assettracker/internal/metrics"
	"assettracker/internal/model"
	"assettracker/internal/repository"
	"assettracker/internal/sanitize"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrItemNotFound     = errors.New("inventory item not found")
	ErrItemExists       = errors.New("an item with that item number already exists")
	ErrNegativeQuantity = errors.New("quantity change would result in negative stock")
)

const dashboardRecentChanges = 10

// InventoryService covers direct (non-CSV) item maintenance, the audit trail
// and dashboard figures.
type InventoryService interface {
	Create(ctx context.Context, req dto.CreateItemRequest, actor string) (*dto.ItemResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error)
	List(ctx context.Context, filter dto.InventoryFilter) ([]dto.ItemResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest, actor string) (*dto.ItemResponse, error)
	AdjustQuantity(ctx context.Context, req dto.AdjustQuantityRequest, actor string) (*dto.ItemResponse, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
	ListAudit(ctx context.Context, filter dto.AuditFilter) (*dto.AuditListResponse, error)
	ListAuditByItem(ctx context.Context, id uuid.UUID, filter dto.AuditFilter) (*dto.AuditListResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardStatsResponse, error)
}

type inventoryService struct {
	items    repository.InventoryRepository
	audits   repository.AuditRepository
	notifier Notifier
	baseURL  string
	now      func() time.Time
}

// NewInventoryService wires the service. A nil notifier disables threshold
// crossing alerts.
func NewInventoryService(items repository.InventoryRepository, audits repository.AuditRepository, notifier Notifier, baseURL string) InventoryService {
	return &inventoryService{items: items, audits: audits, notifier: notifier, baseURL: baseURL, now: time.Now}
}

func mapItem(i *model.InventoryItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:               i.ID.String(),
		ItemNumber:       i.ItemNumber,
		AssetType:        i.AssetType,
		Description:      i.Description,
		Category:         i.Category,
		Cost:             i.Cost,
		MinimumThreshold: i.MinimumThreshold,
		ReorderAmount:    i.ReorderAmount,
		CurrentQuantity:  i.CurrentQuantity,
		NeedsReorder:     i.NeedsReorder(),
		LastModifiedBy:   i.LastModifiedBy,
		LastModifiedAt:   i.LastModifiedAt,
	}
}

func mapAudit(e *model.AuditEntry) dto.AuditEntryResponse {
	resp := dto.AuditEntryResponse{
		ID:               e.ID.String(),
		ItemNumber:       e.ItemNumber,
		ItemDescription:  e.ItemDescription,
		PreviousQuantity: e.PreviousQuantity,
		NewQuantity:      e.NewQuantity,
		ChangeType:       e.ChangeType,
		ChangedBy:        e.ChangedBy,
		ChangedAt:        e.ChangedAt,
		TicketURL:        e.TicketURL,
	}
	if e.ItemID != nil {
		id := e.ItemID.String()
		resp.ItemID = &id
	}
	return resp
}

func auditFor(item *model.InventoryItem, prev int, changeType, actor string, ticketURL *string, at time.Time) *model.AuditEntry {
	id := item.ID
	return &model.AuditEntry{
		ID:               uuid.New(),
		ItemID:           &id,
		ItemNumber:       item.ItemNumber,
		ItemDescription:  item.Description,
		PreviousQuantity: prev,
		NewQuantity:      item.CurrentQuantity,
		ChangeType:       changeType,
		ChangedBy:        actor,
		ChangedAt:        at,
		TicketURL:        ticketURL,
	}
}

// checkTextWidths applies the column widths to already sanitized values.
func checkTextWidths(item *model.InventoryItem) error {
	if err := sanitize.MaxLen(item.ItemNumber, "ItemNumber", sanitize.MaxItemNumberLen); err != nil {
		return err
	}
	if err := sanitize.MaxLen(item.Description, "Description", sanitize.MaxDescriptionLen); err != nil {
		return err
	}
	if item.Category != nil {
		return sanitize.MaxLen(*item.Category, "Category", sanitize.MaxCategoryLen)
	}
	return nil
}

func orDefaultActor(actor string) string {
	if actor == "" {
		return DefaultActor
	}
	return actor
}

func (s *inventoryService) Create(ctx context.Context, req dto.CreateItemRequest, actor string) (*dto.ItemResponse, error) {
	actor = orDefaultActor(actor)
	assetType, err := parseAssetType(req.AssetType)
	if err != nil {
		return nil, err
	}

	if err := sanitize.CheckDecimal(req.Cost, "Cost", sanitize.MinCost, sanitize.MaxCost); err != nil {
		return nil, err
	}

	now := s.now()
	item := &model.InventoryItem{
		ID:               uuid.New(),
		ItemNumber:       sanitize.Text(req.ItemNumber),
		AssetType:        assetType,
		Description:      sanitize.Text(req.Description),
		Cost:             req.Cost.Round(2),
		MinimumThreshold: req.MinimumThreshold,
		ReorderAmount:    req.ReorderAmount,
		CurrentQuantity:  req.CurrentQuantity,
		LastModifiedBy:   actor,
		LastModifiedAt:   now,
	}
	if req.Category != nil {
		item.Category = sanitize.OptionalText(*req.Category)
	}
	if err := checkTextWidths(item); err != nil {
		return nil, err
	}

	err = s.items.InTx(ctx, func(tx repository.InventoryRepository) error {
		if err := tx.Create(ctx, item); err != nil {
			return err
		}
		if item.CurrentQuantity > 0 {
			return tx.AppendAudit(ctx, auditFor(item, 0, model.ChangeCreate, actor, nil, now))
		}
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrItemExists
	}
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	resp := mapItem(item)
	return &resp, nil
}

func (s *inventoryService) Get(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := mapItem(item)
	return &resp, nil
}

func (s *inventoryService) List(ctx context.Context, filter dto.InventoryFilter) ([]dto.ItemResponse, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, mapItem(&items[i]))
	}
	return out, nil
}

func (s *inventoryService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest, actor string) (*dto.ItemResponse, error) {
	actor = orDefaultActor(actor)

	var (
		item      *model.InventoryItem
		prev      int
		prevThres int
	)
	err := s.items.InTx(ctx, func(tx repository.InventoryRepository) error {
		var err error
		item, err = tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		prev, prevThres = item.CurrentQuantity, item.MinimumThreshold

		if req.AssetType != nil {
			if item.AssetType, err = parseAssetType(*req.AssetType); err != nil {
				return err
			}
		}
		if req.Description != nil {
			item.Description = sanitize.Text(*req.Description)
		}
		if req.Category != nil {
			item.Category = sanitize.OptionalText(*req.Category)
		}
		if req.Cost != nil {
			if err := sanitize.CheckDecimal(*req.Cost, "Cost", sanitize.MinCost, sanitize.MaxCost); err != nil {
				return err
			}
			item.Cost = req.Cost.Round(2)
		}
		if req.MinimumThreshold != nil {
			item.MinimumThreshold = *req.MinimumThreshold
		}
		if req.ReorderAmount != nil {
			item.ReorderAmount = *req.ReorderAmount
		}
		if req.CurrentQuantity != nil {
			item.CurrentQuantity = *req.CurrentQuantity
		}
		if err := checkTextWidths(item); err != nil {
			return err
		}
		now := s.now()
		item.LastModifiedBy = actor
		item.LastModifiedAt = now

		if err := tx.Update(ctx, item); err != nil {
			return err
		}
		if item.CurrentQuantity != prev {
			return tx.AppendAudit(ctx, auditFor(item, prev, model.ChangeEdit, actor, nil, now))
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	s.alertOnCrossing(ctx, item, prev, prevThres)
	resp := mapItem(item)
	return &resp, nil
}

func (s *inventoryService) AdjustQuantity(ctx context.Context, req dto.AdjustQuantityRequest, actor string) (*dto.ItemResponse, error) {
	actor = orDefaultActor(actor)
	var ticket *string
	if req.TicketURL != nil {
		ticket = sanitize.OptionalText(*req.TicketURL)
		if ticket != nil {
			if err := sanitize.MaxLen(*ticket, "TicketURL", sanitize.MaxTicketURLLen); err != nil {
				return nil, err
			}
		}
	}
	itemNumber := sanitize.Text(req.ItemNumber)

	var (
		item *model.InventoryItem
		prev int
	)
	err := s.items.InTx(ctx, func(tx repository.InventoryRepository) error {
		var err error
		item, err = tx.FindByItemNumber(ctx, itemNumber)
		if err != nil {
			return err
		}
		prev = item.CurrentQuantity
		next := prev + req.QuantityChange
		if next < 0 {
			return ErrNegativeQuantity
		}
		if next > sanitize.MaxQuantity {
			return &sanitize.FieldError{Field: "CurrentQuantity", Msg: fmt.Sprintf("must be between 0 and %d", sanitize.MaxQuantity)}
		}
		if next == prev {
			return nil
		}

		now := s.now()
		item.CurrentQuantity = next
		item.LastModifiedBy = actor
		item.LastModifiedAt = now
		if err := tx.Update(ctx, item); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, auditFor(item, prev, model.ChangeAdjustment, actor, ticket, now))
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	s.alertOnCrossing(ctx, item, prev, item.MinimumThreshold)
	resp := mapItem(item)
	return &resp, nil
}

func (s *inventoryService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	actor = orDefaultActor(actor)
	err := s.items.InTx(ctx, func(tx repository.InventoryRepository) error {
		item, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		prev := item.CurrentQuantity
		item.CurrentQuantity = 0
		if err := tx.AppendAudit(ctx, auditFor(item, prev, model.ChangeDeleted, actor, nil, s.now())); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrItemNotFound
	}
	return err
}

func (s *inventoryService) ListAudit(ctx context.Context, filter dto.AuditFilter) (*dto.AuditListResponse, error) {
	return s.listAudit(ctx, repository.AuditFilter{Search: filter.Search, Page: filter.Page, Limit: filter.Limit})
}

func (s *inventoryService) ListAuditByItem(ctx context.Context, id uuid.UUID, filter dto.AuditFilter) (*dto.AuditListResponse, error) {
	if _, err := s.items.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return s.listAudit(ctx, repository.AuditFilter{ItemID: &id, Page: filter.Page, Limit: filter.Limit})
}

func (s *inventoryService) listAudit(ctx context.Context, f repository.AuditFilter) (*dto.AuditListResponse, error) {
	entries, total, err := s.audits.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		data = append(data, mapAudit(&entries[i]))
	}
	return &dto.AuditListResponse{Data: data, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *inventoryService) Dashboard(ctx context.Context) (*dto.DashboardStatsResponse, error) {
	totals, err := s.items.Totals(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.audits.Recent(ctx, dashboardRecentChanges)
	if err != nil {
		return nil, err
	}
	changes := make([]dto.AuditEntryResponse, 0, len(recent))
	for i := range recent {
		changes = append(changes, mapAudit(&recent[i]))
	}
	return &dto.DashboardStatsResponse{
		TotalItems:    totals.TotalUnits,
		LowStockCount: totals.LowStockCount,
		TotalValue:    totals.TotalValue,
		RecentChanges: changes,
	}, nil
}

// alertOnCrossing notifies once when an edit takes stock from at-or-above
// the threshold to below it. Delivery failures are logged only.
func (s *inventoryService) alertOnCrossing(ctx context.Context, item *model.InventoryItem, prevQty, prevThreshold int) {
	if s.notifier == nil {
		return
	}
	wasLow := prevQty < prevThreshold
	if wasLow || !item.NeedsReorder() {
		return
	}
	metrics.LowStockAlerts.Inc()
	if err := s.notifier.SendLowStockBatch(ctx, []model.InventoryItem{*item}, s.baseURL); err != nil {
		metrics.NotificationFailures.WithLabelValues("send").Inc()
		log.Error().Err(err).Str("item_number", item.ItemNumber).Msg("low-stock notification failed")
	}
}
