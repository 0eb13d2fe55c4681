package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"assettracker/internal/dto"
	"assettracker/internal/infra"
	"assettracker/internal/model"
	"assettracker/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── In-memory InventoryRepository stub ───────────────────────────────────────
//
// Transaction runs fn against a clone and copies the clone back only on
// success, so a failed row leaves no trace, like a real rollback.

type memStore struct {
	items  map[string]*model.InventoryItem // by item number
	audits []model.AuditEntry

	// Shared between a store and its transaction clones.
	faults *storeFaults
	parent *memStore
}

type storeFaults struct {
	createErr map[string]error
	updateErr map[string]error
	auditErr  map[string]error
	panicOn   map[string]bool
	// raceOnCreate simulates another upload committing the item between
	// our lookup and our insert.
	raceOnCreate map[string]model.InventoryItem
	txCount      int
}

func newMemStore() *memStore {
	return &memStore{
		items: make(map[string]*model.InventoryItem),
		faults: &storeFaults{
			createErr:    map[string]error{},
			updateErr:    map[string]error{},
			auditErr:     map[string]error{},
			panicOn:      map[string]bool{},
			raceOnCreate: map[string]model.InventoryItem{},
		},
	}
}

func (s *memStore) clone() *memStore {
	c := &memStore{
		items:  make(map[string]*model.InventoryItem, len(s.items)),
		audits: append([]model.AuditEntry(nil), s.audits...),
		faults: s.faults,
		parent: s,
	}
	for k, v := range s.items {
		cp := *v
		c.items[k] = &cp
	}
	return c
}

func (s *memStore) root() *memStore {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *memStore) seed(item model.InventoryItem) *model.InventoryItem {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.AssetType == "" {
		item.AssetType = model.AssetHardware
	}
	s.items[item.ItemNumber] = &item
	return &item
}

func (s *memStore) get(itemNumber string) *model.InventoryItem {
	return s.items[itemNumber]
}

func (s *memStore) auditsFor(itemNumber string) []model.AuditEntry {
	var out []model.AuditEntry
	for _, a := range s.audits {
		if a.ItemNumber == itemNumber {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) FindByItemNumber(_ context.Context, itemNumber string) (*model.InventoryItem, error) {
	if s.faults.panicOn[itemNumber] {
		panic("boom: " + itemNumber)
	}
	it, ok := s.items[itemNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	for _, it := range s.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) Create(_ context.Context, item *model.InventoryItem) error {
	if raced, ok := s.faults.raceOnCreate[item.ItemNumber]; ok {
		delete(s.faults.raceOnCreate, item.ItemNumber)
		s.root().seed(raced)
		return repository.ErrDuplicate
	}
	if err := s.faults.createErr[item.ItemNumber]; err != nil {
		return err
	}
	if _, exists := s.items[item.ItemNumber]; exists {
		return repository.ErrDuplicate
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	s.items[item.ItemNumber] = &cp
	return nil
}

func (s *memStore) Update(_ context.Context, item *model.InventoryItem) error {
	if err := s.faults.updateErr[item.ItemNumber]; err != nil {
		return err
	}
	cp := *item
	s.items[item.ItemNumber] = &cp
	return nil
}

func (s *memStore) AppendAudit(_ context.Context, entry *model.AuditEntry) error {
	if err := s.faults.auditErr[entry.ItemNumber]; err != nil {
		return err
	}
	s.audits = append(s.audits, *entry)
	return nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	for k, it := range s.items {
		if it.ID == id {
			delete(s.items, k)
			for i := range s.audits {
				if s.audits[i].ItemID != nil && *s.audits[i].ItemID == id {
					s.audits[i].ItemID = nil
				}
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) List(_ context.Context, f dto.InventoryFilter) ([]model.InventoryItem, error) {
	var out []model.InventoryItem
	for _, it := range s.items {
		if f.Search != "" && !strings.Contains(strings.ToLower(it.ItemNumber+" "+it.Description), strings.ToLower(f.Search)) {
			continue
		}
		if f.AssetType != "" && it.AssetType != f.AssetType {
			continue
		}
		if f.NeedsReorder == "true" && !it.NeedsReorder() {
			continue
		}
		if f.NeedsReorder == "false" && it.NeedsReorder() {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemNumber < out[j].ItemNumber })
	return out, nil
}

func (s *memStore) Totals(_ context.Context) (*repository.InventoryTotals, error) {
	t := &repository.InventoryTotals{TotalValue: decimal.Zero}
	for _, it := range s.items {
		t.TotalUnits += int64(it.CurrentQuantity)
		if it.NeedsReorder() {
			t.LowStockCount++
		}
		t.TotalValue = t.TotalValue.Add(it.Cost.Mul(decimal.NewFromInt(int64(it.CurrentQuantity))))
	}
	return t, nil
}

func (s *memStore) Transaction(ctx context.Context, fn func(repository.RecordStore) error) error {
	return s.InTx(ctx, func(tx repository.InventoryRepository) error { return fn(tx) })
}

func (s *memStore) InTx(_ context.Context, fn func(repository.InventoryRepository) error) error {
	s.faults.txCount++
	tx := s.clone()
	if err := fn(tx); err != nil {
		return err
	}
	s.items = tx.items
	s.audits = tx.audits
	return nil
}

var _ repository.InventoryRepository = (*memStore)(nil)

// ── AuditRepository stub over memStore ───────────────────────────────────────

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) List(_ context.Context, f repository.AuditFilter) ([]model.AuditEntry, int64, error) {
	var out []model.AuditEntry
	for i := len(r.store.audits) - 1; i >= 0; i-- {
		a := r.store.audits[i]
		if f.ItemID != nil && (a.ItemID == nil || *a.ItemID != *f.ItemID) {
			continue
		}
		if f.Search != "" && !strings.Contains(a.ItemNumber+" "+a.ItemDescription, f.Search) {
			continue
		}
		out = append(out, a)
	}
	total := int64(len(out))
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *memAuditRepo) Recent(ctx context.Context, n int) ([]model.AuditEntry, error) {
	out, _, err := r.List(ctx, repository.AuditFilter{Page: 1, Limit: n})
	return out, err
}

var _ repository.AuditRepository = (*memAuditRepo)(nil)

// ── NotificationConfigRepository stub ────────────────────────────────────────

type stubConfigRepo struct {
	cfg *model.NotificationConfig
	err error
}

func (r *stubConfigRepo) Get(context.Context) (*model.NotificationConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.cfg == nil {
		r.cfg = &model.NotificationConfig{ID: 1, DirectoryGroup: model.DefaultDirectoryGroup}
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *stubConfigRepo) Save(_ context.Context, cfg *model.NotificationConfig) error {
	cp := *cfg
	r.cfg = &cp
	return nil
}

var _ repository.NotificationConfigRepository = (*stubConfigRepo)(nil)

// ── Collaborator stubs ───────────────────────────────────────────────────────

type recordingNotifier struct {
	mu      sync.Mutex
	calls   [][]model.InventoryItem
	baseURL string
	err     error
}

func (n *recordingNotifier) SendLowStockBatch(_ context.Context, items []model.InventoryItem, baseURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, append([]model.InventoryItem(nil), items...))
	n.baseURL = baseURL
	return n.err
}

type stubMailer struct {
	sent []infra.Message
	err  error
}

func (m *stubMailer) Send(_ context.Context, msg infra.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type stubDirectory struct {
	emails map[string][]string
	err    error
}

func (d *stubDirectory) GroupEmails(_ context.Context, group string) ([]string, error) {
	return d.emails[group], d.err
}
