package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"assettracker/internal/model"
	"assettracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func auditEntry(itemID *uuid.UUID, number, desc string, prev, next int) model.AuditEntry {
	return model.AuditEntry{
		ID:               uuid.New(),
		ItemID:           itemID,
		ItemNumber:       number,
		ItemDescription:  desc,
		PreviousQuantity: prev,
		NewQuantity:      next,
		ChangeType:       model.ChangeCSVImport,
		ChangedBy:        "ops",
		ChangedAt:        time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestAuditXLSX_WritesRowsAsText(t *testing.T) {
	store := newMemStore()
	id := uuid.New()
	store.audits = []model.AuditEntry{
		auditEntry(&id, "HW-1", "Dock", 0, 3),
		auditEntry(nil, "HW-2", "=cmd|' /C calc'!A0", 5, 0),
	}

	data, err := service.NewExportService(&memAuditRepo{store: store}).AuditXLSX(context.Background(), nil, "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Audit History")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Changed At", rows[0][0])
	assert.Equal(t, "Ticket URL", rows[0][7])

	// newest first
	assert.Equal(t, "HW-2", rows[1][1])
	assert.Equal(t, "'=cmd|' /C calc'!A0", rows[1][2])
	assert.Equal(t, "2026-03-01 09:30:00", rows[1][0])
	assert.Equal(t, "HW-1", rows[2][1])
	assert.Equal(t, "3", rows[2][5])

	formula, err := f.GetCellFormula("Audit History", "C2")
	require.NoError(t, err)
	assert.Empty(t, formula)
}

func TestAuditXLSX_FiltersByItem(t *testing.T) {
	store := newMemStore()
	id := uuid.New()
	other := uuid.New()
	store.audits = []model.AuditEntry{
		auditEntry(&id, "HW-1", "Dock", 0, 3),
		auditEntry(&other, "HW-2", "Mouse", 0, 1),
	}

	data, err := service.NewExportService(&memAuditRepo{store: store}).AuditXLSX(context.Background(), &id, "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Audit History")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "HW-1", rows[1][1])
}
