package service

import (
	"bytes"
	"context"
	"fmt"

	"assettracker/internal/model"
	"assettracker/internal/repository"
	"assettracker/internal/sanitize"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const exportPageSize = 500

// ExportService renders the audit trail as a spreadsheet.
type ExportService interface {
	// AuditXLSX exports audit entries, optionally restricted to one item.
	AuditXLSX(ctx context.Context, itemID *uuid.UUID, search string) ([]byte, error)
}

type exportService struct {
	audits repository.AuditRepository
}

func NewExportService(audits repository.AuditRepository) ExportService {
	return &exportService{audits: audits}
}

var auditExportHeader = []interface{}{
	"Changed At", "Item Number", "Description", "Change Type",
	"Previous Quantity", "New Quantity", "Changed By", "Ticket URL",
}

func (s *exportService) AuditXLSX(ctx context.Context, itemID *uuid.UUID, search string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Audit History"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &auditExportHeader); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}

	row := 2
	for page := 1; ; page++ {
		entries, total, err := s.audits.List(ctx, repository.AuditFilter{
			ItemID: itemID, Search: search, Page: page, Limit: exportPageSize,
		})
		if err != nil {
			return nil, err
		}
		for i := range entries {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, fmt.Errorf("xlsx cell: %w", err)
			}
			values := auditRow(&entries[i])
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", row, err)
			}
			row++
		}
		if len(entries) < exportPageSize || int64(page*exportPageSize) >= total {
			break
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func auditRow(e *model.AuditEntry) []interface{} {
	ticket := ""
	if e.TicketURL != nil {
		ticket = *e.TicketURL
	}
	return []interface{}{
		e.ChangedAt.UTC().Format("2006-01-02 15:04:05"),
		cellText(e.ItemNumber),
		cellText(e.ItemDescription),
		e.ChangeType,
		e.PreviousQuantity,
		e.NewQuantity,
		cellText(e.ChangedBy),
		cellText(ticket),
	}
}

// cellText guards values that reached the DB without input sanitizing.
func cellText(s string) string {
	if sanitize.HasFormulaPrefix(s) {
		return sanitize.Text(s)
	}
	return s
}
