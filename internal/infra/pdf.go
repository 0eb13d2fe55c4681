package infra

// pdf.go renders the low-stock report attached to alert mails, using
// go-pdf/fpdf. A4 portrait, one table row per item:
//   - item number
//   - description (truncated)
//   - current quantity / minimum threshold
//   - reorder amount

import (
	"bytes"
	"fmt"
	"time"

	"assettracker/internal/model"

	"github.com/go-pdf/fpdf"
)

// RenderLowStockPDF returns the PDF bytes for items.
func RenderLowStockPDF(items []model.InventoryItem, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Low Stock Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("%d item(s) below minimum threshold", len(items)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Generated "+generatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Table header ─────────────────────────────────────────────────────────
	col1 := contentW * 0.20 // item number
	col2 := contentW * 0.44 // description
	col3 := contentW * 0.12 // current
	col4 := contentW * 0.12 // minimum
	col5 := contentW * 0.12 // reorder

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(col1, 6, "Item Number", "1", 0, "L", true, 0, "")
	pdf.CellFormat(col2, 6, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(col3, 6, "Current", "1", 0, "R", true, 0, "")
	pdf.CellFormat(col4, 6, "Minimum", "1", 0, "R", true, 0, "")
	pdf.CellFormat(col5, 6, "Reorder", "1", 1, "R", true, 0, "")

	// ── Rows ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, it := range items {
		desc := it.Description
		if r := []rune(desc); len(r) > 48 {
			desc = string(r[:47]) + "..."
		}
		pdf.CellFormat(col1, 6, tr(it.ItemNumber), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, tr(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, fmt.Sprintf("%d", it.CurrentQuantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, fmt.Sprintf("%d", it.MinimumThreshold), "1", 0, "R", false, 0, "")
		pdf.CellFormat(col5, 6, fmt.Sprintf("%d", it.ReorderAmount), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
