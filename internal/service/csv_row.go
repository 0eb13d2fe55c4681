package service

import (
	"strings"
	"unicode"
)

// column is a canonical CSV column name.
type column string

const (
	colItemNumber       column = "ItemNumber"
	colAssetType        column = "AssetType"
	colDescription      column = "Description"
	colCategory         column = "Category"
	colCost             column = "Cost"
	colMinimumThreshold column = "MinimumThreshold"
	colReorderAmount    column = "ReorderAmount"
	colCurrentQuantity  column = "CurrentQuantity"
	colAuditUser        column = "AuditUser"
	colTicketURL        column = "ServiceNowTicketUrl"
)

// Row is one data record keyed by canonical column. Values are trimmed; a
// missing column reads as "".
type Row map[column]string

// columnSources lists, per canonical column, the normalized header names that
// may supply it in priority order. A later name is used only when every
// earlier one is absent or blank.
var columnSources = []struct {
	col   column
	names []string
}{
	{colItemNumber, []string{"itemnumber"}},
	{colAssetType, []string{"assettype"}},
	{colDescription, []string{"description", "hardwaredescription"}},
	{colCategory, []string{"category", "hardwaretype"}},
	{colCost, []string{"cost"}},
	{colMinimumThreshold, []string{"minimumthreshold"}},
	{colReorderAmount, []string{"reorderamount"}},
	{colCurrentQuantity, []string{"currentquantity"}},
	{colAuditUser, []string{"audituser"}},
	{colTicketURL, []string{"servicenowticketurl", "ticketurl"}},
}

// normalizeHeader folds case and drops spaces, '_' and '-' so "Item Number",
// "item_number" and "ITEM-NUMBER" all match.
func normalizeHeader(h string) string {
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// headerIndex maps normalized header names to their column position. The
// first occurrence of a duplicated header wins.
type headerIndex map[string]int

func newHeaderIndex(record []string) headerIndex {
	idx := make(headerIndex, len(record))
	for i, h := range record {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// row resolves record into a Row using columnSources.
func (h headerIndex) row(record []string) Row {
	r := make(Row, len(columnSources))
	for _, src := range columnSources {
		for _, name := range src.names {
			pos, ok := h[name]
			if !ok || pos >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[pos]); v != "" {
				r[src.col] = v
				break
			}
		}
	}
	return r
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
