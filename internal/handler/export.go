package handler

import (
	"fmt"
	"net/http"
	"time"

	"assettracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct{ svc service.ExportService }

func NewExportHandler(svc service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// AuditXLSX streams the audit history as a workbook. Optional query params:
// itemId (uuid) and search.
func (h *ExportHandler) AuditXLSX(c *gin.Context) {
	var itemID *uuid.UUID
	if raw := c.Query("itemId"); raw != "" {
		id, ok := parseUUID(c, raw)
		if !ok {
			return
		}
		itemID = &id
	}

	data, err := h.svc.AuditXLSX(c.Request.Context(), itemID, c.Query("search"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	name := fmt.Sprintf("audit-history-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, xlsxContentType, data)
}
