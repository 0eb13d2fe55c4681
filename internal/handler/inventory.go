package handler

import (
	"net/http"

	"assettracker/internal/apierror"
	"assettracker/internal/dto"
	"assettracker/internal/middleware"
	"assettracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	return parseUUID(c, c.Param("id"))
}

func parseUUID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// List godoc
// @Summary      List inventory items
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        search       query string false "Item number or description substring"
// @Param        assetType    query string false "Hardware | Software"
// @Param        category     query string false "Exact category"
// @Param        needsReorder query string false "true | false"
// @Param        sortBy       query string false "itemNumber | description | category | cost | currentQuantity | lastModifiedAt"
// @Param        sortDesc     query bool   false "Descending order"
// @Success      200  {array}  dto.ItemResponse
// @Router       /v1/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var filter dto.InventoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Create an inventory item
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateItemRequest true "New item"
// @Success      201  {object} dto.ItemResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req, middleware.Actor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustQuantity godoc
// @Summary      Add or remove stock
// @Description  Applies a signed delta to CurrentQuantity and records an adjustment audit entry.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AdjustQuantityRequest true "Delta and optional ServiceNow ticket"
// @Success      200  {object} dto.ItemResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/inventory/adjust [post]
func (h *InventoryHandler) AdjustQuantity(c *gin.Context) {
	var req dto.AdjustQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustQuantity(c.Request.Context(), req, middleware.Actor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.Actor(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InventoryHandler) bindAuditFilter(c *gin.Context) (dto.AuditFilter, bool) {
	var filter dto.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return filter, false
	}
	return filter, validateStruct(c, &filter)
}

// ListAudit godoc
// @Summary      Audit history across all items
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Item number or description substring"
// @Param        page   query int    false "Page (1-based)"
// @Param        limit  query int    false "Page size, max 500"
// @Success      200  {object} dto.AuditListResponse
// @Router       /v1/audit [get]
func (h *InventoryHandler) ListAudit(c *gin.Context) {
	filter, ok := h.bindAuditFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListAudit(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) ListAuditByItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	filter, ok := h.bindAuditFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListAuditByItem(c.Request.Context(), id, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) Dashboard(c *gin.Context) {
	resp, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
