package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assettracker/internal/dto"
	"assettracker/internal/handler"
	"assettracker/internal/middleware"
	"assettracker/internal/sanitize"
	"assettracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stub InventoryService ────────────────────────────────────────────────────

type stubInventoryService struct {
	err        error
	lastAdjust dto.AdjustQuantityRequest
	lastActor  string
	lastFilter dto.AuditFilter
}

func (s *stubInventoryService) Create(_ context.Context, req dto.CreateItemRequest, actor string) (*dto.ItemResponse, error) {
	s.lastActor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ItemResponse{ID: uuid.NewString(), ItemNumber: req.ItemNumber}, nil
}

func (s *stubInventoryService) Get(context.Context, uuid.UUID) (*dto.ItemResponse, error) {
	return nil, s.err
}

func (s *stubInventoryService) List(context.Context, dto.InventoryFilter) ([]dto.ItemResponse, error) {
	return []dto.ItemResponse{}, s.err
}

func (s *stubInventoryService) Update(context.Context, uuid.UUID, dto.UpdateItemRequest, string) (*dto.ItemResponse, error) {
	return &dto.ItemResponse{}, s.err
}

func (s *stubInventoryService) AdjustQuantity(_ context.Context, req dto.AdjustQuantityRequest, actor string) (*dto.ItemResponse, error) {
	s.lastAdjust, s.lastActor = req, actor
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ItemResponse{ItemNumber: req.ItemNumber, CurrentQuantity: 7}, nil
}

func (s *stubInventoryService) Delete(context.Context, uuid.UUID, string) error { return s.err }

func (s *stubInventoryService) ListAudit(_ context.Context, f dto.AuditFilter) (*dto.AuditListResponse, error) {
	s.lastFilter = f
	return &dto.AuditListResponse{Data: []dto.AuditEntryResponse{}, Page: f.Page, Limit: f.Limit}, s.err
}

func (s *stubInventoryService) ListAuditByItem(_ context.Context, _ uuid.UUID, f dto.AuditFilter) (*dto.AuditListResponse, error) {
	return s.ListAudit(context.Background(), f)
}

func (s *stubInventoryService) Dashboard(context.Context) (*dto.DashboardStatsResponse, error) {
	return &dto.DashboardStatsResponse{}, s.err
}

var _ service.InventoryService = (*stubInventoryService)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func inventoryRouter(svc service.InventoryService) *gin.Engine {
	h := handler.NewInventoryHandler(svc)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{Username: "ops", Role: middleware.RoleAdmin})
		c.Next()
	})
	r.POST("/v1/inventory", h.Create)
	r.POST("/v1/inventory/adjust", h.AdjustQuantity)
	r.DELETE("/v1/inventory/:id", h.Delete)
	r.GET("/v1/inventory/:id", h.Get)
	r.GET("/v1/audit", h.ListAudit)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestAdjust_PassesTicketAndActor(t *testing.T) {
	svc := &stubInventoryService{}
	w := do(inventoryRouter(svc), http.MethodPost, "/v1/inventory/adjust",
		`{"itemNumber":"HW-1","quantityChange":-2,"serviceNowTicketUrl":"https://sn/INC9"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "HW-1", svc.lastAdjust.ItemNumber)
	assert.Equal(t, -2, svc.lastAdjust.QuantityChange)
	require.NotNil(t, svc.lastAdjust.TicketURL)
	assert.Equal(t, "https://sn/INC9", *svc.lastAdjust.TicketURL)
	assert.Equal(t, "ops", svc.lastActor)
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrItemNotFound, http.StatusNotFound},
		{service.ErrNegativeQuantity, http.StatusBadRequest},
		{&sanitize.FieldError{Field: "CurrentQuantity", Msg: "must be between 0 and 999999"}, http.StatusUnprocessableEntity},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := do(inventoryRouter(&stubInventoryService{err: tc.err}), http.MethodPost, "/v1/inventory/adjust",
			`{"itemNumber":"HW-1","quantityChange":-2}`)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.NotContains(t, w.Body.String(), "pq:")
	}
}

func TestCreate_ValidationAndConflict(t *testing.T) {
	w := do(inventoryRouter(&stubInventoryService{}), http.MethodPost, "/v1/inventory",
		`{"description":"No number","cost":"10"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "required", body.Fields["ItemNumber"])

	w = do(inventoryRouter(&stubInventoryService{}), http.MethodPost, "/v1/inventory",
		`{"itemNumber":"HW-1","description":"Dock","cost":"-1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	svc := &stubInventoryService{}
	w = do(inventoryRouter(svc), http.MethodPost, "/v1/inventory",
		`{"itemNumber":"HW-1","description":"Dock","cost":"1e2000000000"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "max", body.Fields["Cost"])
	assert.Empty(t, svc.lastActor, "service must not be called")

	w = do(inventoryRouter(&stubInventoryService{err: service.ErrItemExists}), http.MethodPost, "/v1/inventory",
		`{"itemNumber":"HW-1","description":"Dock","cost":"10"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDelete_NoContentAndBadID(t *testing.T) {
	r := inventoryRouter(&stubInventoryService{})
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/v1/inventory/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodDelete, "/v1/inventory/not-a-uuid", "").Code)
}

func TestListAudit_Paging(t *testing.T) {
	svc := &stubInventoryService{}
	r := inventoryRouter(svc)

	w := do(r, http.MethodGet, "/v1/audit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.lastFilter.Page)
	assert.Equal(t, 100, svc.lastFilter.Limit)

	w = do(r, http.MethodGet, "/v1/audit?limit=501", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
