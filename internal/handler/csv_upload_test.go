package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"assettracker/internal/dto"
	"assettracker/internal/handler"
	"assettracker/internal/middleware"
	"assettracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// ── Stub CSVService ──────────────────────────────────────────────────────────

type stubCSVService struct {
	gotData  []byte
	gotActor string
	result   *dto.IngestionResult
	err      error
}

func (s *stubCSVService) ProcessUpload(_ context.Context, data []byte, actor string) (*dto.IngestionResult, error) {
	s.gotData, s.gotActor = data, actor
	return s.result, s.err
}

func (s *stubCSVService) Template() []byte { return service.CSVTemplate() }

var _ service.CSVService = (*stubCSVService)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func csvRouter(svc service.CSVService, maxBytes int64, claims *middleware.JWTClaims) *gin.Engine {
	h := handler.NewCSVHandler(svc, maxBytes)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ClaimsKey, claims)
		}
		c.Next()
	})
	r.GET("/v1/csv/template", h.Template)
	r.POST("/v1/csv/upload", middleware.RequireRole(middleware.RoleServiceDesk, middleware.RoleAdmin), h.Upload)
	return r
}

func upload(r http.Handler, filename string, content []byte, t *testing.T) *httptest.ResponseRecorder {
	body, ctype := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/v1/csv/upload", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Detail
}

var deskUser = &middleware.JWTClaims{Username: "jdoe", Role: middleware.RoleServiceDesk}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestTemplate_Headers(t *testing.T) {
	r := csvRouter(&stubCSVService{}, 1<<20, deskUser)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/csv/template", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=inventory-template.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, service.CSVTemplate(), w.Body.Bytes())
}

func TestUpload_Success(t *testing.T) {
	svc := &stubCSVService{result: &dto.IngestionResult{
		SuccessCount:   1,
		Errors:         []string{},
		LowStockAlerts: []dto.LowStockAlert{{ItemNumber: "HW-100", Description: "Dock", CurrentQuantity: 3, MinimumThreshold: 5}},
	}}
	content := []byte("ItemNumber,Description\nHW-100,Dock\n")

	w := upload(csvRouter(svc, 1<<20, deskUser), "stock.CSV", content, t)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, content, svc.gotData)
	assert.Equal(t, "jdoe", svc.gotActor)
	assert.JSONEq(t, `{
		"successCount": 1,
		"failureCount": 0,
		"errors": [],
		"lowStockAlerts": [{"itemNumber":"HW-100","description":"Dock","currentQuantity":3,"minimumThreshold":5}]
	}`, w.Body.String())
}

func TestUpload_RejectsNonCSV(t *testing.T) {
	svc := &stubCSVService{}
	w := upload(csvRouter(svc, 1<<20, deskUser), "stock.xlsx", []byte("x"), t)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "only CSV files are allowed", detail(t, w))
	assert.Nil(t, svc.gotData)
}

func TestUpload_MissingFile(t *testing.T) {
	body, ctype := multipartBody(t, "other", "a.csv", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/csv/upload", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	csvRouter(&stubCSVService{}, 1<<20, deskUser).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no file uploaded", detail(t, w))
}

func TestUpload_BatchFatalErrors(t *testing.T) {
	for _, err := range []error{
		service.ErrEmptyFile,
		fmt.Errorf("%w: record on line 3: wrong number of fields", service.ErrMalformedCSV),
	} {
		w := upload(csvRouter(&stubCSVService{err: err}, 1<<20, deskUser), "a.csv", []byte("x"), t)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, err.Error(), detail(t, w))
	}
}

func TestUpload_TooLarge(t *testing.T) {
	w := upload(csvRouter(&stubCSVService{}, 512, deskUser), "a.csv", bytes.Repeat([]byte("a"), 64<<10), t)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUpload_ViewerForbidden(t *testing.T) {
	svc := &stubCSVService{}
	viewer := &middleware.JWTClaims{Username: "v", Role: middleware.RoleViewer}
	w := upload(csvRouter(svc, 1<<20, viewer), "a.csv", []byte("x"), t)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, svc.gotData)
}
