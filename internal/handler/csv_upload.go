package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"assettracker/internal/apierror"
	"assettracker/internal/middleware"
	"assettracker/internal/service"

	"github.com/gin-gonic/gin"
)

type CSVHandler struct {
	svc      service.CSVService
	maxBytes int64
}

func NewCSVHandler(svc service.CSVService, maxBytes int64) *CSVHandler {
	return &CSVHandler{svc: svc, maxBytes: maxBytes}
}

// Upload godoc
// @Summary      Bulk import inventory from CSV
// @Description  Upserts every row by ItemNumber. Row failures are reported in the body; only an empty or malformed file is rejected.
// @Tags         csv
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "CSV file"
// @Success      200  {object} dto.IngestionResult
// @Failure      400  {object} apierror.APIError
// @Failure      413  {object} apierror.APIError
// @Router       /v1/csv/upload [post]
func (h *CSVHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, apierror.New("file too large"))
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New("no file uploaded"))
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, apierror.New("only CSV files are allowed"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.svc.ProcessUpload(c.Request.Context(), data, middleware.Actor(c))
	switch {
	case errors.Is(err, service.ErrEmptyFile), errors.Is(err, service.ErrMalformedCSV):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	case err != nil:
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Template godoc
// @Summary      Download the CSV upload template
// @Tags         csv
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200
// @Router       /v1/csv/template [get]
func (h *CSVHandler) Template(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename="+service.TemplateFilename)
	c.Data(http.StatusOK, "text/csv", h.svc.Template())
}
