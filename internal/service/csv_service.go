package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"assettracker/internal/dto"
	"assettracker/internal/metrics"
	"assettracker/internal/model"
	"assettracker/internal/repository"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultActor is recorded as changedBy when the caller has no identity.
const DefaultActor = "System"

var (
	// ErrEmptyFile means the upload had no header or no data rows.
	ErrEmptyFile = errors.New("CSV file is empty")
	// ErrMalformedCSV wraps the parser error for ragged rows, bad quoting, etc.
	ErrMalformedCSV = errors.New("malformed CSV")
)

var (
	utf8BOM          = []byte{0xEF, 0xBB, 0xBF}
	errUnexpectedRow = errors.New("unexpected error processing row")
)

// Notifier delivers one low-stock alert covering several records.
type Notifier interface {
	SendLowStockBatch(ctx context.Context, items []model.InventoryItem, baseURL string) error
}

// CSVService ingests inventory spreadsheets.
type CSVService interface {
	// ProcessUpload parses data and reconciles every row against the store.
	// A malformed or empty file returns ErrMalformedCSV / ErrEmptyFile and
	// touches nothing; otherwise row failures are reported in the result.
	ProcessUpload(ctx context.Context, data []byte, actor string) (*dto.IngestionResult, error)
	Template() []byte
}

type csvService struct {
	reconciler *RowReconciler
	notifier   Notifier
	baseURL    string
	tracer     trace.Tracer
}

// NewCSVService wires the pipeline. A nil notifier disables alerts.
func NewCSVService(store repository.RecordStore, notifier Notifier, baseURL string) CSVService {
	return &csvService{
		reconciler: NewRowReconciler(store),
		notifier:   notifier,
		baseURL:    baseURL,
		tracer:     otel.Tracer("assettracker/csvimport"),
	}
}

func (s *csvService) Template() []byte { return CSVTemplate() }

// dataRecord is a non-blank CSV record and its 1-based spreadsheet row.
type dataRecord struct {
	row    int
	fields []string
}

// readCSV parses the whole file up front so a malformed record anywhere
// aborts the batch before any row is written.
func readCSV(data []byte) (headerIndex, []dataRecord, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	var records []dataRecord
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if isBlankRecord(rec) {
			continue
		}
		records = append(records, dataRecord{row: len(records) + 2, fields: rec})
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}
	return newHeaderIndex(header), records, nil
}

func (s *csvService) ProcessUpload(ctx context.Context, data []byte, actor string) (*dto.IngestionResult, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	if actor == "" {
		actor = DefaultActor
	}

	ctx, span := s.tracer.Start(ctx, "csvimport.process", trace.WithAttributes(
		attribute.Int("csv.bytes", len(data)),
		attribute.String("csv.actor", actor),
	))
	defer span.End()

	header, records, err := readCSV(data)
	if err != nil {
		label := "malformed"
		if errors.Is(err, ErrEmptyFile) {
			label = "empty"
		}
		metrics.IngestBatches.WithLabelValues(label).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, label)
		return nil, err
	}
	span.SetAttributes(attribute.Int("csv.rows", len(records)))

	result := &dto.IngestionResult{
		Errors:         []string{},
		LowStockAlerts: []dto.LowStockAlert{},
	}
	alerts := newAlertSet()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			metrics.IngestBatches.WithLabelValues("cancelled").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled")
			log.Warn().Err(err).Int("row", rec.row).Int("succeeded", result.SuccessCount).
				Msg("csv import cancelled")
			return nil, err
		}

		out := s.reconcile(ctx, rec.row, header.row(rec.fields), actor)
		metrics.IngestRows.WithLabelValues(string(out.Status)).Inc()

		if !out.Succeeded() {
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", out.Row, out.Err))
			if out.Status == RowStoreError {
				log.Warn().Err(out.Err).Int("row", out.Row).Msg("csv import: store error")
			}
			continue
		}

		result.SuccessCount++
		if out.LowStock {
			result.LowStockAlerts = append(result.LowStockAlerts, dto.LowStockAlert{
				ItemNumber:       out.Item.ItemNumber,
				Description:      out.Item.Description,
				CurrentQuantity:  out.Item.CurrentQuantity,
				MinimumThreshold: out.Item.MinimumThreshold,
			})
			alerts.put(*out.Item)
		}
	}

	span.SetAttributes(
		attribute.Int("csv.succeeded", result.SuccessCount),
		attribute.Int("csv.failed", result.FailureCount),
		attribute.Int("csv.low_stock", len(result.LowStockAlerts)),
	)
	metrics.IngestBatches.WithLabelValues("ok").Inc()
	metrics.LowStockAlerts.Add(float64(len(result.LowStockAlerts)))

	if s.notifier != nil && alerts.len() > 0 {
		if err := s.notifier.SendLowStockBatch(ctx, alerts.items, s.baseURL); err != nil {
			metrics.NotificationFailures.WithLabelValues("send").Inc()
			span.RecordError(err)
			log.Error().Err(err).Int("items", alerts.len()).Msg("csv import: low-stock notification failed")
		}
	}

	log.Info().
		Str("actor", actor).
		Int("rows", len(records)).
		Int("succeeded", result.SuccessCount).
		Int("failed", result.FailureCount).
		Int("low_stock", len(result.LowStockAlerts)).
		Dur("elapsed", time.Since(start)).
		Msg("csv import finished")

	return result, nil
}

// reconcile turns a panic inside one row into a failed outcome so the rest
// of the batch still runs.
func (s *csvService) reconcile(ctx context.Context, rowNum int, row Row, actor string) (out RowOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Int("row", rowNum).Msg("csv import: row panicked")
			out = RowOutcome{Row: rowNum, Status: RowStoreError, Err: errUnexpectedRow}
		}
	}()
	return s.reconciler.Reconcile(ctx, rowNum, row, actor)
}

// alertSet keeps one entry per item number in first-seen order, holding the
// latest state.
type alertSet struct {
	pos   map[string]int
	items []model.InventoryItem
}

func newAlertSet() *alertSet { return &alertSet{pos: map[string]int{}} }

func (a *alertSet) put(item model.InventoryItem) {
	if i, ok := a.pos[item.ItemNumber]; ok {
		a.items[i] = item
		return
	}
	a.pos[item.ItemNumber] = len(a.items)
	a.items = append(a.items, item)
}

func (a *alertSet) len() int { return len(a.items) }
