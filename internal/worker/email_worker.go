package worker

// email_worker.go
// Processes low_stock_alert jobs from QueueLowStock by handing the batch to
// the synchronous notifier (SMTP + PDF attachment).

import (
	"context"
	"encoding/json"
	"fmt"

	"assettracker/internal/service"

	"github.com/rs/zerolog/log"
)

// LowStockWorker delivers queued low-stock alerts.
type LowStockWorker struct {
	notifier service.Notifier
}

// NewLowStockWorker wraps the notifier that actually sends mail. Passing the
// Dispatcher here would loop the job back onto the queue.
func NewLowStockWorker(notifier service.Notifier) *LowStockWorker {
	return &LowStockWorker{notifier: notifier}
}

func (w *LowStockWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload LowStockPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Retrying will not fix a bad payload; log and drop.
		log.Error().Err(err).Msg("low_stock_worker: invalid payload")
		return nil
	}
	if len(payload.Items) == 0 {
		return nil
	}

	if err := w.notifier.SendLowStockBatch(ctx, payload.Items, payload.BaseURL); err != nil {
		return fmt.Errorf("low_stock_worker: %w", err)
	}
	log.Info().Int("items", len(payload.Items)).Msg("low_stock_worker: alert delivered")
	return nil
}
