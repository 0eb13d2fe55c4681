package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"assettracker/internal/metrics"
	"assettracker/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLowStock = "jobs:low_stock"

	JobLowStockAlert = "low_stock_alert"

	// MaxAttempts is how many times a job is tried before it goes to the DLQ.
	MaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// LowStockPayload is the body of a low_stock_alert job.
type LowStockPayload struct {
	Items   []model.InventoryItem `json:"items"`
	BaseURL string                `json:"base_url"`
}

// jobQueue is the Redis list surface used by the dispatcher and the pool.
// *redis.Client satisfies it.
type jobQueue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb jobQueue
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// SendLowStockBatch queues the alert instead of sending it, so uploads do
// not wait on SMTP. It satisfies service.Notifier.
func (d *Dispatcher) SendLowStockBatch(ctx context.Context, items []model.InventoryItem, baseURL string) error {
	if len(items) == 0 {
		return nil
	}
	if err := d.enqueue(ctx, QueueLowStock, JobLowStockAlert, LowStockPayload{Items: items, BaseURL: baseURL}); err != nil {
		metrics.NotificationFailures.WithLabelValues("enqueue").Inc()
		return fmt.Errorf("enqueue low-stock alert: %w", err)
	}
	return nil
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// JobHandler processes one job payload. A returned error triggers a retry.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Pool runs a fixed number of goroutines consuming the job queues.
type Pool struct {
	rdb      jobQueue
	size     int
	handlers map[string]JobHandler
	queues   []string
	backoff  func(attempt int) time.Duration
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, size int) *Pool {
	return newPool(rdb, size)
}

func newPool(rdb jobQueue, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		rdb:      rdb,
		size:     size,
		handlers: map[string]JobHandler{},
		queues:   []string{QueueLowStock},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}
}

// Register binds a handler to a job type. Call before Start.
func (p *Pool) Register(jobType string, h JobHandler) {
	p.handlers[jobType] = h
}

// Start launches the workers. Each goroutine blocks on BRPOP, so idle
// workers cost nothing. Workers exit when ctx is cancelled; Wait blocks
// until they have.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", p.size)
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("brpop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

// process runs one job. Failures are re-queued after a backoff until
// MaxAttempts, then dead-lettered. Unknown or undecodable jobs go straight
// to the DLQ.
func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		// Keep the original bytes as a JSON string; they are not valid JSON.
		quoted, _ := json.Marshal(raw)
		p.deadLetter(ctx, queue, Job{Type: "unknown", Payload: quoted}, "invalid job envelope: "+err.Error())
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		p.deadLetter(ctx, queue, job, "no handler registered")
		return
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= MaxAttempts {
		metrics.NotificationFailures.WithLabelValues("dead_letter").Inc()
		p.deadLetter(ctx, queue, job, err.Error())
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, retrying")
	select {
	case <-ctx.Done():
	case <-time.After(p.backoff(job.Attempts)):
	}

	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		log.Error().Err(mErr).Str("type", job.Type).Msg("failed to re-encode job")
		return
	}
	// Re-queue on a fresh context so a shutdown mid-backoff does not drop the job.
	if pErr := p.rdb.LPush(context.WithoutCancel(ctx), queue, encoded).Err(); pErr != nil {
		log.Error().Err(pErr).Str("type", job.Type).Msg("failed to re-queue job")
	}
}
