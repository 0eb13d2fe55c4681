package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// DeadLetterPrefix namespaces the per-queue dead letter lists.
const DeadLetterPrefix = "dlq:"

// DeadLetter is what an operator finds in dlq:<queue> after a job gave up.
// For low-stock alerts the affected item numbers are lifted out of the
// payload so the list can be scanned without decoding it.
type DeadLetter struct {
	Queue       string          `json:"queue"`
	JobType     string          `json:"job_type"`
	ItemNumbers []string        `json:"item_numbers,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Reason      string          `json:"reason"`
	Attempts    int             `json:"attempts"`
	FailedAt    time.Time       `json:"failed_at"`
}

func newDeadLetter(queue string, job Job, reason string, now time.Time) DeadLetter {
	dl := DeadLetter{
		Queue:    queue,
		JobType:  job.Type,
		Payload:  job.Payload,
		Reason:   reason,
		Attempts: job.Attempts,
		FailedAt: now.UTC(),
	}
	if job.Type == JobLowStockAlert {
		var p LowStockPayload
		if json.Unmarshal(job.Payload, &p) == nil {
			for _, it := range p.Items {
				dl.ItemNumbers = append(dl.ItemNumbers, it.ItemNumber)
			}
		}
	}
	return dl
}

// deadLetter parks job under dlq:<queue>. The push ignores cancellation so a
// shutdown does not lose the alert.
func (p *Pool) deadLetter(ctx context.Context, queue string, job Job, reason string) {
	dl := newDeadLetter(queue, job, reason, time.Now())
	data, err := json.Marshal(dl)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dead letter: encode failed")
		return
	}
	key := DeadLetterPrefix + queue
	if err := p.rdb.LPush(context.WithoutCancel(ctx), key, data).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Strs("items", dl.ItemNumbers).Msg("dead letter: push failed")
		return
	}
	log.Warn().
		Str("job_type", job.Type).
		Strs("items", dl.ItemNumbers).
		Int("attempts", job.Attempts).
		Str("reason", reason).
		Msg("low-stock job dead-lettered")
}

// DeadLetterDepth reports how many jobs are parked for queue; /health shows it.
func DeadLetterDepth(ctx context.Context, rdb jobQueue, queue string) (int64, error) {
	return rdb.LLen(ctx, DeadLetterPrefix+queue).Result()
}
